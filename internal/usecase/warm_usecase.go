package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/contract"
	"github.com/pixshare/imageserve/internal/domain"
)

// WarmUsecase pre-renders preset variants so the first viewer of a new
// image hits the cache. It runs the exact serve path; a warm render and
// a live render of the same preset are byte-identical by construction.
type WarmUsecase struct {
	transform      domain.TransformService
	defaultPresets []string
}

func NewWarmUsecase(transform domain.TransformService, defaultPresets []string) *WarmUsecase {
	return &WarmUsecase{
		transform:      transform,
		defaultPresets: defaultPresets,
	}
}

// WarmImage renders each named preset (or the configured default set).
// A missing original aborts the whole task; other per-preset failures
// are collected so one bad preset does not starve the rest.
func (u *WarmUsecase) WarmImage(ctx context.Context, imageID string, presets []string) error {
	if len(presets) == 0 {
		presets = u.defaultPresets
	}

	var failed []error
	for _, preset := range presets {
		raw := map[string]string{contract.ParamPreset: preset}

		_, err := u.transform.Serve(ctx, imageID, raw, domain.ServeOptions{})
		if err != nil {
			if errors.Is(err, domain.ErrOriginalNotFound) {
				zlog.Logger.Warn().Str("image_id", imageID).Msg("original gone, abandoning warm task")
				return fmt.Errorf("warm %s: %w", imageID, err)
			}
			zlog.Logger.Error().
				Err(err).
				Str("image_id", imageID).
				Str("preset", preset).
				Msg("preset warm failed")
			failed = append(failed, fmt.Errorf("preset %s: %w", preset, err))
			continue
		}

		zlog.Logger.Info().
			Str("image_id", imageID).
			Str("preset", preset).
			Msg("preset warmed")
	}

	return errors.Join(failed...)
}
