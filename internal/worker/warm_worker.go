package worker

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/dto"
	"github.com/pixshare/imageserve/internal/usecase"
)

// WarmWorker consumes warm tasks from the queue and drives the warm
// usecase.
type WarmWorker struct {
	warm *usecase.WarmUsecase
}

func NewWarmWorker(warm *usecase.WarmUsecase) *WarmWorker {
	return &WarmWorker{warm: warm}
}

func (w *WarmWorker) HandleWarmTask(ctx context.Context, task *dto.WarmImageTask) error {
	zlog.Logger.Info().
		Str("task_id", task.TaskID).
		Str("image_id", task.ImageID).
		Strs("presets", task.Presets).
		Msg("starting warm task")

	if err := w.warm.WarmImage(ctx, task.ImageID, task.Presets); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("task_id", task.TaskID).
			Str("image_id", task.ImageID).
			Msg("warm task failed")
		return fmt.Errorf("warm image %s: %w", task.ImageID, err)
	}

	zlog.Logger.Info().
		Str("task_id", task.TaskID).
		Str("image_id", task.ImageID).
		Msg("warm task completed")
	return nil
}
