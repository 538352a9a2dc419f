package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/singleflight"

	"github.com/pixshare/imageserve/internal/cachekey"
	"github.com/pixshare/imageserve/internal/contract"
	"github.com/pixshare/imageserve/internal/domain"
	"github.com/pixshare/imageserve/internal/infrastructure/storage"
	"github.com/pixshare/imageserve/internal/metrics"
	"github.com/pixshare/imageserve/internal/policy"
)

// TransformUsecase is the orchestrator: parse, resolve policy, hit the
// cache, render on miss. All policy stages are pure; the only shared
// mutable state is the external cache store, which serializes its own
// writes. Concurrent misses for one key coalesce into a single render
// via singleflight. That is a cost optimization, not a correctness
// requirement, since renders are deterministic.
type TransformUsecase struct {
	parser    *contract.Parser
	blurRules policy.BlurRules
	metadata  domain.MetadataSource
	originals domain.OriginalStore
	cache     domain.ArtifactCache
	renderer  domain.Renderer
	sink      metrics.Sink
	strategy  retry.Strategy
	ttl       time.Duration
	brandText string

	group singleflight.Group
}

func NewTransformUsecase(
	parser *contract.Parser,
	blurRules policy.BlurRules,
	metadata domain.MetadataSource,
	originals domain.OriginalStore,
	cache domain.ArtifactCache,
	renderer domain.Renderer,
	sink metrics.Sink,
	strategy retry.Strategy,
	ttl time.Duration,
	brandText string,
) *TransformUsecase {
	return &TransformUsecase{
		parser:    parser,
		blurRules: blurRules,
		metadata:  metadata,
		originals: originals,
		cache:     cache,
		renderer:  renderer,
		sink:      sink,
		strategy:  strategy,
		ttl:       ttl,
		brandText: brandText,
	}
}

func (u *TransformUsecase) Serve(ctx context.Context, imageID string, raw map[string]string, opts domain.ServeOptions) (*domain.CachedArtifact, error) {
	start := time.Now()

	params, err := u.parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	metadata, err := u.fetchMetadata(ctx, imageID)
	if err != nil {
		return nil, err
	}

	crop := policy.ResolveCrop(params, metadata)
	enforced := policy.Resolve(u.blurRules, params, metadata, opts.OwnerView)
	key := cachekey.ForTransform(imageID, params, crop, enforced)

	if artifact := u.cacheGet(ctx, key); artifact != nil {
		u.observe(imageID, params, crop, enforced, true, start)
		return artifact, nil
	}

	result, err, shared := u.group.Do(key, func() (interface{}, error) {
		return u.renderAndStore(ctx, imageID, key, params, crop, enforced, metadata)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zlog.Logger.Debug().Str("cache_key", key).Msg("render shared with concurrent request")
	}

	u.observe(imageID, params, crop, enforced, false, start)
	return result.(*domain.CachedArtifact), nil
}

func (u *TransformUsecase) renderAndStore(
	ctx context.Context,
	imageID, key string,
	params domain.ImageURLParams,
	crop domain.CropResolution,
	enforced domain.EnforcedPolicy,
	metadata *domain.ImageMLMetadata,
) (*domain.CachedArtifact, error) {
	original, err := u.fetchOriginal(ctx, imageID)
	if err != nil {
		return nil, err
	}

	plan := domain.RenderPlan{
		Params:        params,
		Crop:          crop,
		Policy:        enforced,
		Metadata:      metadata,
		WatermarkText: u.watermarkText(imageID, enforced.WatermarkKind),
	}

	result, err := u.renderer.Render(ctx, original, plan)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Str("cache_key", key).Msg("render failed")
		return nil, fmt.Errorf("render %s: %w", imageID, err)
	}

	artifact := &domain.CachedArtifact{
		Bytes:       result.Bytes,
		ContentType: result.ContentType,
		CacheKey:    key,
		CreatedAt:   time.Now(),
		TTL:         u.ttl,
	}

	// The write-back survives a cancelled viewer: the artifact is already
	// rendered and the next viewer should hit the cache. A failed put is
	// logged but never fails the response.
	putCtx := context.WithoutCancel(ctx)
	if err := u.cache.Put(putCtx, key, artifact, u.ttl); err != nil {
		zlog.Logger.Error().Err(err).Str("cache_key", key).Msg("cache write failed, serving fresh bytes anyway")
	}

	return artifact, nil
}

// fetchMetadata reads the ML metadata, retrying transient failures.
// Absence is expected (freshly uploaded images) and returns nil. A store
// that stays down is an error: guessing "no explicit regions" on a blind
// read could leak sensitive content unblurred.
func (u *TransformUsecase) fetchMetadata(ctx context.Context, imageID string) (*domain.ImageMLMetadata, error) {
	var md *domain.ImageMLMetadata
	var absent bool

	err := retry.Do(func() error {
		m, err := u.metadata.Get(ctx, imageID)
		if errors.Is(err, domain.ErrMetadataNotFound) {
			absent = true
			return nil
		}
		if err != nil {
			return err
		}
		md = m
		return nil
	}, u.strategy)

	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("metadata store unavailable")
		return nil, fmt.Errorf("%w: metadata for %s: %v", domain.ErrUpstreamUnavailable, imageID, err)
	}
	if absent {
		zlog.Logger.Info().Str("image_id", imageID).Msg("no ml metadata, degrading to safe defaults")
		return nil, nil
	}
	return md, nil
}

func (u *TransformUsecase) fetchOriginal(ctx context.Context, imageID string) ([]byte, error) {
	var data []byte
	var notFound bool

	err := retry.Do(func() error {
		b, err := u.originals.Get(ctx, imageID)
		if errors.Is(err, storage.ErrObjectNotFound) {
			notFound = true
			return nil
		}
		if err != nil {
			return err
		}
		data = b
		return nil
	}, u.strategy)

	if notFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrOriginalNotFound, imageID)
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("original store unavailable")
		return nil, fmt.Errorf("%w: original for %s: %v", domain.ErrUpstreamUnavailable, imageID, err)
	}
	return data, nil
}

// cacheGet treats store failures as a miss: a flaky cache must not take
// down the serve path when a fresh render can answer instead.
func (u *TransformUsecase) cacheGet(ctx context.Context, key string) *domain.CachedArtifact {
	artifact, err := u.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			zlog.Logger.Warn().Err(err).Str("cache_key", key).Msg("cache read failed, treating as miss")
		}
		return nil
	}
	return artifact
}

func (u *TransformUsecase) watermarkText(imageID string, kind domain.WatermarkKind) string {
	if kind == domain.WatermarkUser {
		// The owner handle lives with the profile service; the image id
		// is the attribution available on this path.
		return "@" + imageID
	}
	return u.brandText
}

func (u *TransformUsecase) observe(
	imageID string,
	params domain.ImageURLParams,
	crop domain.CropResolution,
	enforced domain.EnforcedPolicy,
	hit bool,
	start time.Time,
) {
	u.sink.ObserveServe(domain.ServeMetrics{
		ImageID:      imageID,
		Preset:       params.Preset,
		CacheHit:     hit,
		RegionSource: crop.RegionSource,
		BlurMode:     enforced.BlurMode,
		LatencyMs:    time.Since(start).Milliseconds(),
	})
}
