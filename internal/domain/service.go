package domain

import (
	"context"
	"time"
)

// TransformService is the outbound surface of the core: one effective
// transform of one image, served from cache or freshly rendered.
type TransformService interface {
	Serve(ctx context.Context, imageID string, raw map[string]string, opts ServeOptions) (*CachedArtifact, error)
}

// ServeOptions carries request facts decided outside the core (the HTTP
// layer's auth middleware sets OwnerView; auth itself is not this
// service's concern).
type ServeOptions struct {
	OwnerView bool
}

// MetadataSource looks up the upstream ML region metadata for an image.
// Absence is not an error condition for callers: the pipeline degrades
// to safe defaults, so implementations signal it with ErrMetadataNotFound
// and the orchestrator swallows it.
type MetadataSource interface {
	Get(ctx context.Context, imageID string) (*ImageMLMetadata, error)
}

// OriginalStore fetches original image bytes by storage key.
type OriginalStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ArtifactCache persists rendered transforms. Get returns ErrCacheMiss
// when the key is absent; eviction and TTL expiry belong to the store.
type ArtifactCache interface {
	Get(ctx context.Context, key string) (*CachedArtifact, error)
	Put(ctx context.Context, key string, artifact *CachedArtifact, ttl time.Duration) error
}

// RenderPlan is everything the renderer needs to produce output bytes:
// the validated request, the resolved crop, the enforced policy and the
// region metadata the blur pass masks against.
type RenderPlan struct {
	Params        ImageURLParams
	Crop          CropResolution
	Policy        EnforcedPolicy
	Metadata      *ImageMLMetadata
	WatermarkText string
}

// RenderResult is the rendered output with its final dimensions.
type RenderResult struct {
	Bytes       []byte
	ContentType string
	Width       int
	Height      int
}

// Renderer applies the computed transform plan to original bytes. It is
// the image-processing capability boundary: the core decides what to
// apply, the renderer decides how to convolve pixels.
type Renderer interface {
	Render(ctx context.Context, original []byte, plan RenderPlan) (*RenderResult, error)
}

// WarmQueue publishes cache-warm tasks for asynchronous pre-rendering.
type WarmQueue interface {
	PublishWarmTask(ctx context.Context, imageID string, presets []string) error
	Close() error
}
