package domain

import "time"

// Region is a detected area normalized to [0,1] relative to the image
// dimensions. Confidence is the upstream detector score, zero when the
// detector does not report one.
type Region struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Area returns the normalized area of the region.
func (r Region) Area() float64 {
	return r.W * r.H
}

// Clamp constrains the region to the unit square.
func (r Region) Clamp() Region {
	r.X = clamp01(r.X)
	r.Y = clamp01(r.Y)
	if r.X+r.W > 1 {
		r.W = 1 - r.X
	}
	if r.Y+r.H > 1 {
		r.H = 1 - r.Y
	}
	if r.W < 0 {
		r.W = 0
	}
	if r.H < 0 {
		r.H = 0
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SaliencyPoint is a single attention point from the upstream saliency map.
type SaliencyPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Weight float64 `json:"weight,omitempty"`
}

// ImageMLMetadata is the per-image, read-only record produced by the
// upstream ML pipeline. It is created once per image, replaced wholesale
// on reprocessing, and never mutated by this service.
type ImageMLMetadata struct {
	ImageID         string          `json:"image_id"`
	ContractVersion int             `json:"contract_version"`
	FaceRegions     []Region        `json:"face_regions"`
	BodyRegions     []Region        `json:"body_regions"`
	InterestRegions []Region        `json:"interest_regions"`
	ExplicitRegions []Region        `json:"explicit_regions"`
	Saliency        []SaliencyPoint `json:"saliency"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasExplicitContent reports whether the upstream detector flagged any
// sensitive region. Nil metadata means no detections are known.
func (m *ImageMLMetadata) HasExplicitContent() bool {
	return m != nil && len(m.ExplicitRegions) > 0
}

// RegionSource identifies which region list the crop strategy used.
const (
	RegionSourceFace           = "face"
	RegionSourceBody           = "body"
	RegionSourceInterest       = "interest"
	RegionSourceExplicit       = "explicit"
	RegionSourceCenter         = "center"
	RegionSourceCenterFallback = "center-fallback"
)

// CropResolution is the crop strategy output: one normalized rectangle
// plus the region list it came from, retained for observability.
type CropResolution struct {
	Rect         Region
	RegionSource string
}

// EnforcedPolicy is the combined blur/watermark decision, guaranteed at
// least as strict as the safety floor for the request context.
type EnforcedPolicy struct {
	BlurMode      BlurMode
	WatermarkKind WatermarkKind
}

// CachedArtifact is one rendered transform as stored by the cache store.
// Eviction is the store's concern; this service only reads and writes.
type CachedArtifact struct {
	Bytes       []byte    `json:"bytes"`
	ContentType string    `json:"content_type"`
	CacheKey    string    `json:"cache_key"`
	CreatedAt   time.Time `json:"created_at"`
	TTL         time.Duration
}

// ServeMetrics is the per-request observability record emitted to the
// external metrics collaborator. Nothing here is persisted.
type ServeMetrics struct {
	ImageID      string
	Preset       string
	CacheHit     bool
	RegionSource string
	BlurMode     BlurMode
	LatencyMs    int64
}
