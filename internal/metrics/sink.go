package metrics

import (
	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/domain"
)

// Sink receives one record per served request. It is consumed by the
// external metrics collaborator; nothing is persisted here.
type Sink interface {
	ObserveServe(m domain.ServeMetrics)
}

// ZlogSink emits serve metrics as structured log events.
type ZlogSink struct{}

func NewZlogSink() ZlogSink {
	return ZlogSink{}
}

func (ZlogSink) ObserveServe(m domain.ServeMetrics) {
	zlog.Logger.Info().
		Str("image_id", m.ImageID).
		Str("preset", m.Preset).
		Bool("cache_hit", m.CacheHit).
		Str("region_source", m.RegionSource).
		Str("blur_mode", string(m.BlurMode)).
		Int64("latency_ms", m.LatencyMs).
		Msg("transform served")
}

// NopSink discards all observations.
type NopSink struct{}

func (NopSink) ObserveServe(domain.ServeMetrics) {}
