package policy

import (
	"github.com/pixshare/imageserve/internal/domain"
)

// ResolveWatermark decides which watermark to composite. An explicit
// request for no watermark is honored only for a verified owner view or
// for presets sanctioned to ship unwatermarked output (link previews);
// anyone else falls back to the brand mark.
func ResolveWatermark(params domain.ImageURLParams, isOwnerView bool) domain.WatermarkKind {
	if params.Watermark == domain.WatermarkNone {
		if isOwnerView || params.AllowNoWatermark {
			return domain.WatermarkNone
		}
		return domain.WatermarkBrand
	}
	return params.Watermark
}

// Resolve combines the blur and watermark decisions into the enforced
// policy handed to the cache key builder and the renderer.
func Resolve(rules BlurRules, params domain.ImageURLParams, metadata *domain.ImageMLMetadata, isOwnerView bool) domain.EnforcedPolicy {
	return domain.EnforcedPolicy{
		BlurMode:      rules.ResolveBlur(params, metadata),
		WatermarkKind: ResolveWatermark(params, isOwnerView),
	}
}
