package policy

import (
	"github.com/pixshare/imageserve/internal/domain"
)

// BlurRules is the safety floor table. It is policy data, constructed
// once at startup from configuration, so the floor can be tightened
// without a code change.
type BlurRules struct {
	// PublicExplicitFloor is the minimum blur for an image with explicit
	// regions served in a public context.
	PublicExplicitFloor domain.BlurMode
}

// DefaultBlurRules returns the shipped floor table: explicit content
// shown publicly is blurred at least at face strength.
func DefaultBlurRules() BlurRules {
	return BlurRules{PublicExplicitFloor: domain.BlurFace}
}

// ResolveBlur computes the enforced blur mode. The result is never
// weaker than the safety floor: an image with explicit regions viewed
// publicly blurs at PublicExplicitFloor or stronger no matter what the
// caller asked for. A weaker request is silently overridden, not
// rejected: the request is still served, just protected.
//
// The function is pure: it consults nothing beyond (params, metadata).
func (r BlurRules) ResolveBlur(params domain.ImageURLParams, metadata *domain.ImageMLMetadata) domain.BlurMode {
	floor := domain.BlurNone
	if params.Context == domain.ContextPublic && metadata.HasExplicitContent() {
		floor = r.PublicExplicitFloor
	}
	floor = domain.StrongerBlur(floor, params.BlurFloor)
	return domain.StrongerBlur(params.Blur, floor)
}
