package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixshare/imageserve/internal/domain"
)

func TestNoneRequestFromStrangerBecomesBrand(t *testing.T) {
	params := domain.ImageURLParams{Watermark: domain.WatermarkNone}
	assert.Equal(t, domain.WatermarkBrand, ResolveWatermark(params, false))
}

func TestNoneRequestFromOwnerHonored(t *testing.T) {
	params := domain.ImageURLParams{Watermark: domain.WatermarkNone}
	assert.Equal(t, domain.WatermarkNone, ResolveWatermark(params, true))
}

func TestSanctionedPresetMayDropWatermark(t *testing.T) {
	params := domain.ImageURLParams{Watermark: domain.WatermarkNone, AllowNoWatermark: true}
	assert.Equal(t, domain.WatermarkNone, ResolveWatermark(params, false))
}

func TestExplicitKindsPassThrough(t *testing.T) {
	for _, kind := range []domain.WatermarkKind{domain.WatermarkBrand, domain.WatermarkUser} {
		params := domain.ImageURLParams{Watermark: kind}
		assert.Equal(t, kind, ResolveWatermark(params, false))
		assert.Equal(t, kind, ResolveWatermark(params, true))
	}
}

func TestResolveCombinesBlurAndWatermark(t *testing.T) {
	rules := DefaultBlurRules()
	params := domain.ImageURLParams{
		Context:   domain.ContextPublic,
		Blur:      domain.BlurNone,
		Watermark: domain.WatermarkNone,
	}

	enforced := Resolve(rules, params, explicitMetadata(), false)

	assert.Equal(t, domain.BlurFace, enforced.BlurMode)
	assert.Equal(t, domain.WatermarkBrand, enforced.WatermarkKind)
}
