package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixshare/imageserve/internal/domain"
)

func explicitMetadata() *domain.ImageMLMetadata {
	return &domain.ImageMLMetadata{
		ImageID:         "img-1",
		ContractVersion: domain.ContractVersion,
		ExplicitRegions: []domain.Region{{X: 0.2, Y: 0.2, W: 0.4, H: 0.4, Confidence: 0.9}},
	}
}

func TestPublicExplicitNeverBelowFloor(t *testing.T) {
	rules := DefaultBlurRules()
	md := explicitMetadata()

	for _, requested := range []domain.BlurMode{domain.BlurNone, domain.BlurEyes, domain.BlurFace, domain.BlurFull} {
		params := domain.ImageURLParams{
			Context:   domain.ContextPublic,
			Blur:      requested,
			BlurFloor: domain.BlurNone,
		}
		got := rules.ResolveBlur(params, md)
		assert.Falsef(t, got.WeakerThan(rules.PublicExplicitFloor),
			"requested %s resolved to %s, below the floor", requested, got)
	}
}

func TestPublicExplicitStrongerRequestWins(t *testing.T) {
	rules := DefaultBlurRules()
	params := domain.ImageURLParams{Context: domain.ContextPublic, Blur: domain.BlurFull}

	assert.Equal(t, domain.BlurFull, rules.ResolveBlur(params, explicitMetadata()))
}

func TestPrivateContextHonorsRequest(t *testing.T) {
	rules := DefaultBlurRules()
	params := domain.ImageURLParams{Context: domain.ContextPrivate, Blur: domain.BlurNone}

	assert.Equal(t, domain.BlurNone, rules.ResolveBlur(params, explicitMetadata()))
}

func TestNoExplicitContentHonorsRequest(t *testing.T) {
	rules := DefaultBlurRules()
	md := &domain.ImageMLMetadata{ImageID: "img-1", ContractVersion: domain.ContractVersion}

	params := domain.ImageURLParams{Context: domain.ContextPublic, Blur: domain.BlurNone}
	assert.Equal(t, domain.BlurNone, rules.ResolveBlur(params, md))
}

func TestNilMetadataHonorsRequest(t *testing.T) {
	rules := DefaultBlurRules()
	params := domain.ImageURLParams{Context: domain.ContextPublic, Blur: domain.BlurEyes}

	assert.Equal(t, domain.BlurEyes, rules.ResolveBlur(params, nil))
}

func TestPresetFloorFoldedIn(t *testing.T) {
	rules := DefaultBlurRules()
	params := domain.ImageURLParams{
		Context:   domain.ContextPublic,
		Blur:      domain.BlurNone,
		BlurFloor: domain.BlurEyes,
	}

	// No explicit content, so only the preset floor applies.
	md := &domain.ImageMLMetadata{ImageID: "img-1", ContractVersion: domain.ContractVersion}
	assert.Equal(t, domain.BlurEyes, rules.ResolveBlur(params, md))
}

func TestConfiguredFloorTightens(t *testing.T) {
	rules := BlurRules{PublicExplicitFloor: domain.BlurFull}
	params := domain.ImageURLParams{Context: domain.ContextPublic, Blur: domain.BlurFace}

	assert.Equal(t, domain.BlurFull, rules.ResolveBlur(params, explicitMetadata()))
}

func TestResolveBlurIsPure(t *testing.T) {
	rules := DefaultBlurRules()
	params := domain.ImageURLParams{Context: domain.ContextPublic, Blur: domain.BlurNone}
	md := explicitMetadata()

	first := rules.ResolveBlur(params, md)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, rules.ResolveBlur(params, md))
	}
}
