package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixshare/imageserve/internal/domain"
)

func fullMetadata() *domain.ImageMLMetadata {
	return &domain.ImageMLMetadata{
		ImageID:         "img-1",
		ContractVersion: domain.ContractVersion,
		FaceRegions: []domain.Region{
			{X: 0.1, Y: 0.1, W: 0.2, H: 0.2, Confidence: 0.7},
			{X: 0.5, Y: 0.5, W: 0.3, H: 0.3, Confidence: 0.9},
		},
		BodyRegions:     []domain.Region{{X: 0.1, Y: 0.1, W: 0.6, H: 0.8, Confidence: 0.8}},
		InterestRegions: []domain.Region{{X: 0.3, Y: 0.3, W: 0.4, H: 0.4, Confidence: 0.6}},
		ExplicitRegions: []domain.Region{{X: 0.2, Y: 0.2, W: 0.2, H: 0.2, Confidence: 0.95}},
	}
}

func TestCenterCropIgnoresMetadata(t *testing.T) {
	res := ResolveCrop(domain.ImageURLParams{Crop: domain.CropCenter}, fullMetadata())

	assert.Equal(t, domain.RegionSourceCenter, res.RegionSource)
	assert.Equal(t, domain.Region{X: 0, Y: 0, W: 1, H: 1}, res.Rect)
}

func TestRegionCropPicksHighestConfidence(t *testing.T) {
	res := ResolveCrop(domain.ImageURLParams{Crop: domain.CropFace}, fullMetadata())

	assert.Equal(t, domain.RegionSourceFace, res.RegionSource)
	assert.Equal(t, 0.5, res.Rect.X)
	assert.Equal(t, 0.3, res.Rect.W)
}

func TestConfidenceTieBreaksByArea(t *testing.T) {
	md := &domain.ImageMLMetadata{
		ImageID:         "img-1",
		ContractVersion: domain.ContractVersion,
		FaceRegions: []domain.Region{
			{X: 0.0, Y: 0.0, W: 0.2, H: 0.2, Confidence: 0.8},
			{X: 0.4, Y: 0.4, W: 0.5, H: 0.5, Confidence: 0.8},
		},
	}

	res := ResolveCrop(domain.ImageURLParams{Crop: domain.CropFace}, md)
	assert.Equal(t, 0.5, res.Rect.W)
}

func TestFullTieKeepsFirstRegion(t *testing.T) {
	md := &domain.ImageMLMetadata{
		ImageID:         "img-1",
		ContractVersion: domain.ContractVersion,
		FaceRegions: []domain.Region{
			{X: 0.1, Y: 0.1, W: 0.3, H: 0.3, Confidence: 0.8},
			{X: 0.6, Y: 0.6, W: 0.3, H: 0.3, Confidence: 0.8},
		},
	}

	res := ResolveCrop(domain.ImageURLParams{Crop: domain.CropFace}, md)
	assert.Equal(t, 0.1, res.Rect.X)
}

func TestNilMetadataFallsBackToCenter(t *testing.T) {
	for _, mode := range []domain.CropMode{domain.CropFace, domain.CropBody, domain.CropInterest, domain.CropExplicit} {
		res := ResolveCrop(domain.ImageURLParams{Crop: mode}, nil)
		assert.Equalf(t, domain.RegionSourceCenterFallback, res.RegionSource, "mode %s", mode)
		assert.Equal(t, domain.Region{X: 0, Y: 0, W: 1, H: 1}, res.Rect)
	}
}

func TestEmptyRegionListFallsBackToCenter(t *testing.T) {
	md := &domain.ImageMLMetadata{ImageID: "img-1", ContractVersion: domain.ContractVersion}

	res := ResolveCrop(domain.ImageURLParams{Crop: domain.CropInterest}, md)
	assert.Equal(t, domain.RegionSourceCenterFallback, res.RegionSource)
}

func TestVersionSkewFallsBackToCenter(t *testing.T) {
	md := fullMetadata()
	md.ContractVersion = domain.ContractVersion + 1

	res := ResolveCrop(domain.ImageURLParams{Crop: domain.CropFace}, md)
	assert.Equal(t, domain.RegionSourceCenterFallback, res.RegionSource)
}

func TestOutOfBoundsRegionClamped(t *testing.T) {
	md := &domain.ImageMLMetadata{
		ImageID:         "img-1",
		ContractVersion: domain.ContractVersion,
		FaceRegions:     []domain.Region{{X: 0.8, Y: 0.8, W: 0.5, H: 0.5, Confidence: 0.9}},
	}

	res := ResolveCrop(domain.ImageURLParams{Crop: domain.CropFace}, md)
	assert.LessOrEqual(t, res.Rect.X+res.Rect.W, 1.0)
	assert.LessOrEqual(t, res.Rect.Y+res.Rect.H, 1.0)
}

func TestResolveCropIdempotent(t *testing.T) {
	md := fullMetadata()
	params := domain.ImageURLParams{Crop: domain.CropBody}

	first := ResolveCrop(params, md)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ResolveCrop(params, md))
	}
}
