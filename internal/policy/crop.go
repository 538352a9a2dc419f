package policy

import (
	"github.com/pixshare/imageserve/internal/domain"
)

// fullFrame is the center-fallback rectangle: no crop, framing is left
// to the fit mode.
var fullFrame = domain.Region{X: 0, Y: 0, W: 1, H: 1}

// ResolveCrop selects the normalized crop rectangle for the request.
// Missing or version-skewed metadata and empty region lists all degrade
// to the full-frame rectangle; that path is expected for freshly
// uploaded images, not an error.
func ResolveCrop(params domain.ImageURLParams, metadata *domain.ImageMLMetadata) domain.CropResolution {
	if params.Crop == domain.CropCenter {
		return domain.CropResolution{Rect: fullFrame, RegionSource: domain.RegionSourceCenter}
	}

	if metadata == nil || metadata.ContractVersion != domain.ContractVersion {
		return centerFallback()
	}

	var regions []domain.Region
	var source string
	switch params.Crop {
	case domain.CropFace:
		regions, source = metadata.FaceRegions, domain.RegionSourceFace
	case domain.CropBody:
		regions, source = metadata.BodyRegions, domain.RegionSourceBody
	case domain.CropInterest:
		regions, source = metadata.InterestRegions, domain.RegionSourceInterest
	case domain.CropExplicit:
		regions, source = metadata.ExplicitRegions, domain.RegionSourceExplicit
	default:
		return centerFallback()
	}

	if len(regions) == 0 {
		return centerFallback()
	}

	return domain.CropResolution{
		Rect:         pickRegion(regions).Clamp(),
		RegionSource: source,
	}
}

// pickRegion selects the highest-confidence region; ties break by larger
// area, then by slice order. The scan is over the slice, never a map, so
// the choice is stable.
func pickRegion(regions []domain.Region) domain.Region {
	best := regions[0]
	for _, r := range regions[1:] {
		if r.Confidence > best.Confidence {
			best = r
			continue
		}
		if r.Confidence == best.Confidence && r.Area() > best.Area() {
			best = r
		}
	}
	return best
}

func centerFallback() domain.CropResolution {
	return domain.CropResolution{Rect: fullFrame, RegionSource: domain.RegionSourceCenterFallback}
}
