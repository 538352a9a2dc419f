package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/domain"
)

// blurBoxPadding widens every blur box so the protected area survives
// resampling and whatever scaling the client applies afterwards.
const blurBoxPadding = 0.12

// ImageRenderer applies a resolved transform plan with the imaging
// library. Composition order is fixed: crop before resize, blur and
// watermark after resize, since blurring at output resolution is cheaper
// and policy-correct.
type ImageRenderer struct {
	cfg *config.TransformConfig
}

func NewImageRenderer(cfg *config.TransformConfig) *ImageRenderer {
	opacity := cfg.WatermarkOpacity
	if opacity < 1 || opacity > 100 {
		zlog.Logger.Warn().Int("watermark_opacity", opacity).Msg("Invalid watermark opacity, using default")
		cfg.WatermarkOpacity = 40
	}
	zlog.Logger.Info().
		Str("brand_text", cfg.BrandWatermarkText).
		Int("watermark_opacity", cfg.WatermarkOpacity).
		Msg("ImageRenderer initialized")
	return &ImageRenderer{cfg: cfg}
}

func (r *ImageRenderer) Render(ctx context.Context, original []byte, plan domain.RenderPlan) (*domain.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode original")
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrRenderFailed, err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("%w: decoded image is empty", domain.ErrRenderFailed)
	}

	cropped, cropBox := applyCrop(img, plan.Crop.Rect)
	resized := applyFit(cropped, plan.Params)
	blurred := r.applyBlur(resized, cropBox, img.Bounds(), plan)
	marked := r.applyWatermark(blurred, plan)

	outW := marked.Bounds().Dx()
	outH := marked.Bounds().Dy()
	if outW == 0 || outH == 0 {
		return nil, fmt.Errorf("%w: rendered image is empty", domain.ErrRenderFailed)
	}

	data, contentType, err := encode(marked, plan.Params)
	if err != nil {
		return nil, err
	}

	zlog.Logger.Info().
		Int("width", outW).
		Int("height", outH).
		Str("fit", string(plan.Params.Fit)).
		Str("blur_mode", string(plan.Policy.BlurMode)).
		Str("watermark", string(plan.Policy.WatermarkKind)).
		Int("bytes", len(data)).
		Msg("transform rendered")

	return &domain.RenderResult{
		Bytes:       data,
		ContentType: contentType,
		Width:       outW,
		Height:      outH,
	}, nil
}

// applyCrop cuts the normalized rectangle out of the source and returns
// the pixel box that was kept, needed later to remap blur regions.
func applyCrop(img image.Image, rect domain.Region) (image.Image, image.Rectangle) {
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	box := image.Rect(
		bounds.Min.X+int(rect.X*w),
		bounds.Min.Y+int(rect.Y*h),
		bounds.Min.X+int((rect.X+rect.W)*w),
		bounds.Min.Y+int((rect.Y+rect.H)*h),
	)
	if box.Dx() <= 0 || box.Dy() <= 0 {
		return img, bounds
	}
	if box == bounds {
		return img, bounds
	}
	return imaging.Crop(img, box), box
}

func applyFit(img image.Image, params domain.ImageURLParams) image.Image {
	w, h := params.Width, params.Height
	switch params.Fit {
	case domain.FitCover:
		return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	case domain.FitContain:
		return imaging.Fit(img, w, h, imaging.Lanczos)
	case domain.FitFill:
		return imaging.Resize(img, w, h, imaging.Lanczos)
	case domain.FitInside:
		if img.Bounds().Dx() <= w && img.Bounds().Dy() <= h {
			return img
		}
		return imaging.Fit(img, w, h, imaging.Lanczos)
	default:
		return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	}
}

// applyBlur enforces the resolved blur mode on the resized image. Region
// boxes are remapped from original-image space through the crop and fit
// transforms. If a regional mode has no resolvable boxes the whole frame
// is blurred instead: the policy promised protection and a lost box must
// not mean a leak.
func (r *ImageRenderer) applyBlur(img image.Image, cropBox image.Rectangle, origBounds image.Rectangle, plan domain.RenderPlan) image.Image {
	mode := plan.Policy.BlurMode
	if mode == domain.BlurNone {
		return img
	}
	if mode == domain.BlurFull {
		return blurFull(img)
	}

	boxes := blurTargets(plan, mode)
	if len(boxes) == 0 {
		return blurFull(img)
	}

	out := imaging.Clone(img)
	applied := 0
	for _, region := range boxes {
		box := remapRegion(region, cropBox, origBounds, img.Bounds(), plan.Params.Fit)
		if box.Empty() {
			continue
		}
		patch := imaging.Crop(out, box)
		sigma := blurSigma(box)
		patch = imaging.Blur(patch, sigma)
		out = imaging.Paste(out, patch, box.Min)
		applied++
	}
	if applied == 0 {
		// Every region fell outside the visible frame; the content may
		// still be partially visible at the edges, so protect everything.
		return blurFull(img)
	}
	return out
}

// blurTargets collects the regions the blur mode must hide: faces for
// eye and face blur, plus every explicit region so sensitive areas never
// leave unblurred.
func blurTargets(plan domain.RenderPlan, mode domain.BlurMode) []domain.Region {
	if plan.Metadata == nil {
		return nil
	}
	var boxes []domain.Region
	for _, face := range plan.Metadata.FaceRegions {
		if mode == domain.BlurEyes {
			boxes = append(boxes, eyeBand(face))
		} else {
			boxes = append(boxes, face)
		}
	}
	boxes = append(boxes, plan.Metadata.ExplicitRegions...)
	return boxes
}

// eyeBand is the horizontal strip of a face box where eyes sit.
func eyeBand(face domain.Region) domain.Region {
	return domain.Region{
		X:          face.X,
		Y:          face.Y + 0.20*face.H,
		W:          face.W,
		H:          0.28 * face.H,
		Confidence: face.Confidence,
	}
}

// remapRegion translates a normalized original-space region into output
// pixel coordinates, through the crop box and the fit transform, padded
// and clamped to the output bounds.
func remapRegion(region domain.Region, cropBox, origBounds, outBounds image.Rectangle, fit domain.FitMode) image.Rectangle {
	ow := float64(origBounds.Dx())
	oh := float64(origBounds.Dy())

	// Original space, pixels.
	x0 := region.X * ow
	y0 := region.Y * oh
	x1 := (region.X + region.W) * ow
	y1 := (region.Y + region.H) * oh

	// Crop space.
	cx0 := x0 - float64(cropBox.Min.X-origBounds.Min.X)
	cy0 := y0 - float64(cropBox.Min.Y-origBounds.Min.Y)
	cx1 := x1 - float64(cropBox.Min.X-origBounds.Min.X)
	cy1 := y1 - float64(cropBox.Min.Y-origBounds.Min.Y)

	cw := float64(cropBox.Dx())
	ch := float64(cropBox.Dy())
	tw := float64(outBounds.Dx())
	th := float64(outBounds.Dy())

	var sx, sy, offX, offY float64
	switch fit {
	case domain.FitFill:
		sx, sy = tw/cw, th/ch
	case domain.FitCover:
		s := tw / cw
		if th/ch > s {
			s = th / ch
		}
		sx, sy = s, s
		offX = (cw*s - tw) / 2
		offY = (ch*s - th) / 2
	default:
		// contain and inside scale uniformly with no crop offset; the
		// output bounds already reflect the scaled size.
		s := tw / cw
		sx, sy = s, s
	}

	rx0 := cx0*sx - offX
	ry0 := cy0*sy - offY
	rx1 := cx1*sx - offX
	ry1 := cy1*sy - offY

	padX := (rx1 - rx0) * blurBoxPadding
	padY := (ry1 - ry0) * blurBoxPadding

	box := image.Rect(
		int(rx0-padX), int(ry0-padY),
		int(rx1+padX), int(ry1+padY),
	)
	return box.Intersect(outBounds)
}

func blurSigma(box image.Rectangle) float64 {
	longest := box.Dx()
	if box.Dy() > longest {
		longest = box.Dy()
	}
	sigma := float64(longest) / 12
	if sigma < 6 {
		sigma = 6
	}
	return sigma
}

func blurFull(img image.Image) image.Image {
	longest := img.Bounds().Dx()
	if img.Bounds().Dy() > longest {
		longest = img.Bounds().Dy()
	}
	sigma := float64(longest) / 24
	if sigma < 10 {
		sigma = 10
	}
	return imaging.Blur(img, sigma)
}

func encode(img image.Image, params domain.ImageURLParams) ([]byte, string, error) {
	var buf bytes.Buffer
	switch params.Format {
	case domain.FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(params.Quality)}); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to encode webp")
			return nil, "", fmt.Errorf("%w: encode webp: %v", domain.ErrRenderFailed, err)
		}
		return buf.Bytes(), "image/webp", nil
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(params.Quality)); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to encode jpeg")
			return nil, "", fmt.Errorf("%w: encode jpeg: %v", domain.ErrRenderFailed, err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}
