package processor

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/domain"
)

func testRenderer() *ImageRenderer {
	return NewImageRenderer(&config.TransformConfig{
		BrandWatermarkText: "pixshare",
		WatermarkOpacity:   40,
	})
}

// testJPEG renders a solid-color original of the given size.
func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 120, B: 40, A: 255})

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)))
	return buf.Bytes()
}

func basePlan(w, h int, fit domain.FitMode) domain.RenderPlan {
	return domain.RenderPlan{
		Params: domain.ImageURLParams{
			Width:   w,
			Height:  h,
			Fit:     fit,
			Format:  domain.FormatJPEG,
			Quality: 82,
		},
		Crop:   domain.CropResolution{Rect: domain.Region{X: 0, Y: 0, W: 1, H: 1}},
		Policy: domain.EnforcedPolicy{BlurMode: domain.BlurNone, WatermarkKind: domain.WatermarkNone},
	}
}

func TestRenderCoverExactDimensions(t *testing.T) {
	r := testRenderer()

	result, err := r.Render(context.Background(), testJPEG(t, 800, 600), basePlan(400, 300, domain.FitCover))
	require.NoError(t, err)

	assert.Equal(t, 400, result.Width)
	assert.Equal(t, 300, result.Height)
	assert.Equal(t, "image/jpeg", result.ContentType)

	decoded, err := imaging.Decode(bytes.NewReader(result.Bytes))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 300, decoded.Bounds().Dy())
}

func TestRenderContainPreservesAspect(t *testing.T) {
	r := testRenderer()

	result, err := r.Render(context.Background(), testJPEG(t, 800, 600), basePlan(400, 400, domain.FitContain))
	require.NoError(t, err)

	// 800x600 fit into 400x400 keeps the 4:3 ratio.
	assert.Equal(t, 400, result.Width)
	assert.Equal(t, 300, result.Height)
}

func TestRenderFillStretches(t *testing.T) {
	r := testRenderer()

	result, err := r.Render(context.Background(), testJPEG(t, 800, 600), basePlan(200, 500, domain.FitFill))
	require.NoError(t, err)

	assert.Equal(t, 200, result.Width)
	assert.Equal(t, 500, result.Height)
}

func TestRenderInsideNeverUpscales(t *testing.T) {
	r := testRenderer()

	result, err := r.Render(context.Background(), testJPEG(t, 200, 150), basePlan(800, 600, domain.FitInside))
	require.NoError(t, err)

	assert.Equal(t, 200, result.Width)
	assert.Equal(t, 150, result.Height)
}

func TestRenderWebPOutput(t *testing.T) {
	r := testRenderer()

	plan := basePlan(300, 300, domain.FitCover)
	plan.Params.Format = domain.FormatWebP

	result, err := r.Render(context.Background(), testJPEG(t, 600, 600), plan)
	require.NoError(t, err)

	assert.Equal(t, "image/webp", result.ContentType)
	assert.NotEmpty(t, result.Bytes)
	// RIFF container magic.
	assert.Equal(t, []byte("RIFF"), result.Bytes[:4])
}

func TestRenderCropRect(t *testing.T) {
	r := testRenderer()

	plan := basePlan(100, 100, domain.FitFill)
	plan.Crop.Rect = domain.Region{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}

	result, err := r.Render(context.Background(), testJPEG(t, 400, 400), plan)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Width)
	assert.Equal(t, 100, result.Height)
}

func TestRenderFullBlurChangesPixels(t *testing.T) {
	r := testRenderer()

	// A gradient original so blurring visibly changes pixel values.
	img := imaging.New(200, 200, color.NRGBA{A: 255})
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)))

	plain := basePlan(200, 200, domain.FitFill)
	blurred := basePlan(200, 200, domain.FitFill)
	blurred.Policy.BlurMode = domain.BlurFull

	plainResult, err := r.Render(context.Background(), buf.Bytes(), plain)
	require.NoError(t, err)
	blurredResult, err := r.Render(context.Background(), buf.Bytes(), blurred)
	require.NoError(t, err)

	assert.NotEqual(t, plainResult.Bytes, blurredResult.Bytes)
}

func TestRenderRegionalBlurWithoutBoxesFallsBackToFull(t *testing.T) {
	r := testRenderer()

	// Face blur requested but no metadata: the renderer must still
	// protect the frame rather than serve it untouched.
	noMeta := basePlan(200, 200, domain.FitFill)
	noMeta.Policy.BlurMode = domain.BlurFace

	full := basePlan(200, 200, domain.FitFill)
	full.Policy.BlurMode = domain.BlurFull

	original := testJPEG(t, 400, 400)

	a, err := r.Render(context.Background(), original, noMeta)
	require.NoError(t, err)
	b, err := r.Render(context.Background(), original, full)
	require.NoError(t, err)

	assert.Equal(t, a.Bytes, b.Bytes)
}

func TestRenderWatermarkChangesPixels(t *testing.T) {
	r := testRenderer()

	plain := basePlan(400, 400, domain.FitCover)
	marked := basePlan(400, 400, domain.FitCover)
	marked.Policy.WatermarkKind = domain.WatermarkBrand
	marked.WatermarkText = "pixshare"

	original := testJPEG(t, 800, 800)

	plainResult, err := r.Render(context.Background(), original, plain)
	require.NoError(t, err)
	markedResult, err := r.Render(context.Background(), original, marked)
	require.NoError(t, err)

	assert.NotEqual(t, plainResult.Bytes, markedResult.Bytes)
}

func TestRenderRejectsGarbage(t *testing.T) {
	r := testRenderer()

	_, err := r.Render(context.Background(), []byte("not an image"), basePlan(100, 100, domain.FitCover))
	assert.ErrorIs(t, err, domain.ErrRenderFailed)
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	r := testRenderer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, testJPEG(t, 100, 100), basePlan(50, 50, domain.FitCover))
	assert.ErrorIs(t, err, context.Canceled)
}
