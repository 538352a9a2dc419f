package processor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pixshare/imageserve/internal/domain"
)

func (r *ImageRenderer) applyWatermark(img image.Image, plan domain.RenderPlan) image.Image {
	kind := plan.Policy.WatermarkKind
	if kind == domain.WatermarkNone {
		return img
	}

	text := plan.WatermarkText
	if text == "" {
		text = r.cfg.BrandWatermarkText
	}
	if text == "" {
		zlog.Logger.Warn().Msg("watermark requested but no text configured, skipping")
		return img
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	opacity := uint8(float64(r.cfg.WatermarkOpacity) * 255.0 / 100.0)
	white := color.RGBA{255, 255, 255, opacity}
	face := basicfont.Face7x13

	scale := bounds.Dx() / 400
	if scale < 1 {
		scale = 1
	}

	switch kind {
	case domain.WatermarkBrand:
		r.tileText(rgba, text, scale, white, face)
	case domain.WatermarkUser:
		r.cornerText(rgba, text, scale, white, face)
	}

	return rgba
}

// tileText repeats the brand text in a staggered grid across the frame.
func (r *ImageRenderer) tileText(dst *image.RGBA, text string, scale int, col color.Color, face font.Face) {
	bounds := dst.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	textW := len(text) * 7 * scale
	textH := 13 * scale
	stepX := textW + width/3
	stepY := textH + height/4

	for row := -1; row*stepY < height+textH; row++ {
		x0 := 0
		if row%2 == 1 {
			x0 = stepX / 2
		}
		for col0 := -1; col0*stepX < width+textW; col0++ {
			drawScaledText(dst, text, x0+col0*stepX, row*stepY, scale, col, face)
		}
	}
}

// cornerText places a single attribution mark bottom-right.
func (r *ImageRenderer) cornerText(dst *image.RGBA, text string, scale int, col color.Color, face font.Face) {
	bounds := dst.Bounds()
	textW := len(text) * 7 * scale
	textH := 13 * scale
	margin := textH

	drawScaledText(dst, text, bounds.Dx()-textW-margin, bounds.Dy()-textH-margin, scale, col, face)
}

// drawScaledText rasterizes the text at 1x into a scratch buffer and
// stamps it scaled onto the destination.
func drawScaledText(dst *image.RGBA, text string, x, y, scale int, col color.Color, face font.Face) {
	tempWidth := len(text)*7 + 7
	tempHeight := 16
	temp := image.NewRGBA(image.Rect(0, 0, tempWidth, tempHeight))

	drawer := &font.Drawer{
		Dst:  temp,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: fixed.Int26_6(13 * 64)},
	}
	drawer.DrawString(text)

	bounds := dst.Bounds()
	for sy := 0; sy < tempHeight; sy++ {
		for sx := 0; sx < tempWidth; sx++ {
			if _, _, _, a := temp.At(sx, sy).RGBA(); a == 0 {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					px := x + sx*scale + dx
					py := y + sy*scale + dy
					if px >= 0 && px < bounds.Dx() && py >= 0 && py < bounds.Dy() {
						dst.Set(bounds.Min.X+px, bounds.Min.Y+py, col)
					}
				}
			}
		}
	}
}
