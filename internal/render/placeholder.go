package render

import (
	"image"
	"image/color"

	"github.com/llgcode/draw2d/draw2dimg"
)

// drawTrackPlaceholder strokes a rounded rectangle outline where the
// track map would sit, for venues with no usable asset at all.
func (c *Canvas) drawTrackPlaceholder(x, y, width, height int) {
	if width <= 48 || height <= 48 {
		return
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	gc := draw2dimg.NewGraphicContext(rgba)
	gc.SetStrokeColor(color.Black)
	gc.SetLineWidth(3)
	drawRoundedRect(gc, 20, 20, float64(width-40), float64(height-40), 20)
	gc.Stroke()

	// Transfer stroked pixels; anti-aliased edges threshold away.
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			if rgba.RGBAAt(px, py).A >= binaryThreshold {
				c.SetPixel(x+px, y+py, Black)
			}
		}
	}
}

func drawRoundedRect(gc *draw2dimg.GraphicContext, x, y, w, h, r float64) {
	gc.MoveTo(x+r, y)
	gc.LineTo(x+w-r, y)
	gc.ArcTo(x+w-r, y+r, r, r, -90, 90)
	gc.LineTo(x+w, y+h-r)
	gc.ArcTo(x+w-r, y+h-r, r, r, 0, 90)
	gc.LineTo(x+r, y+h)
	gc.ArcTo(x+r, y+h-r, r, r, 90, 90)
	gc.LineTo(x, y+r)
	gc.ArcTo(x+r, y+r, r, r, 180, 90)
	gc.Close()
}
