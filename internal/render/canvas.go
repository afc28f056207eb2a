package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	// DisplayWidth is the e-paper panel width in pixels.
	DisplayWidth = 800
	// DisplayHeight is the e-paper panel height in pixels.
	DisplayHeight = 480
)

// Ink is a drawing color on the monochrome canvas.
type Ink uint8

const (
	Black Ink = 0
	White Ink = 255
)

func (i Ink) color() color.Gray { return color.Gray{Y: uint8(i)} }

// Canvas is the mutable monochrome drawing surface for one render call.
// Pixels are kept as 8-bit gray internally; the BMP encoder thresholds
// them down to 1 bit on output.
type Canvas struct {
	img *image.Gray
}

// NewCanvas returns an 800x480 canvas cleared to white.
func NewCanvas() *Canvas {
	img := image.NewGray(image.Rect(0, 0, DisplayWidth, DisplayHeight))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return &Canvas{img: img}
}

// Image exposes the underlying pixels for compositing and encoding.
func (c *Canvas) Image() *image.Gray { return c.img }

// SetPixel sets a single pixel, ignoring out-of-bounds coordinates.
func (c *Canvas) SetPixel(x, y int, ink Ink) {
	if (image.Point{X: x, Y: y}).In(c.img.Rect) {
		c.img.SetGray(x, y, ink.color())
	}
}

// FillRect fills the rectangle [x,y,x+w,y+h) with the given ink.
func (c *Canvas) FillRect(x, y, w, h int, ink Ink) {
	r := image.Rect(x, y, x+w, y+h).Intersect(c.img.Rect)
	draw.Draw(c.img, r, image.NewUniform(ink.color()), image.Point{}, draw.Src)
}

// OutlineRect draws a 1px rectangle outline.
func (c *Canvas) OutlineRect(x, y, w, h int, ink Ink) {
	c.FillRect(x, y, w, 1, ink)
	c.FillRect(x, y+h-1, w, 1, ink)
	c.FillRect(x, y, 1, h, ink)
	c.FillRect(x+w-1, y, 1, h, ink)
}

// HLine draws a horizontal line of the given thickness starting at (x, y).
func (c *Canvas) HLine(x, y, length, thickness int, ink Ink) {
	c.FillRect(x, y, length, thickness, ink)
}

// Paste copies src onto the canvas with its top-left corner at (x, y),
// replacing destination pixels (both black and white).
func (c *Canvas) Paste(src image.Image, x, y int) {
	b := src.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(c.img, r, src, b.Min, draw.Src)
}

// PasteDark copies only the dark pixels of src onto the canvas, leaving
// the existing background visible elsewhere. Used for thresholded logos
// pasted into a white sub-panel.
func (c *Canvas) PasteDark(src *image.Gray, x, y int) {
	b := src.Bounds()
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			if src.GrayAt(sx, sy).Y < binaryThreshold {
				c.SetPixel(x+sx-b.Min.X, y+sy-b.Min.Y, Black)
			}
		}
	}
}

// DrawText draws s with its top edge anchored at posY. When center is
// true, posX is treated as the horizontal midpoint. Returns the finish
// coordinates past the rendered text.
func (c *Canvas) DrawText(s string, posX, posY int, face font.Face, ink Ink, center bool) (finishX, finishY int) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(ink.color()),
		Face: face,
	}

	metrics := face.Metrics()
	x := posX
	if center {
		x = posX - d.MeasureString(s).Round()/2
	}
	y := posY + metrics.Ascent.Round()

	d.Dot = fixed.P(x, y)
	d.DrawString(s)

	finishX = x + d.MeasureString(s).Round()
	finishY = posY + metrics.Ascent.Round() + metrics.Descent.Round()
	return
}

// MeasureText returns the advance width of s in pixels.
func MeasureText(face font.Face, s string) int {
	return font.MeasureString(face, s).Round()
}

// TextBox reports the visual top and bottom of s relative to the
// top-anchored drawing position used by DrawText, plus the advance
// width. Equivalent to a tight bounding box at origin (0, 0).
func TextBox(face font.Face, s string) (top, bottom, width int) {
	bounds, adv := font.BoundString(face, s)
	ascent := face.Metrics().Ascent.Round()
	top = ascent + bounds.Min.Y.Round()
	bottom = ascent + bounds.Max.Y.Round()
	width = adv.Round()
	return
}
