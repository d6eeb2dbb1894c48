package output

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	fractal "github.com/marben/dist_fractal"
)

const captionPad = 4

var captionBackdrop = image.NewUniform(color.RGBA{A: 160})

// Describe summarises the parameters of a render on one line.
func Describe(req fractal.RenderRequest) string {
	return fmt.Sprintf("center %s  span %.3g  iter %d  cycles %g",
		req.Viewport.Center(), req.Viewport.SpanRe, req.MaxIterations, req.ColorCycleCount)
}

// ParseColor parses a hex colour such as "#ffcc00".
func ParseColor(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Captioned returns a copy of img with text drawn by Caption. img itself
// is left untouched.
func Captioned(img *image.RGBA, text string, fg color.Color) *image.RGBA {
	cp := image.NewRGBA(img.Bounds())
	copy(cp.Pix, img.Pix)
	Caption(cp, text, fg)
	return cp
}

// Caption writes text in the bottom-left corner of img over a darkened
// strip. Text running past the right edge is clipped.
func Caption(img draw.Image, text string, fg color.Color) {
	face := basicfont.Face7x13
	m := face.Metrics()
	b := img.Bounds()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	strip := image.Rect(
		b.Min.X,
		b.Max.Y-(m.Height.Ceil()+2*captionPad),
		min(b.Max.X, b.Min.X+d.MeasureString(text).Ceil()+2*captionPad),
		b.Max.Y,
	).Intersect(b)
	if strip.Empty() {
		return
	}
	draw.Draw(img, strip, captionBackdrop, image.Point{}, draw.Over)

	d.Dot = fixed.P(strip.Min.X+captionPad, strip.Max.Y-captionPad-m.Descent.Ceil())
	d.DrawString(text)
}
