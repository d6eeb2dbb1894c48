package fractal

import (
	"errors"
	"fmt"
)

// Viewport is the rectangle of the complex plane mapped onto the canvas.
// Origin is the plane point under the top-left pixel; the imaginary axis
// grows upwards while pixel rows grow downwards.
type Viewport struct {
	Origin Complex `json:"origin"`
	SpanRe float64 `json:"spanRe"`
	SpanIm float64 `json:"spanIm"`
}

// DefaultViewport shows the whole set on a square canvas.
var DefaultViewport = Viewport{
	Origin: Complex{Re: -2.3, Im: 1.5},
	SpanRe: 3,
	SpanIm: 3,
}

// RegionViewport converts a rectangle given by its bounds into a Viewport.
func RegionViewport(xmin, xmax, ymin, ymax float64) Viewport {
	return Viewport{
		Origin: Complex{Re: xmin, Im: ymax},
		SpanRe: xmax - xmin,
		SpanIm: ymax - ymin,
	}
}

// Validate checks that all values are finite and both spans are positive.
func (v Viewport) Validate() error {
	var errs []error
	if !v.Origin.IsFinite() {
		errs = append(errs, fmt.Errorf("viewport origin %s is not finite", v.Origin))
	}
	if !isFinite(v.SpanRe) || v.SpanRe <= 0 {
		errs = append(errs, fmt.Errorf("viewport real span must be positive, got %g", v.SpanRe))
	}
	if !isFinite(v.SpanIm) || v.SpanIm <= 0 {
		errs = append(errs, fmt.Errorf("viewport imaginary span must be positive, got %g", v.SpanIm))
	}
	return errors.Join(errs...)
}

// PixelToPoint maps pixel (x, y) of a width×height canvas into the plane.
func (v Viewport) PixelToPoint(x, y, width, height int) Complex {
	stepX := v.SpanRe / float64(width)
	stepY := v.SpanIm / float64(height)
	return Complex{
		Re: v.Origin.Re + float64(x)*stepX,
		Im: v.Origin.Im - float64(y)*stepY,
	}
}

// Center returns the plane point in the middle of the viewport.
func (v Viewport) Center() Complex {
	return Complex{Re: v.Origin.Re + v.SpanRe/2, Im: v.Origin.Im - v.SpanIm/2}
}

// Recenter moves the viewport so that c lies in its middle. Zoom is kept.
func (v Viewport) Recenter(c Complex) Viewport {
	v.Origin = Complex{Re: c.Re - v.SpanRe/2, Im: c.Im + v.SpanIm/2}
	return v
}

// ZoomIn halves both spans around the current center.
func (v Viewport) ZoomIn() Viewport {
	v.Origin.Re += v.SpanRe / 4
	v.Origin.Im -= v.SpanIm / 4
	v.SpanRe /= 2
	v.SpanIm /= 2
	return v
}

// ZoomOut is the inverse of ZoomIn.
func (v Viewport) ZoomOut() Viewport {
	v.Origin.Re -= v.SpanRe / 2
	v.Origin.Im += v.SpanIm / 2
	v.SpanRe *= 2
	v.SpanIm *= 2
	return v
}

// Pan shifts the viewport by fractions of its spans:
// positive dx moves right, positive dy moves down.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.Origin.Re += dx * v.SpanRe
	v.Origin.Im -= dy * v.SpanIm
	return v
}

// FitAspect recomputes the imaginary span so that pixels of a width×height
// canvas cover square regions of the plane. The vertical center is kept.
func (v Viewport) FitAspect(width, height int) Viewport {
	if width <= 0 || height <= 0 {
		return v
	}
	spanIm := v.SpanRe * (float64(height) / float64(width))
	v.Origin.Im -= (v.SpanIm - spanIm) / 2
	v.SpanIm = spanIm
	return v
}
