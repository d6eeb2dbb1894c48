package render

import (
	"image/color"
	"math"

	fractal "github.com/marben/dist_fractal"
)

// logEpsilon bounds the inner logarithm of the smoothing term from below,
// so radii under 1 cannot produce log of a non-positive number.
const logEpsilon = 1e-9

var black = color.RGBA{A: 255}

// ColorFor maps an evaluated pixel to an opaque colour.
// Bounded pixels are black. Escaped pixels get a fractional escape count
// that runs colorCycleCount times through the rainbow over maxIterations.
func ColorFor(res fractal.PixelResult, maxIterations int, colorCycleCount float64) color.RGBA {
	if res.Class != fractal.Escaped {
		return black
	}
	s := Smooth(res, maxIterations, colorCycleCount)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return black
	}
	return Rainbow(s - math.Floor(s))
}

// Smooth returns the continuous escape value of an escaped pixel, scaled so
// that one unit is one trip around the colour wheel.
func Smooth(res fractal.PixelResult, maxIterations int, colorCycleCount float64) float64 {
	inner := math.Log(res.Final.Magnitude()) / math.Ln2
	if !(inner > logEpsilon) {
		inner = logEpsilon
	}
	log2log := math.Log(inner) / math.Ln2
	return (float64(res.Iterations) - log2log) / (float64(maxIterations) / colorCycleCount)
}

// Rainbow maps frac in [0,1) onto the fully saturated hue wheel
// red → yellow → green → cyan → blue → magenta → red.
func Rainbow(frac float64) color.RGBA {
	m := 6 * frac
	seg := math.Floor(m)
	if seg < 0 {
		seg = 0
	} else if seg > 5 {
		seg = 5
	}
	t := uint8(math.Round(255 * math.Max(0, math.Min(m-seg, 1))))

	switch int(seg) {
	case 0:
		return color.RGBA{R: 255, G: t, B: 0, A: 255}
	case 1:
		return color.RGBA{R: 255 - t, G: 255, B: 0, A: 255}
	case 2:
		return color.RGBA{R: 0, G: 255, B: t, A: 255}
	case 3:
		return color.RGBA{R: 0, G: 255 - t, B: 255, A: 255}
	case 4:
		return color.RGBA{R: t, G: 0, B: 255, A: 255}
	default:
		return color.RGBA{R: 255, G: 0, B: 255 - t, A: 255}
	}
}
