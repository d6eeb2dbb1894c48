// Package render computes escape-time pixels: the quadratic Mandelbrot
// iteration, its smooth colouring and whole rows of RGBA bytes.
package render

import (
	fractal "github.com/marben/dist_fractal"
)

// Evaluate iterates z ← z² + c from z = 0 until |z|² reaches
// escapeRadiusSquared or the iteration count passes maxIterations.
//
// Points still bounded after maxIterations steps are reported Bounded with
// zero iterations. A step that both passes the budget and escapes counts as
// Bounded. Non-finite input or orbit values are reported Bounded as well, so
// they are painted black instead of reaching the colour mapper.
func Evaluate(c fractal.Complex, maxIterations int, escapeRadiusSquared float64) fractal.PixelResult {
	if !c.IsFinite() {
		return fractal.PixelResult{Class: fractal.Bounded}
	}

	var z fractal.Complex
	n := 0
	for z.SquaredMagnitude() < escapeRadiusSquared && n <= maxIterations {
		z = z.Mul(z).Add(c)
		n++
	}

	if n > maxIterations || !z.IsFinite() || !(z.SquaredMagnitude() >= escapeRadiusSquared) {
		return fractal.PixelResult{Class: fractal.Bounded}
	}
	return fractal.PixelResult{Class: fractal.Escaped, Iterations: n, Final: z}
}
