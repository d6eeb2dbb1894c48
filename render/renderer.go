package render

import (
	"context"
	"fmt"

	fractal "github.com/marben/dist_fractal"
)

// Renderer computes rows on the calling goroutine.
type Renderer struct {
	// OnRow, if set, is called before each row is computed.
	OnRow func(job fractal.RowJob)
}

var _ fractal.RowRenderer = Renderer{}

func (r Renderer) RenderRow(ctx context.Context, job fractal.RowJob) (fractal.RowResult, error) {
	if err := ctx.Err(); err != nil {
		return fractal.RowResult{}, err
	}
	if err := job.Validate(); err != nil {
		return fractal.RowResult{}, fmt.Errorf("row %d: %w", job.Row, err)
	}
	if r.OnRow != nil {
		r.OnRow(job)
	}
	return fractal.RowResult{
		Row:        job.Row,
		Generation: job.Generation,
		Pixels:     RenderRow(job, nil),
	}, nil
}

// RenderRow computes the RGBA bytes of job's row into dst, which is grown
// to job.Width*4 bytes if needed, and returns it.
func RenderRow(job fractal.RowJob, dst []byte) []byte {
	n := job.Width * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	for x := 0; x < job.Width; x++ {
		c := job.Viewport.PixelToPoint(x, job.Row, job.Width, job.Height)
		col := ColorFor(Evaluate(c, job.MaxIterations, job.EscapeRadiusSquared), job.MaxIterations, job.ColorCycleCount)
		p := dst[x*4 : x*4+4 : x*4+4]
		p[0], p[1], p[2], p[3] = col.R, col.G, col.B, col.A
	}
	return dst
}
