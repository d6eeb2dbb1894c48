package session

import (
	"context"
	"errors"
	"image"

	fractal "github.com/marben/dist_fractal"
)

var (
	// ErrSuperseded is returned by Frame.Wait when a newer render started
	// before the frame was complete.
	ErrSuperseded = errors.New("render superseded by a newer generation")

	// ErrClosed is returned once the session has been closed.
	ErrClosed = errors.New("session closed")
)

// Frame is one generation's render. Its buffer is written only by the
// session and handed out once every row is in.
type Frame struct {
	Generation uint64
	Request    fractal.RenderRequest

	img  *image.RGBA
	done chan struct{}
	err  error

	// guarded by Session.mu
	next      int
	retry     []int
	accepted  []bool
	completed int
	finished  bool
}

func newFrame(gen uint64, req fractal.RenderRequest) *Frame {
	return &Frame{
		Generation: gen,
		Request:    req,
		img:        image.NewRGBA(req.Bounds()),
		done:       make(chan struct{}),
		accepted:   make([]bool, req.Height),
	}
}

// Done is closed when the frame is complete, superseded or the session
// is closed.
func (f *Frame) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the frame is finished and returns the full image.
func (f *Frame) Wait(ctx context.Context) (*image.RGBA, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

// claimRow hands out rows given back by failed renderers first,
// then the next never-claimed row.
func (f *Frame) claimRow() (int, bool) {
	if f.finished {
		return 0, false
	}
	if n := len(f.retry); n > 0 {
		row := f.retry[n-1]
		f.retry = f.retry[:n-1]
		return row, true
	}
	if f.next < f.Request.Height {
		row := f.next
		f.next++
		return row, true
	}
	return 0, false
}

func (f *Frame) rowBytes(row int) []byte {
	off := row * f.img.Stride
	return f.img.Pix[off : off+f.Request.Width*4]
}

func (f *Frame) finish(err error) {
	f.err = err
	f.finished = true
	close(f.done)
}
