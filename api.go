package fractal

import (
	"context"
	"image"
)

// RowRenderer computes rows of a frame. It is implemented by the local
// renderer and by remote workers reached over the network.
type RowRenderer interface {
	RenderRow(ctx context.Context, job RowJob) (RowResult, error)
}

// Presenter receives every completed frame exactly once.
// img is not written to after the call.
type Presenter interface {
	PresentFrame(generation uint64, img *image.RGBA)
}

// RowPresenter is optionally implemented by a Presenter that wants to show
// rows as they arrive. Rows of superseded generations are never passed.
type RowPresenter interface {
	PresentRow(generation uint64, row int, pix []byte)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(generation uint64, img *image.RGBA)

func (f PresenterFunc) PresentFrame(generation uint64, img *image.RGBA) {
	f(generation, img)
}
