package fractal

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidRequest is wrapped by every validation failure of a
// RenderRequest or Config.
var ErrInvalidRequest = errors.New("invalid render request")

// RenderRequest describes one render. It carries its own copy of the
// viewport so the session may change the live one while the render runs.
type RenderRequest struct {
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Viewport        Viewport `json:"viewport"`
	MaxIterations   int      `json:"maxIterations"`
	EscapeRadius    float64  `json:"escapeRadius"`
	ColorCycleCount float64  `json:"colorCycleCount"`
}

// Validate reports all invalid fields at once. The returned error wraps
// ErrInvalidRequest.
func (r RenderRequest) Validate() error {
	var errs []error
	if r.Width <= 0 {
		errs = append(errs, fmt.Errorf("width must be positive, got %d", r.Width))
	}
	if r.Height <= 0 {
		errs = append(errs, fmt.Errorf("height must be positive, got %d", r.Height))
	}
	if r.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("maxIterations must be at least 1, got %d", r.MaxIterations))
	}
	if !isFinite(r.EscapeRadius) || r.EscapeRadius <= 0 {
		errs = append(errs, fmt.Errorf("escapeRadius must be positive, got %g", r.EscapeRadius))
	}
	if !isFinite(r.ColorCycleCount) || r.ColorCycleCount <= 0 {
		errs = append(errs, fmt.Errorf("colorCycleCount must be positive, got %g", r.ColorCycleCount))
	}
	if err := r.Viewport.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
}

// EscapeRadiusSquared is what the evaluator compares |z|² against.
func (r RenderRequest) EscapeRadiusSquared() float64 {
	return r.EscapeRadius * r.EscapeRadius
}

// Bounds of the frame buffer for this request.
func (r RenderRequest) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// Job builds the worker payload for one row of the request.
func (r RenderRequest) Job(row int, generation uint64) RowJob {
	return RowJob{
		Row:                 row,
		Width:               r.Width,
		Height:              r.Height,
		Viewport:            r.Viewport,
		Generation:          generation,
		MaxIterations:       r.MaxIterations,
		EscapeRadiusSquared: r.EscapeRadiusSquared(),
		ColorCycleCount:     r.ColorCycleCount,
	}
}

// RowJob is sent to a worker to compute one row of pixels.
type RowJob struct {
	Row                 int      `json:"row"`
	Width               int      `json:"width"`
	Height              int      `json:"height"`
	Viewport            Viewport `json:"viewport"`
	Generation          uint64   `json:"generation"`
	MaxIterations       int      `json:"maxIterations"`
	EscapeRadiusSquared float64  `json:"escapeRadiusSquared"`
	ColorCycleCount     float64  `json:"colorCycleCount"`
}

// Validate is used by workers receiving jobs from the network.
func (j RowJob) Validate() error {
	var errs []error
	if j.Width <= 0 || j.Height <= 0 {
		errs = append(errs, fmt.Errorf("size %dx%d is not positive", j.Width, j.Height))
	}
	if j.Row < 0 || j.Row >= j.Height {
		errs = append(errs, fmt.Errorf("row %d outside [0,%d)", j.Row, j.Height))
	}
	if j.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("maxIterations must be at least 1, got %d", j.MaxIterations))
	}
	if !isFinite(j.EscapeRadiusSquared) || j.EscapeRadiusSquared <= 0 {
		errs = append(errs, fmt.Errorf("escapeRadiusSquared must be positive, got %g", j.EscapeRadiusSquared))
	}
	if !isFinite(j.ColorCycleCount) || j.ColorCycleCount <= 0 {
		errs = append(errs, fmt.Errorf("colorCycleCount must be positive, got %g", j.ColorCycleCount))
	}
	if err := j.Viewport.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
}

// RowResult carries the RGBA bytes of one computed row back to the
// collector, tagged with the generation it was computed for.
type RowResult struct {
	Row        int    `json:"row"`
	Generation uint64 `json:"generation"`
	Pixels     []byte `json:"pixels"`
}

// Classification of a point by the escape-time evaluator.
type Classification uint8

const (
	Bounded Classification = iota
	Escaped
)

func (c Classification) String() string {
	switch c {
	case Bounded:
		return "bounded"
	case Escaped:
		return "escaped"
	default:
		return fmt.Sprintf("Classification(%d)", uint8(c))
	}
}

// PixelResult is the outcome of iterating one point.
// Iterations and Final are meaningful only for Escaped points.
type PixelResult struct {
	Class      Classification
	Iterations int
	Final      Complex
}
