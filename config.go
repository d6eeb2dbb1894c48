package fractal

import (
	"errors"
	"flag"
	"fmt"
	"runtime"
)

// Config holds the user-tunable render options.
type Config struct {
	MaxIterations   int
	EscapeRadius    float64
	ColorCycleCount float64

	// Workers is the number of local row workers used in parallel mode.
	Workers int
	// Parallel selects the worker pool; false renders every row on the
	// goroutine that starts the render.
	Parallel bool
}

// DefaultConfig returns the options used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxIterations:   300,
		EscapeRadius:    2,
		ColorCycleCount: 7,
		Workers:         runtime.GOMAXPROCS(0),
		Parallel:        true,
	}
}

// Validate rejects unusable options. The error wraps ErrInvalidRequest.
func (c Config) Validate() error {
	var errs []error
	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("maxIterations must be at least 1, got %d", c.MaxIterations))
	}
	if !isFinite(c.EscapeRadius) || c.EscapeRadius <= 0 {
		errs = append(errs, fmt.Errorf("escapeRadius must be positive, got %g", c.EscapeRadius))
	}
	if !isFinite(c.ColorCycleCount) || c.ColorCycleCount <= 0 {
		errs = append(errs, fmt.Errorf("colorCycleCount must be positive, got %g", c.ColorCycleCount))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
}

// RegisterFlags binds the options to fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.MaxIterations, "iterations", c.MaxIterations, "maximum iterations before a point is considered inside the set")
	fs.Float64Var(&c.EscapeRadius, "escape", c.EscapeRadius, "escape radius")
	fs.Float64Var(&c.ColorCycleCount, "cycles", c.ColorCycleCount, "number of times the colour spectrum repeats")
	fs.IntVar(&c.Workers, "workers", c.Workers, "number of local row workers")
	fs.BoolVar(&c.Parallel, "parallel", c.Parallel, "render rows on a worker pool")
}

// Request builds a render request for a canvas of the given size.
// The viewport is used as given; callers correct its aspect first.
func (c Config) Request(width, height int, v Viewport) RenderRequest {
	return RenderRequest{
		Width:           width,
		Height:          height,
		Viewport:        v,
		MaxIterations:   c.MaxIterations,
		EscapeRadius:    c.EscapeRadius,
		ColorCycleCount: c.ColorCycleCount,
	}
}
