package session

import (
	"context"
	"fmt"

	fractal "github.com/marben/dist_fractal"
)

// Viewport returns a copy of the live viewport.
func (s *Session) Viewport() fractal.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// Config returns the session's render options.
func (s *Session) Config() fractal.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Size returns the canvas size.
func (s *Session) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Request corrects the live viewport for the canvas aspect ratio and returns
// a request holding a copy of it.
func (s *Session) Request() fractal.RenderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestLocked()
}

func (s *Session) requestLocked() fractal.RenderRequest {
	s.viewport = s.viewport.FitAspect(s.width, s.height)
	return s.cfg.Request(s.width, s.height, s.viewport)
}

// Redraw renders the current viewport again.
func (s *Session) Redraw(ctx context.Context) (*Frame, error) {
	return s.StartRender(ctx, s.Request())
}

// ZoomIn halves the visible spans around the center and renders.
func (s *Session) ZoomIn(ctx context.Context) (*Frame, error) {
	return s.update(ctx, fractal.Viewport.ZoomIn)
}

// ZoomOut doubles the visible spans around the center and renders.
func (s *Session) ZoomOut(ctx context.Context) (*Frame, error) {
	return s.update(ctx, fractal.Viewport.ZoomOut)
}

// Recenter moves the plane point under canvas pixel (x, y) to the middle of
// the view and renders.
func (s *Session) Recenter(ctx context.Context, x, y int) (*Frame, error) {
	s.mu.Lock()
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: pixel (%d,%d) outside the %dx%d canvas", fractal.ErrInvalidRequest, x, y, s.width, s.height)
	}
	s.viewport = s.viewport.Recenter(s.viewport.PixelToPoint(x, y, s.width, s.height))
	req := s.requestLocked()
	s.mu.Unlock()
	return s.StartRender(ctx, req)
}

// Pan shifts the view by fractions of its spans and renders.
func (s *Session) Pan(ctx context.Context, dx, dy float64) (*Frame, error) {
	return s.update(ctx, func(v fractal.Viewport) fractal.Viewport { return v.Pan(dx, dy) })
}

// SetViewport replaces the live viewport and renders.
func (s *Session) SetViewport(ctx context.Context, nv fractal.Viewport) (*Frame, error) {
	return s.update(ctx, func(fractal.Viewport) fractal.Viewport { return nv })
}

// Resize changes the canvas size and renders.
func (s *Session) Resize(ctx context.Context, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d is not positive", fractal.ErrInvalidRequest, width, height)
	}
	s.mu.Lock()
	s.width, s.height = width, height
	req := s.requestLocked()
	s.mu.Unlock()
	return s.StartRender(ctx, req)
}

// SetParams changes the iteration budget, escape radius and colour cycles
// and renders. The worker setup of the session is not affected.
func (s *Session) SetParams(ctx context.Context, maxIterations int, escapeRadius, colorCycleCount float64) (*Frame, error) {
	s.mu.Lock()
	cfg := s.cfg
	cfg.MaxIterations = maxIterations
	cfg.EscapeRadius = escapeRadius
	cfg.ColorCycleCount = colorCycleCount
	if err := cfg.Validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.cfg = cfg
	req := s.requestLocked()
	s.mu.Unlock()
	return s.StartRender(ctx, req)
}

// update applies fn to the live viewport between renders, then renders
// the result. An invalid result leaves the viewport unchanged.
func (s *Session) update(ctx context.Context, fn func(fractal.Viewport) fractal.Viewport) (*Frame, error) {
	s.mu.Lock()
	v := fn(s.viewport)
	if err := v.Validate(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", fractal.ErrInvalidRequest, err)
	}
	s.viewport = v
	req := s.requestLocked()
	s.mu.Unlock()
	return s.StartRender(ctx, req)
}
