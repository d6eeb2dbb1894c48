// Package session owns a render session: the viewport, the generation
// counter, the frame being built and the pool of row workers feeding it.
//
// Every render gets a new generation. Rows are handed out one at a time to
// workers and collected into the generation's frame buffer; results tagged
// with an older generation are dropped. Starting a new render is the only
// way to cancel the previous one.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	fractal "github.com/marben/dist_fractal"
	"github.com/marben/dist_fractal/render"
)

// Session is safe for concurrent use.
type Session struct {
	renderer  fractal.RowRenderer
	presenter fractal.Presenter
	logger    *slog.Logger
	parallel  bool
	remote    bool

	mu         sync.Mutex
	cfg        fractal.Config
	width      int
	height     int
	viewport   fractal.Viewport
	generation uint64
	active     *Frame
	wake       chan struct{} // closed and replaced whenever rows become claimable
	workers    int
	busy       int
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Sessions are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPresenter sets the sink receiving completed frames. If p also
// implements fractal.RowPresenter it receives accepted rows as well,
// in parallel mode only.
// p is called with the session locked and must not call back into it.
func WithPresenter(p fractal.Presenter) Option {
	return func(s *Session) { s.presenter = p }
}

// WithViewport sets the starting viewport instead of fractal.DefaultViewport.
func WithViewport(v fractal.Viewport) Option {
	return func(s *Session) { s.viewport = v }
}

// WithRemoteWorkers declares that rows are also computed by renderers
// plugged in with AddRenderer, so a parallel session may run without
// local workers.
func WithRemoteWorkers() Option {
	return func(s *Session) { s.remote = true }
}

// WithRenderer replaces the row renderer used by local workers and by
// serial renders.
func WithRenderer(r fractal.RowRenderer) Option {
	return func(s *Session) {
		if r != nil {
			s.renderer = r
		}
	}
}

// New creates a session for a width×height canvas. In parallel mode
// cfg.Workers local workers are started; they live until Close. Zero
// local workers is accepted only together with WithRemoteWorkers.
func New(width, height int, cfg fractal.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d is not positive", fractal.ErrInvalidRequest, width, height)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		renderer: render.Renderer{},
		logger:   slog.New(slog.DiscardHandler),
		parallel: cfg.Parallel,
		cfg:      cfg,
		width:    width,
		height:   height,
		viewport: fractal.DefaultViewport,
		wake:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.viewport.Validate(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", fractal.ErrInvalidRequest, err)
	}
	if s.parallel && cfg.Workers == 0 && !s.remote {
		cancel()
		return nil, fmt.Errorf("%w: parallel rendering without remote workers needs at least one local worker", fractal.ErrInvalidRequest)
	}

	if s.parallel {
		for i := range cfg.Workers {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := s.work(s.ctx, s.renderer, fmt.Sprintf("local-%d", i)); err != nil {
					s.logger.Warn("local worker stopped", "worker", i, "err", err)
				}
			}()
		}
	}
	return s, nil
}

// Close supersedes the in-flight frame and stops the local workers.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if f := s.active; f != nil && !f.finished {
		f.finish(ErrClosed)
	}
	s.broadcastLocked()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}

// StartRender validates req and starts a new generation for it.
//
// In serial mode every row is computed before StartRender returns.
// In parallel mode the rows are queued for the workers and StartRender
// returns at once; use the returned Frame to wait for the image.
func (s *Session) StartRender(ctx context.Context, req fractal.RenderRequest) (*Frame, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.generation++
	f := newFrame(s.generation, req)
	if prev := s.active; prev != nil && !prev.finished {
		s.logger.Debug("superseding render", "generation", prev.Generation, "rowsDone", prev.completed, "rows", prev.Request.Height)
		prev.finish(ErrSuperseded)
	}
	s.active = f
	s.broadcastLocked()
	s.mu.Unlock()

	s.logger.Debug("render started", "generation", f.Generation, "width", req.Width, "height", req.Height,
		"origin", req.Viewport.Origin, "spanRe", req.Viewport.SpanRe, "parallel", s.parallel)

	if !s.parallel {
		if err := s.renderSerial(ctx, f); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (s *Session) renderSerial(ctx context.Context, f *Frame) error {
	for row := range f.Request.Height {
		s.mu.Lock()
		stale := f.finished
		s.mu.Unlock()
		if stale {
			return nil
		}

		job := f.Request.Job(row, f.Generation)
		res, err := s.renderer.RenderRow(ctx, job)
		if err == nil {
			err = s.collect(job, res)
		}
		if err != nil {
			err = fmt.Errorf("render row %d: %w", row, err)
			s.mu.Lock()
			if !f.finished {
				f.finish(err)
			}
			s.mu.Unlock()
			return err
		}
	}
	return nil
}

// AddRenderer lets r compute rows alongside the local workers until ctx is
// done, the session is closed or r fails. A row r fails on is handed to
// another worker.
func (s *Session) AddRenderer(ctx context.Context, r fractal.RowRenderer, name string) error {
	if !s.parallel {
		return errors.New("session renders serially, extra renderers are not used")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	return s.work(ctx, r, name)
}

// work claims rows one by one until ctx ends.
func (s *Session) work(ctx context.Context, r fractal.RowRenderer, name string) error {
	s.join(name)
	defer s.leave(name)

	for {
		job, ok := s.claim(ctx)
		if !ok {
			return nil
		}
		res, err := r.RenderRow(ctx, job)
		if err != nil {
			s.giveBack(job)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("render row %d of generation %d: %w", job.Row, job.Generation, err)
		}
		if err := s.collect(job, res); err != nil {
			return err
		}
	}
}

// claim blocks until a row of the active generation is available.
func (s *Session) claim(ctx context.Context) (fractal.RowJob, bool) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return fractal.RowJob{}, false
		}
		if f := s.active; f != nil {
			if row, ok := f.claimRow(); ok {
				s.busy++
				job := f.Request.Job(row, f.Generation)
				s.mu.Unlock()
				return job, true
			}
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return fractal.RowJob{}, false
		}
	}
}

// giveBack returns a claimed row that was not rendered.
func (s *Session) giveBack(job fractal.RowJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parallel {
		s.busy--
	}
	if f := s.active; f != nil && f.Generation == job.Generation && !f.finished && !f.accepted[job.Row] {
		f.retry = append(f.retry, job.Row)
		s.broadcastLocked()
	}
}

// collect accepts a rendered row into the active frame. Rows of other
// generations are dropped. A malformed result is given back for another
// worker and reported.
func (s *Session) collect(job fractal.RowJob, res fractal.RowResult) error {
	if res.Row != job.Row || res.Generation != job.Generation || len(res.Pixels) != job.Width*4 {
		s.giveBack(job)
		return fmt.Errorf("row %d of generation %d: got row %d of generation %d with %d bytes",
			job.Row, job.Generation, res.Row, res.Generation, len(res.Pixels))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parallel {
		s.busy--
	}

	f := s.active
	if f == nil || f.finished || f.Generation != res.Generation {
		s.logger.Debug("dropping stale row", "row", res.Row, "generation", res.Generation, "current", s.generation)
		return nil
	}
	if f.accepted[res.Row] {
		return nil
	}

	copy(f.rowBytes(res.Row), res.Pixels)
	f.accepted[res.Row] = true
	f.completed++

	// serial frames are only shown complete
	if rp, ok := s.presenter.(fractal.RowPresenter); ok && s.parallel {
		rp.PresentRow(f.Generation, res.Row, f.rowBytes(res.Row))
	}
	if f.completed == f.Request.Height {
		if s.presenter != nil {
			s.presenter.PresentFrame(f.Generation, f.img)
		}
		f.finish(nil)
		s.logger.Info("render finished", "generation", f.Generation, "rows", f.completed)
	}
	return nil
}

func (s *Session) join(name string) {
	s.mu.Lock()
	s.workers++
	w := s.workers
	s.mu.Unlock()
	s.logger.Debug("worker joined", "worker", name, "workers", w)
}

func (s *Session) leave(name string) {
	s.mu.Lock()
	s.workers--
	w := s.workers
	s.mu.Unlock()
	s.logger.Debug("worker left", "worker", name, "workers", w)
}

func (s *Session) broadcastLocked() {
	close(s.wake)
	s.wake = make(chan struct{})
}
