package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	fractal "github.com/marben/dist_fractal"
	"github.com/marben/dist_fractal/output"
	"github.com/marben/dist_fractal/session"
)

// main is the entry point for the fractal server.
// The server owns the render session. Rows are computed by its local
// workers and by any worker that connects to /ws.
func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run(args []string) error {
	cfg := fractal.DefaultConfig()
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "http listen address")
	width := fs.Int("width", 1920, "image width in pixels")
	height := fs.Int("height", 1080, "image height in pixels")
	region := fs.String("region", "seahorse", "named region shown at start")
	save := fs.String("save", "", "save every completed frame to this file")
	verbose := fs.Bool("v", false, "debug logging")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg.Parallel = true

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	v, err := fractal.LookupLandmark(*region)
	if err != nil {
		return err
	}

	p := &progress{logger: logger}
	if *save != "" {
		// encoding a frame must not hold up the workers
		sink := output.NewAsync(&output.FileSink{Path: *save, Logger: logger})
		defer sink.Close()
		p.next = sink
	}

	s, err := session.New(*width, *height, cfg,
		session.WithLogger(logger),
		session.WithViewport(v),
		session.WithPresenter(p),
		session.WithRemoteWorkers(),
	)
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := s.Redraw(ctx); err != nil {
		return fmt.Errorf("first render: %w", err)
	}

	httpServer := webServer(*addr, s, logger)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", *addr, "localWorkers", cfg.Workers)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("httpServer: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// progress logs rows and frames as the session accepts them and passes
// frames on to next.
type progress struct {
	logger *slog.Logger
	next   fractal.Presenter
}

func (p *progress) PresentRow(generation uint64, row int, _ []byte) {
	p.logger.Debug("row done", "generation", generation, "row", row)
}

func (p *progress) PresentFrame(generation uint64, img *image.RGBA) {
	p.logger.Info("frame complete", "generation", generation, "size", img.Rect.Size())
	if p.next != nil {
		p.next.PresentFrame(generation, img)
	}
}
