// worker lends this machine's CPU to a fractal server.
// It connects to the server's websocket endpoint and computes the rows the
// server hands out until the server closes the connection.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"

	fractal "github.com/marben/dist_fractal"
	"github.com/marben/dist_fractal/render"
	"github.com/marben/dist_fractal/wire"
)

// main is the entry point for the worker.
// It runs the worker logic and logs any fatal errors.
func main() {
	log.Printf("Starting worker...")
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run opens -conns connections to the server and serves rows on each.
func run(args []string) error {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	url := fs.String("server", "ws://localhost:8080/ws", "websocket endpoint of the fractal server")
	conns := fs.Int("conns", runtime.GOMAXPROCS(0), "parallel connections, one row in flight on each")
	verbose := fs.Bool("v", false, "log every row")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *conns < 1 {
		return fmt.Errorf("conns must be at least 1, got %d", *conns)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Step 1: the renderer the server drives through every connection
	renderer := render.Renderer{OnRow: func(job fractal.RowJob) {
		logger.Debug("rendering row", "row", job.Row, "generation", job.Generation)
	}}

	// Step 2: connect and serve
	var wg sync.WaitGroup
	errs := make([]error, *conns)
	for i := range *conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = serve(ctx, *url, renderer, logger.With("conn", i))
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func serve(ctx context.Context, url string, r fractal.RowRenderer, logger *slog.Logger) error {
	logger.Info("connecting", "server", url)
	conn, err := wire.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.CloseNow()

	logger.Info("connected, serving rows")
	if err := wire.Serve(ctx, conn, r); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("server closed the connection")
	return nil
}
