// fractal renders one view of the Mandelbrot set to a PNG or TIFF file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	fractal "github.com/marben/dist_fractal"
	"github.com/marben/dist_fractal/output"
	"github.com/marben/dist_fractal/session"
)

type options struct {
	out       string
	width     int
	height    int
	region    string
	centerRe  float64
	centerIm  float64
	span      float64
	zoom      int
	caption   bool
	textColor string
	verbose   bool
	cfg       fractal.Config
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func parseFlags(args []string) (options, error) {
	o := options{cfg: fractal.DefaultConfig()}
	fs := flag.NewFlagSet("fractal", flag.ContinueOnError)
	fs.StringVar(&o.out, "o", "mandel.png", "output file, .png or .tiff")
	fs.IntVar(&o.width, "width", 1920, "image width in pixels")
	fs.IntVar(&o.height, "height", 1080, "image height in pixels")
	fs.StringVar(&o.region, "region", "full", "named region to render")
	fs.Float64Var(&o.centerRe, "re", math.NaN(), "real part of the view center (overrides -region)")
	fs.Float64Var(&o.centerIm, "im", math.NaN(), "imaginary part of the view center (overrides -region)")
	fs.Float64Var(&o.span, "span", 0, "width of the view in the plane (overrides -region)")
	fs.IntVar(&o.zoom, "zoom", 0, "zoom steps from the chosen view, negative zooms out")
	fs.BoolVar(&o.caption, "caption", false, "print the render parameters onto the image")
	fs.StringVar(&o.textColor, "caption-color", "#ffffff", "caption colour")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	o.cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// viewport resolves the view from -region and the explicit overrides.
func (o options) viewport() (fractal.Viewport, error) {
	v, err := fractal.LookupLandmark(o.region)
	if err != nil {
		return v, err
	}
	if o.span > 0 {
		c := v.Center()
		v.SpanIm = v.SpanIm * o.span / v.SpanRe
		v.SpanRe = o.span
		v = v.Recenter(c)
	}
	if !math.IsNaN(o.centerRe) || !math.IsNaN(o.centerIm) {
		c := v.Center()
		if !math.IsNaN(o.centerRe) {
			c.Re = o.centerRe
		}
		if !math.IsNaN(o.centerIm) {
			c.Im = o.centerIm
		}
		v = v.Recenter(c)
	}
	for i := 0; i < o.zoom; i++ {
		v = v.ZoomIn()
	}
	for i := 0; i > o.zoom; i-- {
		v = v.ZoomOut()
	}
	return v, v.Validate()
}

func run(args []string) error {
	o, err := parseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	v, err := o.viewport()
	if err != nil {
		return fmt.Errorf("viewport: %w", err)
	}
	fg, err := output.ParseColor(o.textColor)
	if err != nil {
		return err
	}

	s, err := session.New(o.width, o.height, o.cfg, session.WithLogger(logger), session.WithViewport(v))
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	req := s.Request()
	frame, err := s.StartRender(ctx, req)
	if err != nil {
		return fmt.Errorf("StartRender: %w", err)
	}
	img, err := frame.Wait(ctx)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	logger.Info("rendered", "took", time.Since(start), "width", o.width, "height", o.height,
		"parallel", o.cfg.Parallel, "workers", o.cfg.Workers)

	if o.caption {
		// the frame belongs to the session
		img = output.Captioned(img, output.Describe(req), fg)
	}

	f, err := os.Create(o.out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := output.Encode(f, img, output.FormatFromPath(o.out)); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("image saved", "path", o.out)
	return nil
}
