package main

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	fractal "github.com/marben/dist_fractal"
	"github.com/marben/dist_fractal/output"
	"github.com/marben/dist_fractal/session"
	"github.com/marben/dist_fractal/wire"
)

// webServer creates the http server controlling session s.
//
//	GET  /ws              remote workers connect here
//	GET  /status          progress of the current render
//	GET  /image           the current frame once complete (?format=tiff, ?caption=1)
//	POST /zoom/in         zoom in around the center
//	POST /zoom/out        zoom out around the center
//	POST /recenter?x=&y=  center the view on a canvas pixel
//	POST /redraw          render the current view again
//	POST /params?iterations=&escape=&cycles=
func webServer(addr string, s *session.Session, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           newMux(s, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newMux(s *session.Session, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", wire.Handler(logger, func(ctx context.Context, r *wire.RemoteRenderer) error {
		return s.AddRenderer(ctx, r, r.Addr())
	}))
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Stats())
	})
	mux.HandleFunc("GET /image", imageHandler(s, logger))
	mux.HandleFunc("POST /zoom/in", viewHandler(s, s.ZoomIn))
	mux.HandleFunc("POST /zoom/out", viewHandler(s, s.ZoomOut))
	mux.HandleFunc("POST /redraw", viewHandler(s, s.Redraw))
	mux.HandleFunc("POST /recenter", func(w http.ResponseWriter, r *http.Request) {
		x, errX := strconv.Atoi(r.URL.Query().Get("x"))
		y, errY := strconv.Atoi(r.URL.Query().Get("y"))
		if err := errors.Join(errX, errY); err != nil {
			http.Error(w, "x and y must be integers: "+err.Error(), http.StatusBadRequest)
			return
		}
		viewHandler(s, func(ctx context.Context) (*session.Frame, error) {
			return s.Recenter(ctx, x, y)
		})(w, r)
	})
	mux.HandleFunc("POST /params", func(w http.ResponseWriter, r *http.Request) {
		cfg := s.Config()
		q := r.URL.Query()
		var errs []error
		if v := q.Get("iterations"); v != "" {
			n, err := strconv.Atoi(v)
			errs = append(errs, err)
			cfg.MaxIterations = n
		}
		if v := q.Get("escape"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			errs = append(errs, err)
			cfg.EscapeRadius = f
		}
		if v := q.Get("cycles"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			errs = append(errs, err)
			cfg.ColorCycleCount = f
		}
		if err := errors.Join(errs...); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		viewHandler(s, func(ctx context.Context) (*session.Frame, error) {
			return s.SetParams(ctx, cfg.MaxIterations, cfg.EscapeRadius, cfg.ColorCycleCount)
		})(w, r)
	})
	return mux
}

// viewHandler starts a render with start and answers with the session stats.
func viewHandler(s *session.Session, start func(context.Context) (*session.Frame, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// the render outlives the request
		if _, err := start(context.WithoutCancel(r.Context())); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, fractal.ErrInvalidRequest) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, http.StatusAccepted, s.Stats())
	}
}

// imageHandler waits for the current frame and sends it. A frame that gets
// superseded while waiting is replaced by the newer one.
func imageHandler(s *session.Session, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		switch format {
		case "":
			format = output.PNG
		case output.PNG, output.TIFF:
		default:
			http.Error(w, "format must be png or tiff", http.StatusBadRequest)
			return
		}

		var (
			img   *image.RGBA
			frame *session.Frame
			err   error
		)
		for {
			frame = s.Current()
			if frame == nil {
				http.Error(w, "nothing rendered yet", http.StatusNotFound)
				return
			}
			img, err = frame.Wait(r.Context())
			if !errors.Is(err, session.ErrSuperseded) {
				break
			}
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		if r.URL.Query().Get("caption") != "" {
			img = output.Captioned(img, output.Describe(frame.Request), color.White)
		}

		w.Header().Set("Content-Type", output.ContentType(format))
		w.Header().Set("X-Generation", strconv.FormatUint(frame.Generation, 10))
		if err := output.Encode(w, img, format); err != nil {
			logger.Warn("sending image failed", "err", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
