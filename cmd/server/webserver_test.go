package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fractal "github.com/marben/dist_fractal"
	"github.com/marben/dist_fractal/render"
	"github.com/marben/dist_fractal/session"
	"github.com/marben/dist_fractal/wire"
)

func testConfig(parallel bool) fractal.Config {
	return fractal.Config{MaxIterations: 40, EscapeRadius: 2, ColorCycleCount: 3, Parallel: parallel}
}

func newTestServer(t *testing.T, cfg fractal.Config) (*session.Session, *httptest.Server) {
	t.Helper()
	s, err := session.New(24, 16, cfg, session.WithViewport(fractal.SeahorseValley), session.WithRemoteWorkers())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(newMux(s, slog.New(slog.DiscardHandler)))
	t.Cleanup(func() {
		s.Close()
		srv.Close()
	})
	return s, srv
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeStats(t *testing.T, resp *http.Response) session.Stats {
	t.Helper()
	var st struct {
		Generation uint64 `json:"generation"`
		State      string `json:"state"`
		Rows       int    `json:"rows"`
		RowsDone   int    `json:"rowsDone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	out := session.Stats{Generation: st.Generation, Rows: st.Rows, RowsDone: st.RowsDone}
	if st.State == "rendering" {
		out.State = session.Rendering
	}
	return out
}

func TestImageBeforeRender(t *testing.T) {
	_, srv := newTestServer(t, testConfig(false))
	if resp := do(t, http.MethodGet, srv.URL+"/image"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestViewEndpoints(t *testing.T) {
	s, srv := newTestServer(t, testConfig(false))
	if _, err := s.Redraw(context.Background()); err != nil {
		t.Fatal(err)
	}

	resp := do(t, http.MethodGet, srv.URL+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if st := decodeStats(t, resp); st.Generation != 1 || st.State != session.Idle || st.RowsDone != 16 {
		t.Errorf("status = %+v", st)
	}

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/zoom/in", http.StatusAccepted},
		{"/zoom/out", http.StatusAccepted},
		{"/redraw", http.StatusAccepted},
		{"/recenter?x=3&y=4", http.StatusAccepted},
		{"/recenter?x=24&y=0", http.StatusBadRequest},
		{"/recenter?x=a&y=0", http.StatusBadRequest},
		{"/params?iterations=80&cycles=2", http.StatusAccepted},
		{"/params?iterations=0", http.StatusBadRequest},
		{"/params?escape=x", http.StatusBadRequest},
	}
	gen := uint64(1)
	for _, tt := range tests {
		resp := do(t, http.MethodPost, srv.URL+tt.path)
		if resp.StatusCode != tt.wantStatus {
			t.Errorf("POST %s = %d, want %d", tt.path, resp.StatusCode, tt.wantStatus)
			continue
		}
		if resp.StatusCode == http.StatusAccepted {
			gen++
			if st := decodeStats(t, resp); st.Generation != gen {
				t.Errorf("POST %s: generation = %d, want %d", tt.path, st.Generation, gen)
			}
		}
	}

	if cfg := s.Config(); cfg.MaxIterations != 80 || cfg.ColorCycleCount != 2 || cfg.EscapeRadius != 2 {
		t.Errorf("config = %+v", cfg)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/zoom/in"); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /zoom/in = %d, want 405", resp.StatusCode)
	}
}

func TestImage(t *testing.T) {
	s, srv := newTestServer(t, testConfig(false))
	f, err := s.Redraw(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want, err := f.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	resp := do(t, http.MethodGet, srv.URL+"/image")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if g := resp.Header.Get("X-Generation"); g != "1" {
		t.Errorf("X-Generation = %q, want 1", g)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != want.Bounds() {
		t.Errorf("bounds = %v, want %v", img.Bounds(), want.Bounds())
	}

	if resp := do(t, http.MethodGet, srv.URL+"/image?format=tiff"); resp.Header.Get("Content-Type") != "image/tiff" {
		t.Errorf("tiff Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if resp := do(t, http.MethodGet, srv.URL+"/image?format=bmp"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bmp status = %d, want 400", resp.StatusCode)
	}

	before := bytes.Clone(want.Pix)
	if resp := do(t, http.MethodGet, srv.URL+"/image?caption=1"); resp.StatusCode != http.StatusOK {
		t.Errorf("caption status = %d", resp.StatusCode)
	}
	if !bytes.Equal(want.Pix, before) {
		t.Error("caption was drawn on the session's frame")
	}
}

func TestRemoteWorker(t *testing.T) {
	// no local workers: every row goes over the websocket
	s, srv := newTestServer(t, testConfig(true))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f, err := s.Redraw(ctx)
	if err != nil {
		t.Fatal(err)
	}

	conn, err := wire.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.CloseNow()
	served := make(chan error, 1)
	go func() { served <- wire.Serve(ctx, conn, render.Renderer{}) }()

	img, err := f.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for y := range f.Request.Height {
		want := render.RenderRow(f.Request.Job(y, f.Generation), nil)
		if got := img.Pix[y*img.Stride : y*img.Stride+len(want)]; !bytes.Equal(got, want) {
			t.Errorf("row %d differs from a local render", y)
		}
	}

	// closing the session hangs up on the worker
	s.Close()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
	case <-ctx.Done():
		t.Error("worker was not disconnected")
	}
}
