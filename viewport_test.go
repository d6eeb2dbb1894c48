package fractal

import (
	"math"
	"testing"
)

const eps = 1e-12

func near(a, b Complex) bool {
	return math.Abs(a.Re-b.Re) <= eps && math.Abs(a.Im-b.Im) <= eps
}

func TestPixelToPoint(t *testing.T) {
	v := Viewport{Origin: C(-2, 2), SpanRe: 4, SpanIm: 4}
	tests := []struct {
		x, y int
		want Complex
	}{
		{0, 0, C(-2, 2)},
		{2, 2, C(0, 0)},
		{3, 0, C(1, 2)},
		{0, 3, C(-2, -1)},
		{1, 3, C(-1, -1)},
	}
	for _, tt := range tests {
		if got := v.PixelToPoint(tt.x, tt.y, 4, 4); got != tt.want {
			t.Errorf("PixelToPoint(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRecenterOnPixel(t *testing.T) {
	const w, h = 640, 480
	views := []Viewport{
		DefaultViewport.FitAspect(w, h),
		SeahorseValley.FitAspect(w, h),
		{Origin: C(0.25, -0.1), SpanRe: 1e-6, SpanIm: 7.5e-7},
	}
	pixels := [][2]int{{0, 0}, {w - 1, h - 1}, {17, 400}, {w / 2, h / 2}, {600, 3}}
	for _, v := range views {
		for _, p := range pixels {
			want := v.PixelToPoint(p[0], p[1], w, h)
			nv := v.Recenter(want)
			got := nv.PixelToPoint(w/2, h/2, w, h)
			if !near(got, want) {
				t.Errorf("%+v: center after recentering on %v = %v, want %v", v, p, got, want)
			}
			if nv.SpanRe != v.SpanRe || nv.SpanIm != v.SpanIm {
				t.Errorf("Recenter changed spans: %+v -> %+v", v, nv)
			}
		}
	}
}

func TestZoomRoundTrip(t *testing.T) {
	// dyadic values survive the origin shifts without rounding
	exact := []Viewport{
		{Origin: C(-2, 2), SpanRe: 4, SpanIm: 4},
		{Origin: C(-0.75, 0.125), SpanRe: 0.5, SpanIm: 0.25},
	}
	for _, v := range exact {
		if got := v.ZoomIn().ZoomOut(); got != v {
			t.Errorf("%+v.ZoomIn().ZoomOut() = %+v", v, got)
		}
		if got := v.ZoomOut().ZoomIn(); got != v {
			t.Errorf("%+v.ZoomOut().ZoomIn() = %+v", v, got)
		}
	}

	for _, v := range []Viewport{DefaultViewport, SeahorseValley, ElephantValley, MinibrotInMiniSpiral} {
		got := v.ZoomIn().ZoomOut()
		if !near(got.Origin, v.Origin) || got.SpanRe != v.SpanRe || got.SpanIm != v.SpanIm {
			t.Errorf("%+v.ZoomIn().ZoomOut() = %+v", v, got)
		}
	}
}

func TestZoomKeepsCenter(t *testing.T) {
	v := SeahorseValley
	in := v.ZoomIn()
	if !near(in.Center(), v.Center()) {
		t.Errorf("ZoomIn center = %v, want %v", in.Center(), v.Center())
	}
	if in.SpanRe != v.SpanRe/2 || in.SpanIm != v.SpanIm/2 {
		t.Errorf("ZoomIn spans = %g x %g, want halves of %g x %g", in.SpanRe, in.SpanIm, v.SpanRe, v.SpanIm)
	}
	out := v.ZoomOut()
	if !near(out.Center(), v.Center()) {
		t.Errorf("ZoomOut center = %v, want %v", out.Center(), v.Center())
	}
}

func TestPan(t *testing.T) {
	v := Viewport{Origin: C(-2, 2), SpanRe: 4, SpanIm: 2}
	got := v.Pan(0.25, 0.5)
	want := Viewport{Origin: C(-1, 1), SpanRe: 4, SpanIm: 2}
	if got != want {
		t.Errorf("Pan(0.25, 0.5) = %+v, want %+v", got, want)
	}
	if back := got.Pan(-0.25, -0.5); back != v {
		t.Errorf("Pan back = %+v, want %+v", back, v)
	}
}

func TestFitAspect(t *testing.T) {
	tests := []struct {
		w, h int
		want float64
	}{
		{100, 100, 3},
		{200, 100, 1.5},
		{100, 200, 6},
		{1920, 1080, 3 * 1080.0 / 1920},
	}
	for _, tt := range tests {
		got := DefaultViewport.FitAspect(tt.w, tt.h)
		if math.Abs(got.SpanIm-tt.want) > eps {
			t.Errorf("FitAspect(%d, %d).SpanIm = %g, want %g", tt.w, tt.h, got.SpanIm, tt.want)
		}
		if got.SpanRe != DefaultViewport.SpanRe {
			t.Errorf("FitAspect(%d, %d).SpanRe = %g, want unchanged", tt.w, tt.h, got.SpanRe)
		}
		if !near(got.Center(), DefaultViewport.Center()) {
			t.Errorf("FitAspect(%d, %d) center = %v, want %v", tt.w, tt.h, got.Center(), DefaultViewport.Center())
		}
	}

	if got := DefaultViewport.FitAspect(0, 10); got != DefaultViewport {
		t.Errorf("FitAspect on an empty canvas = %+v, want unchanged", got)
	}
}

func TestViewportValidate(t *testing.T) {
	tests := []struct {
		name    string
		v       Viewport
		wantErr bool
	}{
		{"default", DefaultViewport, false},
		{"zero span", Viewport{Origin: C(0, 0), SpanRe: 0, SpanIm: 1}, true},
		{"negative span", Viewport{Origin: C(0, 0), SpanRe: 1, SpanIm: -1}, true},
		{"nan origin", Viewport{Origin: C(math.NaN(), 0), SpanRe: 1, SpanIm: 1}, true},
		{"infinite span", Viewport{Origin: C(0, 0), SpanRe: math.Inf(1), SpanIm: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.v.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegionViewport(t *testing.T) {
	v := RegionViewport(-0.8, -0.7, 0.05, 0.15)
	if v.Origin != C(-0.8, 0.15) {
		t.Errorf("Origin = %v, want top-left corner", v.Origin)
	}
	if br := v.PixelToPoint(10, 10, 10, 10); !near(br, C(-0.7, 0.05)) {
		t.Errorf("bottom-right = %v, want -0.7+0.05i", br)
	}
}
