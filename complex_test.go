package fractal

import (
	"math"
	"testing"
)

var samples = []Complex{
	{0, 0},
	{1, 0},
	{0, 1},
	{-2.5, 1.25},
	{0.3, -0.7},
	{1e-9, 3e8},
	{-0.75, 0.1},
}

func TestComplexCommutes(t *testing.T) {
	for _, a := range samples {
		for _, b := range samples {
			if got, want := a.Add(b), b.Add(a); got != want {
				t.Errorf("%v.Add(%v) = %v, want %v", a, b, got, want)
			}
			if got, want := a.Mul(b), b.Mul(a); got != want {
				t.Errorf("%v.Mul(%v) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestComplexIdentities(t *testing.T) {
	for _, a := range samples {
		if got := a.Add(Complex{}); got != a {
			t.Errorf("%v.Add(0) = %v", a, got)
		}
		if got := a.Mul(C(1, 0)); got != a {
			t.Errorf("%v.Mul(1) = %v", a, got)
		}
		if got := a.Sub(a); got != (Complex{}) {
			t.Errorf("%v.Sub(itself) = %v", a, got)
		}
	}
}

func TestComplexMul(t *testing.T) {
	tests := []struct {
		a, b, want Complex
	}{
		{C(0, 1), C(0, 1), C(-1, 0)},
		{C(1, 2), C(3, 4), C(-5, 10)},
		{C(2, 0), C(2, 0), C(4, 0)},
		{C(1, -1), C(1, -1), C(0, -2)},
	}
	for _, tt := range tests {
		if got := tt.a.Mul(tt.b); got != tt.want {
			t.Errorf("%v.Mul(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOperandsUnchanged(t *testing.T) {
	a, b := C(1, 2), C(3, 4)
	_ = a.Add(b)
	_ = a.Mul(b)
	_ = a.Sub(b)
	if a != C(1, 2) || b != C(3, 4) {
		t.Errorf("operands changed: a = %v, b = %v", a, b)
	}
}

func TestSquaredMagnitude(t *testing.T) {
	for _, a := range samples {
		m := a.SquaredMagnitude()
		if m < 0 {
			t.Errorf("%v.SquaredMagnitude() = %v, want >= 0", a, m)
		}
		if (m == 0) != (a == Complex{}) {
			t.Errorf("%v.SquaredMagnitude() = %v, zero only for the origin", a, m)
		}
	}
	if got := C(3, 4).Magnitude(); got != 5 {
		t.Errorf("Magnitude(3+4i) = %v, want 5", got)
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		c    Complex
		want bool
	}{
		{C(1, 2), true},
		{C(math.NaN(), 0), false},
		{C(0, math.Inf(1)), false},
		{C(math.Inf(-1), 0), false},
	}
	for _, tt := range tests {
		if got := tt.c.IsFinite(); got != tt.want {
			t.Errorf("%v.IsFinite() = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestComplexString(t *testing.T) {
	tests := []struct {
		c    Complex
		want string
	}{
		{C(4, 3), "4+3i"},
		{C(-0.5, -2), "-0.5-2i"},
		{C(0, math.Inf(1)), "0+Infi"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
