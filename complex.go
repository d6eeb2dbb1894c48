package fractal

import (
	"math"
	"strconv"
)

// Complex is a point of the complex plane.
// Operations never modify their operands, they return new values.
type Complex struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// C builds a Complex from its components.
func C(re, im float64) Complex {
	return Complex{Re: re, Im: im}
}

func (a Complex) Add(b Complex) Complex {
	return Complex{Re: a.Re + b.Re, Im: a.Im + b.Im}
}

func (a Complex) Sub(b Complex) Complex {
	return Complex{Re: a.Re - b.Re, Im: a.Im - b.Im}
}

func (a Complex) Mul(b Complex) Complex {
	return Complex{
		Re: a.Re*b.Re - a.Im*b.Im,
		Im: a.Re*b.Im + a.Im*b.Re,
	}
}

// SquaredMagnitude returns re² + im².
func (a Complex) SquaredMagnitude() float64 {
	return a.Re*a.Re + a.Im*a.Im
}

func (a Complex) Magnitude() float64 {
	return math.Sqrt(a.SquaredMagnitude())
}

// IsFinite reports whether neither component is NaN or infinite.
func (a Complex) IsFinite() bool {
	return isFinite(a.Re) && isFinite(a.Im)
}

func (a Complex) String() string {
	im := strconv.FormatFloat(a.Im, 'g', -1, 64)
	if im[0] != '-' && im[0] != '+' {
		im = "+" + im
	}
	return strconv.FormatFloat(a.Re, 'g', -1, 64) + im + "i"
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
