// Package fixmath implements the deterministic numeric substrate the rest of
// the simulation core builds on: a fixed-point scalar, integer-degree trig
// tables, and rectangle/area helpers. Nothing in this package touches
// float64 for a value that can affect gameplay state.
package fixmath

import "fmt"

// Fixed is a Q16.16 signed fixed-point scalar. The fractional width is an
// implementation choice; what matters is that it is identical across every
// peer running the same build.
type Fixed int64

const fixedShift = 16
const fixedOne = Fixed(1 << fixedShift)

// FromInt converts a plain integer to fixed-point.
func FromInt(i int) Fixed { return Fixed(i) << fixedShift }

// ToInt rounds toward negative infinity (arithmetic shift), so -0.5 gives -1.
func (f Fixed) ToInt() int { return int(f >> fixedShift) }

// Round rounds to the nearest integer, half away from zero.
func (f Fixed) Round() int {
	if f >= 0 {
		return int((f + fixedOne/2) >> fixedShift)
	}
	return -int((-f + fixedOne/2) >> fixedShift)
}

func (f Fixed) Add(o Fixed) Fixed { return f + o }
func (f Fixed) Sub(o Fixed) Fixed { return f - o }

func (f Fixed) Mul(o Fixed) Fixed {
	return Fixed((int64(f) * int64(o)) >> fixedShift)
}

func (f Fixed) Div(o Fixed) Fixed {
	if o == 0 {
		return 0
	}
	return Fixed((int64(f) << fixedShift) / int64(o))
}

func (f Fixed) Sign() int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

func (f Fixed) Abs() Fixed {
	if f < 0 {
		return -f
	}
	return f
}

func (f Fixed) String() string {
	return fmt.Sprintf("%.4f", float64(f)/float64(fixedOne))
}

// Degree angle constants, matching the original engine's convention of an
// integer degree lookup table rather than radians.
const (
	FullCircle = 360
	HalfCircle = 180
)

var sinTable [FullCircle]Fixed
var cosTable [FullCircle]Fixed

func init() {
	// Computed once at process start by sinApprox/cosApprox; gameplay code
	// only ever reads the resulting fixed-point table.
	for deg := 0; deg < FullCircle; deg++ {
		rad := float64(deg) * 3.14159265358979323846 / 180.0
		sinTable[deg] = Fixed(sinApprox(rad) * float64(fixedOne))
		cosTable[deg] = Fixed(cosApprox(rad) * float64(fixedOne))
	}
}

// Sin and Cos index into the precomputed table by integer degree, wrapping
// into [0, FullCircle).
func Sin(degree int) Fixed { return sinTable[normalizeDegree(degree)] }
func Cos(degree int) Fixed { return cosTable[normalizeDegree(degree)] }

func normalizeDegree(degree int) int {
	degree %= FullCircle
	if degree < 0 {
		degree += FullCircle
	}
	return degree
}

// Distance returns the rounded integer Euclidean distance between two
// points, using 64-bit intermediates to avoid overflow.
func Distance(x1, y1, x2, y2 int) int {
	dx := int64(x2 - x1)
	dy := int64(y2 - y1)
	v := dx*dx + dy*dy
	r := isqrt(v)
	if v-r*r > r {
		r++
	}
	return int(r)
}

func isqrt(v int64) int64 {
	if v <= 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}

// Pow performs fast integer exponentiation (base^exp), exp >= 0.
func Pow(base, exp int) int {
	result := 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// sinApprox/cosApprox are only used at init time to seed the lookup table;
// they are not on any hot gameplay path and their result is baked into the
// table identically across builds of the same source.
func sinApprox(x float64) float64 {
	// Taylor series, sufficiently precise for an integer-degree table.
	x = wrapPi(x)
	if x > 1.5707963267948966 {
		x = 3.141592653589793 - x
	} else if x < -1.5707963267948966 {
		x = -3.141592653589793 - x
	}
	x2 := x * x
	return x * (1 - x2/6*(1-x2/20*(1-x2/42)))
}

func cosApprox(x float64) float64 {
	return sinApprox(x + 1.5707963267948966)
}

func wrapPi(x float64) float64 {
	const twoPi = 6.283185307179586
	for x > 3.141592653589793 {
		x -= twoPi
	}
	for x < -3.141592653589793 {
		x += twoPi
	}
	return x
}
