// Package value implements the runtime value system the evaluator
// produces and the normalizer consumes: the tagged union of Number,
// Bool, String, Null, Rat, Pos, Pitch, Array, Object, Function, Range,
// Clip, Score, Curve, Lyric, LyricToken, Rng and EnumVariant described
// in spec.md §3.2.
package value

import "fmt"

// Rat is an exact rational always kept reduced with a positive
// denominator, per spec.md §3.2/§3.3.
type Rat struct {
	N int64
	D int64
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// NewRat builds a reduced Rat from n/d. It panics on d == 0, mirroring
// the evaluator's divide-by-zero diagnostic path, which must check the
// denominator before ever calling NewRat.
func NewRat(n, d int64) Rat {
	if d == 0 {
		panic("value: zero denominator")
	}
	if d < 0 {
		n, d = -n, -d
	}
	g := gcd(n, d)
	return Rat{N: n / g, D: d / g}
}

// RatFromInt lifts a whole number into Rat.
func RatFromInt(n int64) Rat { return Rat{N: n, D: 1} }

func (r Rat) Add(o Rat) Rat { return NewRat(r.N*o.D+o.N*r.D, r.D*o.D) }
func (r Rat) Sub(o Rat) Rat { return NewRat(r.N*o.D-o.N*r.D, r.D*o.D) }
func (r Rat) Mul(o Rat) Rat { return NewRat(r.N*o.N, r.D*o.D) }

// Div divides r by o; ok is false when o is zero (the caller reports
// divide-by-zero rather than NewRat panicking on attacker-controlled
// input).
func (r Rat) Div(o Rat) (Rat, bool) {
	if o.N == 0 {
		return Rat{}, false
	}
	return NewRat(r.N*o.D, r.D*o.N), true
}

func (r Rat) Neg() Rat { return Rat{N: -r.N, D: r.D} }

func (r Rat) Cmp(o Rat) int {
	lhs := r.N * o.D
	rhs := o.N * r.D
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

func (r Rat) Equal(o Rat) bool { return r.Cmp(o) == 0 }
func (r Rat) IsZero() bool     { return r.N == 0 }
func (r Rat) Negative() bool   { return r.N < 0 }

func (r Rat) Float64() float64 { return float64(r.N) / float64(r.D) }

func (r Rat) String() string {
	if r.D == 1 {
		return fmt.Sprintf("%d", r.N)
	}
	return fmt.Sprintf("%d/%d", r.N, r.D)
}

// DecimalString renders r to the given number of decimal places,
// matching the template-literal coercion rule in spec.md §4.5.
func (r Rat) DecimalString(places int) string {
	return fmt.Sprintf("%.*f", places, r.Float64())
}
