// Package fraction implements exact rational arithmetic for beat positions
// and durations. A beat value of 1 is one quarter note.
package fraction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/staffline/core/errors"
)

// Fraction is an immutable, always-normalized rational number. The zero
// value is 0/1.
type Fraction struct {
	num int
	den int
}

// New returns num/den in lowest terms. A zero denominator is a programming
// error.
func New(num, den int) Fraction {
	if den == 0 {
		errors.Invariantf("fraction", "zero denominator for %d/0", num)
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	return Fraction{num: num / g, den: den / g}
}

// FromInt returns n/1.
func FromInt(n int) Fraction {
	return Fraction{num: n, den: 1}
}

// Zero returns 0/1.
func Zero() Fraction {
	return Fraction{num: 0, den: 1}
}

// Numerator returns the reduced numerator.
func (f Fraction) Numerator() int {
	return f.num
}

// Denominator returns the reduced, always-positive denominator.
func (f Fraction) Denominator() int {
	if f.den == 0 {
		return 1
	}
	return f.den
}

func (f Fraction) norm() Fraction {
	if f.den == 0 {
		return Fraction{num: 0, den: 1}
	}
	return f
}

// Add returns f + g.
func (f Fraction) Add(g Fraction) Fraction {
	f, g = f.norm(), g.norm()
	return New(f.num*g.den+g.num*f.den, f.den*g.den)
}

// Sub returns f - g.
func (f Fraction) Sub(g Fraction) Fraction {
	f, g = f.norm(), g.norm()
	return New(f.num*g.den-g.num*f.den, f.den*g.den)
}

// Mul returns f * g.
func (f Fraction) Mul(g Fraction) Fraction {
	f, g = f.norm(), g.norm()
	return New(f.num*g.num, f.den*g.den)
}

// Div returns f / g. Dividing by zero is a programming error.
func (f Fraction) Div(g Fraction) Fraction {
	f, g = f.norm(), g.norm()
	if g.num == 0 {
		errors.Invariantf("fraction", "division of %s by zero", f)
	}
	return New(f.num*g.den, f.den*g.num)
}

// Cmp returns -1, 0 or +1 depending on whether f is less than, equal to or
// greater than g.
func (f Fraction) Cmp(g Fraction) int {
	f, g = f.norm(), g.norm()
	l, r := f.num*g.den, g.num*f.den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

// Equal reports whether f == g.
func (f Fraction) Equal(g Fraction) bool { return f.Cmp(g) == 0 }

// Less reports whether f < g.
func (f Fraction) Less(g Fraction) bool { return f.Cmp(g) < 0 }

// Greater reports whether f > g.
func (f Fraction) Greater(g Fraction) bool { return f.Cmp(g) > 0 }

// IsZero reports whether f == 0.
func (f Fraction) IsZero() bool { return f.num == 0 }

// IsPositive reports whether f > 0.
func (f Fraction) IsPositive() bool { return f.num > 0 }

// Float64 returns the nearest float64 value.
func (f Fraction) Float64() float64 {
	f = f.norm()
	return float64(f.num) / float64(f.den)
}

// String formats f as "n/d", or "n" for whole numbers.
func (f Fraction) String() string {
	f = f.norm()
	if f.den == 1 {
		return fmt.Sprintf("%d", f.num)
	}
	return fmt.Sprintf("%d/%d", f.num, f.den)
}

// Parse reads "n/d" or "n".
func Parse(s string) (Fraction, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.Atoi(num)
	if err != nil {
		return Fraction{}, errors.NewParse("fraction", s, err.Error())
	}
	if !found {
		return FromInt(n), nil
	}
	d, err := strconv.Atoi(den)
	if err != nil || d == 0 {
		return Fraction{}, errors.NewParse("fraction", s, "invalid denominator")
	}
	return New(n, d), nil
}

// MarshalText encodes f in its String form.
func (f Fraction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes the String form.
func (f *Fraction) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Max returns the larger of a and b.
func Max(a, b Fraction) Fraction {
	if a.Less(b) {
		return b
	}
	return a
}

// Min returns the smaller of a and b.
func Min(a, b Fraction) Fraction {
	if b.Less(a) {
		return b
	}
	return a
}

// Sum adds all values.
func Sum(values ...Fraction) Fraction {
	total := Zero()
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
