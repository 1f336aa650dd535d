package fraction

import (
	"errors"
	"testing"

	serrors "github.com/FocuswithJustin/staffline/core/errors"
)

func TestNewNormalizes(t *testing.T) {
	tests := []struct {
		num, den         int
		wantNum, wantDen int
	}{
		{2, 4, 1, 2},
		{-3, -6, 1, 2},
		{3, -6, -1, 2},
		{0, 7, 0, 1},
		{12, 4, 3, 1},
	}

	for _, tt := range tests {
		f := New(tt.num, tt.den)
		if f.Numerator() != tt.wantNum || f.Denominator() != tt.wantDen {
			t.Errorf("New(%d, %d) = %s, want %d/%d", tt.num, tt.den, f, tt.wantNum, tt.wantDen)
		}
	}
}

func TestArithmetic(t *testing.T) {
	half := New(1, 2)
	third := New(1, 3)

	tests := []struct {
		name string
		got  Fraction
		want Fraction
	}{
		{"add", half.Add(third), New(5, 6)},
		{"sub", half.Sub(third), New(1, 6)},
		{"mul", half.Mul(third), New(1, 6)},
		{"div", half.Div(third), New(3, 2)},
		{"triplet eighths fill a quarter", Sum(New(1, 3), New(1, 3), New(1, 3)), FromInt(1)},
		{"zero value acts as zero", Fraction{}.Add(half), half},
		{"max", Max(half, third), half},
		{"min", Min(half, third), third},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(tt.want) {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	a, b := New(3, 8), New(1, 2)
	if !a.Less(b) || a.Greater(b) || a.Equal(b) {
		t.Errorf("3/8 vs 1/2 comparisons wrong")
	}
	if New(2, 4).Cmp(New(1, 2)) != 0 {
		t.Error("2/4 should equal 1/2")
	}
	if !Zero().IsZero() || !(Fraction{}).IsZero() {
		t.Error("zero values should be zero")
	}
	if !b.IsPositive() || New(-1, 2).IsPositive() {
		t.Error("IsPositive mismatch")
	}
}

func TestStringAndFloat(t *testing.T) {
	if got := New(6, 8).String(); got != "3/4" {
		t.Errorf("String() = %q, want 3/4", got)
	}
	if got := FromInt(4).String(); got != "4" {
		t.Errorf("String() = %q, want 4", got)
	}
	if got := New(3, 4).Float64(); got != 0.75 {
		t.Errorf("Float64() = %v, want 0.75", got)
	}
}

func TestZeroDenominatorIsInvariant(t *testing.T) {
	run := func(fn func()) (err error) {
		defer serrors.Recover(&err)
		fn()
		return nil
	}

	if err := run(func() { New(1, 0) }); !errors.Is(err, serrors.ErrInternal) {
		t.Errorf("New(1, 0) error = %v, want ErrInternal", err)
	}
	if err := run(func() { FromInt(1).Div(Zero()) }); !errors.Is(err, serrors.ErrInternal) {
		t.Errorf("Div(0) error = %v, want ErrInternal", err)
	}
}

func TestParseAndText(t *testing.T) {
	tests := []struct {
		in      string
		want    Fraction
		wantErr bool
	}{
		{"3/4", New(3, 4), false},
		{"6/8", New(3, 4), false},
		{"2", FromInt(2), false},
		{" 1/3 ", New(1, 3), false},
		{"x/4", Fraction{}, true},
		{"1/0", Fraction{}, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !got.Equal(tt.want) {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	text, _ := New(5, 2).MarshalText()
	var back Fraction
	if err := back.UnmarshalText(text); err != nil || !back.Equal(New(5, 2)) {
		t.Errorf("text round trip = %s, %v", back, err)
	}
}
