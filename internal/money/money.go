// Package money provides the rounding and clamping primitives shared by the
// ledger engine. Every monetary value passes through Round2 before it is
// stored, compared, or summed; intermediate sums are rounded immediately so
// that totals computed by transaction agree with totals computed by identity
// to the cent.
package money

import (
	"math"
	"strconv"
)

// Amount is a monetary value carrying two-decimal precision.
type Amount float64

// epsilon absorbs float drift before rounding, so that values like
// 2.675 arriving as 2.67499999 still round up.
const epsilon = 1e-9

// Round2 rounds to two decimal places, half away from zero, after adding a
// small epsilon.
func Round2(x float64) Amount {
	y := x + epsilon
	if y >= 0 {
		return Amount(math.Floor(y*100+0.5) / 100)
	}
	return Amount(math.Ceil(y*100-0.5) / 100)
}

// NonNegative clamps negative amounts to zero.
func NonNegative(a Amount) Amount {
	if a < 0 {
		return 0
	}
	return a
}

// Min returns the smaller of two amounts.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Add returns the rounded sum of the amount and x.
func (a Amount) Add(x Amount) Amount {
	return Round2(float64(a) + float64(x))
}

// Sub returns the rounded difference of the amount and x.
func (a Amount) Sub(x Amount) Amount {
	return Round2(float64(a) - float64(x))
}

// Float64 returns the underlying float value.
func (a Amount) Float64() float64 { return float64(a) }

// String formats the amount with exactly two fraction digits.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

// MarshalJSON serializes the amount as a decimal with exactly two fraction
// digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON parses a decimal and rounds it to two fraction digits.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*a = Round2(v)
	return nil
}
