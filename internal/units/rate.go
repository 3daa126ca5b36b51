package units

import (
	"fmt"
	"math"
)

// Rate is an integer sample rate in Hertz. The zero value means "no rate";
// valid rates are always positive.
//
// Rates stay within 32 bits on purpose: the resampler multiplies rates by
// the interpolation factor L, and an unchecked multiply is an easy way to
// overflow on odd user-chosen rates.
type Rate struct {
	hz int
}

// NewRate builds a Rate, rejecting non-positive values.
func NewRate(hz int) (Rate, error) {
	if hz <= 0 {
		return Rate{}, fmt.Errorf("sample rate must be positive, got %d", hz)
	}
	if hz > math.MaxInt32 {
		return Rate{}, fmt.Errorf("sample rate %d overflows 32 bits", hz)
	}
	return Rate{hz: hz}, nil
}

// MustRate is NewRate for rates known at compile time. Panics on invalid
// input.
func MustRate(hz int) Rate {
	r, err := NewRate(hz)
	if err != nil {
		panic(err)
	}
	return r
}

// Hz returns the rate in Hertz.
func (r Rate) Hz() int {
	return r.hz
}

// IsZero reports whether the rate is unset.
func (r Rate) IsZero() bool {
	return r.hz == 0
}

// Mul returns the rate multiplied by n, with an overflow check.
func (r Rate) Mul(n int) (Rate, error) {
	if n <= 0 {
		return Rate{}, fmt.Errorf("rate factor must be positive, got %d", n)
	}
	product := r.hz * n
	if product/n != r.hz || product > math.MaxInt32 {
		return Rate{}, fmt.Errorf("rate %d * %d overflows", r.hz, n)
	}
	return Rate{hz: product}, nil
}

// Div returns the rate divided by n. Integer division; the caller is
// responsible for n dividing the rate evenly when that matters.
func (r Rate) Div(n int) (Rate, error) {
	if n <= 0 {
		return Rate{}, fmt.Errorf("rate divisor must be positive, got %d", n)
	}
	if r.hz/n == 0 {
		return Rate{}, fmt.Errorf("rate %d / %d is zero", r.hz, n)
	}
	return Rate{hz: r.hz / n}, nil
}

// GCD returns the greatest common divisor of two rates, used to split a
// resampling ratio into interpolation and decimation factors.
func (r Rate) GCD(o Rate) int {
	a, b := r.hz, o.hz
	for a != 0 {
		a, b = b%a, a
	}
	return b
}
