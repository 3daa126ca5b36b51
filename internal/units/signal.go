package units

import "errors"

// Signal is an ordered sequence of single-precision samples. A Signal has no
// inherent sample rate; callers carry the Rate alongside. Pipeline stages
// produce new Signals instead of mutating their input.
type Signal []float32

// ErrEmptySignal is returned when an operation needs at least one sample.
var ErrEmptySignal = errors.New("signal has no samples")

// Max returns the biggest sample in the signal.
func (s Signal) Max() (float32, error) {
	if len(s) == 0 {
		return 0, ErrEmptySignal
	}
	max := s[0]
	for _, v := range s[1:] {
		if v > max {
			max = v
		}
	}
	return max, nil
}

// Min returns the smallest sample in the signal.
func (s Signal) Min() (float32, error) {
	if len(s) == 0 {
		return 0, ErrEmptySignal
	}
	min := s[0]
	for _, v := range s[1:] {
		if v < min {
			min = v
		}
	}
	return min, nil
}
