// Package units provides the value types shared by the decoding pipeline:
// discrete-time frequencies, sample rates and sample buffers.
//
// Frequencies and sample rates are deliberately distinct types. A Freq is a
// discrete-time frequency and only gains a meaning in Hertz once a sample
// rate is attached; a Rate is a sample rate measured in Hertz. Keeping them
// apart makes it hard to mix them up in filter-parameter arithmetic.
package units

import "math"

// Freq is a discrete-time frequency, stored as a fraction of pi radians per
// sample. 1.0 is the Nyquist frequency, 2.0 wraps around to 0.
//
// When a signal is resampled, its frequencies measured in Hertz stay the
// same, but measured as pi fractions they change. That is why filters are
// rescaled by dividing their Freq fields by the rate ratio.
type Freq struct {
	piRad float32
}

// FreqFromPiRad builds a Freq from a fraction of pi radians per sample.
func FreqFromPiRad(f float32) Freq {
	return Freq{piRad: f}
}

// FreqFromRad builds a Freq from radians per sample.
func FreqFromRad(f float32) Freq {
	return Freq{piRad: f / math.Pi}
}

// FreqFromHz builds a Freq from a frequency in Hertz at the given sample
// rate.
func FreqFromHz(hz float32, rate Rate) Freq {
	return Freq{piRad: 2 * hz / float32(rate.Hz())}
}

// PiRad returns the frequency as a fraction of pi radians per sample.
func (f Freq) PiRad() float32 {
	return f.piRad
}

// Rad returns the frequency in radians per sample.
func (f Freq) Rad() float32 {
	return f.piRad * math.Pi
}

// Hz returns the frequency in Hertz at the given sample rate.
func (f Freq) Hz(rate Rate) float32 {
	return f.piRad * float32(rate.Hz()) / 2
}

// Add returns f + o. All arithmetic operates on the pi-fraction
// representation; there is no implicit Hertz conversion.
func (f Freq) Add(o Freq) Freq {
	return Freq{piRad: f.piRad + o.piRad}
}

// Sub returns f - o.
func (f Freq) Sub(o Freq) Freq {
	return Freq{piRad: f.piRad - o.piRad}
}

// Mul returns f * o.
func (f Freq) Mul(o Freq) Freq {
	return Freq{piRad: f.piRad * o.piRad}
}

// Div returns f / o.
func (f Freq) Div(o Freq) Freq {
	return Freq{piRad: f.piRad / o.piRad}
}

// Scale returns f scaled by k.
func (f Freq) Scale(k float32) Freq {
	return Freq{piRad: f.piRad * k}
}

// DivScalar returns f divided by k. Used when rescaling filter parameters by
// a rate ratio: a fixed physical frequency occupies a larger pi fraction at a
// lower sample rate.
func (f Freq) DivScalar(k float32) Freq {
	return Freq{piRad: f.piRad / k}
}

// Less reports whether f is below o.
func (f Freq) Less(o Freq) bool {
	return f.piRad < o.piRad
}
