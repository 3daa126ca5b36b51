// Package dsp implements the signal-processing stages of the decoder: FIR
// filter design, rational-rate resampling, AM demodulation and convolution.
//
// The filter shapes are a closed set fixed by the transmission format, so
// they are plain value types behind a small interface rather than anything
// extensible.
package dsp

import (
	"math"

	"github.com/banshee-data/aptdec/internal/units"
)

// Filter designs FIR kernels from high-level parameters.
type Filter interface {
	// Design produces the FIR coefficient sequence.
	Design() units.Signal

	// Resample rescales the filter's frequency parameters for use at a
	// different sample rate, in place. Clone first if the original must
	// survive.
	Resample(inputRate, outputRate units.Rate)
}

// NoFilter is the identity filter. Its impulse response is an impulse.
//
// It is used when the signal was already band-limited upstream and the
// resampler only needs to decimate.
type NoFilter struct{}

// Design returns the single-tap identity kernel.
func (NoFilter) Design() units.Signal {
	return units.Signal{1}
}

// Resample is a no-op; the identity has no frequency parameters.
func (NoFilter) Resample(inputRate, outputRate units.Rate) {}

// Lowpass is a lowpass FIR filter, windowed by a Kaiser window.
//
// Atten is the stopband attenuation in positive decibels. The transition
// band goes from Cutout - DeltaW/2 to Cutout + DeltaW/2.
type Lowpass struct {
	Cutout units.Freq
	Atten  float32
	DeltaW units.Freq
}

// Design produces the windowed-sinc kernel.
func (f *Lowpass) Design() units.Signal {
	window := kaiser(f.Atten, f.DeltaW)

	if len(window)%2 == 0 {
		panic("kaiser window length should be odd")
	}

	filter := make(units.Signal, 0, len(window))
	m := len(window)

	cutout := float64(f.Cutout.PiRad())
	for n := -(m - 1) / 2; n <= (m-1)/2; n++ {
		if n == 0 {
			// Center tap equals the cutoff pi fraction so the
			// passband gain at DC stays 1.
			filter = append(filter, float32(cutout))
		} else {
			x := float64(n) * math.Pi
			filter = append(filter, float32(math.Sin(x*cutout)/x))
		}
	}

	return Product(filter, window)
}

// Resample rescales the cutoff and transition width by the rate ratio.
func (f *Lowpass) Resample(inputRate, outputRate units.Rate) {
	ratio := float32(outputRate.Hz()) / float32(inputRate.Hz())
	f.Cutout = f.Cutout.DivScalar(ratio)
	f.DeltaW = f.DeltaW.DivScalar(ratio)
}

// LowpassDcRemoval is a lowpass filter that additionally suppresses DC,
// windowed by a Kaiser window.
//
// It is really a bandpass: besides the lowpass transition band around
// Cutout, a second transition band goes from 0 to DeltaW, removing DC and
// very-low-frequency drift.
type LowpassDcRemoval struct {
	Cutout units.Freq
	Atten  float32
	DeltaW units.Freq
}

// Design produces the windowed kernel: the lowpass sinc minus a second sinc
// with cutoff DeltaW/2.
func (f *LowpassDcRemoval) Design() units.Signal {
	window := kaiser(f.Atten, f.DeltaW)

	if len(window)%2 == 0 {
		panic("kaiser window length should be odd")
	}

	filter := make(units.Signal, 0, len(window))
	m := len(window)

	cutout := float64(f.Cutout.PiRad())
	dc := float64(f.DeltaW.DivScalar(2).PiRad())
	for n := -(m - 1) / 2; n <= (m-1)/2; n++ {
		if n == 0 {
			filter = append(filter, float32(cutout-dc))
		} else {
			x := float64(n) * math.Pi
			filter = append(filter, float32(math.Sin(x*cutout)/x-math.Sin(x*dc)/x))
		}
	}

	return Product(filter, window)
}

// Resample rescales the cutoff and transition width by the rate ratio.
func (f *LowpassDcRemoval) Resample(inputRate, outputRate units.Rate) {
	ratio := float32(outputRate.Hz()) / float32(inputRate.Hz())
	f.Cutout = f.Cutout.DivScalar(ratio)
	f.DeltaW = f.DeltaW.DivScalar(ratio)
}

// kaiser designs a Kaiser window for the given attenuation and transition
// width. The length depends on the parameters and is always odd.
func kaiser(atten float32, deltaW units.Freq) units.Signal {
	a := float64(atten)

	var beta float64
	switch {
	case a > 50:
		beta = 0.1102 * (a - 8.7)
	case a < 21:
		beta = 0
	default:
		beta = 0.5842*math.Pow(a-21, 0.4) + 0.07886*(a-21)
	}

	length := int(math.Ceil((a-8)/(2.285*float64(deltaW.Rad())))) + 1
	if length%2 == 0 {
		length++
	}

	window := make(units.Signal, 0, length)
	den := besselI0(beta)
	half := float64(length) / 2
	for n := -(length - 1) / 2; n <= (length-1)/2; n++ {
		x := float64(n) / half
		window = append(window, float32(besselI0(beta*math.Sqrt(1-x*x))/den))
	}

	return window
}

// Product multiplies two vectors element by element. Panics when the lengths
// differ; that is a programming error, not an input error.
func Product(v1, v2 units.Signal) units.Signal {
	if len(v1) != len(v2) {
		panic("product: both vectors must have the same length")
	}

	out := make(units.Signal, len(v1))
	for i := range v1 {
		out[i] = v1[i] * v2[i]
	}
	return out
}
