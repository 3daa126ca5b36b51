package dsp

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/aptdec/internal/monitoring"
	"github.com/banshee-data/aptdec/internal/pipeline"
	"github.com/banshee-data/aptdec/internal/units"
)

// ErrInsufficientSignal is returned when there are not enough samples to run
// a stage: an empty input, an input shorter than the filter's group delay,
// or an empty resampling result. It is an expected outcome for recordings
// that are too short, not a defect.
var ErrInsufficientSignal = errors.New("not enough signal")

// ErrInvalidParameter is returned for parameter combinations the pipeline
// cannot work with, like sample rates whose ratio the sync pattern cannot
// represent.
var ErrInvalidParameter = errors.New("invalid parameter")

// ResampleWithFilter converts a signal from inputRate to outputRate while
// applying the given filter, which must have its frequencies referenced to
// the input rate. Filtering happens at the expanded intermediate rate, so
// designing and filtering are one pass and the filter can double as the
// anti-aliasing stage.
//
// The filter is rescaled in place for the intermediate rate; pass a fresh
// filter value if the original must survive.
func ResampleWithFilter(
	ctx *pipeline.Context,
	signal units.Signal,
	inputRate, outputRate units.Rate,
	filt Filter,
) (units.Signal, error) {

	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: no samples to resample", ErrInsufficientSignal)
	}

	g := inputRate.GCD(outputRate)
	l := outputRate.Hz() / g // interpolation factor
	m := inputRate.Hz() / g  // decimation factor

	expandedRate, err := inputRate.Mul(l)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	// Reference the filter frequencies to the rate after expansion.
	filt.Resample(inputRate, expandedRate)
	coeff := filt.Design()

	if err := ctx.Step(pipeline.FilterStep("resample_filter", coeff)); err != nil {
		return nil, err
	}

	if len(signal)*l <= (len(coeff)-1)/2 {
		return nil, fmt.Errorf("%w: input shorter than the filter group delay (%d taps at L=%d)",
			ErrInsufficientSignal, len(coeff), l)
	}

	result, err := fastResample(ctx, signal, l, m, coeff, expandedRate)
	if err != nil {
		return nil, err
	}

	if err := ctx.Step(pipeline.SignalStep("resample_decimated", result, outputRate)); err != nil {
		return nil, err
	}

	return result, nil
}

// Resample converts a signal between rates using a default 40 dB lowpass
// with the given attenuation and transition band, cutting at whichever
// Nyquist limit is smaller.
func Resample(
	ctx *pipeline.Context,
	signal units.Signal,
	inputRate, outputRate units.Rate,
	atten float32,
	deltaW units.Freq,
) (units.Signal, error) {

	var cutout units.Freq
	if outputRate.Hz() > inputRate.Hz() {
		// Upsampling: keep the original spectrum, cut above the input
		// Nyquist. Same as pi radians per sample.
		cutout = units.FreqFromHz(float32(inputRate.Hz())/2, inputRate)
	} else {
		// Downsampling: cut everything that does not fit in the new
		// rate.
		cutout = units.FreqFromHz(float32(outputRate.Hz())/2, inputRate)
	}

	return ResampleWithFilter(ctx, signal, inputRate, outputRate, &Lowpass{
		Cutout: cutout,
		Atten:  atten,
		DeltaW: deltaW,
	})
}

// fastResample expands the signal by l (insertion of l-1 zeros between
// samples), convolves with coeff and decimates by m, without materializing
// the expanded signal: it walks the sample positions that survive
// decimation and only touches the non-zero products inside each filter
// window. The kernel is centered, so the output carries no group delay.
//
// coeff must be designed for the expanded rate and have odd length.
func fastResample(
	ctx *pipeline.Context,
	signal units.Signal,
	l, m int,
	coeff units.Signal,
	expandedRate units.Rate,
) (units.Signal, error) {

	monitoring.Logf("dsp: resampling by L/M: %d/%d, %d taps", l, m, len(coeff))

	output := make(units.Signal, 0, len(signal)*l/m+1)

	// Only materialized when the expensive export is requested: at large
	// L this is gigabytes.
	var expanded units.Signal
	exportExpanded := ctx.Recording() && ctx.ExportResampleFiltered
	if exportExpanded {
		expanded = make(units.Signal, 0, len(signal)*l)
	}

	offset := (len(coeff) - 1) / 2 // filter delay on the expanded axis

	t := offset // position of the current output sample on the expanded axis
	for t < len(signal)*l {

		// First expanded position inside the window that holds an
		// input sample.
		var n int
		if t > offset {
			n = t - offset
			if rem := n % l; rem != 0 {
				n += l - rem
			}
		}

		sum := 0.0
		x := n / l // input sample index for position n
		for ; n <= t+offset; n += l {
			if x < len(signal) {
				sum += float64(coeff[n+offset-t]) * float64(signal[x])
			}
			x++
		}

		if exportExpanded {
			// Walk every expanded position so the intermediate can
			// be exported; only every m-th sample reaches the
			// output.
			expanded = append(expanded, float32(sum))
			t++
			if t%m == 0 {
				output = append(output, float32(sum))
			}
		} else {
			output = append(output, float32(sum))
			t += m
		}
	}

	err := ctx.Step(pipeline.SignalStep("resample_filtered", expanded, expandedRate))
	if err != nil {
		return nil, err
	}

	return output, nil
}

// Demodulate runs AM envelope detection referenced to the carrier
// frequency. Each output sample is computed from two consecutive input
// samples:
//
//	y[i] = sqrt(x[i-1]² + x[i]² - x[i-1]·x[i]·2·cos(phi)) / sin(phi)
//
// with phi derived from the carrier. The output is the raw, unfiltered
// envelope; a lowpass afterwards removes the detection ripple above the
// pixel rate.
func Demodulate(
	ctx *pipeline.Context,
	signal units.Signal,
	carrier units.Freq,
) (units.Signal, error) {

	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: no samples to demodulate", ErrInsufficientSignal)
	}

	monitoring.Logf("dsp: demodulating %d samples, carrier pi*%v rad/sample",
		len(signal), carrier.PiRad())

	output := make(units.Signal, len(signal))

	phi := 2 * float64(carrier.Rad())
	cosphi2 := math.Cos(phi) * 2
	sinphi := math.Sin(phi)

	prev := float64(signal[0])
	prevSq := prev * prev
	for i := 1; i < len(signal); i++ {
		curr := float64(signal[i])
		currSq := curr * curr

		output[i] = float32(math.Sqrt(prevSq+currSq-prev*curr*cosphi2) / sinphi)

		prev, prevSq = curr, currSq
	}

	if err := ctx.Step(pipeline.SignalStep("demodulation_result", output, units.Rate{})); err != nil {
		return nil, err
	}
	return output, nil
}

// ApplyFilter designs the filter and convolves the signal with it. The
// output is causal and has the same length as the input.
func ApplyFilter(
	ctx *pipeline.Context,
	signal units.Signal,
	filt Filter,
) (units.Signal, error) {

	coeff := filt.Design()
	output := convolve(signal, coeff)

	if err := ctx.Step(pipeline.FilterStep("filter_filter", coeff)); err != nil {
		return nil, err
	}
	if err := ctx.Step(pipeline.SignalStep("filter_result", output, units.Rate{})); err != nil {
		return nil, err
	}
	return output, nil
}

// convolve computes the causal convolution of signal and coeff, trimmed to
// the input length. Samples before the start of the signal are taken as
// zero.
func convolve(signal, coeff units.Signal) units.Signal {
	output := make(units.Signal, len(signal))
	for i := range signal {
		sum := 0.0
		for j, c := range coeff {
			if i >= j {
				sum += float64(signal[i-j]) * float64(c)
			}
		}
		output[i] = float32(sum)
	}
	return output
}
