package apt

import (
	"fmt"

	"github.com/banshee-data/aptdec/internal/dsp"
	"github.com/banshee-data/aptdec/internal/monitoring"
	"github.com/banshee-data/aptdec/internal/pipeline"
	"github.com/banshee-data/aptdec/internal/units"
)

// syncFrame builds the channel A sync template at the given work rate: seven
// cycles of a 1040 Hz square wave followed by eight pixels of low level,
// encoded as -1/+1 so correlating against it rewards contrast rather than
// brightness.
//
// The work rate must be an integer multiple of the pixel rate so each pixel
// spans a whole number of samples.
func syncFrame(workRate units.Rate) ([]int8, error) {
	if workRate.Hz()%FinalRateHz != 0 {
		return nil, fmt.Errorf(
			"%w: work rate %d Hz is not a multiple of the pixel rate %d Hz",
			dsp.ErrInvalidParameter, workRate.Hz(), FinalRateHz)
	}

	pixelWidth := workRate.Hz() / FinalRateHz
	pulseWidth := 2 * pixelWidth

	frame := make([]int8, 0, 7*2*pulseWidth+8*pixelWidth)
	for cycle := 0; cycle < 7; cycle++ {
		for i := 0; i < pulseWidth; i++ {
			frame = append(frame, -1)
		}
		for i := 0; i < pulseWidth; i++ {
			frame = append(frame, 1)
		}
	}
	for i := 0; i < 8*pixelWidth; i++ {
		frame = append(frame, -1)
	}

	return frame, nil
}

// findSync scans the demodulated signal for channel A sync frames and
// returns the sample positions where rows start, roughly one per row.
//
// The search keeps a single running best peak, starting a new one once the
// previous is more than minDistance behind. The first position starts from a
// placeholder at zero; it anchors the first row even when no frame is
// detected near the beginning. When the accepted count falls behind the row
// cadence, positions are inserted so image rows stay count-aligned with time
// through long noisy stretches.
func findSync(
	ctx *pipeline.Context,
	signal units.Signal,
	workRate units.Rate,
) ([]int, error) {

	monitoring.Logf("apt: searching for sync frames")

	frame, err := syncFrame(workRate)
	if err != nil {
		return nil, err
	}

	samplesPerRow := PxPerRow * workRate.Hz() / FinalRateHz

	if len(signal) <= len(frame) {
		return nil, fmt.Errorf("%w: shorter than one sync frame", dsp.ErrInsufficientSignal)
	}

	type peak struct {
		index int
		value float32
	}

	// Leading placeholder so the first row starts at the beginning of the
	// signal even if the first detected frame is rows away.
	peaks := []peak{{0, 0}}

	// Peaks closer than this to the previous one refine it instead of
	// starting a new row.
	minDistance := samplesPerRow * 8 / 10

	var correlation units.Signal
	if ctx.Recording() {
		correlation = make(units.Signal, 0, len(signal)-len(frame))
	}

	for i := 0; i < len(signal)-len(frame); i++ {
		var corr float32
		for j, f := range frame {
			switch f {
			case 1:
				corr += signal[i+j]
			default:
				corr -= signal[i+j]
			}
		}

		if ctx.Recording() {
			correlation = append(correlation, corr)
		}

		last := &peaks[len(peaks)-1]
		if i-last.index > minDistance {
			// Too far from the previous peak for a refinement; start
			// a new one. When refinements kept dragging the previous
			// peaks forward the count can fall behind the row
			// cadence, so extra positions are inserted to keep rows
			// count-aligned with time.
			peaks = append(peaks, peak{i, corr})
			for i/samplesPerRow > len(peaks) {
				peaks = append(peaks, peak{i, corr})
			}
		} else if corr > last.value {
			*last = peak{i, corr}
		}
	}

	if err := ctx.Step(pipeline.SignalStep("sync_correlation", correlation, units.Rate{})); err != nil {
		return nil, err
	}

	monitoring.Logf("apt: found %d sync frames", len(peaks)-1)

	if len(peaks) < 5 {
		return nil, fmt.Errorf("%w: got %d candidate rows", ErrSyncNotFound, len(peaks))
	}

	positions := make([]int, len(peaks))
	for i, p := range peaks {
		positions[i] = p.index
	}
	return positions, nil
}
