package apt

import (
	"fmt"

	"github.com/banshee-data/aptdec/internal/dsp"
	"github.com/banshee-data/aptdec/internal/pipeline"
	"github.com/banshee-data/aptdec/internal/units"
)

// Decode turns a sampled recording into raw image data, row by row, one
// sample per pixel at FinalRateHz. The result has PxPerRow samples per row
// and is not mapped to any pixel range; use the telemetry or the signal
// extremes to pick a range.
//
// When sync is false the rows are only cropped to length, which preserves
// the exact timing of the recording but produces a slanted image unless the
// recording is perfect.
func Decode(
	ctx *pipeline.Context,
	params Params,
	signal units.Signal,
	inputRate units.Rate,
	sync bool,
) (units.Signal, error) {

	workRate, err := units.NewRate(params.WorkRate)
	if err != nil {
		return nil, fmt.Errorf("%w: work rate: %v", dsp.ErrInvalidParameter, err)
	}
	finalRate := units.MustRate(FinalRateHz)

	samplesPerWorkRow := PxPerRow * workRate.Hz() / FinalRateHz

	if err := ctx.Step(pipeline.SignalStep("input", signal, inputRate)); err != nil {
		return nil, err
	}

	ctx.Status(0.1, fmt.Sprintf("Resampling to %d Hz", workRate.Hz()))

	// Only the AM spectrum should pass, twice the carrier is enough. The
	// DC removal side transitions from zero to delta_w; APT carries
	// nothing below 500 Hz.
	resampleFilter := &dsp.LowpassDcRemoval{
		Cutout: units.FreqFromHz(params.ResampleCutout, inputRate),
		Atten:  params.ResampleAtten,
		DeltaW: units.FreqFromHz(params.ResampleDeltaFreq, inputRate),
	}
	signal, err = dsp.ResampleWithFilter(ctx, signal, inputRate, workRate, resampleFilter)
	if err != nil {
		return nil, err
	}

	if len(signal) < 10*samplesPerWorkRow {
		return nil, fmt.Errorf("%w: got less than 10 rows of samples", dsp.ErrInsufficientSignal)
	}

	ctx.Status(0.4, "Demodulating")

	signal, err = dsp.Demodulate(ctx, signal, units.FreqFromHz(CarrierFreqHz, workRate))
	if err != nil {
		return nil, err
	}

	ctx.Status(0.42, "Filtering")

	// The envelope carries nothing above the pixel rate.
	cutout := units.FreqFromPiRad(FinalRateHz / float32(workRate.Hz()))
	signal, err = dsp.ApplyFilter(ctx, signal, &dsp.Lowpass{
		Cutout: cutout,
		Atten:  params.DemodulationAtten,
		DeltaW: cutout.DivScalar(5),
	})
	if err != nil {
		return nil, err
	}

	if sync {
		ctx.Status(0.5, "Syncing")

		syncPos, err := findSync(ctx, signal, workRate)
		if err != nil {
			return nil, err
		}

		// Realign so every row starts at a sync position. The last
		// position is dropped; there may not be a full row after it.
		aligned := make(units.Signal, 0, (len(syncPos)-1)*samplesPerWorkRow)
		for _, pos := range syncPos[:len(syncPos)-1] {
			if pos+samplesPerWorkRow < len(signal) {
				aligned = append(aligned, signal[pos:pos+samplesPerWorkRow]...)
			}
		}
		signal = aligned

	} else {
		ctx.Status(0.5, "Skipping syncing")

		err := ctx.Step(pipeline.SignalStep("sync_correlation", nil, workRate))
		if err != nil {
			return nil, err
		}

		// Keep the recording's own timing, just crop to whole rows.
		signal = signal[:len(signal)/samplesPerWorkRow*samplesPerWorkRow]
	}

	if err := ctx.Step(pipeline.SignalStep("sync_result", signal, workRate)); err != nil {
		return nil, err
	}

	ctx.Status(0.9, fmt.Sprintf("Resampling to %d Hz", FinalRateHz))

	// Already band-limited before syncing; plain decimation is enough.
	signal, err = dsp.ResampleWithFilter(ctx, signal, workRate, finalRate, dsp.NoFilter{})
	if err != nil {
		return nil, err
	}

	return signal, nil
}

// ResampleAudio converts a recording to another sample rate, without any of
// the decoding stages. Useful to shrink recordings for storage or to feed
// tools that expect a specific rate.
func ResampleAudio(
	ctx *pipeline.Context,
	signal units.Signal,
	inputRate, outputRate units.Rate,
	atten float32,
	deltaW units.Freq,
) (units.Signal, error) {

	if err := ctx.Step(pipeline.SignalStep("input", signal, inputRate)); err != nil {
		return nil, err
	}

	ctx.Status(0.2, fmt.Sprintf("Resampling to %d Hz", outputRate.Hz()))

	resampled, err := dsp.Resample(ctx, signal, inputRate, outputRate, atten, deltaW)
	if err != nil {
		return nil, err
	}
	if len(resampled) == 0 {
		return nil, fmt.Errorf("%w: resampling produced no samples", dsp.ErrInsufficientSignal)
	}

	ctx.Status(1, "Finished")

	return resampled, nil
}
