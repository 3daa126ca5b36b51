package apt

import (
	"fmt"
	"math"

	"github.com/banshee-data/aptdec/internal/dsp"
	"github.com/banshee-data/aptdec/internal/monitoring"
	"github.com/banshee-data/aptdec/internal/pipeline"
	"github.com/banshee-data/aptdec/internal/units"
)

// Channel selects one of the two image channels in a row.
type Channel int

const (
	// ChannelA is the left half of the row, usually a daylight band.
	ChannelA Channel = iota
	// ChannelB is the right half, usually thermal infrared.
	ChannelB
)

func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	}
	return "?"
}

// Column offsets of the telemetry bands inside a row. The bands are
// PxTelemetryData wide but the outermost column on each side can smear into
// the neighbors, so one column is dropped.
const (
	telemetryOffsetA = 994
	telemetryOffsetB = 2034
	telemetryWidth   = 44
)

// wedgeRows is the height of one telemetry wedge in rows.
const wedgeRows = 8

// telemetryTemplate returns the expected shape of one telemetry frame plus
// the contrast wedges of the next one, one value per row. Only the contrast
// wedges 1 to 9 carry known values; the variable wedges are left at zero so
// they do not weigh into the correlation.
func telemetryTemplate() units.Signal {
	wedges := []float32{
		31, 63, 95, 127, 159, 191, 224, 255, 0, // contrast, wedges 1 to 9
		0, 0, 0, 0, 0, 0, 0, // variable, wedges 10 to 16
		31, 63, 95, 127, 159, 191, 224, 255, 0, // contrast of the next frame
	}

	template := make(units.Signal, 0, len(wedges)*wedgeRows)
	for _, w := range wedges {
		for i := 0; i < wedgeRows; i++ {
			template = append(template, w)
		}
	}
	return template
}

// Telemetry holds the 16 wedge values read from each telemetry band.
//
// The values are raw signal levels; they mean nothing in isolation and are
// only useful compared against each other.
type Telemetry struct {
	valuesA []float32
	valuesB []float32
}

// TelemetryFromBands reads one telemetry frame from the horizontal averages
// of both bands, starting at the given row. The averages carry one value per
// image row; a frame needs 16 wedges plus the 9 contrast wedges of the next
// frame, 8 rows each.
//
// The contrast wedges repeat every frame, so wedges 1 to 9 are averaged with
// their repetition in the next frame.
func TelemetryFromBands(meansA, meansB units.Signal, row int) (*Telemetry, error) {
	const wedgesNeeded = 16 + 9

	if len(meansA) != len(meansB) {
		return nil, fmt.Errorf("%w: band averages differ in length", dsp.ErrInvalidParameter)
	}
	if row < 0 || len(meansA)-row < wedgesNeeded*wedgeRows {
		return nil, fmt.Errorf("%w: telemetry frame at row %d needs %d rows",
			dsp.ErrInsufficientSignal, row, wedgesNeeded*wedgeRows)
	}

	// Average each group of 8 rows into one value per wedge.
	wedgeMeans := func(means units.Signal) []float32 {
		out := make([]float32, wedgesNeeded)
		for w := range out {
			var sum float32
			for i := 0; i < wedgeRows; i++ {
				sum += means[row+w*wedgeRows+i]
			}
			out[w] = sum / wedgeRows
		}
		return out
	}

	wedgesA := wedgeMeans(meansA)
	wedgesB := wedgeMeans(meansB)

	fold := func(wedges []float32) []float32 {
		out := make([]float32, 16)
		for w := 1; w <= 16; w++ {
			if w <= 9 {
				out[w-1] = (wedges[w-1] + wedges[w+16-1]) / 2
			} else {
				out[w-1] = wedges[w-1]
			}
		}
		return out
	}

	t := &Telemetry{
		valuesA: fold(wedgesA),
		valuesB: fold(wedgesB),
	}

	monitoring.Logf("apt: telemetry wedges A: %v, B: %v", t.valuesA, t.valuesB)

	return t, nil
}

// WedgeValue returns the value of a wedge (1 to 16) on one channel.
func (t *Telemetry) WedgeValue(wedge int, channel Channel) float32 {
	if channel == ChannelB {
		return t.valuesB[wedge-1]
	}
	return t.valuesA[wedge-1]
}

// WedgeValueMean returns the value of a wedge (1 to 16) averaged over both
// channels.
func (t *Telemetry) WedgeValueMean(wedge int) float32 {
	return (t.valuesA[wedge-1] + t.valuesB[wedge-1]) / 2
}

// ChannelName identifies which sensor the channel carries by matching the
// channel identification wedge (16) against the contrast wedges 1 to 9. On a
// tie the lower wedge wins.
func (t *Telemetry) ChannelName(channel Channel) string {
	names := [9]string{"1", "2", "3a", "4", "5", "3b", "Unknown", "Unknown", "Unknown"}

	value := t.WedgeValue(16, channel)

	best := 0
	bestDiff := float32(math.Inf(1))
	for i := 0; i < 9; i++ {
		diff := t.WedgeValueMean(i+1) - value
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}

	return names[best]
}

// SkipTelemetrySteps records empty placeholders for the telemetry steps, for
// decodes that skip telemetry but still export the pipeline.
func SkipTelemetrySteps(ctx *pipeline.Context) error {
	for _, id := range []string{
		"telemetry_a", "telemetry_b", "telemetry_correlation",
		"telemetry_variance", "telemetry_quality",
	} {
		if err := ctx.Step(pipeline.SignalStep(id, nil, units.Rate{})); err != nil {
			return err
		}
	}
	return nil
}

// ReadTelemetry locates and reads the best telemetry frame in a row-aligned
// image signal, where every PxPerRow samples form one row. It also returns
// the per-row quality estimate used to pick the frame.
//
// Both bands are averaged per row, cross-correlated against the expected
// wedge pattern, and the correlation is weighted down by the horizontal
// standard deviation of the bands so noisy stretches do not win. The frame
// at the best-scoring row is read.
func ReadTelemetry(ctx *pipeline.Context, signal units.Signal) (*Telemetry, units.Signal, error) {
	template := telemetryTemplate()

	rows := len(signal) / PxPerRow
	if rows <= len(template) {
		return nil, nil, fmt.Errorf("%w: %d rows but telemetry needs more than %d",
			dsp.ErrInsufficientSignal, rows, len(template))
	}

	meanA := make(units.Signal, 0, rows)
	meanB := make(units.Signal, 0, rows)
	variance := make(units.Signal, 0, rows)

	for r := 0; r < rows; r++ {
		line := signal[r*PxPerRow : (r+1)*PxPerRow]
		bandA := line[telemetryOffsetA : telemetryOffsetA+telemetryWidth]
		bandB := line[telemetryOffsetB : telemetryOffsetB+telemetryWidth]

		var sumA, sumB float32
		for i := 0; i < telemetryWidth; i++ {
			sumA += bandA[i]
			sumB += bandB[i]
		}
		currMeanA := sumA / telemetryWidth
		currMeanB := sumB / telemetryWidth
		meanA = append(meanA, currMeanA)
		meanB = append(meanB, currMeanB)

		var sq float32
		for i := 0; i < telemetryWidth; i++ {
			da := bandA[i] - currMeanA
			db := bandB[i] - currMeanB
			sq += da*da + db*db
		}
		variance = append(variance, sq/(2*telemetryWidth))
	}

	correlation := make(units.Signal, 0, rows)
	quality := make(units.Signal, 0, rows)

	bestRow := 0
	bestQuality := float32(0)

	for i := 0; i < len(meanA)-len(template); i++ {
		var sum float32
		for j, tv := range template {
			sum += tv * (meanA[i+j] + meanB[i+j])
		}

		// Weigh by the standard deviation rather than the variance;
		// the variance grows too fast and noise would dominate the
		// estimate.
		var dev float32
		for _, v := range variance[i : i+len(template)] {
			dev += float32(math.Sqrt(float64(v)))
		}
		q := sum / dev

		if q > bestQuality {
			bestRow, bestQuality = i, q
		}

		correlation = append(correlation, sum)
		quality = append(quality, q)
	}

	telemetry, err := TelemetryFromBands(meanA, meanB, bestRow)
	if err != nil {
		return nil, nil, err
	}

	monitoring.Logf("apt: channel A: %s, channel B: %s",
		telemetry.ChannelName(ChannelA), telemetry.ChannelName(ChannelB))

	for _, step := range []pipeline.Step{
		pipeline.SignalStep("telemetry_a", meanA, units.Rate{}),
		pipeline.SignalStep("telemetry_b", meanB, units.Rate{}),
		pipeline.SignalStep("telemetry_correlation", correlation, units.Rate{}),
		pipeline.SignalStep("telemetry_variance", variance, units.Rate{}),
		pipeline.SignalStep("telemetry_quality", quality, units.Rate{}),
	} {
		if err := ctx.Step(step); err != nil {
			return nil, nil, err
		}
	}

	return telemetry, quality, nil
}
