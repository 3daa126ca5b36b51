package apt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/aptdec/internal/dsp"
	"github.com/banshee-data/aptdec/internal/pipeline"
	"github.com/banshee-data/aptdec/internal/units"
)

func TestTelemetryFromBands(t *testing.T) {
	// One wedge worth of rows with mean 1.
	sampleWedge := []float32{1, 1.2, 0.8, 1.1, 0.9, 0.7, 1.3, 1}

	appendWedge := func(s units.Signal, scale float32) units.Signal {
		for _, x := range sampleWedge {
			s = append(s, x*scale)
		}
		return s
	}

	const startRow = 8

	// Garbage, wedges 1 to 16, wedges 1 to 9 of the next frame, garbage.
	var meansA units.Signal
	meansA = appendWedge(meansA, -5234)
	for w := 1; w <= 16; w++ {
		meansA = appendWedge(meansA, float32(w))
	}
	for w := 1; w <= 9; w++ {
		meansA = appendWedge(meansA, float32(w))
	}
	meansA = appendWedge(meansA, -5234)

	// Channel B offset by one, to catch any cross-channel averaging.
	meansB := make(units.Signal, len(meansA))
	for i, x := range meansA {
		meansB[i] = x + 1
	}

	telemetry, err := TelemetryFromBands(meansA, meansB, startRow)
	require.NoError(t, err)

	for w := 1; w <= 16; w++ {
		assert.InDelta(t, float32(w), telemetry.WedgeValue(w, ChannelA), 1e-4, "wedge %d", w)
		assert.InDelta(t, float32(w)+1, telemetry.WedgeValue(w, ChannelB), 1e-4, "wedge %d", w)
		assert.InDelta(t, float32(w)+0.5, telemetry.WedgeValueMean(w), 1e-4, "wedge %d", w)
	}
}

func TestTelemetryFromBandsTooShort(t *testing.T) {
	means := make(units.Signal, 100)

	_, err := TelemetryFromBands(means, means, 0)
	assert.ErrorIs(t, err, dsp.ErrInsufficientSignal)

	// Enough rows overall but not from the start row.
	means = make(units.Signal, 260)
	_, err = TelemetryFromBands(means, means, 100)
	assert.ErrorIs(t, err, dsp.ErrInsufficientSignal)
}

func TestTelemetryChannelName(t *testing.T) {
	// Means for wedges 1 to 15; wedge 16 is set per case.
	sampleMeans := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 3, 3, 3, 3, 3, 3}

	createTelemetry := func(channelA, channelB float32) *Telemetry {
		valuesA := append([]float32{}, sampleMeans...)
		valuesB := append([]float32{}, sampleMeans...)
		return &Telemetry{
			valuesA: append(valuesA, channelA),
			valuesB: append(valuesB, channelB),
		}
	}

	cases := []struct {
		nameA  string
		valueA float32
		nameB  string
		valueB float32
	}{
		{"1", 1, "2", 2},
		{"3a", 3, "3b", 6},
		{"4", 4, "5", 5},
		{"Unknown", 7, "Unknown", 8},
		{"Unknown", 9, "Unknown", 1000},
		{"1", 1.4, "2", 1.6},
		{"3a", 2.6, "3a", 3.4},
		{"1", -1000, "5", 5.4},
	}

	for _, tc := range cases {
		telemetry := createTelemetry(tc.valueA, tc.valueB)
		assert.Equal(t, tc.nameA, telemetry.ChannelName(ChannelA), "wedge 16 A=%v", tc.valueA)
		assert.Equal(t, tc.nameB, telemetry.ChannelName(ChannelB), "wedge 16 B=%v", tc.valueB)
	}
}

func TestReadTelemetry(t *testing.T) {
	template := telemetryTemplate()
	require.Len(t, template, 200)

	const rows = 260
	const frameRow = 20

	// Image with the telemetry pattern in both bands starting at frameRow.
	// Alternate columns carry a constant offset so every row has nonzero
	// variance, like a real noisy band.
	signal := make(units.Signal, rows*PxPerRow)
	for r := 0; r < rows; r++ {
		var value float32
		if r >= frameRow && r < frameRow+len(template) {
			value = template[r-frameRow]
		}
		line := signal[r*PxPerRow : (r+1)*PxPerRow]
		for c := 0; c < telemetryWidth; c++ {
			noise := float32(10)
			if c%2 == 1 {
				noise = -10
			}
			line[telemetryOffsetA+c] = value + noise
			line[telemetryOffsetB+c] = value + noise
		}
	}

	ctx := pipeline.NewResampleContext(pipeline.Options{})
	telemetry, quality, err := ReadTelemetry(ctx, signal)
	require.NoError(t, err)
	assert.Len(t, quality, rows-len(template))

	// Contrast wedges as transmitted.
	want := []float32{31, 63, 95, 127, 159, 191, 224, 255, 0}
	for w, expected := range want {
		assert.InDelta(t, expected, telemetry.WedgeValue(w+1, ChannelA), 1e-3, "wedge %d", w+1)
		assert.InDelta(t, expected, telemetry.WedgeValue(w+1, ChannelB), 1e-3, "wedge %d", w+1)
	}

	// The variable wedges of this synthetic frame are all zero, so the
	// channel wedge matches wedge 9 and the name is unknown.
	assert.Equal(t, "Unknown", telemetry.ChannelName(ChannelA))
}

func TestReadTelemetryTooShort(t *testing.T) {
	ctx := pipeline.NewResampleContext(pipeline.Options{})

	_, _, err := ReadTelemetry(ctx, make(units.Signal, 10*PxPerRow))
	assert.ErrorIs(t, err, dsp.ErrInsufficientSignal)
}
