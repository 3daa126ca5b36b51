package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/aptdec/internal/apt"
	"github.com/banshee-data/aptdec/internal/units"
)

func sampleTelemetry(t *testing.T) *apt.Telemetry {
	t.Helper()

	// 25 wedges (one frame plus the next frame's contrast wedges), 8 rows
	// each, value equal to the wedge index.
	var means units.Signal
	for w := 1; w <= 25; w++ {
		for i := 0; i < 8; i++ {
			means = append(means, float32(w))
		}
	}

	telemetry, err := apt.TelemetryFromBands(means, means, 0)
	require.NoError(t, err)
	return telemetry
}

func TestWriteTelemetryReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.html")

	quality := make(units.Signal, 300)
	for i := range quality {
		quality[i] = float32(i)
	}

	require.NoError(t, WriteTelemetryReport(path, sampleTelemetry(t), quality))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Telemetry wedges")
	assert.Contains(t, string(data), "Telemetry quality")
}

func TestWriteTelemetryReportWithoutQuality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.html")

	require.NoError(t, WriteTelemetryReport(path, sampleTelemetry(t), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Telemetry quality")
}

func TestPlotExporter(t *testing.T) {
	dir := t.TempDir()

	exporter, err := NewPlotExporter(filepath.Join(dir, "plots"))
	require.NoError(t, err)

	signal := make(units.Signal, 10000)
	for i := range signal {
		signal[i] = float32(i % 100)
	}

	require.NoError(t, exporter.WriteSignal("00_input", signal, units.MustRate(11025)))
	require.NoError(t, exporter.WriteFilter("01_resample_filter", units.Signal{0.1, 0.5, 1, 0.5, 0.1}))

	for _, name := range []string{"00_input.png", "01_resample_filter.png"} {
		info, err := os.Stat(filepath.Join(dir, "plots", name))
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
