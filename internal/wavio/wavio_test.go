package wavio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/aptdec/internal/units"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	rate := units.MustRate(11025)

	original := make(units.Signal, 2048)
	for i := range original {
		original[i] = float32(0.25 * math.Sin(2*math.Pi*440*float64(i)/11025))
	}

	require.NoError(t, Write(path, original, rate))

	loaded, loadedRate, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, rate, loadedRate)
	require.Len(t, loaded, len(original))

	// Writing normalizes to the full 16-bit range; compare shapes after
	// scaling both to peak 1.
	const peak = 0.25
	for i := range original {
		assert.InDelta(t, original[i]/peak, loaded[i]/32767, 1e-3, "sample %d", i)
	}
}

func TestWriteEmptySignal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")

	err := Write(path, nil, units.MustRate(11025))
	assert.ErrorIs(t, err, units.ErrEmptySignal)
}

func TestWriteAllZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zeros.wav")

	// A silent signal must not divide by zero while normalizing.
	require.NoError(t, Write(path, make(units.Signal, 100), units.MustRate(11025)))

	loaded, _, err := Load(path)
	require.NoError(t, err)
	for _, x := range loaded {
		assert.Zero(t, x)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("not really a wav file"), 0o644))

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestStepExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "steps")

	exporter, err := NewStepExporter(dir)
	require.NoError(t, err)

	signal := units.Signal{0, 0.5, 1, 0.5, 0, -0.5, -1, -0.5}
	require.NoError(t, exporter.WriteSignal("00_input", signal, units.MustRate(8000)))
	require.NoError(t, exporter.WriteFilter("01_resample_filter", units.Signal{0.2, 1, 0.2}))

	for _, name := range []string{"00_input.wav", "01_resample_filter.wav"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(44), "%s should hold samples past the header", name)
	}
}
