package imageio

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/aptdec/internal/dsp"
	"github.com/banshee-data/aptdec/internal/pipeline"
	"github.com/banshee-data/aptdec/internal/units"
)

func TestMap(t *testing.T) {
	ctx := pipeline.NewResampleContext(pipeline.Options{})

	signal := units.Signal{-10, 0, 50, 100, 200}
	pixels, err := Map(ctx, signal, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, []uint8{0, 0, 127, 255, 255}, pixels)
}

func TestMapRejectsEmptyRange(t *testing.T) {
	ctx := pipeline.NewResampleContext(pipeline.Options{})

	_, err := Map(ctx, units.Signal{1, 2, 3}, 5, 5)
	assert.ErrorIs(t, err, dsp.ErrInvalidParameter)
}

func TestSignalRange(t *testing.T) {
	low, high, err := SignalRange(units.Signal{3, -1, 7, 2})
	require.NoError(t, err)
	assert.Equal(t, float32(-1), low)
	assert.Equal(t, float32(7), high)

	_, _, err = SignalRange(nil)
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")

	// 4x3 gradient, plus 2 trailing pixels that do not fill a row.
	pixels := []uint8{
		0, 50, 100, 150,
		50, 100, 150, 200,
		100, 150, 200, 250,
		13, 37,
	}
	require.NoError(t, WritePNG(path, pixels, 4))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, 4, bounds.Dx())
	assert.Equal(t, 3, bounds.Dy(), "partial row must be dropped")

	r, _, _, _ := img.At(2, 1).RGBA()
	assert.Equal(t, uint32(150), r>>8)
}

func TestWritePNGErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")

	assert.ErrorIs(t, WritePNG(path, []uint8{1, 2, 3}, 0), dsp.ErrInvalidParameter)
	assert.ErrorIs(t, WritePNG(path, []uint8{1, 2, 3}, 4), dsp.ErrInsufficientSignal)
}
