// Package imageio maps decoded signal levels to 8-bit pixels and writes
// grayscale PNG images.
package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/banshee-data/aptdec/internal/apt"
	"github.com/banshee-data/aptdec/internal/dsp"
	"github.com/banshee-data/aptdec/internal/pipeline"
	"github.com/banshee-data/aptdec/internal/units"
)

// TelemetryRange derives the pixel mapping range from the telemetry: wedge 8
// is the brightest reference and wedge 9 is zero modulation.
func TelemetryRange(t *apt.Telemetry) (low, high float32) {
	return t.WedgeValueMean(9), t.WedgeValueMean(8)
}

// SignalRange derives the mapping range from the signal extremes. Used when
// telemetry could not be read; noise spikes stretch the range, so telemetry
// is preferred.
func SignalRange(signal units.Signal) (low, high float32, err error) {
	low, err = signal.Min()
	if err != nil {
		return 0, 0, err
	}
	high, err = signal.Max()
	if err != nil {
		return 0, 0, err
	}
	return low, high, nil
}

// Map linearly maps signal values to pixels, with low going to 0 and high to
// 255, clamping everything outside.
func Map(ctx *pipeline.Context, signal units.Signal, low, high float32) ([]uint8, error) {
	if high <= low {
		return nil, fmt.Errorf("%w: mapping range [%v, %v] is empty",
			dsp.ErrInvalidParameter, low, high)
	}

	pixels := make([]uint8, len(signal))
	scale := 255 / (high - low)
	for i, x := range signal {
		v := (x - low) * scale
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		pixels[i] = uint8(v)
	}

	var mapped units.Signal
	if ctx.Recording() {
		mapped = make(units.Signal, len(pixels))
		for i, p := range pixels {
			mapped[i] = float32(p)
		}
	}
	if err := ctx.Step(pipeline.SignalStep("mapped", mapped, units.Rate{})); err != nil {
		return nil, err
	}

	return pixels, nil
}

// WritePNG writes pixels as an 8-bit grayscale PNG of the given width.
// Pixels that do not fill the last row are dropped.
func WritePNG(path string, pixels []uint8, width int) error {
	if width <= 0 {
		return fmt.Errorf("%w: image width %d", dsp.ErrInvalidParameter, width)
	}
	height := len(pixels) / width
	if height == 0 {
		return fmt.Errorf("%w: not enough pixels for one row", dsp.ErrInsufficientSignal)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels[:width*height])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return w.Flush()
}
