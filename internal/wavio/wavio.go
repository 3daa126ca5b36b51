// Package wavio loads and writes WAV files as float signals, and provides
// the WAV-based pipeline step exporter.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/banshee-data/aptdec/internal/monitoring"
	"github.com/banshee-data/aptdec/internal/units"
)

// Load reads a WAV file and returns the first channel as a signal, plus the
// file's sample rate. Sample values are kept at their integer scale; the
// decoding stages are linear, so the scale only matters at write time.
func Load(path string) (units.Signal, units.Rate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, units.Rate{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, units.Rate{}, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, units.Rate{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, units.Rate{}, fmt.Errorf("%s has no channels", path)
	}

	rate, err := units.NewRate(buf.Format.SampleRate)
	if err != nil {
		return nil, units.Rate{}, fmt.Errorf("%s: sample rate: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels > 1 {
		monitoring.Logf("wavio: %s has %d channels, using the first", path, channels)
	}

	signal := make(units.Signal, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		signal = append(signal, float32(buf.Data[i]))
	}

	monitoring.Logf("wavio: loaded %s: %d samples at %d Hz, %d bit",
		path, len(signal), rate.Hz(), buf.SourceBitDepth)

	return signal, rate, nil
}

// Write writes a signal as a mono 16-bit PCM WAV file, scaled so the
// largest magnitude uses the full sample range.
func Write(path string, signal units.Signal, rate units.Rate) error {
	if len(signal) == 0 {
		return fmt.Errorf("writing %s: %w", path, units.ErrEmptySignal)
	}

	max, err := signal.Max()
	if err != nil {
		return err
	}
	min, err := signal.Min()
	if err != nil {
		return err
	}
	peak := max
	if -min > peak {
		peak = -min
	}
	if peak == 0 {
		peak = 1
	}

	const bitDepth = 16
	scale := float32(1<<(bitDepth-1)-1) / peak

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate.Hz()},
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(signal)),
	}
	for i, x := range signal {
		buf.Data[i] = int(x * scale)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, rate.Hz(), bitDepth, 1, 1)
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finishing %s: %w", path, err)
	}
	return nil
}

// StepExporter writes pipeline steps as WAV files into a directory, one file
// per step. Filter kernels are written at a nominal 1 Hz rate; only their
// shape matters.
type StepExporter struct {
	dir string
}

// NewStepExporter creates the export directory if needed.
func NewStepExporter(dir string) (*StepExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	return &StepExporter{dir: dir}, nil
}

// WriteSignal implements pipeline.Exporter.
func (e *StepExporter) WriteSignal(name string, signal units.Signal, rate units.Rate) error {
	return Write(filepath.Join(e.dir, name+".wav"), signal, rate)
}

// WriteFilter implements pipeline.Exporter.
func (e *StepExporter) WriteFilter(name string, coeff units.Signal) error {
	return Write(filepath.Join(e.dir, name+".wav"), coeff, units.MustRate(1))
}
