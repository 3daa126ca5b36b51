package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/aptdec/internal/units"
)

// maxPlotPoints bounds the samples drawn per plot. Pipeline steps can hold
// millions of samples and the PNG cannot resolve them anyway.
const maxPlotPoints = 4096

// PlotExporter writes pipeline steps as PNG line plots, one file per step.
// It implements pipeline.Exporter and is usually fanned out together with
// the WAV exporter.
type PlotExporter struct {
	dir string
}

// NewPlotExporter creates the output directory if needed.
func NewPlotExporter(dir string) (*PlotExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating plot directory: %w", err)
	}
	return &PlotExporter{dir: dir}, nil
}

// WriteSignal implements pipeline.Exporter. The x axis is seconds.
func (e *PlotExporter) WriteSignal(name string, signal units.Signal, rate units.Rate) error {
	return e.plot(name, signal, 1/float64(rate.Hz()), "time (s)")
}

// WriteFilter implements pipeline.Exporter. The x axis is the tap index.
func (e *PlotExporter) WriteFilter(name string, coeff units.Signal) error {
	return e.plot(name, coeff, 1, "tap")
}

func (e *PlotExporter) plot(name string, signal units.Signal, xStep float64, xLabel string) error {
	stride := 1
	if len(signal) > maxPlotPoints {
		stride = len(signal)/maxPlotPoints + 1
	}

	pts := make(plotter.XYs, 0, len(signal)/stride+1)
	for i := 0; i < len(signal); i += stride {
		pts = append(pts, plotter.XY{X: float64(i) * xStep, Y: float64(signal[i])})
	}

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = xLabel

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plotting %s: %w", name, err)
	}
	p.Add(line)

	path := filepath.Join(e.dir, name+".png")
	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
