// Package report renders decode diagnostics: an HTML telemetry report and
// PNG plots of the pipeline steps.
package report

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/aptdec/internal/apt"
	"github.com/banshee-data/aptdec/internal/units"
)

// maxQualityPoints bounds the quality series in the HTML report; a long
// recording has one quality value per row and the chart does not need them
// all.
const maxQualityPoints = 2048

// WriteTelemetryReport renders an HTML page with the wedge values of both
// channels and, when available, the per-row telemetry quality estimate.
// quality may be nil.
func WriteTelemetryReport(path string, telemetry *apt.Telemetry, quality units.Signal) error {
	wedges := make([]string, 16)
	dataA := make([]opts.BarData, 16)
	dataB := make([]opts.BarData, 16)
	for w := 1; w <= 16; w++ {
		wedges[w-1] = strconv.Itoa(w)
		dataA[w-1] = opts.BarData{Value: telemetry.WedgeValue(w, apt.ChannelA)}
		dataB[w-1] = opts.BarData{Value: telemetry.WedgeValue(w, apt.ChannelB)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "APT telemetry"}),
		charts.WithTitleOpts(opts.Title{
			Title: "Telemetry wedges",
			Subtitle: fmt.Sprintf("channel A: %s, channel B: %s",
				telemetry.ChannelName(apt.ChannelA), telemetry.ChannelName(apt.ChannelB)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(wedges).
		AddSeries("Channel A", dataA).
		AddSeries("Channel B", dataB)

	page := components.NewPage()
	page.AddCharts(bar)

	if len(quality) > 0 {
		stride := 1
		if len(quality) > maxQualityPoints {
			stride = len(quality)/maxQualityPoints + 1
		}

		var rows []string
		var data []opts.LineData
		for i := 0; i < len(quality); i += stride {
			rows = append(rows, strconv.Itoa(i))
			data = append(data, opts.LineData{Value: quality[i]})
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    "Telemetry quality",
				Subtitle: "correlation against the reference frame, weighted by band noise",
			}),
		)
		line.SetXAxis(rows).AddSeries("quality", data)
		page.AddCharts(line)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return nil
}
