package pipeline

import (
	"fmt"

	"github.com/banshee-data/aptdec/internal/units"
)

// NewResampleContext builds the Context for the resample-only operation.
func NewResampleContext(opts Options) *Context {
	return newContext([]stepMeta{
		{
			description: "samples read from input",
			id:          "input",
			filename:    "00_input",
			kind:        KindSignal,
		},
		{
			description: "filter used on resample",
			id:          "resample_filter",
			filename:    "01_resample_filter",
			kind:        KindFilter,
		},
		{
			description: "expanded and filtered signal",
			id:          "resample_filtered",
			filename:    "02_resample_filtered",
			kind:        KindSignal,
		},
		{
			description: "result of resample",
			id:          "resample_decimated",
			filename:    "03_resample_result",
			kind:        KindSignal,
		},
	}, opts)
}

// NewDecodeContext builds the Context for a decode operation. The telemetry
// band averages carry one sample per image row, so their export rate is the
// final rate divided by the row width.
func NewDecodeContext(workRate, finalRate units.Rate, pxPerRow int, opts Options) (*Context, error) {
	rowRate, err := finalRate.Div(pxPerRow)
	if err != nil {
		return nil, fmt.Errorf("row rate: %w", err)
	}

	return newContext([]stepMeta{
		{
			description: "samples read from input",
			id:          "input",
			filename:    "00_input",
			kind:        KindSignal,
		},
		{
			description: "filter used on first resample",
			id:          "resample_filter",
			filename:    "01_resample_filter",
			kind:        KindFilter,
		},
		{
			description: "expanded and filtered on first resample",
			id:          "resample_filtered",
			filename:    "02_resample_filtered",
			kind:        KindSignal,
		},
		{
			description: "result of first resample",
			id:          "resample_decimated",
			filename:    "03_resample_decimated",
			kind:        KindSignal,
		},
		{
			description: "raw demodulated signal",
			id:          "demodulation_result",
			filename:    "04_demodulated_unfiltered",
			kind:        KindSignal,
			rate:        workRate,
		},
		{
			description: "filter for demodulated signal",
			id:          "filter_filter",
			filename:    "05_demodulation_filter",
			kind:        KindFilter,
		},
		{
			description: "filtered demodulated signal",
			id:          "filter_result",
			filename:    "06_demodulated",
			kind:        KindSignal,
			rate:        workRate,
		},
		{
			description: "cross correlation used in syncing",
			id:          "sync_correlation",
			filename:    "07_sync_correlation",
			kind:        KindSignal,
			rate:        workRate,
		},
		{
			description: "synced signal",
			id:          "sync_result",
			filename:    "08_synced",
			kind:        KindSignal,
			rate:        workRate,
		},
		{
			description: "filter used on second resample",
			id:          "resample_filter",
			filename:    "09_resample_filter",
			kind:        KindFilter,
		},
		{
			description: "expanded and filtered on second resample",
			id:          "resample_filtered",
			filename:    "10_resample_filtered",
			kind:        KindSignal,
			rate:        finalRate,
		},
		{
			description: "result of second resample",
			id:          "resample_decimated",
			filename:    "11_resample_decimated",
			kind:        KindSignal,
			rate:        finalRate,
		},
		{
			description: "telemetry band A row averages",
			id:          "telemetry_a",
			filename:    "12_telemetry_a",
			kind:        KindSignal,
			rate:        rowRate,
		},
		{
			description: "telemetry band B row averages",
			id:          "telemetry_b",
			filename:    "13_telemetry_b",
			kind:        KindSignal,
			rate:        rowRate,
		},
		{
			description: "correlation of telemetry with reference frame",
			id:          "telemetry_correlation",
			filename:    "14_telemetry_correlation",
			kind:        KindSignal,
			rate:        rowRate,
		},
		{
			description: "row variance of telemetry bands",
			id:          "telemetry_variance",
			filename:    "15_telemetry_variance",
			kind:        KindSignal,
			rate:        rowRate,
		},
		{
			description: "telemetry quality estimation",
			id:          "telemetry_quality",
			filename:    "16_telemetry_quality",
			kind:        KindSignal,
			rate:        rowRate,
		},
		{
			description: "result of intensity mapping",
			id:          "mapped",
			filename:    "17_mapped",
			kind:        KindSignal,
			rate:        finalRate,
		},
	}, opts), nil
}

// MultiExporter fans a step out to several exporters, stopping at the first
// error.
type MultiExporter []Exporter

func (m MultiExporter) WriteSignal(name string, signal units.Signal, rate units.Rate) error {
	for _, e := range m {
		if err := e.WriteSignal(name, signal, rate); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiExporter) WriteFilter(name string, coeff units.Signal) error {
	for _, e := range m {
		if err := e.WriteFilter(name, coeff); err != nil {
			return err
		}
	}
	return nil
}
