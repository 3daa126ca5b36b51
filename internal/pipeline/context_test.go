package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/aptdec/internal/units"
)

type recorded struct {
	Name   string
	Kind   Kind
	RateHz int
	Len    int
}

// captureExporter records every artifact it receives.
type captureExporter struct {
	got []recorded
}

func (c *captureExporter) WriteSignal(name string, signal units.Signal, rate units.Rate) error {
	c.got = append(c.got, recorded{Name: name, Kind: KindSignal, RateHz: rate.Hz(), Len: len(signal)})
	return nil
}

func (c *captureExporter) WriteFilter(name string, coeff units.Signal) error {
	c.got = append(c.got, recorded{Name: name, Kind: KindFilter, Len: len(coeff)})
	return nil
}

func TestStepDisabledRecording(t *testing.T) {
	ctx := NewResampleContext(Options{})

	// Any number of steps succeed without an exporter.
	for i := 0; i < 20; i++ {
		require.NoError(t, ctx.Step(SignalStep("whatever", units.Signal{1}, units.Rate{})))
	}
	assert.False(t, ctx.Recording())
}

func TestStepStrictOrder(t *testing.T) {
	exp := &captureExporter{}
	rate := units.MustRate(11025)

	ctx := NewResampleContext(Options{Exporter: exp, ExportResampleFiltered: true})
	require.True(t, ctx.Recording())

	require.NoError(t, ctx.Step(SignalStep("input", units.Signal{1, 2, 3}, rate)))
	require.NoError(t, ctx.Step(FilterStep("resample_filter", units.Signal{1})))
	require.NoError(t, ctx.Step(SignalStep("resample_filtered", units.Signal{1, 2}, rate)))
	require.NoError(t, ctx.Step(SignalStep("resample_decimated", units.Signal{1}, rate)))

	want := []recorded{
		{Name: "00_input", Kind: KindSignal, RateHz: 11025, Len: 3},
		{Name: "01_resample_filter", Kind: KindFilter, Len: 1},
		{Name: "02_resample_filtered", Kind: KindSignal, RateHz: 11025, Len: 2},
		{Name: "03_resample_result", Kind: KindSignal, RateHz: 11025, Len: 1},
	}
	if diff := cmp.Diff(want, exp.got); diff != "" {
		t.Errorf("recorded steps mismatch (-want +got):\n%s", diff)
	}

	// The queue is exhausted now.
	err := ctx.Step(SignalStep("input", units.Signal{1}, rate))
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestStepIDMismatch(t *testing.T) {
	ctx := NewResampleContext(Options{Exporter: &captureExporter{}})

	err := ctx.Step(SignalStep("demodulation_result", units.Signal{1}, units.MustRate(1)))
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestStepKindMismatch(t *testing.T) {
	ctx := NewResampleContext(Options{Exporter: &captureExporter{}})

	err := ctx.Step(FilterStep("input", units.Signal{1}))
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestStepRateFallback(t *testing.T) {
	exp := &captureExporter{}
	work := units.MustRate(20800)
	final := units.MustRate(4160)

	ctx, err := NewDecodeContext(work, final, 2080, Options{Exporter: exp})
	require.NoError(t, err)

	// Walk to the demodulation step, which carries no rate of its own and
	// must fall back to the descriptor's fixed work rate.
	require.NoError(t, ctx.Step(SignalStep("input", units.Signal{1}, units.MustRate(11025))))
	require.NoError(t, ctx.Step(FilterStep("resample_filter", units.Signal{1})))
	require.NoError(t, ctx.Step(SignalStep("resample_filtered", units.Signal{1}, work)))
	require.NoError(t, ctx.Step(SignalStep("resample_decimated", units.Signal{1}, work)))
	require.NoError(t, ctx.Step(SignalStep("demodulation_result", units.Signal{1, 2}, units.Rate{})))

	last := exp.got[len(exp.got)-1]
	assert.Equal(t, recorded{Name: "04_demodulated_unfiltered", Kind: KindSignal, RateHz: 20800, Len: 2}, last)
}

func TestStepNoRateAnywhere(t *testing.T) {
	ctx := NewResampleContext(Options{Exporter: &captureExporter{}})

	// "input" has no fixed rate in the table and none is carried.
	err := ctx.Step(SignalStep("input", units.Signal{1}, units.Rate{}))
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestStepEmptySignalSkipsExport(t *testing.T) {
	exp := &captureExporter{}
	ctx := NewResampleContext(Options{Exporter: exp})

	// An empty signal stands in for a configuration-skipped step: the
	// descriptor is consumed but nothing is written.
	require.NoError(t, ctx.Step(SignalStep("input", units.Signal{}, units.Rate{})))
	assert.Empty(t, exp.got)

	require.NoError(t, ctx.Step(FilterStep("resample_filter", units.Signal{1})))
	assert.Len(t, exp.got, 1)
}

func TestStepResampleFilteredOptIn(t *testing.T) {
	exp := &captureExporter{}
	rate := units.MustRate(11025)
	ctx := NewResampleContext(Options{Exporter: exp}) // opt-in flag unset

	require.NoError(t, ctx.Step(SignalStep("input", units.Signal{1}, rate)))
	require.NoError(t, ctx.Step(FilterStep("resample_filter", units.Signal{1})))
	require.NoError(t, ctx.Step(SignalStep("resample_filtered", units.Signal{1, 2}, rate)))
	require.NoError(t, ctx.Step(SignalStep("resample_decimated", units.Signal{1}, rate)))

	names := make([]string, len(exp.got))
	for i, r := range exp.got {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"00_input", "01_resample_filter", "03_resample_result"}, names)
}

func TestStatus(t *testing.T) {
	var fractions []float64
	ctx := NewResampleContext(Options{
		Progress: func(fraction float64, message string) {
			fractions = append(fractions, fraction)
		},
	})

	ctx.Status(0, "starting")
	ctx.Status(0.5, "half way")
	ctx.Status(1, "done")
	assert.Equal(t, []float64{0, 0.5, 1}, fractions)

	// No progress sink attached: must not panic.
	NewResampleContext(Options{}).Status(0.5, "ignored")
}

func TestMultiExporter(t *testing.T) {
	a := &captureExporter{}
	b := &captureExporter{}
	multi := MultiExporter{a, b}

	require.NoError(t, multi.WriteSignal("sig", units.Signal{1}, units.MustRate(2)))
	require.NoError(t, multi.WriteFilter("filt", units.Signal{1, 2}))

	assert.Len(t, a.got, 2)
	assert.Len(t, b.got, 2)
}
