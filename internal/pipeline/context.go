// Package pipeline carries per-operation state through the decoding chain: a
// progress callback and an ordered expectation list of debug-export steps.
//
// Every top-level operation (decode, resample) constructs one Context with
// the fixed step sequence for that operation and threads it through the
// stages. When step recording is enabled, each produced step is checked
// against the expectation list, so reordering or adding a processing stage
// without updating the table is caught immediately instead of producing a
// mislabeled export.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/aptdec/internal/units"
)

// Kind distinguishes the two artifact types a stage can export.
type Kind int

const (
	// KindSignal is a sampled signal with a rate attached.
	KindSignal Kind = iota
	// KindFilter is a designed FIR kernel; kernels have no sample rate.
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindFilter:
		return "filter"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrProtocolViolation reports a mismatch between the steps a pipeline
// produced and the steps its Context expected. It indicates a programming
// error in the pipeline, never a bad recording.
var ErrProtocolViolation = errors.New("pipeline step protocol violation")

// Step is one artifact produced by a pipeline stage. The signal only needs
// to stay valid until Context.Step returns.
type Step struct {
	kind   Kind
	id     string
	signal units.Signal
	rate   units.Rate // zero when the producing stage does not know it
}

// SignalStep builds a signal step. Pass a zero Rate when the producing stage
// does not know the sample rate; the descriptor's fixed rate is used instead.
func SignalStep(id string, signal units.Signal, rate units.Rate) Step {
	return Step{kind: KindSignal, id: id, signal: signal, rate: rate}
}

// FilterStep builds a filter-kernel step.
func FilterStep(id string, coeff units.Signal) Step {
	return Step{kind: KindFilter, id: id, signal: coeff}
}

// stepMeta describes one expected step.
type stepMeta struct {
	description string
	id          string
	filename    string
	kind        Kind
	rate        units.Rate // fixed fallback rate, zero if none
}

// Exporter receives the artifacts of recorded steps. Implementations write
// WAV files, plots, or anything else useful for debugging a decode.
type Exporter interface {
	WriteSignal(name string, signal units.Signal, rate units.Rate) error
	WriteFilter(name string, coeff units.Signal) error
}

// ProgressFunc is called synchronously at discrete milestones with a
// fraction in [0, 1] and a short description. It must not block; the
// pipeline never waits on the host.
type ProgressFunc func(fraction float64, message string)

// Context threads per-operation state through the pipeline stages. It is
// consumed as the operation runs and must not be reused.
type Context struct {
	steps []stepMeta
	index int

	// ExportResampleFiltered enables recording of the expanded and
	// filtered intermediate signal. With large interpolation factors this
	// export is enormous, so it is off unless explicitly requested.
	ExportResampleFiltered bool

	recording bool
	exporter  Exporter
	progress  ProgressFunc
}

// Recording reports whether step artifacts are being captured. Stages use
// this to skip building export-only signals such as the full
// cross-correlation.
func (c *Context) Recording() bool {
	return c.recording
}

// Status reports a progress milestone to the host, if a sink is attached.
func (c *Context) Status(fraction float64, message string) {
	if c.progress != nil {
		c.progress(fraction, message)
	}
}

// Step records one produced artifact.
//
// When recording is disabled this is a no-op. Otherwise the next expected
// descriptor is popped; running past the end of the expectation list or
// producing the wrong artifact kind is an ErrProtocolViolation. Empty
// signals pop their descriptor but are not exported (they stand in for steps
// that were skipped by configuration, like the sync correlation when syncing
// is off).
func (c *Context) Step(s Step) error {
	if !c.recording {
		return nil
	}

	if c.index >= len(c.steps) {
		return fmt.Errorf("%w: unexpected step %q, no more steps expected",
			ErrProtocolViolation, s.id)
	}
	meta := c.steps[c.index]
	c.index++

	if s.id != meta.id {
		return fmt.Errorf("%w: got step %q, expected %q",
			ErrProtocolViolation, s.id, meta.id)
	}
	if s.kind != meta.kind {
		return fmt.Errorf("%w: step %q is a %s, expected a %s",
			ErrProtocolViolation, s.id, s.kind, meta.kind)
	}

	if s.id == "resample_filtered" && !c.ExportResampleFiltered {
		return nil
	}
	if len(s.signal) == 0 {
		return nil
	}

	switch s.kind {
	case KindFilter:
		return c.exporter.WriteFilter(meta.filename, s.signal)
	default:
		rate := s.rate
		if rate.IsZero() {
			rate = meta.rate
		}
		if rate.IsZero() {
			return fmt.Errorf("%w: no sample rate available for step %q",
				ErrProtocolViolation, s.id)
		}
		return c.exporter.WriteSignal(meta.filename, s.signal, rate)
	}
}

// Options configures a Context.
type Options struct {
	// Exporter receives recorded steps. Recording is disabled when nil.
	Exporter Exporter

	// ExportResampleFiltered additionally records the expanded and
	// filtered resampling intermediate.
	ExportResampleFiltered bool

	// Progress receives status milestones. May be nil.
	Progress ProgressFunc
}

func newContext(steps []stepMeta, opts Options) *Context {
	return &Context{
		steps:                  steps,
		recording:              opts.Exporter != nil,
		exporter:               opts.Exporter,
		ExportResampleFiltered: opts.ExportResampleFiltered,
		progress:               opts.Progress,
	}
}
