// Command aptdec decodes NOAA APT recordings into grayscale images.
//
// Usage:
//
//	aptdec -o image.png recording.wav
//	aptdec -mode resample -rate 11025 -o smaller.wav recording.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/aptdec/internal/apt"
	"github.com/banshee-data/aptdec/internal/config"
	"github.com/banshee-data/aptdec/internal/dsp"
	"github.com/banshee-data/aptdec/internal/history"
	"github.com/banshee-data/aptdec/internal/imageio"
	"github.com/banshee-data/aptdec/internal/monitoring"
	"github.com/banshee-data/aptdec/internal/pipeline"
	"github.com/banshee-data/aptdec/internal/report"
	"github.com/banshee-data/aptdec/internal/units"
	"github.com/banshee-data/aptdec/internal/version"
	"github.com/banshee-data/aptdec/internal/wavio"
)

func main() {
	mode := flag.String("mode", "decode", "Operation: decode or resample")
	output := flag.String("o", "", "Output file (PNG for decode, WAV for resample)")
	settingsPath := flag.String("settings", "", "Optional JSON settings file")
	outputRate := flag.Int("rate", 11025, "Output sample rate in Hz (resample mode)")
	noSync := flag.Bool("no-sync", false, "Skip row alignment, keeping the recording's own timing")
	exportWAV := flag.String("export-wav", "", "Directory for WAV exports of every pipeline step")
	exportPlots := flag.String("export-plots", "", "Directory for PNG plots of every pipeline step")
	exportResampleFiltered := flag.Bool("export-resample-filtered", false,
		"Also export the expanded resampling intermediate (can be huge)")
	reportPath := flag.String("report", "", "Write an HTML telemetry report to this file")
	historyPath := flag.String("history", "", "SQLite database recording past runs")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if flag.NArg() != 1 || *output == "" {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] -o output input.wav\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)

	settings := config.EmptySettings()
	if *settingsPath != "" {
		var err error
		settings, err = config.Load(*settingsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "settings: %v\n", err)
			os.Exit(1)
		}
	}

	opts, err := exportOptions(*exportWAV, *exportPlots, *exportResampleFiltered, *mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	run := &history.Run{
		Operation:  *mode,
		InputFile:  input,
		OutputFile: *output,
	}

	switch *mode {
	case "decode":
		err = decode(input, *output, *reportPath, settings, !*noSync, opts, run)
	case "resample":
		err = resample(input, *output, *outputRate, settings, opts, run)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *mode, err)
		os.Exit(1)
	}

	run.Duration = time.Since(start)
	if *historyPath != "" {
		if err := recordRun(*historyPath, run); err != nil {
			fmt.Fprintf(os.Stderr, "history: %v\n", err)
			os.Exit(1)
		}
	}
}

// exportOptions assembles the pipeline options from the export flags.
func exportOptions(wavDir, plotDir string, resampleFiltered bool, op string) (pipeline.Options, error) {
	var exporters pipeline.MultiExporter

	if wavDir != "" {
		e, err := wavio.NewStepExporter(wavDir)
		if err != nil {
			return pipeline.Options{}, err
		}
		exporters = append(exporters, e)
	}
	if plotDir != "" {
		e, err := report.NewPlotExporter(plotDir)
		if err != nil {
			return pipeline.Options{}, err
		}
		exporters = append(exporters, e)
	}

	opts := pipeline.Options{
		ExportResampleFiltered: resampleFiltered,
		Progress:               monitoring.LogProgress(op),
	}
	if len(exporters) > 0 {
		opts.Exporter = exporters
	}
	return opts, nil
}

func decode(
	input, output, reportPath string,
	settings *config.Settings,
	sync bool,
	opts pipeline.Options,
	run *history.Run,
) error {

	signal, inputRate, err := wavio.Load(input)
	if err != nil {
		return err
	}

	params := settings.DecodeParams()

	workRate, err := units.NewRate(params.WorkRate)
	if err != nil {
		return fmt.Errorf("work rate: %w", err)
	}
	finalRate := units.MustRate(apt.FinalRateHz)

	ctx, err := pipeline.NewDecodeContext(workRate, finalRate, apt.PxPerRow, opts)
	if err != nil {
		return err
	}

	decoded, err := apt.Decode(ctx, params, signal, inputRate, sync)
	if err != nil {
		return err
	}

	// Map with the telemetry calibration wedges when a frame can be read;
	// short or noisy recordings fall back to the signal extremes.
	var low, high float32
	telemetry, quality, err := apt.ReadTelemetry(ctx, decoded)
	switch {
	case err == nil:
		low, high = imageio.TelemetryRange(telemetry)
		run.ChannelA = telemetry.ChannelName(apt.ChannelA)
		run.ChannelB = telemetry.ChannelName(apt.ChannelB)
	case errors.Is(err, dsp.ErrInsufficientSignal):
		monitoring.Logf("decode: %v, mapping with signal extremes", err)
		if err := apt.SkipTelemetrySteps(ctx); err != nil {
			return err
		}
		if low, high, err = imageio.SignalRange(decoded); err != nil {
			return err
		}
	default:
		return err
	}

	pixels, err := imageio.Map(ctx, decoded, low, high)
	if err != nil {
		return err
	}

	if err := imageio.WritePNG(output, pixels, apt.PxPerRow); err != nil {
		return err
	}
	monitoring.Logf("decode: wrote %s, %d rows", output, len(pixels)/apt.PxPerRow)

	if reportPath != "" {
		if telemetry == nil {
			monitoring.Logf("decode: no telemetry frame, skipping report")
		} else if err := report.WriteTelemetryReport(reportPath, telemetry, quality); err != nil {
			return err
		}
	}

	run.InputRate = inputRate.Hz()
	run.OutputRate = apt.FinalRateHz
	run.ImageRows = len(pixels) / apt.PxPerRow
	run.Synced = sync
	return nil
}

func resample(
	input, output string,
	rateHz int,
	settings *config.Settings,
	opts pipeline.Options,
	run *history.Run,
) error {

	signal, inputRate, err := wavio.Load(input)
	if err != nil {
		return err
	}

	outputRate, err := units.NewRate(rateHz)
	if err != nil {
		return fmt.Errorf("output rate: %w", err)
	}

	ctx := pipeline.NewResampleContext(opts)

	resampled, err := apt.ResampleAudio(ctx, signal, inputRate, outputRate,
		settings.GetWavResampleAtten(), settings.GetWavResampleDeltaFreq())
	if err != nil {
		return err
	}

	if err := wavio.Write(output, resampled, outputRate); err != nil {
		return err
	}
	monitoring.Logf("resample: wrote %s, %d samples at %d Hz",
		output, len(resampled), outputRate.Hz())

	run.InputRate = inputRate.Hz()
	run.OutputRate = outputRate.Hz()
	return nil
}

func recordRun(path string, run *history.Run) error {
	db, err := history.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RecordRun(run); err != nil {
		return err
	}
	monitoring.Logf("history: recorded run %s", run.ID)
	return nil
}
