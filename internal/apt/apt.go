// Package apt decodes the NOAA automatic picture transmission signal from a
// sampled audio waveform into row-aligned image samples, and extracts the
// telemetry wedges that calibrate them.
//
// The decode chain: resample to the work rate with a DC-removing lowpass,
// AM-demodulate at the subcarrier, lowpass to the pixel band, align rows on
// the channel A sync frame and resample to one sample per pixel. Everything
// operates on complete in-memory signals; there is no streaming.
package apt

import "errors"

// Row geometry in pixels, per channel.
// Source: https://www.sigidwiki.com/wiki/Automatic_Picture_Transmission_(APT)#Structure
const (
	// PxSyncFrame is the channel sync frame.
	PxSyncFrame = 39
	// PxSpaceData is deep space data and minute markers.
	PxSpaceData = 47
	// PxChannelImageData is the channel image data.
	PxChannelImageData = 909
	// PxTelemetryData is the telemetry band.
	PxTelemetryData = 45

	// PxPerChannel is the width of one channel, 1040 pixels.
	PxPerChannel = PxSyncFrame + PxSpaceData + PxChannelImageData + PxTelemetryData

	// PxPerRow is the width of one image row: two channels, 2080 pixels.
	PxPerRow = PxPerChannel * 2
)

const (
	// FinalRateHz is the sample rate of the finished signal, one sample
	// per pixel.
	FinalRateHz = 4160

	// CarrierFreqHz is the AM subcarrier frequency.
	CarrierFreqHz = 2400
)

// ErrSyncNotFound is returned when fewer than five sync frames could be
// located: the recording is too short or too noisy to align.
var ErrSyncNotFound = errors.New("sync frames not found")

// Params are the tunable settings of the decoding pipeline.
type Params struct {
	// WorkRate is the intermediate rate used during demodulation and
	// syncing, in Hertz. Best kept an integer multiple of FinalRateHz so
	// the second resampling is a plain decimation.
	WorkRate int

	// ResampleAtten is the stopband attenuation of the first resampling
	// filter, in positive dB.
	ResampleAtten float32

	// ResampleDeltaFreq is the transition band width of the first
	// resampling filter, in Hz at the input rate. The DC-removal side of
	// that filter transitions from zero to this frequency; APT carries
	// nothing below 500 Hz.
	ResampleDeltaFreq float32

	// ResampleCutout is the cutoff of the first resampling filter in Hz.
	// Only the AM spectrum should pass; twice the carrier is enough.
	ResampleCutout float32

	// DemodulationAtten is the attenuation of the post-demodulation
	// lowpass, in positive dB.
	DemodulationAtten float32
}

// DefaultParams returns the decoding parameters for a typical recording.
func DefaultParams() Params {
	return Params{
		WorkRate:          20800,
		ResampleAtten:     40,
		ResampleDeltaFreq: 500,
		ResampleCutout:    2 * CarrierFreqHz,
		DemodulationAtten: 20,
	}
}
