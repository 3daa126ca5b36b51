// Package config loads decoder settings from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/aptdec/internal/apt"
	"github.com/banshee-data/aptdec/internal/units"
)

// Settings represents the tunable decoding parameters. All fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// methods fall back to defaults for everything else.
type Settings struct {
	// Decode params
	WorkRate          *int     `json:"work_rate,omitempty"`
	ResampleAtten     *float64 `json:"resample_atten,omitempty"`
	ResampleDeltaFreq *float64 `json:"resample_delta_freq,omitempty"` // Hz
	ResampleCutout    *float64 `json:"resample_cutout,omitempty"`     // Hz
	DemodulationAtten *float64 `json:"demodulation_atten,omitempty"`

	// Audio resample params
	WavResampleAtten     *float64 `json:"wav_resample_atten,omitempty"`
	WavResampleDeltaFreq *float64 `json:"wav_resample_delta_freq,omitempty"` // fractions of pi rad/sample
}

// EmptySettings returns Settings with all fields unset. Use Load to read
// actual values from a file.
func EmptySettings() *Settings {
	return &Settings{}
}

// Load reads Settings from a JSON file. The file must have a .json
// extension and stay under the max file size. Fields omitted from the JSON
// keep their defaults, so partial configs are safe.
func Load(path string) (*Settings, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("settings file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat settings file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("settings file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	s := EmptySettings()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return s, nil
}

// Validate checks that the configured values are usable.
func (s *Settings) Validate() error {
	if s.WorkRate != nil && *s.WorkRate <= 0 {
		return fmt.Errorf("work_rate must be positive, got %d", *s.WorkRate)
	}
	if s.ResampleAtten != nil && *s.ResampleAtten <= 0 {
		return fmt.Errorf("resample_atten must be positive dB, got %f", *s.ResampleAtten)
	}
	if s.ResampleDeltaFreq != nil && *s.ResampleDeltaFreq <= 0 {
		return fmt.Errorf("resample_delta_freq must be positive Hz, got %f", *s.ResampleDeltaFreq)
	}
	if s.ResampleCutout != nil && *s.ResampleCutout <= 0 {
		return fmt.Errorf("resample_cutout must be positive Hz, got %f", *s.ResampleCutout)
	}
	if s.DemodulationAtten != nil && *s.DemodulationAtten <= 0 {
		return fmt.Errorf("demodulation_atten must be positive dB, got %f", *s.DemodulationAtten)
	}
	if s.WavResampleAtten != nil && *s.WavResampleAtten <= 0 {
		return fmt.Errorf("wav_resample_atten must be positive dB, got %f", *s.WavResampleAtten)
	}
	if s.WavResampleDeltaFreq != nil && *s.WavResampleDeltaFreq <= 0 {
		return fmt.Errorf("wav_resample_delta_freq must be positive, got %f", *s.WavResampleDeltaFreq)
	}
	return nil
}

// DecodeParams assembles the decoding parameters, with defaults filled in.
func (s *Settings) DecodeParams() apt.Params {
	p := apt.DefaultParams()
	if s.WorkRate != nil {
		p.WorkRate = *s.WorkRate
	}
	if s.ResampleAtten != nil {
		p.ResampleAtten = float32(*s.ResampleAtten)
	}
	if s.ResampleDeltaFreq != nil {
		p.ResampleDeltaFreq = float32(*s.ResampleDeltaFreq)
	}
	if s.ResampleCutout != nil {
		p.ResampleCutout = float32(*s.ResampleCutout)
	}
	if s.DemodulationAtten != nil {
		p.DemodulationAtten = float32(*s.DemodulationAtten)
	}
	return p
}

// GetWavResampleAtten returns the wav_resample_atten value or the default.
func (s *Settings) GetWavResampleAtten() float32 {
	if s.WavResampleAtten == nil {
		return 40
	}
	return float32(*s.WavResampleAtten)
}

// GetWavResampleDeltaFreq returns the wav_resample_delta_freq value or the
// default transition width.
func (s *Settings) GetWavResampleDeltaFreq() units.Freq {
	if s.WavResampleDeltaFreq == nil {
		return units.FreqFromPiRad(0.1)
	}
	return units.FreqFromPiRad(float32(*s.WavResampleDeltaFreq))
}
