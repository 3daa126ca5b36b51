package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPartialSettings(t *testing.T) {
	path := writeSettings(t, "settings.json", `{"work_rate": 12480, "resample_atten": 30}`)

	s, err := Load(path)
	require.NoError(t, err)

	p := s.DecodeParams()
	assert.Equal(t, 12480, p.WorkRate)
	assert.Equal(t, float32(30), p.ResampleAtten)

	// Unset fields keep their defaults.
	assert.Equal(t, float32(500), p.ResampleDeltaFreq)
	assert.Equal(t, float32(4800), p.ResampleCutout)
	assert.Equal(t, float32(20), p.DemodulationAtten)
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := writeSettings(t, "settings.toml", `work_rate = 12480`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"negative work rate", `{"work_rate": -20800}`},
		{"zero atten", `{"resample_atten": 0}`},
		{"negative cutout", `{"resample_cutout": -4800}`},
		{"negative wav delta", `{"wav_resample_delta_freq": -0.1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSettings(t, "settings.json", tc.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestEmptySettingsDefaults(t *testing.T) {
	s := EmptySettings()

	assert.Equal(t, float32(40), s.GetWavResampleAtten())
	assert.InDelta(t, 0.1, s.GetWavResampleDeltaFreq().PiRad(), 1e-6)

	p := s.DecodeParams()
	assert.Equal(t, 20800, p.WorkRate)
}
