package roof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	// The deviation ceilings intentionally differ between layers.
	assert.Equal(t, 19.0, cfg.Obstruction.MaxLocalDevDeg)
	assert.Equal(t, 15.0, cfg.Layout.MaxLocalDevDeg)
	assert.Equal(t, 12.0, cfg.Obstruction.MaxGlobalDevDeg)
	assert.Equal(t, 14.0, cfg.Layout.MaxGlobalDevDeg)

	assert.Equal(t, 5.0, cfg.Grouping.MaxAzimuthDiffDeg)
	assert.Equal(t, 12.0, cfg.Grouping.MaxPitchDiffDeg)
	assert.Equal(t, 1.5, cfg.Grouping.MinMinorDimM)
	assert.Equal(t, 11.0, cfg.Grouping.MinAreaM2)

	assert.Equal(t, 1.045, cfg.Layout.PanelWidthM)
	assert.Equal(t, 1.879, cfg.Layout.PanelHeightM)
}

func TestLoadConfig_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `grouping:
  maxAzimuthDiffDeg: 8
layout:
  panelWidthM: 0.99
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.Grouping.MaxAzimuthDiffDeg)
	assert.Equal(t, 0.99, cfg.Layout.PanelWidthM)
	// Untouched fields keep their defaults.
	assert.Equal(t, 12.0, cfg.Grouping.MaxPitchDiffDeg)
	assert.Equal(t, 1.879, cfg.Layout.PanelHeightM)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "layout: ["},
		{"negative panel", "layout:\n  panelWidthM: -2\n"},
		{"overlap out of range", "obstruction:\n  strideOverlap: 1.5\n"},
		{"efficiency out of range", "layout:\n  efficiency: 2\n"},
		{"negative layout deviation ceiling", "layout:\n  maxLocalDevDeg: -5\n"},
		{"negative obstruction deviation ceiling", "obstruction:\n  maxGlobalDevDeg: -1\n"},
		{"negative dedup distance", "obstruction:\n  dedupDistanceCells: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Layout.PanelWidthM = 1.1

	require.NoError(t, SaveConfig(path, &cfg))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}
