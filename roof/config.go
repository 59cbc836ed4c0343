package roof

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config collects every tunable threshold of the engine under one roof.
// The deviation ceilings intentionally differ between the obstruction scan
// and panel layout: the scan runs stricter local checks to surface candidate
// obstructions early, while layout tolerates slightly more local noise but a
// wider global ceiling.
type Config struct {
	Grouping    GroupingConfig    `yaml:"grouping"`
	Obstruction ObstructionConfig `yaml:"obstruction"`
	Layout      LayoutConfig      `yaml:"layout"`
}

// GroupingConfig controls facet merging and the post-merge size filter.
type GroupingConfig struct {
	MaxAzimuthDiffDeg float64 `yaml:"maxAzimuthDiffDeg"` // circular difference
	MaxPitchDiffDeg   float64 `yaml:"maxPitchDiffDeg"`
	AdjacencyTolDeg   float64 `yaml:"adjacencyTolDeg"` // geodesic degrees
	MinMinorDimM      float64 `yaml:"minMinorDimM"`
	MinAreaM2         float64 `yaml:"minAreaM2"`
}

// ObstructionConfig controls the fine-grained obstruction scan.
type ObstructionConfig struct {
	CellSizeM          float64 `yaml:"cellSizeM"`
	StrideOverlap      float64 `yaml:"strideOverlap"` // fraction of cell, 0-1
	MaxLocalDevDeg     float64 `yaml:"maxLocalDevDeg"`
	MaxGlobalDevDeg    float64 `yaml:"maxGlobalDevDeg"`
	DedupDistanceCells float64 `yaml:"dedupDistanceCells"`
}

// LayoutConfig controls panel-grid generation and scoring.
type LayoutConfig struct {
	PanelWidthM     float64 `yaml:"panelWidthM"`  // short edge
	PanelHeightM    float64 `yaml:"panelHeightM"` // long edge
	MaxLocalDevDeg  float64 `yaml:"maxLocalDevDeg"`
	MaxGlobalDevDeg float64 `yaml:"maxGlobalDevDeg"`
	Efficiency      float64 `yaml:"efficiency"`     // panel conversion efficiency
	IrradianceWM2   float64 `yaml:"irradianceWM2"`  // reference irradiance
}

// DefaultConfig returns the engine defaults. Panel dimensions match a common
// 60-cell residential module.
func DefaultConfig() Config {
	return Config{
		Grouping: GroupingConfig{
			MaxAzimuthDiffDeg: 5,
			MaxPitchDiffDeg:   12,
			AdjacencyTolDeg:   1e-5, // roughly a meter at mid latitudes
			MinMinorDimM:      1.5,
			MinAreaM2:         11,
		},
		Obstruction: ObstructionConfig{
			CellSizeM:          0.5,
			StrideOverlap:      0.25,
			MaxLocalDevDeg:     19,
			MaxGlobalDevDeg:    12,
			DedupDistanceCells: 1,
		},
		Layout: LayoutConfig{
			PanelWidthM:     1.045,
			PanelHeightM:    1.879,
			MaxLocalDevDeg:  15,
			MaxGlobalDevDeg: 14,
			Efficiency:      0.20,
			IrradianceWM2:   1000,
		},
	}
}

// LoadConfig loads engine configuration from a YAML file. Missing fields fall
// back to DefaultConfig values rather than zero.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate rejects configurations that would make the engine degenerate.
func (c *Config) Validate() error {
	if c.Layout.PanelWidthM <= 0 || c.Layout.PanelHeightM <= 0 {
		return fmt.Errorf("layout panel dimensions must be positive")
	}
	if c.Obstruction.CellSizeM <= 0 {
		return fmt.Errorf("obstruction.cellSizeM must be positive")
	}
	if c.Obstruction.StrideOverlap < 0 || c.Obstruction.StrideOverlap >= 1 {
		return fmt.Errorf("obstruction.strideOverlap must be in [0, 1)")
	}
	if c.Layout.Efficiency <= 0 || c.Layout.Efficiency > 1 {
		return fmt.Errorf("layout.efficiency must be in (0, 1]")
	}
	if c.Grouping.MaxAzimuthDiffDeg < 0 || c.Grouping.MaxPitchDiffDeg < 0 {
		return fmt.Errorf("grouping thresholds must be non-negative")
	}
	if c.Obstruction.MaxLocalDevDeg < 0 || c.Obstruction.MaxGlobalDevDeg < 0 ||
		c.Layout.MaxLocalDevDeg < 0 || c.Layout.MaxGlobalDevDeg < 0 {
		return fmt.Errorf("deviation ceilings must be non-negative")
	}
	if c.Obstruction.DedupDistanceCells < 0 {
		return fmt.Errorf("obstruction.dedupDistanceCells must be non-negative")
	}
	return nil
}
