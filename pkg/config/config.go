// Package config provides configuration loading and management for the
// corr2d validation harness. It handles loading configuration from YAML
// files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the harness configuration loaded from YAML
type Config struct {
	// Synthetic catalog parameters
	Catalog struct {
		// NumPoints is the number of points in the generated catalog
		NumPoints int `yaml:"numPoints"`

		// Seed drives every random draw; runs with the same seed are
		// bit-identical
		Seed uint64 `yaml:"seed"`

		// MinCoord and MaxCoord bound the uniform position range on
		// both axes
		MinCoord float64 `yaml:"minCoord"`
		MaxCoord float64 `yaml:"maxCoord"`

		// Amplitude is the standard deviation of the correlated field
		Amplitude float64 `yaml:"amplitude"`

		// NoiseFraction sets the measurement noise sigma as a fraction
		// of the field amplitude
		NoiseFraction float64 `yaml:"noiseFraction"`

		// CorrelationLength is the 2x2 correlation-length matrix of the
		// field kernel, row major
		CorrelationLength [][]float64 `yaml:"correlationLength"`
	} `yaml:"catalog"`

	// Correlation estimator parameters
	Correlation struct {
		// MaxSep is the maximum offset magnitude per axis
		MaxSep float64 `yaml:"maxSep"`

		// NBins is the number of histogram cells per axis; must be odd
		NBins int `yaml:"nBins"`
	} `yaml:"correlation"`

	// Output parameters
	Output struct {
		// Verbose controls per-scenario diff reporting
		Verbose bool `yaml:"verbose"`

		// Tolerance is the absolute agreement tolerance between the
		// brute-force and tree estimates
		Tolerance float64 `yaml:"tolerance"`

		// HeatmapDir, when non-empty, is where grid heatmaps are written
		HeatmapDir string `yaml:"heatmapDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default catalog parameters
	cfg.Catalog.NumPoints = 1000
	cfg.Catalog.Seed = 42
	cfg.Catalog.MinCoord = -10
	cfg.Catalog.MaxCoord = 10
	cfg.Catalog.Amplitude = 2.3
	cfg.Catalog.NoiseFraction = 0.1
	cfg.Catalog.CorrelationLength = [][]float64{
		{0.33, 0.09},
		{-0.01, 0.26},
	}

	// Set default correlation parameters
	cfg.Correlation.MaxSep = 10
	cfg.Correlation.NBins = 21

	// Set default output parameters
	cfg.Output.Verbose = true
	cfg.Output.Tolerance = 1e-7
	cfg.Output.HeatmapDir = ""

	return cfg
}

// Validate checks the configuration for values the estimators would
// reject
func (cfg *Config) Validate() error {
	if cfg.Catalog.NumPoints <= 0 {
		return fmt.Errorf("config: numPoints must be positive, got %d", cfg.Catalog.NumPoints)
	}
	if cfg.Catalog.MaxCoord <= cfg.Catalog.MinCoord {
		return fmt.Errorf("config: maxCoord %g must exceed minCoord %g", cfg.Catalog.MaxCoord, cfg.Catalog.MinCoord)
	}
	if len(cfg.Catalog.CorrelationLength) != 2 ||
		len(cfg.Catalog.CorrelationLength[0]) != 2 ||
		len(cfg.Catalog.CorrelationLength[1]) != 2 {
		return fmt.Errorf("config: correlationLength must be a 2x2 matrix")
	}
	if cfg.Correlation.MaxSep <= 0 {
		return fmt.Errorf("config: maxSep must be positive, got %g", cfg.Correlation.MaxSep)
	}
	if cfg.Correlation.NBins <= 0 || cfg.Correlation.NBins%2 == 0 {
		return fmt.Errorf("config: nBins must be a positive odd number, got %d", cfg.Correlation.NBins)
	}
	if cfg.Output.Tolerance <= 0 {
		return fmt.Errorf("config: tolerance must be positive, got %g", cfg.Output.Tolerance)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
