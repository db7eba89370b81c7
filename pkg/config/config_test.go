package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the default values are self-consistent
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default configuration is invalid: %v", err)
	}
	if cfg.Catalog.NumPoints != 1000 {
		t.Errorf("Expected 1000 points, got %d", cfg.Catalog.NumPoints)
	}
	if cfg.Correlation.NBins%2 == 0 {
		t.Errorf("Default bin count %d is even", cfg.Correlation.NBins)
	}
	if cfg.Output.Tolerance != 1e-7 {
		t.Errorf("Expected tolerance 1e-7, got %g", cfg.Output.Tolerance)
	}
}

// TestLoadConfigMissingFile verifies defaults are returned when no file
// exists
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Catalog.Seed != 42 {
		t.Errorf("Expected default seed 42, got %d", cfg.Catalog.Seed)
	}
}

// TestSaveAndLoadConfig verifies a round trip through YAML
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corr2d.yaml")

	cfg := DefaultConfig()
	cfg.Catalog.NumPoints = 250
	cfg.Correlation.NBins = 11
	cfg.Output.HeatmapDir = "grids"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Catalog.NumPoints != 250 {
		t.Errorf("Expected 250 points, got %d", loaded.Catalog.NumPoints)
	}
	if loaded.Correlation.NBins != 11 {
		t.Errorf("Expected 11 bins, got %d", loaded.Correlation.NBins)
	}
	if loaded.Output.HeatmapDir != "grids" {
		t.Errorf("Expected heatmap dir 'grids', got %q", loaded.Output.HeatmapDir)
	}
}

// TestLoadConfigRejectsInvalid verifies validation runs on load
func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	body := "correlation:\n  maxSep: 10\n  nBins: 20\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("Expected error for even bin count in config file")
	}
}

// TestValidate verifies individual field checks
func TestValidate(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero points", func(c *Config) { c.Catalog.NumPoints = 0 }},
		{"inverted bounds", func(c *Config) { c.Catalog.MinCoord, c.Catalog.MaxCoord = 10, -10 }},
		{"bad matrix", func(c *Config) { c.Catalog.CorrelationLength = [][]float64{{1}} }},
		{"zero max sep", func(c *Config) { c.Correlation.MaxSep = 0 }},
		{"even bins", func(c *Config) { c.Correlation.NBins = 10 }},
		{"zero tolerance", func(c *Config) { c.Output.Tolerance = 0 }},
	}
	for _, m := range mutations {
		cfg := DefaultConfig()
		m.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", m.name)
		}
	}
}
