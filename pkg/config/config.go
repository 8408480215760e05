// Package config provides configuration loading and management for
// seishorizon. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Volume parameters
	Volume struct {
		// Shape is the volume extents as inline, crossline, depth
		Shape [3]int `yaml:"shape"`
	} `yaml:"volume"`

	// Grid parameters for regular tilings
	Grid struct {
		// CropShape is the crop extents as inline, crossline, depth
		CropShape [3]int `yaml:"cropShape"`

		// Orientation selects inline (0) or crossline (1) crops
		Orientation int `yaml:"orientation"`

		// Threshold filters tiles by live-trace content: a fraction of
		// the crop footprint below 1, an absolute count otherwise
		Threshold float64 `yaml:"threshold"`

		// BatchSize is the number of locations per iteration batch
		BatchSize int `yaml:"batchSize"`
	} `yaml:"grid"`

	// Extension parameters for growing surfaces
	Extension struct {
		// Stride is the overlap of candidate crops with the known surface
		Stride int `yaml:"stride"`

		// Top is the number of candidates kept per boundary point
		Top int `yaml:"top"`

		// Threshold is the minimum potential a candidate must exceed
		Threshold int `yaml:"threshold"`

		// PriorThreshold gates candidates on covered cells in the band
		// nearest the known surface
		PriorThreshold int `yaml:"priorThreshold"`

		// Mode selects the candidate narrowing strategy
		Mode string `yaml:"mode"`

		// MaxIterations bounds the extension loop
		MaxIterations int `yaml:"maxIterations"`
	} `yaml:"extension"`

	// Labeling parameters for fault extraction
	Labeling struct {
		// ChunkSize processes masks in slabs of this many inlines
		ChunkSize int `yaml:"chunkSize"`

		// Overlap is the number of inlines shared by consecutive slabs
		Overlap int `yaml:"overlap"`

		// SizeThreshold drops components below this areal size
		SizeThreshold float64 `yaml:"sizeThreshold"`
	} `yaml:"labeling"`

	// Smoothing parameters for surface post-processing
	Smoothing struct {
		// KernelSize is the side of the Gaussian kernel
		KernelSize int `yaml:"kernelSize"`

		// Sigma is the Gaussian spread
		Sigma float64 `yaml:"sigma"`

		// Margin drops neighbors too far away in depth
		Margin int `yaml:"margin"`

		// Iterations applies the kernel repeatedly
		Iterations int `yaml:"iterations"`
	} `yaml:"smoothing"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default volume parameters
	cfg.Volume.Shape = [3]int{256, 256, 100}

	// Set default grid parameters
	cfg.Grid.CropShape = [3]int{32, 32, 100}
	cfg.Grid.Orientation = 0
	cfg.Grid.Threshold = 0.1
	cfg.Grid.BatchSize = 64

	// Set default extension parameters
	cfg.Extension.Stride = 8
	cfg.Extension.Top = 1
	cfg.Extension.Threshold = 4
	cfg.Extension.PriorThreshold = 8
	cfg.Extension.Mode = "best_for_each"
	cfg.Extension.MaxIterations = 10

	// Set default labeling parameters
	cfg.Labeling.ChunkSize = 64
	cfg.Labeling.Overlap = 8
	cfg.Labeling.SizeThreshold = 10

	// Set default smoothing parameters
	cfg.Smoothing.KernelSize = 3
	cfg.Smoothing.Sigma = 0.8
	cfg.Smoothing.Margin = 5
	cfg.Smoothing.Iterations = 1

	// Set default output parameters
	cfg.Output.Verbose = true

	return cfg
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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
