// Package config provides configuration loading and management for thermalhorizon.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Estimator parameters
	Estimator struct {
		// Threshold is the temperature in Celsius above which a sample is Earth
		Threshold int8 `yaml:"threshold"`

		// Workers is the number of goroutines used to scan large frames
		Workers int `yaml:"workers"`

		// ParallelMinSamples is the frame size from which the scan is split
		ParallelMinSamples int `yaml:"parallelMinSamples"`

		// MedianRadius enables a median pre-filter when positive
		MedianRadius int `yaml:"medianRadius"`
	} `yaml:"estimator"`

	// Noise injection parameters for robustness runs
	Noise struct {
		// Magnitude bounds the additive uniform noise, in degrees
		Magnitude int `yaml:"magnitude"`

		// HotProbability is the chance of a sample saturating high
		HotProbability float64 `yaml:"hotProbability"`

		// ColdProbability is the chance of a sample saturating low
		ColdProbability float64 `yaml:"coldProbability"`

		// Seed makes noise reproducible
		Seed uint64 `yaml:"seed"`

		// Trials is the number of perturbed frames per scenario
		Trials int `yaml:"trials"`
	} `yaml:"noise"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// PlotDir receives frame images and profile plots when set
		PlotDir string `yaml:"plotDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Estimator.Threshold = -20
	cfg.Estimator.Workers = runtime.NumCPU()
	cfg.Estimator.ParallelMinSamples = 1 << 14
	cfg.Estimator.MedianRadius = 0

	cfg.Noise.Magnitude = 10
	cfg.Noise.HotProbability = 0.01
	cfg.Noise.ColdProbability = 0.01
	cfg.Noise.Seed = 1
	cfg.Noise.Trials = 100

	cfg.Output.Verbose = false
	cfg.Output.PlotDir = ""

	return cfg
}

// Validate checks value ranges that YAML decoding cannot enforce
func (c *Config) Validate() error {
	if c.Estimator.Workers < 1 {
		return fmt.Errorf("estimator.workers must be at least 1, got %d", c.Estimator.Workers)
	}
	if c.Estimator.ParallelMinSamples < 0 {
		return fmt.Errorf("estimator.parallelMinSamples must be non-negative, got %d", c.Estimator.ParallelMinSamples)
	}
	if c.Estimator.MedianRadius < 0 {
		return fmt.Errorf("estimator.medianRadius must be non-negative, got %d", c.Estimator.MedianRadius)
	}
	if c.Noise.Magnitude < 0 {
		return fmt.Errorf("noise.magnitude must be non-negative, got %d", c.Noise.Magnitude)
	}
	if math.IsNaN(c.Noise.HotProbability) || math.IsNaN(c.Noise.ColdProbability) ||
		c.Noise.HotProbability < 0 || c.Noise.ColdProbability < 0 ||
		c.Noise.HotProbability+c.Noise.ColdProbability > 1 {
		return fmt.Errorf("noise probabilities must be non-negative and sum to at most 1, got hot=%g cold=%g",
			c.Noise.HotProbability, c.Noise.ColdProbability)
	}
	if c.Noise.Trials < 0 {
		return fmt.Errorf("noise.trials must be non-negative, got %d", c.Noise.Trials)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

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
