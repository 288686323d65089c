package config

import (
	"fmt"

	"github.com/mvp-joe/overseer/internal/scan"
)

// Config represents the complete overseer configuration.
// It can be loaded from .overseer/config.yml with environment variable
// overrides.
type Config struct {
	Scan ScanConfig `yaml:"scan" mapstructure:"scan"`
}

// ScanConfig configures the structural scan.
type ScanConfig struct {
	SourceMax     int      `yaml:"source_max" mapstructure:"source_max"`         // max LOC for source files
	TestMax       int      `yaml:"test_max" mapstructure:"test_max"`             // max LOC for test files
	Ignore        []string `yaml:"ignore" mapstructure:"ignore"`                 // glob patterns to skip
	EntryPatterns []string `yaml:"entry_patterns" mapstructure:"entry_patterns"` // filenames treated as entry points
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			SourceMax:     800,
			TestMax:       500,
			Ignore:        []string{},
			EntryPatterns: scan.EntryPatterns,
		},
	}
}

// Validate checks that a configuration is usable.
func Validate(cfg *Config) error {
	if cfg.Scan.SourceMax <= 0 {
		return fmt.Errorf("scan.source_max must be positive, got %d", cfg.Scan.SourceMax)
	}
	if cfg.Scan.TestMax <= 0 {
		return fmt.Errorf("scan.test_max must be positive, got %d", cfg.Scan.TestMax)
	}
	return nil
}
