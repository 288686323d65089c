package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (OVERSEER_*)
// 2. Config file (.overseer/config.yml or .overseer/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".overseer")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// Enable environment variable overrides
	v.SetEnvPrefix("OVERSEER")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., OVERSEER_SCAN_SOURCE_MAX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("scan.source_max")
	v.BindEnv("scan.test_max")

	setDefaults(v)

	// Config file not found is acceptable — defaults + env vars apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers the default values with viper so partial config
// files inherit the rest.
func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("scan.source_max", defaults.Scan.SourceMax)
	v.SetDefault("scan.test_max", defaults.Scan.TestMax)
	v.SetDefault("scan.ignore", defaults.Scan.Ignore)
	v.SetDefault("scan.entry_patterns", defaults.Scan.EntryPatterns)
}
