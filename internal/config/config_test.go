package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/overseer/internal/scan"
)

// Test Plan for configuration loading:
// - No config file: defaults apply
// - Partial config file: set keys win, the rest inherit defaults
// - Environment variables beat the config file
// - Invalid values and malformed YAML fail loudly

func writeConfigFile(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, ".overseer")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Scan.SourceMax)
	assert.Equal(t, 500, cfg.Scan.TestMax)
	assert.Empty(t, cfg.Scan.Ignore)
	assert.Equal(t, scan.EntryPatterns, cfg.Scan.EntryPatterns)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfigFile(t, root, `scan:
  source_max: 400
  ignore:
    - "generated/*.py"
    - "*_pb2.py"
`)

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Scan.SourceMax)
	assert.Equal(t, []string{"generated/*.py", "*_pb2.py"}, cfg.Scan.Ignore)
	// Unset keys keep their defaults.
	assert.Equal(t, 500, cfg.Scan.TestMax)
	assert.Equal(t, scan.EntryPatterns, cfg.Scan.EntryPatterns)
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	root := t.TempDir()
	writeConfigFile(t, root, "scan:\n  source_max: 400\n")
	t.Setenv("OVERSEER_SCAN_SOURCE_MAX", "250")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Scan.SourceMax)
}

func TestLoad_InvalidValueFails(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfigFile(t, root, "scan:\n  source_max: -5\n")

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "scan.source_max must be positive")
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfigFile(t, root, "scan: [unclosed\n")

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate(Default()))

	bad := Default()
	bad.Scan.TestMax = 0
	err := Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan.test_max")
}
