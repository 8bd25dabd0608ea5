package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/ycscrape/internal/config"
)

func TestApplyFlagsOverrides(t *testing.T) {
	cfg, err := applyFlags(config.Default(), CLIFlags{
		Target:      10,
		Workers:     2,
		Output:      "out.xlsx",
		Checkpoint:  "cp.csv",
		MetricsFile: "ycscrape.prom",
		Headful:     true,
		NoProgress:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.TargetCount)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "out.xlsx", cfg.OutputFile)
	assert.Equal(t, "cp.csv", cfg.CheckpointFile)
	assert.Equal(t, "ycscrape.prom", cfg.MetricsFile)
	assert.False(t, cfg.Browser.Headless)
	assert.False(t, cfg.ShowProgress)
}

func TestApplyFlagsKeepsUnsetValues(t *testing.T) {
	def := config.Default()

	cfg, err := applyFlags(def, CLIFlags{})
	require.NoError(t, err)
	assert.Equal(t, def, cfg)
}

func TestApplyFlagsValidates(t *testing.T) {
	_, err := applyFlags(config.Default(), CLIFlags{Target: -1})
	assert.Error(t, err)
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ycscrape.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_count: 42\n"), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.TargetCount)
}
