package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30*time.Second, cfg.BatteryPollInterval)
	assert.Equal(t, 2*time.Second, cfg.UnknownStatePollInterval)
	assert.Equal(t, 30, cfg.UnknownStateRetries)
	assert.Equal(t, 10.0, cfg.LowBatteryPercentage)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upowerd.yaml")
	yamlContent := "history_dir: /tmp/history\nlow_battery_percentage: 15\nverbose: true\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/history", cfg.HistoryDir)
	assert.Equal(t, 15.0, cfg.LowBatteryPercentage)
	assert.True(t, cfg.Verbose)
	// Unset fields keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.BatteryPollInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
