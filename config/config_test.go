package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths: 5000
batches: 5
strike: 61000
log_level: debug
candles:
  minute: minute.json
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Paths)
	assert.Equal(t, 5, cfg.Batches)
	assert.Equal(t, 61000.0, cfg.Strike)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "minute.json", cfg.Candles.Minute)
	assert.Equal(t, Default().CacheCap, cfg.CacheCap, "untouched keys keep defaults")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`paths: [not an int`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KALSHIQ_PATHS", "777")
	t.Setenv("KALSHIQ_BASE_SEED", "42")
	t.Setenv("KALSHIQ_TICKER", "BTCUSD-4H")
	t.Setenv("KALSHIQ_TIME_TO_CLOSE_HOURS", "4")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 777, cfg.Paths)
	assert.Equal(t, uint64(42), cfg.BaseSeed)
	assert.Equal(t, "BTCUSD-4H", cfg.Ticker)
	assert.Equal(t, 4.0, cfg.TimeToCloseHours)
}
