// Package config loads the CLI configuration: defaults, optional config.yaml
// overrides, then environment variables on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type CandleFiles struct {
	Minute string `yaml:"minute"`
	Hourly string `yaml:"hourly"`
	Daily  string `yaml:"daily"`
}

type Config struct {
	Ticker           string      `yaml:"ticker"`
	Strike           float64     `yaml:"strike"`
	RangeLow         float64     `yaml:"range_low"`
	RangeHigh        float64     `yaml:"range_high"`
	TimeToCloseHours float64     `yaml:"time_to_close_hours"`
	Paths            int         `yaml:"paths"`
	Batches          int         `yaml:"batches"`
	Threads          int         `yaml:"threads"`
	BaseSeed         uint64      `yaml:"base_seed"`
	SamplePaths      int         `yaml:"sample_paths"`
	SamplePoints     int         `yaml:"sample_points"`
	CacheCap         int         `yaml:"cache_cap"`
	CacheTTLSeconds  int         `yaml:"cache_ttl_seconds"`
	LogLevel         string      `yaml:"log_level"`
	Product          string      `yaml:"product"`
	FetchCandles     bool        `yaml:"fetch_candles"`
	Candles          CandleFiles `yaml:"candles"`
	OutputFile       string      `yaml:"output_file"`
}

func Default() Config {
	return Config{
		Ticker:           "BTCUSD-1H",
		TimeToCloseHours: 1.0,
		Paths:            20000,
		Batches:          10,
		Threads:          1,
		SamplePaths:      15,
		SamplePoints:     60,
		CacheCap:         50,
		CacheTTLSeconds:  60,
		LogLevel:         "info",
		Product:          "BTC-USD",
		OutputFile:       "result.json",
	}
}

// Load merges defaults, the yaml file at path (when present) and environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KALSHIQ_TICKER"); v != "" {
		cfg.Ticker = v
	}
	if v := os.Getenv("KALSHIQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	envFloat("KALSHIQ_STRIKE", &cfg.Strike)
	envFloat("KALSHIQ_RANGE_LOW", &cfg.RangeLow)
	envFloat("KALSHIQ_RANGE_HIGH", &cfg.RangeHigh)
	envFloat("KALSHIQ_TIME_TO_CLOSE_HOURS", &cfg.TimeToCloseHours)
	envInt("KALSHIQ_PATHS", &cfg.Paths)
	envInt("KALSHIQ_BATCHES", &cfg.Batches)
	envInt("KALSHIQ_THREADS", &cfg.Threads)
	envUint("KALSHIQ_BASE_SEED", &cfg.BaseSeed)
}

func envFloat(name string, dst *float64) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func envUint(name string, dst *uint64) {
	if v := os.Getenv(name); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = u
		}
	}
}
