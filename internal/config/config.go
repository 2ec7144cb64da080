package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Timezone string `yaml:"timezone"`
	Storage  string `yaml:"storage"` // "sqlite" or "csv"
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		CSVDir     string `yaml:"csv_dir"`
	} `yaml:"database"`
	Tickers struct {
		Path string `yaml:"path"`
	} `yaml:"tickers"`
	Indicators struct {
		RSIMin         float64 `yaml:"rsi_min"`
		HighLookback   int     `yaml:"high_lookback"`
		HighWithinDays int     `yaml:"high_within_days"`
		MAShort        int     `yaml:"ma_short"`
		MALong         int     `yaml:"ma_long"`
		RSIPeriod      int     `yaml:"rsi_period"`
	} `yaml:"indicators"`
	Schedule struct {
		FetchCron string `yaml:"fetch_cron"`
		Enabled   bool   `yaml:"enabled"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`

	loc *time.Location
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TZ"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("STORAGE"); v != "" {
		cfg.Storage = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CSV_DIR"); v != "" {
		cfg.Database.CSVDir = v
	}
	if v := os.Getenv("TICKERS_PATH"); v != "" {
		cfg.Tickers.Path = v
	}
	if v := os.Getenv("RSI_MIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Indicators.RSIMin = f
		}
	}
	if v := os.Getenv("HIGH_LOOKBACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indicators.HighLookback = n
		}
	}
	if v := os.Getenv("HIGH_WITHIN_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indicators.HighWithinDays = n
		}
	}
	if v := os.Getenv("FETCH_CRON"); v != "" {
		cfg.Schedule.FetchCron = v
	}
	if v := os.Getenv("ENABLE_SCHEDULER"); v != "" {
		cfg.Schedule.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Jakarta"
	}
	if cfg.Storage == "" {
		cfg.Storage = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/idx_quotes.db"
	}
	if cfg.Database.CSVDir == "" {
		cfg.Database.CSVDir = "data"
	}
	if cfg.Tickers.Path == "" {
		cfg.Tickers.Path = "configs/tickers.json"
	}
	if cfg.Indicators.RSIMin == 0 {
		cfg.Indicators.RSIMin = 55
	}
	if cfg.Indicators.HighLookback == 0 {
		cfg.Indicators.HighLookback = 30
	}
	if cfg.Indicators.HighWithinDays == 0 {
		cfg.Indicators.HighWithinDays = 5
	}
	if cfg.Indicators.MAShort == 0 {
		cfg.Indicators.MAShort = 20
	}
	if cfg.Indicators.MALong == 0 {
		cfg.Indicators.MALong = 50
	}
	if cfg.Indicators.RSIPeriod == 0 {
		cfg.Indicators.RSIPeriod = 14
	}
	if cfg.Schedule.FetchCron == "" {
		cfg.Schedule.FetchCron = "5 * * * *"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}

	return cfg, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Validate checks tunables and resolves the configured timezone.
func (c *Config) Validate() error {
	switch c.Storage {
	case "sqlite", "csv":
	default:
		return fmt.Errorf("storage must be either 'sqlite' or 'csv', got %q", c.Storage)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	c.loc = loc
	if c.Indicators.MAShort <= 0 || c.Indicators.MALong <= 0 || c.Indicators.RSIPeriod <= 0 {
		return fmt.Errorf("indicator windows must be positive")
	}
	if c.Indicators.HighLookback <= 0 || c.Indicators.HighWithinDays <= 0 {
		return fmt.Errorf("high_lookback and high_within_days must be positive")
	}
	return nil
}

// Location returns the resolved timezone. Validate resolves it once; calling
// Location before Validate falls back to resolving on the spot.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return time.UTC
		}
		c.loc = loc
	}
	return c.loc
}

// LoadTickers reads the ticker universe from the configured JSON array file.
func (c *Config) LoadTickers() ([]string, error) {
	data, err := os.ReadFile(c.Tickers.Path)
	if err != nil {
		return nil, fmt.Errorf("read tickers file: %w", err)
	}
	var tickers []string
	if err := json.Unmarshal(data, &tickers); err != nil {
		return nil, fmt.Errorf("tickers file must contain a JSON array: %w", err)
	}
	for i, t := range tickers {
		tickers[i] = strings.ToUpper(t)
	}
	return tickers, nil
}
