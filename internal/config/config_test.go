package config

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"TZ", "STORAGE", "DB_PATH", "CSV_DIR", "RSI_MIN", "FETCH_CRON", "HTTP_ADDR"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing config file must fall back to defaults: %v", err)
	}
	if cfg.Timezone != "Asia/Jakarta" {
		t.Errorf("timezone: got %q", cfg.Timezone)
	}
	if cfg.Storage != "sqlite" {
		t.Errorf("storage: got %q", cfg.Storage)
	}
	if cfg.Database.SQLitePath != "data/idx_quotes.db" {
		t.Errorf("sqlite path: got %q", cfg.Database.SQLitePath)
	}
	if cfg.Indicators.RSIMin != 55 {
		t.Errorf("rsi_min: got %v", cfg.Indicators.RSIMin)
	}
	if cfg.Indicators.MAShort != 20 || cfg.Indicators.MALong != 50 || cfg.Indicators.RSIPeriod != 14 {
		t.Errorf("indicator windows: got %+v", cfg.Indicators)
	}
	if cfg.Indicators.HighLookback != 30 || cfg.Indicators.HighWithinDays != 5 {
		t.Errorf("high flag tunables: got %+v", cfg.Indicators)
	}
	if cfg.Schedule.FetchCron != "5 * * * *" {
		t.Errorf("fetch cron: got %q", cfg.Schedule.FetchCron)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("server addr: got %q", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
timezone: UTC
storage: csv
database:
  csv_dir: /tmp/quotes
indicators:
  rsi_min: 60
schedule:
  fetch_cron: "0 18 * * 1-5"
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timezone != "UTC" || cfg.Storage != "csv" {
		t.Errorf("got tz=%q storage=%q", cfg.Timezone, cfg.Storage)
	}
	if cfg.Database.CSVDir != "/tmp/quotes" {
		t.Errorf("csv dir: got %q", cfg.Database.CSVDir)
	}
	if cfg.Indicators.RSIMin != 60 {
		t.Errorf("rsi_min: got %v", cfg.Indicators.RSIMin)
	}
	if !cfg.Schedule.Enabled || cfg.Schedule.FetchCron != "0 18 * * 1-5" {
		t.Errorf("schedule: got %+v", cfg.Schedule)
	}
	// Unset fields still get defaults.
	if cfg.Indicators.MAShort != 20 {
		t.Errorf("ma_short default: got %d", cfg.Indicators.MAShort)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TZ", "UTC")
	t.Setenv("STORAGE", "csv")
	t.Setenv("CSV_DIR", "/tmp/csvdata")
	t.Setenv("RSI_MIN", "62.5")
	t.Setenv("HIGH_WITHIN_DAYS", "3")
	t.Setenv("ENABLE_SCHEDULER", "yes")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("timezone: got %q", cfg.Timezone)
	}
	if cfg.Storage != "csv" || cfg.Database.CSVDir != "/tmp/csvdata" {
		t.Errorf("storage: got %q dir %q", cfg.Storage, cfg.Database.CSVDir)
	}
	if cfg.Indicators.RSIMin != 62.5 {
		t.Errorf("rsi_min: got %v", cfg.Indicators.RSIMin)
	}
	if cfg.Indicators.HighWithinDays != 3 {
		t.Errorf("high_within_days: got %d", cfg.Indicators.HighWithinDays)
	}
	if !cfg.Schedule.Enabled {
		t.Error("scheduler should be enabled")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	cfg := base()
	cfg.Storage = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for an unknown backend")
	}

	cfg = base()
	cfg.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for an unknown timezone")
	}

	cfg = base()
	cfg.Indicators.MAShort = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a negative window")
	}
}

func TestLocation(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := cfg.Location().String(); got != "Asia/Jakarta" {
		t.Errorf("location: got %q", got)
	}
}

func TestLoadTickers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickers.json")
	if err := os.WriteFile(path, []byte(`["bbca.jk", "ASII.JK"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{}
	cfg.Tickers.Path = path
	tickers, err := cfg.LoadTickers()
	if err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 2 || tickers[0] != "BBCA.JK" || tickers[1] != "ASII.JK" {
		t.Errorf("got %v", tickers)
	}
}
