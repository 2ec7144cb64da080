// Package cli defines the idxwatch command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iprahasta12-beep/idx-list/internal/config"
	"github.com/iprahasta12-beep/idx-list/internal/fetcher"
	"github.com/iprahasta12-beep/idx-list/internal/store"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "idxwatch",
	Short: "IDX watchlist: candle ingestion, indicators and as-of queries",
	Long: `idxwatch ingests OHLCV candles for a fixed universe of IDX tickers,
derives moving averages, a Wilder RSI, a rolling-high flag and a composite
signal per symbol, and serves point-in-time summary and per-symbol history
queries over HTTP.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config YAML (default configs/config.yaml)")
}

// setup loads and validates config and opens the configured store.
func setup() (*config.Config, store.Store, error) {
	path := cfgPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, st, nil
}

// newFetcher picks the fetcher for the configured proxy.
func newFetcher(cfg *config.Config) fetcher.Fetcher {
	return fetcher.NewYahooFetcher(cfg.Proxy)
}
