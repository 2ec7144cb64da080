// Package aggregator orchestrates periodic fetch-and-compute runs: pull
// candles for the ticker universe, persist them, then recompute and
// persist the latest indicators from a trailing price window.
package aggregator

import (
	"fmt"
	"log"
	"time"

	"github.com/iprahasta12-beep/idx-list/internal/config"
	"github.com/iprahasta12-beep/idx-list/internal/fetcher"
	"github.com/iprahasta12-beep/idx-list/internal/indicator"
	"github.com/iprahasta12-beep/idx-list/internal/store"
)

// Aggregator ties the fetcher, the store and the indicator engine together.
type Aggregator struct {
	Store   store.Store
	Fetcher fetcher.Fetcher
	Cfg     *config.Config
}

// New creates an Aggregator.
func New(st store.Store, f fetcher.Fetcher, cfg *config.Config) *Aggregator {
	return &Aggregator{Store: st, Fetcher: f, Cfg: cfg}
}

func (a *Aggregator) params() indicator.Params {
	return indicator.Params{
		MAShort:        a.Cfg.Indicators.MAShort,
		MALong:         a.Cfg.Indicators.MALong,
		RSIPeriod:      a.Cfg.Indicators.RSIPeriod,
		RSIMin:         a.Cfg.Indicators.RSIMin,
		HighLookback:   a.Cfg.Indicators.HighLookback,
		HighWithinDays: a.Cfg.Indicators.HighWithinDays,
	}
}

// historyDays is the trailing price window fed to the indicator engine:
// enough bars for the long MA and the rolling-high lookback to settle.
func (a *Aggregator) historyDays(days int) int {
	n := a.Cfg.Indicators.HighLookback + 60
	if days > n {
		n = days
	}
	if n < 120 {
		n = 120
	}
	return n
}

// FetchAndCompute pulls daily candles (and optionally hourly intraday
// snapshots), upserts them, then recomputes the latest indicators over the
// trailing history window.
func (a *Aggregator) FetchAndCompute(days int, includeIntraday bool) error {
	tickers, err := a.Cfg.LoadTickers()
	if err != nil {
		return fmt.Errorf("load tickers: %w", err)
	}

	end := time.Now().UTC()
	lookback := days
	if min := a.Cfg.Indicators.HighLookback + 60; lookback < min {
		lookback = min
	}
	startDaily := end.AddDate(0, 0, -lookback)

	log.Printf("[INFO] fetching daily candles: symbols=%d start=%s end=%s",
		len(tickers), startDaily.Format(time.RFC3339), end.Format(time.RFC3339))
	dailyRows, err := a.Fetcher.Fetch(tickers, startDaily, end, "1d")
	if err != nil {
		return fmt.Errorf("fetch daily: %w", err)
	}
	if err := a.Store.UpsertPrices(dailyRows); err != nil {
		return err
	}

	if includeIntraday {
		startIntra := end.AddDate(0, 0, -7)
		log.Printf("[INFO] fetching intraday candles: symbols=%d start=%s end=%s",
			len(tickers), startIntra.Format(time.RFC3339), end.Format(time.RFC3339))
		intraRows, err := a.Fetcher.Fetch(tickers, startIntra, end, "60m")
		if err != nil {
			return fmt.Errorf("fetch intraday: %w", err)
		}
		if err := a.Store.UpsertPrices(intraRows); err != nil {
			return err
		}
	}

	return a.recompute(a.historyDays(days))
}

// Backfill loads a longer stretch of daily history, then recomputes
// indicators.
func (a *Aggregator) Backfill(days int) error {
	tickers, err := a.Cfg.LoadTickers()
	if err != nil {
		return fmt.Errorf("load tickers: %w", err)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -(days + 5))
	log.Printf("[INFO] backfilling: symbols=%d days=%d", len(tickers), days)

	rows, err := a.Fetcher.Fetch(tickers, start, end, "1d")
	if err != nil {
		return fmt.Errorf("fetch backfill: %w", err)
	}
	if err := a.Store.UpsertPrices(rows); err != nil {
		return err
	}

	return a.recompute(a.historyDays(days))
}

func (a *Aggregator) recompute(historyDays int) error {
	prices, err := a.Store.LoadPrices(historyDays)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		log.Println("[WARN] no price data available to compute indicators")
		return nil
	}
	rows := indicator.Compute(prices, a.params(), time.Now())
	if err := a.Store.UpsertIndicators(rows); err != nil {
		return err
	}
	log.Printf("[INFO] indicators updated: count=%d", len(rows))
	return nil
}

// Run is the scheduler entry point: a default weekly-depth refresh with
// intraday snapshots, errors logged rather than propagated so one failed
// run never kills the cron loop.
func (a *Aggregator) Run() {
	if err := a.FetchAndCompute(7, true); err != nil {
		log.Printf("[ERROR] fetch-and-compute run: %v", err)
	}
}
