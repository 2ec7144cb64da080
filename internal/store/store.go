// Package store persists price candles and derived indicators and answers
// point-in-time summary and per-symbol history queries.
//
// Two backends implement the same contract: a transactional SQLite engine
// and a flat-file CSV engine. Callers pick one at startup via Open and stay
// backend-agnostic; for identical input both backends return the same
// logical query results.
package store

import (
	"fmt"
	"math"
	"time"

	"github.com/iprahasta12-beep/idx-list/internal/config"
	"github.com/iprahasta12-beep/idx-list/internal/model"
)

// Store is the storage contract shared by both backends.
type Store interface {
	// UpsertPrices persists each row under its (symbol, ts_utc) key,
	// overwriting any existing row. No-op on empty input. Atomic per call.
	UpsertPrices(rows []model.PriceRow) error

	// UpsertIndicators has the same contract as UpsertPrices, for
	// indicator rows.
	UpsertIndicators(rows []model.IndicatorRow) error

	// LatestSummary returns one row per symbol: the most recent price at
	// or before the end of the asOf date (local time), joined with the
	// indicator row effective at that cutoff, plus the 1-day percent
	// change. A zero asOf means "latest known". Ordered by symbol.
	LatestSummary(asOf time.Time) ([]model.SummaryRow, error)

	// SymbolHistory returns the most recent limit price rows for one
	// symbol in descending time order, each joined with the indicator row
	// effective at or before the bar. Unknown symbols yield an empty
	// result, not an error.
	SymbolHistory(symbol string, limit int) ([]model.HistoryRow, error)

	// LoadPrices returns all price rows, optionally restricted to the
	// trailing daysBack days (0 means everything), sorted by symbol then
	// timestamp. Feeds the indicator engine; not part of the query API.
	LoadPrices(daysBack int) ([]model.PriceRow, error)

	Close() error
}

// StorageError wraps I/O and driver failures so the API layer can map them
// to a 5xx response instead of crashing the query surface.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Open selects and initializes the backend named by the configuration.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Storage {
	case "sqlite":
		return NewSQLiteStore(cfg.Database.SQLitePath, cfg.Location())
	case "csv":
		return NewCSVStore(cfg.Database.CSVDir, cfg.Location())
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// cutoffUnix converts an as-of date to the inclusive UTC cutoff: the end of
// that calendar day in loc. A zero asOf means no cutoff.
func cutoffUnix(asOf time.Time, loc *time.Location) int64 {
	if asOf.IsZero() {
		return math.MaxInt64
	}
	end := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 23, 59, 59, 0, loc)
	return end.Unix()
}

// localDayStartUnix returns the UTC timestamp of local midnight of the
// calendar day (in loc) that ts falls on.
func localDayStartUnix(ts int64, loc *time.Location) int64 {
	local := time.Unix(ts, 0).In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.Unix()
}

// formatLocal renders a UTC timestamp as the display string in loc.
func formatLocal(ts int64, loc *time.Location) string {
	return time.Unix(ts, 0).In(loc).Format("2006-01-02 15:04")
}

// pctChange1d computes (last-prev)/prev*100, or nil when prev is zero.
func pctChange1d(lastClose, prevClose float64) *float64 {
	if prevClose == 0 {
		return nil
	}
	pct := (lastClose - prevClose) / prevClose * 100
	return &pct
}
