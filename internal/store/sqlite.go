package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iprahasta12-beep/idx-list/internal/model"
)

// SQLiteStore is the transactional backend. Writes are serialized by a
// mutex on top of a single transaction per upsert; readers go through the
// same connection pool and see consistent snapshots thanks to WAL mode.
type SQLiteStore struct {
	db  *sql.DB
	loc *time.Location
	mu  sync.Mutex
}

// NewSQLiteStore opens (or creates) the database file and runs migrations.
func NewSQLiteStore(path string, loc *time.Location) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so queries keep working while a fetch run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, loc: loc}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", path)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prices (
			symbol TEXT    NOT NULL,
			ts_utc INTEGER NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			PRIMARY KEY (symbol, ts_utc)
		)`,
		`CREATE TABLE IF NOT EXISTS indicators (
			symbol         TEXT    NOT NULL,
			ts_utc         INTEGER NOT NULL,
			ma20           REAL,
			ma50           REAL,
			rsi14          REAL,
			is_30d_high    INTEGER NOT NULL DEFAULT 0,
			signal         INTEGER NOT NULL DEFAULT 0,
			updated_at_utc INTEGER,
			PRIMARY KEY (symbol, ts_utc)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prices_ts ON prices(ts_utc)`,
		`CREATE INDEX IF NOT EXISTS idx_indicators_ts ON indicators(ts_utc)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertPrices(rows []model.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("upsert prices", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO prices
		(symbol, ts_utc, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return storageErr("upsert prices", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.Symbol, r.TSUTC, r.Open, r.High, r.Low, r.Close, r.Volume); err != nil {
			tx.Rollback()
			return storageErr("upsert prices", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("upsert prices", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertIndicators(rows []model.IndicatorRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("upsert indicators", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO indicators
		(symbol, ts_utc, ma20, ma50, rsi14, is_30d_high, signal, updated_at_utc)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return storageErr("upsert indicators", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.Symbol, r.TSUTC,
			nullFloat(r.MA20), nullFloat(r.MA50), nullFloat(r.RSI14),
			boolToInt(r.Is30dHigh), boolToInt(r.Signal), r.UpdatedAtUTC); err != nil {
			tx.Rollback()
			return storageErr("upsert indicators", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("upsert indicators", err)
	}
	return nil
}

func (s *SQLiteStore) LatestSummary(asOf time.Time) ([]model.SummaryRow, error) {
	cutoff := cutoffUnix(asOf, s.loc)

	const query = `
	WITH latest_price AS (
		SELECT symbol, MAX(ts_utc) AS ts_utc
		FROM prices
		WHERE ts_utc <= ?
		GROUP BY symbol
	), latest_indicator AS (
		SELECT i.* FROM indicators i
		INNER JOIN (
			SELECT symbol, MAX(ts_utc) AS ts_utc
			FROM indicators
			WHERE ts_utc <= ?
			GROUP BY symbol
		) latest ON latest.symbol = i.symbol AND latest.ts_utc = i.ts_utc
	)
	SELECT p.symbol, p.close, p.ts_utc,
	       li.ma20, li.ma50, li.rsi14, li.is_30d_high, li.signal
	FROM latest_price lp
	JOIN prices p ON p.symbol = lp.symbol AND p.ts_utc = lp.ts_utc
	LEFT JOIN latest_indicator li ON li.symbol = p.symbol
	ORDER BY p.symbol`

	rows, err := s.db.Query(query, cutoff, cutoff)
	if err != nil {
		return nil, storageErr("summary query", err)
	}
	defer rows.Close()

	var out []model.SummaryRow
	for rows.Next() {
		var (
			symbol          string
			lastClose       float64
			ts              int64
			ma20, ma50, rsi sql.NullFloat64
			isHigh, signal  sql.NullInt64
		)
		if err := rows.Scan(&symbol, &lastClose, &ts, &ma20, &ma50, &rsi, &isHigh, &signal); err != nil {
			return nil, storageErr("summary scan", err)
		}

		row := model.SummaryRow{
			Symbol:       symbol,
			LastClose:    lastClose,
			MA20:         floatPtr(ma20),
			MA50:         floatPtr(ma50),
			RSI14:        floatPtr(rsi),
			Is30dHigh:    isHigh.Valid && isHigh.Int64 != 0,
			Signal:       signal.Valid && signal.Int64 != 0,
			UpdatedLocal: formatLocal(ts, s.loc),
		}

		// Prior trading day's close: the last bar strictly before local
		// midnight of the selected bar's day.
		dayStart := localDayStartUnix(ts, s.loc)
		var prevClose float64
		err := s.db.QueryRow(
			`SELECT close FROM prices WHERE symbol = ? AND ts_utc < ? ORDER BY ts_utc DESC LIMIT 1`,
			symbol, dayStart,
		).Scan(&prevClose)
		switch {
		case err == sql.ErrNoRows:
			// no prior day, pct stays nil
		case err != nil:
			return nil, storageErr("prior close query", err)
		default:
			row.PctChange1d = pctChange1d(lastClose, prevClose)
		}

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("summary rows", err)
	}
	return out, nil
}

func (s *SQLiteStore) SymbolHistory(symbol string, limit int) ([]model.HistoryRow, error) {
	const query = `
	SELECT p.symbol, p.ts_utc, p.open, p.high, p.low, p.close, p.volume,
	       i.ma20, i.ma50, i.rsi14, i.is_30d_high, i.signal
	FROM prices p
	LEFT JOIN indicators i ON i.symbol = p.symbol AND i.ts_utc = (
		SELECT MAX(ts_utc) FROM indicators i2
		WHERE i2.symbol = p.symbol AND i2.ts_utc <= p.ts_utc
	)
	WHERE p.symbol = ?
	ORDER BY p.ts_utc DESC
	LIMIT ?`

	rows, err := s.db.Query(query, symbol, limit)
	if err != nil {
		return nil, storageErr("history query", err)
	}
	defer rows.Close()

	var out []model.HistoryRow
	for rows.Next() {
		var (
			r               model.HistoryRow
			ma20, ma50, rsi sql.NullFloat64
			isHigh, signal  sql.NullInt64
		)
		if err := rows.Scan(&r.Symbol, &r.TSUTC, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume,
			&ma20, &ma50, &rsi, &isHigh, &signal); err != nil {
			return nil, storageErr("history scan", err)
		}
		r.MA20 = floatPtr(ma20)
		r.MA50 = floatPtr(ma50)
		r.RSI14 = floatPtr(rsi)
		r.Is30dHigh = isHigh.Valid && isHigh.Int64 != 0
		r.Signal = signal.Valid && signal.Int64 != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("history rows", err)
	}
	return out, nil
}

func (s *SQLiteStore) LoadPrices(daysBack int) ([]model.PriceRow, error) {
	query := `SELECT symbol, ts_utc, open, high, low, close, volume FROM prices`
	var args []any
	if daysBack > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -daysBack).Unix()
		query += ` WHERE ts_utc >= ?`
		args = append(args, cutoff)
	}
	query += ` ORDER BY symbol, ts_utc`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("load prices", err)
	}
	defer rows.Close()

	var out []model.PriceRow
	for rows.Next() {
		var r model.PriceRow
		if err := rows.Scan(&r.Symbol, &r.TSUTC, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume); err != nil {
			return nil, storageErr("load prices scan", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load prices rows", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
