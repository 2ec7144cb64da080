package store

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iprahasta12-beep/idx-list/internal/model"
)

// rowKey is the composite primary key of both tables.
type rowKey struct {
	symbol string
	ts     int64
}

var (
	priceHeader     = []string{"symbol", "ts_utc", "open", "high", "low", "close", "volume"}
	indicatorHeader = []string{"symbol", "ts_utc", "ma20", "ma50", "rsi14", "is_30d_high", "signal", "updated_at_utc"}
)

// CSVStore is the flat-file backend: one delimited file per table, header
// row present. Every upsert loads the whole table, merges by key keeping
// the newest row, re-sorts and rewrites the file through a temp file plus
// rename, so a crash mid-write never corrupts the table. That makes writes
// O(total rows); fine for a few hundred symbols of daily bars, but use the
// sqlite backend for anything bigger.
//
// The mutex gives the single-writer discipline concurrent upserts need:
// two full-file rewrites must never interleave.
type CSVStore struct {
	dir            string
	pricesPath     string
	indicatorsPath string
	loc            *time.Location
	mu             sync.RWMutex
}

// NewCSVStore creates the data directory if needed.
func NewCSVStore(dir string, loc *time.Location) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv directory: %w", err)
	}
	log.Printf("[INFO] csv store opened: %s", dir)
	return &CSVStore{
		dir:            dir,
		pricesPath:     filepath.Join(dir, "prices.csv"),
		indicatorsPath: filepath.Join(dir, "indicators.csv"),
		loc:            loc,
	}, nil
}

func (s *CSVStore) UpsertPrices(rows []model.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readPrices()
	if err != nil {
		return err
	}
	merged := make(map[rowKey]model.PriceRow, len(existing)+len(rows))
	for _, r := range existing {
		merged[rowKey{r.Symbol, r.TSUTC}] = r
	}
	for _, r := range rows {
		merged[rowKey{r.Symbol, r.TSUTC}] = r
	}
	all := make([]model.PriceRow, 0, len(merged))
	for _, r := range merged {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Symbol != all[j].Symbol {
			return all[i].Symbol < all[j].Symbol
		}
		return all[i].TSUTC < all[j].TSUTC
	})

	records := make([][]string, 0, len(all)+1)
	records = append(records, priceHeader)
	for _, r := range all {
		records = append(records, []string{
			r.Symbol,
			strconv.FormatInt(r.TSUTC, 10),
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.Close),
			formatFloat(r.Volume),
		})
	}
	return s.rewrite(s.pricesPath, records)
}

func (s *CSVStore) UpsertIndicators(rows []model.IndicatorRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readIndicators()
	if err != nil {
		return err
	}
	merged := make(map[rowKey]model.IndicatorRow, len(existing)+len(rows))
	for _, r := range existing {
		merged[rowKey{r.Symbol, r.TSUTC}] = r
	}
	for _, r := range rows {
		merged[rowKey{r.Symbol, r.TSUTC}] = r
	}
	all := make([]model.IndicatorRow, 0, len(merged))
	for _, r := range merged {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Symbol != all[j].Symbol {
			return all[i].Symbol < all[j].Symbol
		}
		return all[i].TSUTC < all[j].TSUTC
	})

	records := make([][]string, 0, len(all)+1)
	records = append(records, indicatorHeader)
	for _, r := range all {
		records = append(records, []string{
			r.Symbol,
			strconv.FormatInt(r.TSUTC, 10),
			formatNullFloat(r.MA20),
			formatNullFloat(r.MA50),
			formatNullFloat(r.RSI14),
			formatIntBool(r.Is30dHigh),
			formatIntBool(r.Signal),
			strconv.FormatInt(r.UpdatedAtUTC, 10),
		})
	}
	return s.rewrite(s.indicatorsPath, records)
}

// rewrite replaces path with the given records, all-or-nothing: the new
// content goes to a temp file in the same directory first and only a
// successful write gets renamed over the old file.
func (s *CSVStore) rewrite(path string, records [][]string) error {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp")
	if err != nil {
		return storageErr("rewrite "+filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return storageErr("rewrite "+filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return storageErr("rewrite "+filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return storageErr("rewrite "+filepath.Base(path), err)
	}
	return nil
}

func (s *CSVStore) readPrices() ([]model.PriceRow, error) {
	records, err := readTable(s.pricesPath)
	if err != nil {
		return nil, err
	}
	rows := make([]model.PriceRow, 0, len(records))
	for _, rec := range records {
		if len(rec) != len(priceHeader) {
			return nil, storageErr("read prices.csv", fmt.Errorf("row has %d fields, want %d", len(rec), len(priceHeader)))
		}
		ts, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			return nil, storageErr("read prices.csv", err)
		}
		var vals [5]float64
		for i, raw := range rec[2:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, storageErr("read prices.csv", err)
			}
			vals[i] = v
		}
		rows = append(rows, model.PriceRow{
			Symbol: rec[0],
			TSUTC:  ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return rows, nil
}

func (s *CSVStore) readIndicators() ([]model.IndicatorRow, error) {
	records, err := readTable(s.indicatorsPath)
	if err != nil {
		return nil, err
	}
	rows := make([]model.IndicatorRow, 0, len(records))
	for _, rec := range records {
		if len(rec) != len(indicatorHeader) {
			return nil, storageErr("read indicators.csv", fmt.Errorf("row has %d fields, want %d", len(rec), len(indicatorHeader)))
		}
		ts, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			return nil, storageErr("read indicators.csv", err)
		}
		ma20, err := parseNullFloat(rec[2])
		if err != nil {
			return nil, storageErr("read indicators.csv", err)
		}
		ma50, err := parseNullFloat(rec[3])
		if err != nil {
			return nil, storageErr("read indicators.csv", err)
		}
		rsi, err := parseNullFloat(rec[4])
		if err != nil {
			return nil, storageErr("read indicators.csv", err)
		}
		updated, err := strconv.ParseInt(rec[7], 10, 64)
		if err != nil {
			return nil, storageErr("read indicators.csv", err)
		}
		rows = append(rows, model.IndicatorRow{
			Symbol:       rec[0],
			TSUTC:        ts,
			MA20:         ma20,
			MA50:         ma50,
			RSI14:        rsi,
			Is30dHigh:    rec[5] == "1",
			Signal:       rec[6] == "1",
			UpdatedAtUTC: updated,
		})
	}
	return rows, nil
}

// readTable returns the data records of a CSV table, skipping the header.
// A missing file is an empty table, not an error.
func readTable(path string) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("open "+filepath.Base(path), err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, storageErr("parse "+filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func (s *CSVStore) LatestSummary(asOf time.Time) ([]model.SummaryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices, err := s.readPrices()
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, nil
	}
	indicators, err := s.readIndicators()
	if err != nil {
		return nil, err
	}

	cutoff := cutoffUnix(asOf, s.loc)

	priceBySymbol := make(map[string][]model.PriceRow)
	for _, r := range prices {
		priceBySymbol[r.Symbol] = append(priceBySymbol[r.Symbol], r)
	}
	indBySymbol := make(map[string][]model.IndicatorRow)
	for _, r := range indicators {
		indBySymbol[r.Symbol] = append(indBySymbol[r.Symbol], r)
	}

	symbols := make([]string, 0, len(priceBySymbol))
	for sym := range priceBySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var out []model.SummaryRow
	for _, sym := range symbols {
		series := priceBySymbol[sym]
		sort.Slice(series, func(i, j int) bool { return series[i].TSUTC < series[j].TSUTC })

		latest, ok := latestPriceAt(series, cutoff)
		if !ok {
			continue
		}

		row := model.SummaryRow{
			Symbol:       sym,
			LastClose:    latest.Close,
			UpdatedLocal: formatLocal(latest.TSUTC, s.loc),
		}

		if ind, ok := latestIndicatorAt(indBySymbol[sym], cutoff); ok {
			row.MA20 = ind.MA20
			row.MA50 = ind.MA50
			row.RSI14 = ind.RSI14
			row.Is30dHigh = ind.Is30dHigh
			row.Signal = ind.Signal
		}

		dayStart := localDayStartUnix(latest.TSUTC, s.loc)
		for i := len(series) - 1; i >= 0; i-- {
			if series[i].TSUTC < dayStart {
				row.PctChange1d = pctChange1d(latest.Close, series[i].Close)
				break
			}
		}

		out = append(out, row)
	}
	return out, nil
}

func (s *CSVStore) SymbolHistory(symbol string, limit int) ([]model.HistoryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices, err := s.readPrices()
	if err != nil {
		return nil, err
	}
	indicators, err := s.readIndicators()
	if err != nil {
		return nil, err
	}

	var series []model.PriceRow
	for _, r := range prices {
		if r.Symbol == symbol {
			series = append(series, r)
		}
	}
	sort.Slice(series, func(i, j int) bool { return series[i].TSUTC > series[j].TSUTC })
	if limit > 0 && len(series) > limit {
		series = series[:limit]
	}

	var inds []model.IndicatorRow
	for _, r := range indicators {
		if r.Symbol == symbol {
			inds = append(inds, r)
		}
	}

	out := make([]model.HistoryRow, 0, len(series))
	for _, p := range series {
		row := model.HistoryRow{
			Symbol: p.Symbol,
			TSUTC:  p.TSUTC,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		}
		if ind, ok := latestIndicatorAt(inds, p.TSUTC); ok {
			row.MA20 = ind.MA20
			row.MA50 = ind.MA50
			row.RSI14 = ind.RSI14
			row.Is30dHigh = ind.Is30dHigh
			row.Signal = ind.Signal
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *CSVStore) LoadPrices(daysBack int) ([]model.PriceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices, err := s.readPrices()
	if err != nil {
		return nil, err
	}
	if daysBack > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -daysBack).Unix()
		filtered := prices[:0]
		for _, r := range prices {
			if r.TSUTC >= cutoff {
				filtered = append(filtered, r)
			}
		}
		prices = filtered
	}
	sort.Slice(prices, func(i, j int) bool {
		if prices[i].Symbol != prices[j].Symbol {
			return prices[i].Symbol < prices[j].Symbol
		}
		return prices[i].TSUTC < prices[j].TSUTC
	})
	return prices, nil
}

func (s *CSVStore) Close() error { return nil }

// latestPriceAt returns the most recent row with TSUTC <= cutoff from a
// series sorted ascending by timestamp.
func latestPriceAt(series []model.PriceRow, cutoff int64) (model.PriceRow, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].TSUTC <= cutoff {
			return series[i], true
		}
	}
	return model.PriceRow{}, false
}

// latestIndicatorAt returns the indicator row with the greatest TSUTC <=
// cutoff. The slice need not be sorted.
func latestIndicatorAt(rows []model.IndicatorRow, cutoff int64) (model.IndicatorRow, bool) {
	var best model.IndicatorRow
	found := false
	for _, r := range rows {
		if r.TSUTC <= cutoff && (!found || r.TSUTC > best.TSUTC) {
			best = r
			found = true
		}
	}
	return best, found
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatNullFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func formatIntBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseNullFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
