// Package indicator derives technical indicators from candle series.
//
// The engine is a pure function over its input: it keeps no state between
// calls and does no I/O. Every invocation recomputes fully from the
// supplied candles.
package indicator

import (
	"sort"
	"time"

	"github.com/iprahasta12-beep/idx-list/internal/model"
)

// Params holds the tunables for a computation run.
type Params struct {
	MAShort        int     // short moving-average window, default 20
	MALong         int     // long moving-average window, default 50
	RSIPeriod      int     // RSI smoothing period, default 14
	RSIMin         float64 // minimum RSI for the composite signal, default 55
	HighLookback   int     // trailing window for the rolling-high flag, default 30
	HighWithinDays int     // how far back a rolling high still arms the signal, default 5
}

// DefaultParams returns the standard tunables.
func DefaultParams() Params {
	return Params{
		MAShort:        20,
		MALong:         50,
		RSIPeriod:      14,
		RSIMin:         55,
		HighLookback:   30,
		HighWithinDays: 5,
	}
}

// Compute derives one IndicatorRow per distinct symbol in rows, keyed to
// that symbol's latest price timestamp. Each symbol's series is sorted by
// ascending timestamp before computing. Symbols without any candles are
// simply omitted; Compute never fails a batch.
func Compute(rows []model.PriceRow, p Params, now time.Time) []model.IndicatorRow {
	if len(rows) == 0 {
		return nil
	}

	bySymbol := make(map[string][]model.PriceRow)
	for _, r := range rows {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}
	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	out := make([]model.IndicatorRow, 0, len(symbols))
	for _, symbol := range symbols {
		series := bySymbol[symbol]
		sort.Slice(series, func(i, j int) bool { return series[i].TSUTC < series[j].TSUTC })

		closes := make([]float64, len(series))
		for i, r := range series {
			closes[i] = r.Close
		}

		maShort := MovingAverage(closes, p.MAShort)
		maLong := MovingAverage(closes, p.MALong)
		rsi := RSI(closes, p.RSIPeriod)
		highs := RollingMax(closes, p.HighLookback)

		n := len(closes)
		last := n - 1
		isHigh := closes[last] == highs[last]

		// The signal requires a rolling high within the trailing
		// HighWithinDays observations, not just on the latest bar.
		recentHigh := false
		for i := n - p.HighWithinDays; i <= last; i++ {
			if i < 0 {
				continue
			}
			if closes[i] == highs[i] {
				recentHigh = true
				break
			}
		}

		signal := closes[last] > maShort[last] &&
			closes[last] > maLong[last] &&
			maShort[last] > maLong[last] &&
			rsi[last] >= p.RSIMin &&
			recentHigh

		ma20 := maShort[last]
		ma50 := maLong[last]
		rsi14 := rsi[last]
		out = append(out, model.IndicatorRow{
			Symbol:       symbol,
			TSUTC:        series[last].TSUTC,
			MA20:         &ma20,
			MA50:         &ma50,
			RSI14:        &rsi14,
			Is30dHigh:    isHigh,
			Signal:       signal,
			UpdatedAtUTC: now.UTC().Unix(),
		})
	}
	return out
}
