package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/iprahasta12-beep/idx-list/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMovingAveragePartialWindow(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{1.0, 1.5, 2.0, 3.0, 4.0}
	if len(got) != len(want) {
		t.Fatalf("length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMovingAverageWindowLargerThanSeries(t *testing.T) {
	got := MovingAverage([]float64{2, 4}, 50)
	want := []float64{2.0, 3.0}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRollingMax(t *testing.T) {
	got := RollingMax([]float64{1, 3, 2, 5, 4, 6}, 3)
	want := []float64{1, 3, 3, 5, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRSIRegression(t *testing.T) {
	// Reference value computed once by hand for the documented smoothing
	// policy (alpha = 1/14 from the first delta).
	closes := []float64{
		44.00, 44.15, 43.90, 43.60, 44.00, 44.15, 43.95, 44.35,
		44.45, 44.20, 44.10, 44.35, 44.40, 45.85, 46.20,
	}
	got := RSI(closes, 14)
	if len(got) != len(closes) {
		t.Fatalf("length: got %d, want %d", len(got), len(closes))
	}
	if got[0] != 0 {
		t.Errorf("first value: got %v, want 0", got[0])
	}
	const want = 84.81025434620396
	if math.Abs(got[len(got)-1]-want) > 1e-9 {
		t.Errorf("final value: got %v, want %v", got[len(got)-1], want)
	}
}

func TestRSIZeroWhenNoLosses(t *testing.T) {
	// Monotonic rise keeps the smoothed loss at zero, which this engine
	// maps to 0, not the textbook 100.
	got := RSI([]float64{1, 2, 3, 4, 5}, 14)
	for i, v := range got {
		if v != 0 {
			t.Errorf("index %d: got %v, want 0", i, v)
		}
	}
}

func TestRSIDegenerateInput(t *testing.T) {
	if got := RSI(nil, 14); len(got) != 0 {
		t.Errorf("nil input: got %v", got)
	}
	if got := RSI([]float64{42}, 14); len(got) != 1 || got[0] != 0 {
		t.Errorf("single value: got %v", got)
	}
}

func barsFromCloses(symbol string, closes []float64) []model.PriceRow {
	rows := make([]model.PriceRow, len(closes))
	base := int64(1700000000)
	for i, c := range closes {
		rows[i] = model.PriceRow{
			Symbol: symbol,
			TSUTC:  base + int64(i)*86400,
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return rows
}

func smallParams() Params {
	return Params{MAShort: 2, MALong: 3, RSIPeriod: 2, RSIMin: 10, HighLookback: 5, HighWithinDays: 2}
}

func TestComputeEmpty(t *testing.T) {
	if got := Compute(nil, DefaultParams(), time.Now()); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestComputeSignalAllConditionsMet(t *testing.T) {
	rows := barsFromCloses("AAAA.JK", []float64{10, 11, 10.5, 12, 11.5, 13})
	out := Compute(rows, smallParams(), time.Now())
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	r := out[0]
	if r.TSUTC != rows[len(rows)-1].TSUTC {
		t.Errorf("row keyed to %d, want latest bar %d", r.TSUTC, rows[len(rows)-1].TSUTC)
	}
	if !r.Is30dHigh {
		t.Error("expected rolling-high flag on a closing high")
	}
	if !r.Signal {
		t.Error("expected signal when all five conditions hold")
	}
	if r.MA20 == nil || !almostEqual(*r.MA20, 12.25) {
		t.Errorf("short MA: got %v, want 12.25", r.MA20)
	}
	if r.MA50 == nil || !almostEqual(*r.MA50, 12.166666666666666) {
		t.Errorf("long MA: got %v, want 12.1666...", r.MA50)
	}
}

func TestComputeSignalRecentHighWindow(t *testing.T) {
	p := Params{MAShort: 3, MALong: 5, RSIPeriod: 2, RSIMin: 10, HighLookback: 5, HighWithinDays: 2}

	// The rolling high was one bar ago, inside the within-days window.
	recent := Compute(barsFromCloses("AAAA.JK", []float64{10, 10.5, 11, 12, 12.6, 12.5}), p, time.Now())
	if len(recent) != 1 {
		t.Fatalf("expected 1 row, got %d", len(recent))
	}
	if recent[0].Is30dHigh {
		t.Error("latest bar is below the peak, flag should be off")
	}
	if !recent[0].Signal {
		t.Error("high within the trailing window should still arm the signal")
	}

	// Same shape, but the high is too old for the within-days window.
	stale := Compute(barsFromCloses("AAAA.JK", []float64{10, 10.5, 11, 12.6, 12.0, 12.5}), p, time.Now())
	if stale[0].Signal {
		t.Error("a high outside the trailing window must not arm the signal")
	}
}

func TestComputeSignalRSIBelowMinimum(t *testing.T) {
	p := smallParams()
	p.RSIMin = 99
	out := Compute(barsFromCloses("AAAA.JK", []float64{10, 11, 10.5, 12, 11.5, 13}), p, time.Now())
	if out[0].Signal {
		t.Error("signal must require rsi >= rsi_min")
	}
}

func TestComputePerSymbolAndUnsortedInput(t *testing.T) {
	a := barsFromCloses("BBCA.JK", []float64{10, 11, 10.5, 12, 11.5, 13})
	b := barsFromCloses("ASII.JK", []float64{20, 18, 17, 16, 15, 14})
	// Interleave and reverse to prove Compute sorts per symbol itself.
	var rows []model.PriceRow
	for i := len(a) - 1; i >= 0; i-- {
		rows = append(rows, b[i], a[i])
	}
	out := Compute(rows, smallParams(), time.Now())
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].Symbol != "ASII.JK" || out[1].Symbol != "BBCA.JK" {
		t.Errorf("expected rows ordered by symbol, got %s, %s", out[0].Symbol, out[1].Symbol)
	}
	if out[0].Signal {
		t.Error("downtrending symbol must not signal")
	}
	if !out[1].Signal {
		t.Error("uptrending symbol should signal")
	}
}

func TestComputeSingleBar(t *testing.T) {
	out := Compute(barsFromCloses("BBCA.JK", []float64{100}), DefaultParams(), time.Now())
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	r := out[0]
	if r.MA20 == nil || *r.MA20 != 100 {
		t.Errorf("partial-window MA over one bar: got %v, want 100", r.MA20)
	}
	if r.RSI14 == nil || *r.RSI14 != 0 {
		t.Errorf("RSI with no deltas: got %v, want 0", r.RSI14)
	}
	if !r.Is30dHigh {
		t.Error("a single bar is trivially the rolling high")
	}
	if r.Signal {
		t.Error("one flat bar cannot satisfy close > ma")
	}
}
