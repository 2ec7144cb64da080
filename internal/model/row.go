package model

// PriceRow is a single OHLCV candle, keyed by (Symbol, TSUTC).
type PriceRow struct {
	Symbol string  `json:"symbol"`
	TSUTC  int64   `json:"ts_utc"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// IndicatorRow holds the derived indicators for one symbol at one bar,
// keyed by (Symbol, TSUTC). TSUTC always references an observed price
// timestamp. Nil MA/RSI values mean the history was too short to compute.
type IndicatorRow struct {
	Symbol       string   `json:"symbol"`
	TSUTC        int64    `json:"ts_utc"`
	MA20         *float64 `json:"ma20"`
	MA50         *float64 `json:"ma50"`
	RSI14        *float64 `json:"rsi14"`
	Is30dHigh    bool     `json:"is_30d_high"`
	Signal       bool     `json:"signal"`
	UpdatedAtUTC int64    `json:"updated_at_utc"`
}

// SummaryRow is the as-of view of one symbol: latest price joined with the
// latest indicators, plus the 1-day percent change. Recomputed on every
// query, never persisted.
type SummaryRow struct {
	Symbol       string   `json:"symbol"`
	LastClose    float64  `json:"last_close"`
	PctChange1d  *float64 `json:"pct_change_1d"`
	MA20         *float64 `json:"ma20"`
	MA50         *float64 `json:"ma50"`
	RSI14        *float64 `json:"rsi14"`
	Is30dHigh    bool     `json:"is_30d_high"`
	Signal       bool     `json:"signal"`
	UpdatedLocal string   `json:"updated_local"`
}

// HistoryRow is one price bar left-joined with the indicator row effective
// at or before the bar's timestamp.
type HistoryRow struct {
	Symbol    string   `json:"symbol"`
	TSUTC     int64    `json:"ts_utc"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    float64  `json:"volume"`
	MA20      *float64 `json:"ma20"`
	MA50      *float64 `json:"ma50"`
	RSI14     *float64 `json:"rsi14"`
	Is30dHigh bool     `json:"is_30d_high"`
	Signal    bool     `json:"signal"`
}
