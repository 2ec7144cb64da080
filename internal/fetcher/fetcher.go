package fetcher

import (
	"time"

	"github.com/iprahasta12-beep/idx-list/internal/model"
)

// Fetcher produces price candles for a set of symbols over a time range.
// Implementations drop candles with missing OHLC fields and candles dated
// in the future, so the rows are ready for storage as-is.
type Fetcher interface {
	Fetch(symbols []string, start, end time.Time, interval string) ([]model.PriceRow, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Rows []model.PriceRow
	Err  error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ []string, _, _ time.Time, _ string) ([]model.PriceRow, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rows, nil
}
