package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/iprahasta12-beep/idx-list/internal/model"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
// Each symbol gets up to maxAttempts requests with doubling backoff; a
// symbol that keeps failing is skipped so the rest of the universe still
// gets fresh candles.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string

	maxAttempts int
	pause       time.Duration // delay between symbols, keeps Yahoo happy
}

// NewYahooFetcher creates a Yahoo Finance fetcher, optionally through a proxy.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		BaseURL:     defaultBaseURL,
		maxAttempts: 3,
		pause:       200 * time.Millisecond,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
// Quote fields are pointers so JSON nulls survive decoding.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch retrieves candles for every symbol. One symbol's failure is logged
// and skipped, never returned: partial data beats no data for a periodic
// refresh.
func (f *YahooFetcher) Fetch(symbols []string, start, end time.Time, interval string) ([]model.PriceRow, error) {
	var rows []model.PriceRow
	for _, symbol := range symbols {
		backoff := time.Second
		for attempt := 1; attempt <= f.maxAttempts; attempt++ {
			parsed, err := f.fetchSymbol(symbol, start, end, interval)
			if err == nil {
				rows = append(rows, parsed...)
				break
			}
			log.Printf("[WARN] fetch %s attempt %d/%d: %v", symbol, attempt, f.maxAttempts, err)
			if attempt < f.maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		time.Sleep(f.pause)
	}
	return rows, nil
}

func (f *YahooFetcher) fetchSymbol(symbol string, start, end time.Time, interval string) ([]model.PriceRow, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(symbol), interval, start.UTC().Unix(), end.UTC().Unix())

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data")
	}
	quote := result.Indicators.Quote[0]

	now := time.Now().UTC().Unix()
	rows := make([]model.PriceRow, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if ts > now {
			continue // forming candle from the future, skip
		}
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue // holiday / halted bar
		}
		volume := 0.0
		if v := at(quote.Volume, i); v != nil {
			volume = *v
		}
		rows = append(rows, model.PriceRow{
			Symbol: symbol,
			TSUTC:  ts,
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *c,
			Volume: volume,
		})
	}
	return rows, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
