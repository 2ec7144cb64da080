package fetcher

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chartJSON(timestamps []int64, closes []string) string {
	ts := ""
	for i, v := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", v)
	}
	quote := ""
	for i, v := range closes {
		if i > 0 {
			quote += ","
		}
		quote += v
	}
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{
		"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],"error":null}}`,
		ts, quote, quote, quote, quote, quote)
}

func newTestFetcher(srv *httptest.Server) *YahooFetcher {
	return &YahooFetcher{
		Client:      srv.Client(),
		BaseURL:     srv.URL,
		maxAttempts: 1,
	}
}

func TestFetchParsesCandles(t *testing.T) {
	now := time.Now().UTC().Unix()
	timestamps := []int64{now - 2*86400, now - 86400, now + 86400}
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, chartJSON(timestamps, []string{"100.5", "101", "102"}))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	rows, err := f.Fetch([]string{"BBCA.JK"}, time.Now().AddDate(0, 0, -7), time.Now(), "1d")
	if err != nil {
		t.Fatal(err)
	}
	// The future candle is dropped.
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Symbol != "BBCA.JK" || rows[0].Close != 100.5 {
		t.Errorf("first row: got %+v", rows[0])
	}
	if gotPath != "/BBCA.JK" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotUA != "Mozilla/5.0" {
		t.Errorf("user agent: got %q", gotUA)
	}
}

func TestFetchDropsNullBars(t *testing.T) {
	now := time.Now().UTC().Unix()
	timestamps := []int64{now - 2*86400, now - 86400}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chartJSON(timestamps, []string{"null", "101"}))
	}))
	defer srv.Close()

	rows, err := newTestFetcher(srv).Fetch([]string{"TLKM.JK"}, time.Now().AddDate(0, 0, -7), time.Now(), "1d")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Close != 101 {
		t.Fatalf("expected only the complete bar, got %+v", rows)
	}
}

func TestFetchSkipsFailingSymbol(t *testing.T) {
	now := time.Now().UTC().Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/BAD.JK" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, chartJSON([]int64{now - 86400}, []string{"50"}))
	}))
	defer srv.Close()

	rows, err := newTestFetcher(srv).Fetch([]string{"BAD.JK", "GOOD.JK"}, time.Now().AddDate(0, 0, -7), time.Now(), "1d")
	if err != nil {
		t.Fatalf("a failing symbol must not fail the whole fetch: %v", err)
	}
	if len(rows) != 1 || rows[0].Symbol != "GOOD.JK" {
		t.Fatalf("expected only the good symbol, got %+v", rows)
	}
}

func TestFetchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	rows, err := newTestFetcher(srv).Fetch([]string{"GONE.JK"}, time.Now().AddDate(0, 0, -7), time.Now(), "1d")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}
