// Package web exposes the query API over HTTP. Handlers only read the
// store; storage failures surface as 500s without taking the server down.
package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iprahasta12-beep/idx-list/internal/config"
	"github.com/iprahasta12-beep/idx-list/internal/model"
	"github.com/iprahasta12-beep/idx-list/internal/store"
)

const (
	defaultHistoryLimit = 60
	maxHistoryLimit     = 500
)

// Server serves the watchlist query API.
type Server struct {
	store store.Store
	cfg   *config.Config
	mux   *http.ServeMux
}

// New wires the routes.
func New(st store.Store, cfg *config.Config) *Server {
	s := &Server{store: st, cfg: cfg, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/tickers", s.handleTickers)
	s.mux.HandleFunc("GET /api/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/symbol/{symbol}", s.handleSymbol)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("[INFO] http server listening on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTickers(w http.ResponseWriter, _ *http.Request) {
	tickers, err := s.cfg.LoadTickers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tickers)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, s.cfg.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	rows, err := s.store.LatestSummary(asOf)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if rows == nil {
		rows = []model.SummaryRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	rows, err := s.store.SymbolHistory(symbol, limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "symbol not found or no data")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// storeError maps a storage failure to a 500 and logs it; the request dies,
// the server does not.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	var se *store.StorageError
	if errors.As(err, &se) {
		log.Printf("[ERROR] %v", se)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	log.Printf("[ERROR] query: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
