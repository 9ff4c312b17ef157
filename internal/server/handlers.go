package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"PremiumSentinel/internal/analytics"
	"PremiumSentinel/internal/board"
	"PremiumSentinel/internal/model"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string     `json:"status"`
	Circuit   string     `json:"circuit,omitempty"`
	CacheAt   *time.Time `json:"cache_last_write,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ChainResponse is the body of GET /api/chain/{symbol}.
type ChainResponse struct {
	Symbol     string           `json:"symbol"`
	DTE        int              `json:"dte"`
	Expiration *time.Time       `json:"expiration,omitempty"`
	Strategy   model.Strategy   `json:"strategy"`
	Underlying float64          `json:"underlying"`
	Rows       []board.ChainRow `json:"rows"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		RequestID: requestID(r),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeError(w, r, http.StatusNotFound, "The requested endpoint does not exist")
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Timestamp: time.Now().UTC()}
	if s.opts.Circuit != nil {
		resp.Circuit = s.opts.Circuit()
		if resp.Circuit == "open" {
			resp.Status = "degraded"
		}
	}
	if s.opts.CacheWrite != nil {
		if at := s.opts.CacheWrite(); !at.IsZero() {
			resp.CacheAt = &at
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// loadBoard builds the board for the request's strategy, writing the error
// response itself when it cannot.
func (s *Server) loadBoard(w http.ResponseWriter, r *http.Request) (*board.Board, bool) {
	strategy := s.opts.Strategy()
	if v := r.URL.Query().Get("strategy"); v != "" {
		st, err := model.ParseStrategy(v)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return nil, false
		}
		strategy = st
	}
	md, err := s.source.Market(r.Context())
	if err != nil {
		s.log.Error().Err(err).Str("request_id", requestID(r)).Msg("load market data")
		s.writeError(w, r, http.StatusServiceUnavailable, "market data unavailable")
		return nil, false
	}
	return board.Build(md, s.cfg.Current(), strategy), true
}

func (s *Server) board(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) dte(r *http.Request) (int, error) {
	v := r.URL.Query().Get("dte")
	if v == "" {
		if dtes := s.cfg.Current().ExpirationsDTE; len(dtes) > 0 {
			return dtes[0], nil
		}
		return 7, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("dte must be a positive integer, got %q", v)
	}
	return n, nil
}

func parseFilter(r *http.Request) (analytics.Filter, error) {
	q := r.URL.Query()
	var f analytics.Filter
	if v := q.Get("min_return"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("min_return: %w", err)
		}
		f.MinReturn = &x
	}
	if v := q.Get("min_oi"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("min_oi: %w", err)
		}
		f.MinOI = &x
	}
	if v := q.Get("min_volume"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("min_volume: %w", err)
		}
		f.MinVolume = &x
	}
	return f, nil
}

func (s *Server) chain(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	dte, err := s.dte(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	if !b.Tracks(symbol) {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("%s is not a tracked ETF", symbol))
		return
	}

	f.Strategy = b.Strategy
	resp := ChainResponse{
		Symbol:     symbol,
		DTE:        dte,
		Strategy:   b.Strategy,
		Underlying: b.Price(symbol),
		Rows:       b.Chain(symbol, dte, f),
	}
	if exp, ok := b.Expirations[symbol][dte]; ok {
		resp.Expiration = &exp
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) selectContract(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dte, err := s.dte(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	sel, err := b.Select(vars["symbol"], dte, vars["contract"])
	if errors.Is(err, board.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, sel)
}
