// Package server is the read-only JSON API over the current board.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/metrics"
	"PremiumSentinel/internal/model"
)

// MarketSource yields the current market snapshot.
type MarketSource interface {
	Market(ctx context.Context) (*model.MarketData, error)
}

// Options wires optional collaborators.
type Options struct {
	Addr string
	// Strategy is used when a request names none. Defaults to short calls.
	Strategy func() model.Strategy
	// Circuit reports the provider circuit breaker state for /health.
	Circuit func() string
	// CacheWrite reports when the market data cache was last written.
	CacheWrite func() time.Time
}

// Server represents the read-only HTTP server.
type Server struct {
	router  *mux.Router
	server  *http.Server
	source  MarketSource
	cfg     *config.Holder
	metrics *metrics.Registry
	opts    Options
	log     zerolog.Logger
}

type ctxKey struct{}

// NewServer creates the server and its routes.
func NewServer(src MarketSource, cfg *config.Holder, m *metrics.Registry, opts Options, log zerolog.Logger) *Server {
	if opts.Strategy == nil {
		opts.Strategy = func() model.Strategy { return model.ShortCalls }
	}
	s := &Server{
		router:  mux.NewRouter(),
		source:  src,
		cfg:     cfg,
		metrics: m,
		opts:    opts,
		log:     log.With().Str("component", "http").Logger(),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/api/board", s.board).Methods(http.MethodGet)
	api.HandleFunc("/api/chain/{symbol}", s.chain).Methods(http.MethodGet)
	api.HandleFunc("/api/select/{symbol}/{contract}", s.selectContract).Methods(http.MethodGet)

	s.router.NotFoundHandler = s.requestIDMiddleware(http.HandlerFunc(s.notFound))
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.opts.Addr).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// requestIDMiddleware adds a unique request ID to each request.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()[:8]
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(ctxKey{}).(string); ok {
		return id
	}
	return "unknown"
}

// requestLoggingMiddleware logs every request with its outcome.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.log.Info().
			Str("request_id", requestID(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("took", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures HTTP status codes for logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
