// Package api provides the HTTP API for observing a running history.
// Every endpoint is a read-only GET. World state is never touched from a
// handler: status comes from the last published year summary and events
// from the persisted log.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/persistence"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// Server serves the world's progress over HTTP.
type Server struct {
	DB       *persistence.DB
	Gatherer prometheus.Gatherer // nil disables /metrics
	Addr     string
	Seed     uint64

	latest atomic.Pointer[engine.YearSummary]
}

// Publish records the summary served by /api/v1/status. It is safe to call
// from the simulation goroutine while handlers run.
func (s *Server) Publish(summary engine.YearSummary) {
	s.latest.Store(&summary)
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	eventLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/events", RateLimitMiddleware(eventLimiter, s.handleEvents))
	if s.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "metrics", s.Gatherer != nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type statusResponse struct {
	Seed    uint64              `json:"seed"`
	Started bool                `json:"started"`
	Latest  *engine.YearSummary `json:"latest,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	latest := s.latest.Load()
	writeJSON(w, statusResponse{Seed: s.Seed, Started: latest != nil, Latest: latest})
}

// handleEvents serves GET /api/v1/events?limit=N[&kind=K]. Without kind the
// newest events come first; with kind the whole history of that kind is
// returned in log order.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "event log unavailable", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()

	limit := defaultEventLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxEventLimit)
	}

	var (
		rows []persistence.EventRow
		err  error
	)
	if kind := q.Get("kind"); kind != "" {
		rows, err = s.DB.EventsOfKind(r.Context(), kind)
		if len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}
	} else {
		rows, err = s.DB.RecentEvents(r.Context(), limit)
	}
	if err != nil {
		slog.Error("query events", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []persistence.EventRow{}
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
