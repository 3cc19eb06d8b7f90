// Package httpapi is the query facade (C7): a stateless HTTP surface
// that parses requests, applies defaults and caps, and delegates to
// the state store. Grounded in the reference family's assessment
// service HTTP layer (internal/api/server.go, internal/api/handlers.go).
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nrg-champ/voltage-quality/internal/metrics"
	"github.com/nrg-champ/voltage-quality/internal/store"
)

// Handlers bundles the dependencies every endpoint needs.
type Handlers struct {
	Store *store.Store
	Log   *slog.Logger
}

// Server wraps an http.Server with the routes this service exposes.
type Server struct {
	HTTP *http.Server
	Log  *slog.Logger
}

// NewServer builds the mux: the six query endpoints, an ingest
// handler, /health, and /metrics. Every route except /metrics is
// wrapped for request metrics. Patterns are plain paths; the query
// handlers and the ingest handler check the request method themselves.
func NewServer(addr string, log *slog.Logger, h *Handlers, ingestHandler http.Handler, m *metrics.Metrics) *Server {
	mux := http.NewServeMux()

	route := func(pattern, label string, handler http.HandlerFunc) {
		mux.Handle(pattern, m.WrapHandler(label, handler))
	}

	route("/api/voltage/latest", "latest", h.Latest)
	route("/api/voltage/history", "history", h.History)
	route("/api/voltage/anomalies", "anomalies", h.Anomalies)
	route("/api/voltage/anomalies/active", "anomalies_active", h.ActiveAnomalies)
	route("/api/voltage/compliance/weekly", "compliance_weekly", h.WeeklyCompliance)
	route("/api/voltage/summary", "summary", h.Summary)
	route("/health", "health", h.Health)

	if ingestHandler != nil {
		mux.Handle("/api/voltage/ingest", m.WrapHandler("ingest", ingestHandler))
	}
	mux.Handle("/metrics", m.Handler())

	hs := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: hs, Log: log}
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.Log.Info("http_server_starting", "addr", s.HTTP.Addr)
	return s.HTTP.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("http_server_stopping")
	return s.HTTP.Shutdown(ctx)
}
