// Package http exposes the serve-mode operational endpoints: liveness,
// readiness, Prometheus metrics, and the last published product.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/turtlewatch/internal/domain"
)

// StatusSource reports pipeline state for the readiness and status routes.
type StatusSource interface {
	CheckReadiness(ctx context.Context) error
	LastProduct() (domain.Product, bool)
}

// Server exposes health, readiness, metrics, and status HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /status routes.
func NewServer(addr string, source StatusSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(source))
	mux.HandleFunc("GET /status", handleStatus(source))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(source StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := source.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// statusResponse is the /status payload describing the last completed run.
type statusResponse struct {
	Date        string   `json:"date"`
	WindowStart string   `json:"window_start"`
	WindowEnd   string   `json:"window_end"`
	Images      []string `json:"images"`
}

func handleStatus(source StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		product, ok := source.LastProduct()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no product published yet"})
			return
		}
		resp := statusResponse{
			Date:        domain.Label(product.Date),
			WindowStart: domain.Label(product.WindowStart),
			WindowEnd:   domain.Label(product.WindowEnd),
		}
		for _, a := range product.Artifacts {
			resp.Images = append(resp.Images, a.Locale+"/"+a.Size)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
