package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/protocols", s.handleProtocols)
		r.Post("/encode", s.handleEncode)
		r.Post("/generate", s.handleGenerate)

		// Catalog
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Route("/{device}", func(r chi.Router) {
				r.Get("/commands", s.handleDeviceCommands)
				r.Get("/runs", s.handleDeviceRuns)
			})
		})
	})

	return r
}

// healthChecker is implemented by catalogs that can report on their
// backing store.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// handleHealth returns the server health status. A failing catalog
// degrades the status but still answers 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
	}
	if hc, ok := s.catalog.(healthChecker); ok {
		if err := hc.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("catalog health check failed", "error", err)
			body["status"] = "degraded"
			body["catalog"] = "error"
		} else {
			body["catalog"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, body)
}
