package api

import (
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
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", s.handleHealth)

		// System metrics
		r.Get("/metrics", s.handleMetrics)

		// WebSocket tickets
		r.Post("/auth/ws-ticket", s.handleWSTicket)

		// Hub endpoints
		r.Route("/hubs", func(r chi.Router) {
			r.Get("/", s.handleListHubs)

			r.Route("/{hub}", func(r chi.Router) {
				r.Get("/", s.handleGetHub)
				r.Put("/debug", s.handleSetDebug)
				r.Get("/capabilities", s.handleListCapabilities)

				r.Route("/capabilities/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetCapability)
					r.Delete("/", s.handleUnregisterCapability)
					r.Post("/invoke", s.handleInvokeCapability)
				})
			})
		})

		// Diagnostic record queries
		r.Get("/diagnostics", s.handleListDiagnostics)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
