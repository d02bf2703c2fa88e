package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-clock/internal/web/handlers"
	"github.com/kozaktomas/face-clock/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	eventsHandler := handlers.NewEventsHandler(s.recorder)
	recordsHandler := handlers.NewRecordsHandler(s.recorder)
	statsHandler := handlers.NewStatsHandler(s.store)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireToken(s.config.Server.APIToken))

		// Recognition event ingest
		r.Post("/events", eventsHandler.Post)
		r.Delete("/identities/{identity}/streak", eventsHandler.Forget)

		// Per-identity day queries
		r.Get("/identities/{identity}/records", recordsHandler.List)
		r.Get("/identities/{identity}/status", recordsHandler.Status)
		r.Get("/identities/{identity}/hours", recordsHandler.Hours)

		// Ledger-wide queries
		r.Get("/stats", statsHandler.Get)
		r.Get("/dates", statsHandler.Dates)
	})
}
