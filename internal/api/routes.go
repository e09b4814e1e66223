package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, resolver TokenResolver) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes (team key or company token)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.teamKey, resolver))

			r.Get("/companies/{companyID}/activity", h.ActivityFeed)
			r.Get("/action-items", h.ActionItems)
			r.Get("/companies/{companyID}/billing/periods", h.BillingPeriods)
			r.Put("/companies/{companyID}/billing/periods/{periodKey}/status", h.UpdateBillingStatus)
			r.Get("/projects/{projectID}/health", h.ProjectHealth)
			r.Get("/files/{fileID}/url", h.FileURL)
		})
	})

	return r
}
