package router

import (
	"cinecatalog-api/internal/handler"
	"cinecatalog-api/internal/middleware"
	"cinecatalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	CatalogHandler   *handler.CatalogHandler
	AnalyticsHandler *handler.AnalyticsHandler
	UsageService     *service.UsageService
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", middleware.UserHeader, middleware.UserIDHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no usage capture)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check endpoints
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// TRACKED routes: identified requests are recorded for analytics
		r.Group(func(r chi.Router) {
			if cfg.UsageService != nil {
				r.Use(middleware.UsageCapture(cfg.UsageService))
			}

			if cfg.CatalogHandler != nil {
				r.Get("/movies", cfg.CatalogHandler.Movies)
				r.Get("/upcoming", cfg.CatalogHandler.Upcoming)
				r.Get("/genres", cfg.CatalogHandler.Genres)
				r.Get("/theaters", cfg.CatalogHandler.Theaters)
			}

			if cfg.AnalyticsHandler != nil {
				r.Get("/analytics", cfg.AnalyticsHandler.Dashboard)
			}
		})
	})

	return r
}
