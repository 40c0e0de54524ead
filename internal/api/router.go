package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/api/middleware"
	"github.com/Mseunghwan/NoSmoke/internal/handlers"
	"github.com/Mseunghwan/NoSmoke/internal/realtime"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, rt *realtime.Server) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - the web client is served from a different origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Companion pipeline
	r.Route("/api/companion", func(r chi.Router) {
		r.Post("/chat/{userId}", h.Chat)
		r.Post("/analysis/{userId}", h.Analyze)
		r.Get("/messages/{userId}", h.Messages)
	})

	// Real-time channel subscription
	r.Get("/ws/channel/{userId}", rt.ServeChannel)

	return r
}
