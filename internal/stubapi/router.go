// Package stubapi is a local stand-in for the widget backend, used while
// developing and testing the widget without a production bot. It serves the
// same endpoints with canned answers.
package stubapi

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(Metrics)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - the widget is embedded on arbitrary origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := NewHandler(logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)

	r.Route("/teams/{teamID}/bots/{botID}", func(r chi.Router) {
		r.Post("/ask", h.Ask)
		r.Put("/rate/{answerID}", h.Rate)
		r.Put("/support/{answerID}", h.Support)
		r.Put("/conversations/{conversationID}/escalate", h.Escalate)
		r.Get("/conversations/{conversationID}/ticket", h.Ticket)
	})

	return r
}
