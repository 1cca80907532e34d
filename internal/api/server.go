// Package api wires the HTTP router for the fantasy points API.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/scoracle-fantasy/internal/api/handler"
	"github.com/albapepper/scoracle-fantasy/internal/cache"
	"github.com/albapepper/scoracle-fantasy/internal/config"
	"github.com/albapepper/scoracle-fantasy/internal/metrics"
)

// NewRouter creates the chi router with middleware and routes.
func NewRouter(src handler.Source, appCache *cache.Cache, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.Compress(5))

	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	h := handler.New(src, appCache, cfg, logger)

	r.Get("/", h.Root)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/points/{season}/{week}", h.GetWeekPoints)
		r.Get("/players/{season}/{name}", h.GetPlayerSeason)
		r.Get("/leaders/{season}", h.GetSeasonLeaders)
		r.Get("/runs/latest", h.GetLatestRun)
	})

	return r
}
