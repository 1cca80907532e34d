// Package handler provides HTTP handlers for the fantasy points API.
// Postgres builds the JSON; handlers cache it and pass the bytes through.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/scoracle-fantasy/internal/api/respond"
	"github.com/albapepper/scoracle-fantasy/internal/cache"
	"github.com/albapepper/scoracle-fantasy/internal/config"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	src    Source
	cache  *cache.Cache
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Handler.
func New(src Source, c *cache.Cache, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{src: src, cache: c, cfg: cfg, logger: logger}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the docs location.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, map[string]any{
		"name":    "Scoracle Fantasy API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"season":  h.cfg.Season,
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} respond.ErrorResponse
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.src.Ping(ctx); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.Error(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unreachable", h.detail(err))
		return
	}
	respond.Object(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"database": "connected",
	})
}

// HealthCheckCache reports cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"cache":  h.cache.Stats(),
	})
}

// serveCached answers from the cache when possible and otherwise loads,
// caches and writes the document. If-None-Match is honored either way.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration,
	load func(ctx context.Context) ([]byte, error), notFound string) {

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.NotModified(w, etag)
			return
		}
		respond.JSON(w, data, etag, ttl, true)
		return
	}

	raw, err := load(r.Context())
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", notFound, "")
		return
	case err != nil:
		h.logger.Error("Query failed", "key", key, "error", err)
		respond.Error(w, http.StatusInternalServerError, "QUERY_FAILED", "Could not load data", h.detail(err))
		return
	}

	etag := h.cache.Set(key, raw, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.NotModified(w, etag)
		return
	}
	respond.JSON(w, raw, etag, ttl, false)
}

// ttlFor keeps the configured season fresher than finished ones.
func (h *Handler) ttlFor(season int) time.Duration {
	if season >= h.cfg.Season {
		if h.cfg.CacheTTL > 0 {
			return h.cfg.CacheTTL
		}
		return cache.TTLCurrentSeason
	}
	return cache.TTLHistorical
}

func (h *Handler) detail(err error) string {
	if h.cfg.Debug {
		return err.Error()
	}
	return ""
}
