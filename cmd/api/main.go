// Command api serves computed fantasy points over HTTP.
//
// Usage:
//
//	fppull-api
//	API_PORT=8080 fppull-api

// @title Scoracle Fantasy API
// @version 1.0.0
// @description Weekly fantasy points computed from box-score statistics and league scoring settings. Point tables are JSON-passthrough from Postgres.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Scoracle
// @license.name MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/scoracle-fantasy/internal/api"
	"github.com/albapepper/scoracle-fantasy/internal/api/handler"
	"github.com/albapepper/scoracle-fantasy/internal/cache"
	"github.com/albapepper/scoracle-fantasy/internal/config"
	"github.com/albapepper/scoracle-fantasy/internal/db"
	"github.com/albapepper/scoracle-fantasy/internal/listener"
	"github.com/albapepper/scoracle-fantasy/internal/maintenance"
	"github.com/albapepper/scoracle-fantasy/internal/metrics"

	_ "github.com/albapepper/scoracle-fantasy/docs" // swagger docs
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load configuration:", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	appCache := cache.New(cfg.CacheEnabled, time.Minute)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "ttl", cfg.CacheTTL)

	// Drops cached season responses as soon as fppull store commits.
	go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)

	// Keeps mv_season_points fresh and trims the run ledger.
	go maintenance.Start(ctx, pool, maintenance.DefaultConfig(), logger)

	router := api.NewRouter(handler.NewPostgres(pool), appCache, cfg, metrics.New(), logger)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting Scoracle Fantasy API",
			"addr", addr,
			"environment", cfg.Environment,
			"season", cfg.Season,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
