// Command fppull turns ESPN box scores and league scoring settings into
// weekly fantasy points.
//
// Usage:
//
//	fppull fetch scoring --season 2025
//	fppull fetch boxscores --season 2025
//	fppull run --season 2025
//	fppull wide --season 2025 --reconcile sum
//	fppull points --season 2025 --scoring my_scoring.yaml
//	fppull store --season 2025
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-fantasy/internal/config"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// flags shared by every subcommand.
type flags struct {
	season      int
	scoring     string
	workers     int
	reconcile   string
	metricsFile string
}

func main() {
	_ = godotenv.Load(".env")

	var f flags
	root := &cobra.Command{
		Use:           "fppull",
		Short:         "Fantasy points pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVar(&f.season, "season", 0, "Season year (default $SEASON)")
	root.PersistentFlags().StringVar(&f.scoring, "scoring", "", "Scoring file, CSV or YAML (default from season layout)")
	root.PersistentFlags().IntVar(&f.workers, "workers", 0, "Scoring workers (default $WORKERS)")
	root.PersistentFlags().StringVar(&f.reconcile, "reconcile", "", "Snapshot reconciliation: max or sum (default $RECONCILE)")
	root.PersistentFlags().StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics to this Prometheus textfile")

	root.AddCommand(wideCmd(&f))
	root.AddCommand(pointsCmd(&f))
	root.AddCommand(runCmd(&f))
	root.AddCommand(storeCmd(&f))
	root.AddCommand(fetchCmd(&f))

	if err := root.Execute(); err != nil {
		logger.Error("fppull failed", "error", err)
		os.Exit(1)
	}
}

// app is the resolved configuration for one invocation.
type app struct {
	cfg         *config.Config
	season      int
	paths       config.Paths
	scoringPath string
	workers     int
	policy      stats.Policy
	metricsFile string
}

func newApp(cfg *config.Config, f *flags) (*app, error) {
	season := f.season
	if season == 0 {
		season = cfg.Season
	}
	if season <= 0 {
		return nil, errors.New("season is required: pass --season or set SEASON")
	}
	reconcile := f.reconcile
	if reconcile == "" {
		reconcile = cfg.Reconcile
	}
	policy, err := stats.ParsePolicy(reconcile)
	if err != nil {
		return nil, err
	}
	workers := f.workers
	if workers <= 0 {
		workers = cfg.Workers
	}

	a := &app{
		cfg:         cfg,
		season:      season,
		paths:       cfg.Paths(season),
		workers:     workers,
		policy:      policy,
		metricsFile: f.metricsFile,
	}
	a.scoringPath = f.scoring
	if a.scoringPath == "" {
		a.scoringPath = a.paths.ScoringFile()
	}
	return a, nil
}

// runApp handles config loading, logger setup and signal cancellation.
func runApp(f *flags, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	a, err := newApp(cfg, f)
	if err != nil {
		return err
	}
	return fn(ctx, a)
}
