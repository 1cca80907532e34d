// Package maintenance runs periodic background tasks as Go tickers for the
// read API: refreshing season aggregates and pruning the run ledger.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/scoracle-fantasy/internal/config"
)

// Execer is satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	RefreshInterval time.Duration // Season aggregates view
	PruneInterval   time.Duration // Old run ledger rows
	KeepRuns        int
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 15 * time.Minute,
		PruneInterval:   6 * time.Hour,
		KeepRuns:        200,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, db Execer, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"refresh", cfg.RefreshInterval,
		"prune", cfg.PruneInterval,
		"keep_runs", cfg.KeepRuns)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.RefreshInterval > 0 {
		t := time.NewTicker(cfg.RefreshInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { _ = RefreshMaterializedViews(ctx, db, logger) })
	}

	if cfg.PruneInterval > 0 && cfg.KeepRuns > 0 {
		t := time.NewTicker(cfg.PruneInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { PruneRuns(ctx, db, cfg.KeepRuns, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// PruneRuns deletes all but the newest keep run ledger rows. Stats and
// points rows keep their data; their run_id is nulled by the foreign key.
func PruneRuns(ctx context.Context, db Execer, keep int, logger *slog.Logger) {
	tag, err := db.Exec(ctx, `
		DELETE FROM `+config.RunsTable+`
		WHERE id NOT IN (
			SELECT id FROM `+config.RunsTable+` ORDER BY created_at DESC LIMIT $1
		)`, keep)
	if err != nil {
		logger.Warn("Prune: failed to delete old runs", "error", err)
		return
	}
	if tag.RowsAffected() > 0 {
		logger.Info("Prune: deleted old runs", "count", tag.RowsAffected())
	}
}
