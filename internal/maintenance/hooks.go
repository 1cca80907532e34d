package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-fantasy/internal/config"
)

// views lists every materialized view derived from stored points.
var views = []string{config.PointsView}

// AfterStore is the hook cmd/fppull runs once a season has been committed:
// season aggregates are rebuilt so the API serves the new run immediately
// instead of waiting for the next refresh tick.
func AfterStore(ctx context.Context, db Execer, season int, logger *slog.Logger) error {
	if err := RefreshMaterializedViews(ctx, db, logger); err != nil {
		return fmt.Errorf("after storing season %d: %w", season, err)
	}
	return nil
}

// RefreshMaterializedViews rebuilds every derived view. CONCURRENTLY keeps
// the views readable during the rebuild and relies on their unique indexes.
func RefreshMaterializedViews(ctx context.Context, db Execer, logger *slog.Logger) error {
	for _, v := range views {
		start := time.Now()
		if _, err := db.Exec(ctx, "REFRESH MATERIALIZED VIEW CONCURRENTLY "+v); err != nil {
			logger.Warn("View refresh failed", "view", v, "error", err)
			return fmt.Errorf("refresh %s: %w", v, err)
		}
		logger.Debug("View refreshed", "view", v, "duration", time.Since(start).Round(time.Millisecond))
	}
	return nil
}
