// Package listener consumes Postgres NOTIFY events announcing that a season's
// points were replaced, and drops the API cache entries for that season. It
// holds a dedicated pgx connection rather than one from the pool.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-fantasy/internal/config"
	"github.com/albapepper/scoracle-fantasy/internal/store"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Invalidator drops cached entries by key prefix.
type Invalidator interface {
	InvalidatePrefix(prefix string) int
}

// Start listens on config.StoredChannel, reconnecting with backoff when the
// connection drops. Blocks until ctx is cancelled. Intended to be called
// with `go`.
func Start(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, inv, logger)
		if ctx.Err() != nil {
			logger.Info("Store listener stopped")
			return
		}

		logger.Error("Store listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

func listenLoop(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+config.StoredChannel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", config.StoredChannel, err)
	}
	logger.Info("Store listener connected", "channel", config.StoredChannel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		Handle(inv, n.Payload, logger)
	}
}

// Handle applies one notification payload. Malformed payloads are logged and
// ignored.
func Handle(inv Invalidator, payload string, logger *slog.Logger) {
	var ev store.Stored
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Season <= 0 {
		logger.Warn("Ignoring store notification", "payload", payload, "error", err)
		return
	}

	dropped := inv.InvalidatePrefix("runs:")
	for _, prefix := range SeasonPrefixes(ev.Season) {
		dropped += inv.InvalidatePrefix(prefix)
	}
	logger.Info("Season cache invalidated",
		"season", ev.Season, "run_id", ev.RunID, "dropped", dropped)
}

// SeasonPrefixes lists the cache key prefixes holding data for season.
func SeasonPrefixes(season int) []string {
	return []string{
		fmt.Sprintf("points:%d:", season),
		fmt.Sprintf("player:%d:", season),
		fmt.Sprintf("leaders:%d:", season),
	}
}
