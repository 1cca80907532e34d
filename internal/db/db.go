// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema setup and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-fantasy/internal/config"
)

//go:embed schema.sql
var schema string

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Tables must exist before statements referencing them can be prepared.
	if err := applySchema(ctx, poolCfg.ConnConfig); err != nil {
		return nil, err
	}

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// applySchema creates the tables and views on a one-off connection. Every
// statement is idempotent.
func applySchema(ctx context.Context, connCfg *pgx.ConnConfig) error {
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return fmt.Errorf("connect for schema: %w", err)
	}
	defer conn.Close(ctx)
	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the statements the API reads with.
// Writes go through a transaction in the store package and are not prepared.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// API: one week of points, best first (Postgres returns complete JSON)
		"api_week_points": `SELECT COALESCE(json_agg(row_to_json(p) ORDER BY p.pts_ppr DESC, p.athlete_name), '[]'::json)
			FROM (SELECT season, week, team_abbr, athlete_name, position,
			             pts_pass, pts_rush, pts_rec, pts_kick, pts_misc, pts_ppr
			      FROM ` + config.PointsTable + ` WHERE season = $1 AND week = $2) p`,

		// API: one player's season, week by week, with stat lines
		"api_player_season": `SELECT COALESCE(json_agg(row_to_json(p) ORDER BY p.week), '[]'::json)
			FROM (SELECT pt.season, pt.week, pt.team_abbr, pt.athlete_name, pt.position,
			             pt.pts_pass, pt.pts_rush, pt.pts_rec, pt.pts_kick, pt.pts_misc, pt.pts_ppr,
			             s.stats
			      FROM ` + config.PointsTable + ` pt
			      LEFT JOIN ` + config.WideTable + ` s USING (season, week, team_abbr, athlete_name)
			      WHERE pt.season = $1 AND lower(pt.athlete_name) = lower($2)) p`,

		// API: season leaders from the materialized view
		"api_season_leaders": `SELECT COALESCE(json_agg(row_to_json(m) ORDER BY m.total_ppr DESC), '[]'::json)
			FROM (SELECT * FROM ` + config.PointsView + ` WHERE season = $1 ORDER BY total_ppr DESC LIMIT $2) m`,

		// API: latest run ledger entry
		"api_latest_run": `SELECT row_to_json(r) FROM (SELECT id, season, records, points, policy, weights, summary, created_at
			FROM ` + config.RunsTable + ` ORDER BY created_at DESC LIMIT 1) r`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
