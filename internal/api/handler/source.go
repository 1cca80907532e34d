package handler

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned by a Source when the requested rows do not exist.
var ErrNotFound = errors.New("not found")

// Source reads pre-encoded JSON for the API. Each method returns a JSON
// document ready to be written to the client.
type Source interface {
	Ping(ctx context.Context) error
	WeekPoints(ctx context.Context, season, week int) ([]byte, error)
	PlayerSeason(ctx context.Context, season int, name string) ([]byte, error)
	SeasonLeaders(ctx context.Context, season, limit int) ([]byte, error)
	LatestRun(ctx context.Context) ([]byte, error)
}

// Querier is the subset of pgxpool.Pool the Postgres source needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres serves the API from the prepared statements registered on every
// pool connection.
type Postgres struct {
	q Querier
}

// NewPostgres wraps q, usually a *db.Pool.
func NewPostgres(q Querier) *Postgres {
	return &Postgres{q: q}
}

func (p *Postgres) Ping(ctx context.Context) error {
	var n int
	return p.q.QueryRow(ctx, "health_check").Scan(&n)
}

func (p *Postgres) WeekPoints(ctx context.Context, season, week int) ([]byte, error) {
	return p.list(ctx, "api_week_points", season, week)
}

// PlayerSeason returns ErrNotFound when the player scored no rows that season.
func (p *Postgres) PlayerSeason(ctx context.Context, season int, name string) ([]byte, error) {
	raw, err := p.list(ctx, "api_player_season", season, name)
	if err != nil {
		return nil, err
	}
	if isEmptyList(raw) {
		return nil, ErrNotFound
	}
	return raw, nil
}

func (p *Postgres) SeasonLeaders(ctx context.Context, season, limit int) ([]byte, error) {
	return p.list(ctx, "api_season_leaders", season, limit)
}

func (p *Postgres) LatestRun(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := p.q.QueryRow(ctx, "api_latest_run").Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && raw == nil) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (p *Postgres) list(ctx context.Context, stmt string, args ...any) ([]byte, error) {
	var raw []byte
	if err := p.q.QueryRow(ctx, stmt, args...).Scan(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = []byte("[]")
	}
	return raw, nil
}

func isEmptyList(raw []byte) bool {
	return len(raw) == 2 && raw[0] == '[' && raw[1] == ']'
}
