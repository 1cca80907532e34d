// Package store persists a season's pipeline output to Postgres.
//
// A season is written wholesale: existing rows for the season are deleted and
// the new rows copied in inside one transaction, so readers see either the
// previous run or the new one and a rerun with identical input leaves the
// tables identical.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-fantasy/internal/config"
	"github.com/albapepper/scoracle-fantasy/internal/scoring"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Run describes the pipeline run being stored.
type Run struct {
	Season  int
	Policy  string
	Weights map[string]float64
	Summary string
}

// Result tracks counts from a store operation.
type Result struct {
	RunID         uuid.UUID
	StatsWritten  int
	PointsWritten int
	StatsDeleted  int64
	PointsDeleted int64
	Duration      time.Duration
}

// Stored is the payload sent on config.StoredChannel after a season commits.
type Stored struct {
	Season int    `json:"season"`
	RunID  string `json:"run_id"`
}

// Summary returns a human-readable summary of the store operation.
func (r *Result) Summary() string {
	return fmt.Sprintf("run=%s stats=%d points=%d replaced_stats=%d replaced_points=%d dur=%s",
		r.RunID, r.StatsWritten, r.PointsWritten, r.StatsDeleted, r.PointsDeleted,
		r.Duration.Round(time.Millisecond))
}

var statsColumns = []string{"season", "week", "team_abbr", "athlete_name", "position", "stats", "run_id"}

var pointsColumns = []string{
	"season", "week", "team_abbr", "athlete_name", "position",
	"pts_pass", "pts_rush", "pts_rec", "pts_kick", "pts_misc", "pts_ppr", "run_id",
}

// ReplaceSeason overwrites one season's stats and points and records the run.
// Records and points outside run.Season are rejected before anything is
// written.
func ReplaceSeason(ctx context.Context, db TxBeginner, run Run, records []stats.Record, points []scoring.Points, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	if err := checkSeason(run.Season, records, points); err != nil {
		return nil, err
	}

	statsRows, err := StatsRows(records)
	if err != nil {
		return nil, err
	}
	weights, err := json.Marshal(nonNilWeights(run.Weights))
	if err != nil {
		return nil, fmt.Errorf("encode weights: %w", err)
	}

	result := &Result{RunID: uuid.New()}

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO `+config.RunsTable+` (id, season, records, points, policy, weights, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.RunID, run.Season, len(records), len(points), run.Policy, weights, run.Summary,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM `+config.WideTable+` WHERE season = $1`, run.Season)
	if err != nil {
		return nil, fmt.Errorf("delete stats: %w", err)
	}
	result.StatsDeleted = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM `+config.PointsTable+` WHERE season = $1`, run.Season)
	if err != nil {
		return nil, fmt.Errorf("delete points: %w", err)
	}
	result.PointsDeleted = tag.RowsAffected()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{config.WideTable}, statsColumns,
		pgx.CopyFromRows(withRunID(statsRows, result.RunID)))
	if err != nil {
		return nil, fmt.Errorf("copy stats: %w", err)
	}
	result.StatsWritten = int(n)

	n, err = tx.CopyFrom(ctx, pgx.Identifier{config.PointsTable}, pointsColumns,
		pgx.CopyFromRows(withRunID(PointsRows(points), result.RunID)))
	if err != nil {
		return nil, fmt.Errorf("copy points: %w", err)
	}
	result.PointsWritten = int(n)

	// Delivered to listeners only once the transaction commits.
	note, err := json.Marshal(Stored{Season: run.Season, RunID: result.RunID.String()})
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, config.StoredChannel, string(note)); err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	result.Duration = time.Since(start)
	logger.Info("Season stored", "season", run.Season, "summary", result.Summary())
	return result, nil
}

func checkSeason(season int, records []stats.Record, points []scoring.Points) error {
	for _, r := range records {
		if r.Season != season {
			return fmt.Errorf("stats row for %s week %d is season %d, not %d", r.Player, r.Week, r.Season, season)
		}
	}
	for _, p := range points {
		if p.Season != season {
			return fmt.Errorf("points row for %s week %d is season %d, not %d", p.Player, p.Week, p.Season, season)
		}
	}
	return nil
}

// StatsRows converts records to copy rows without the run ID. Stats are
// stored as a JSON object keyed by canonical field name.
func StatsRows(records []stats.Record) ([][]any, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		line := make(map[string]float64, len(stats.Fields()))
		for _, f := range stats.Fields() {
			line[f.String()] = r.Get(f)
		}
		raw, err := json.Marshal(line)
		if err != nil {
			return nil, fmt.Errorf("encode stats for %s: %w", r.Player, err)
		}
		rows = append(rows, []any{r.Season, r.Week, r.Team, r.Player, r.Position, raw})
	}
	return rows, nil
}

// PointsRows converts points to copy rows without the run ID.
func PointsRows(points []scoring.Points) [][]any {
	rows := make([][]any, 0, len(points))
	for _, p := range points {
		rows = append(rows, []any{
			p.Season, p.Week, p.Team, p.Player, p.Position,
			p.Pass, p.Rush, p.Rec, p.Kick, p.Misc, p.Total,
		})
	}
	return rows
}

func withRunID(rows [][]any, id uuid.UUID) [][]any {
	for i := range rows {
		rows[i] = append(rows[i], id)
	}
	return rows
}

func nonNilWeights(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
