package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-fantasy/internal/config"
	"github.com/albapepper/scoracle-fantasy/internal/pipeline"
	"github.com/albapepper/scoracle-fantasy/internal/scoring"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
	"github.com/albapepper/scoracle-fantasy/internal/tabular"
)

func testConfig(dir string) *config.Config {
	return &config.Config{DataDir: dir, Workers: 2, Reconcile: "max", UnitCorrectionThreshold: 1000}
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t.TempDir())

	_, err := newApp(cfg, &flags{})
	assert.ErrorContains(t, err, "season is required")

	cfg.Season = 2024
	a, err := newApp(cfg, &flags{})
	require.NoError(t, err)
	assert.Equal(t, 2024, a.season)
	assert.Equal(t, 2, a.workers)
	assert.Equal(t, stats.ReconcileMax, a.policy)
	assert.Equal(t, a.paths.Scoring, a.scoringPath)

	a, err = newApp(cfg, &flags{season: 2025, workers: 8, reconcile: "sum", scoring: "custom.yaml"})
	require.NoError(t, err)
	assert.Equal(t, 2025, a.season)
	assert.Equal(t, 8, a.workers)
	assert.Equal(t, stats.ReconcileSum, a.policy)
	assert.Equal(t, "custom.yaml", a.scoringPath)

	_, err = newApp(cfg, &flags{reconcile: "avg"})
	assert.Error(t, err)
}

func TestWeeksOf(t *testing.T) {
	records := []stats.Record{
		{Key: stats.Key{Week: 3}}, {Key: stats.Key{Week: 1}}, {Key: stats.Key{Week: 3}}, {Key: stats.Key{Week: 2}},
	}
	assert.Equal(t, []int{1, 2, 3}, weeksOf(records))
	assert.Nil(t, weeksOf(nil))
}

func TestAppRun_WritesBothTables(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Season = 2025
	a, err := newApp(cfg, &flags{metricsFile: filepath.Join(dir, "fppull.prom")})
	require.NoError(t, err)

	payloads := []stats.Payload{{
		Season: 2025, Week: 1, EventID: "401", Team: "KC", AthleteID: "1",
		AthleteName: "Patrick Mahomes", Position: "QB", Category: "passing",
		Labels: map[string]any{"YDS": "300", "TD": "2", "INT": "1"}, Snapshot: "a",
	}}
	require.NoError(t, tabular.WriteFile(a.paths.Long, func(w io.Writer) error {
		return tabular.WriteLong(w, payloads)
	}))
	require.NoError(t, tabular.WriteFile(a.paths.Scoring, func(w io.Writer) error {
		return tabular.WriteScoringCSV(w, []scoring.Item{{StatID: 25, Points: 6}})
	}))

	res, err := a.run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Points, 1)
	assert.Equal(t, 22.0, res.Points[0].Total)

	for _, p := range []string{a.paths.Wide, a.paths.Points, a.metricsFile} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	// The points command rescoring the written wide table agrees.
	again, err := a.points(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.Points, again.Points)
}

func TestAppRun_MissingInput(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Season = 2025
	a, err := newApp(cfg, &flags{})
	require.NoError(t, err)

	_, err = a.run(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrNoInput)
}
