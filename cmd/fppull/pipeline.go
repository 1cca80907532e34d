package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-fantasy/internal/db"
	"github.com/albapepper/scoracle-fantasy/internal/diag"
	"github.com/albapepper/scoracle-fantasy/internal/events"
	"github.com/albapepper/scoracle-fantasy/internal/maintenance"
	"github.com/albapepper/scoracle-fantasy/internal/metrics"
	"github.com/albapepper/scoracle-fantasy/internal/pipeline"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
	"github.com/albapepper/scoracle-fantasy/internal/store"
	"github.com/albapepper/scoracle-fantasy/internal/tabular"
)

func wideCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "wide",
		Short: "Aggregate the long stats table into one row per player-week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(f, func(ctx context.Context, a *app) error {
				_, err := a.wide()
				return err
			})
		},
	}
}

func pointsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "points",
		Short: "Score the wide stats table with the league's scoring settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(f, func(ctx context.Context, a *app) error {
				_, err := a.points(ctx)
				return err
			})
		},
	}
}

func runCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Aggregate and score in one pass, writing both tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(f, func(ctx context.Context, a *app) error {
				res, err := a.run(ctx)
				if err != nil {
					return err
				}
				a.announce(events.PointsComputed{
					Season:  a.season,
					Weeks:   weeksOf(res.Records),
					Records: len(res.Records),
					Points:  len(res.Points),
					Policy:  a.policy.String(),
				}, res.Report)
				return nil
			})
		},
	}
}

func storeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "store",
		Short: "Replace the season's stats and points in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(f, func(ctx context.Context, a *app) error {
				return a.store(ctx)
			})
		},
	}
}

func (a *app) options() pipeline.Options {
	return pipeline.Options{
		Workers:   a.workers,
		Policy:    a.policy,
		Threshold: a.cfg.UnitCorrectionThreshold,
		Logger:    logger,
	}
}

// wide reads the long table and writes the wide table.
func (a *app) wide() (*pipeline.Result, error) {
	payloads, loadReport, err := pipeline.LoadLong(a.paths.Long)
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Wide(payloads, a.options())
	if err != nil {
		return nil, err
	}
	res.Report.Merge(loadReport)
	res.Report.Log(logger)

	if err := tabular.WriteFile(a.paths.Wide, func(w io.Writer) error {
		return tabular.WriteWide(w, res.Records)
	}); err != nil {
		return nil, err
	}
	logger.Info("Wide table written", "path", a.paths.Wide, "rows", len(res.Records))
	a.observe(res)
	return res, nil
}

// points scores the wide table on disk and writes the points table.
func (a *app) points(ctx context.Context) (*pipeline.Result, error) {
	res, err := a.scoreWide(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.writePoints(res); err != nil {
		return nil, err
	}
	a.observe(res)
	return res, nil
}

func (a *app) scoreWide(ctx context.Context) (*pipeline.Result, error) {
	records, err := pipeline.LoadWide(a.paths.Wide)
	if err != nil {
		return nil, err
	}
	items, loadReport, err := pipeline.LoadScoring(a.scoringPath)
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Score(ctx, records, items, a.options())
	if err != nil {
		return nil, err
	}
	res.Report.Merge(loadReport)
	res.Report.Log(logger)
	return res, nil
}

// run executes the full pipeline from the long table.
func (a *app) run(ctx context.Context) (*pipeline.Result, error) {
	payloads, longReport, err := pipeline.LoadLong(a.paths.Long)
	if err != nil {
		return nil, err
	}
	items, scoringReport, err := pipeline.LoadScoring(a.scoringPath)
	if err != nil {
		return nil, err
	}
	longReport.Merge(scoringReport)
	longReport.Log(logger)

	res, err := pipeline.Run(ctx, pipeline.Input{Payloads: payloads, Scoring: items}, a.options())
	if err != nil {
		return nil, err
	}
	res.Report.Merge(longReport)

	if err := tabular.WriteFile(a.paths.Wide, func(w io.Writer) error {
		return tabular.WriteWide(w, res.Records)
	}); err != nil {
		return nil, err
	}
	if err := a.writePoints(res); err != nil {
		return nil, err
	}
	a.observe(res)
	return res, nil
}

func (a *app) writePoints(res *pipeline.Result) error {
	if err := tabular.WriteFile(a.paths.Points, func(w io.Writer) error {
		return tabular.WritePoints(w, res.Points)
	}); err != nil {
		return err
	}
	logger.Info("Points table written", "path", a.paths.Points, "rows", len(res.Points))
	return nil
}

// store scores the wide table and replaces the season in Postgres.
func (a *app) store(ctx context.Context) error {
	res, err := a.scoreWide(ctx)
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	stored, err := store.ReplaceSeason(ctx, pool, store.Run{
		Season:  a.season,
		Policy:  a.policy.String(),
		Weights: res.Resolution.Table.Map(),
		Summary: res.Summary(),
	}, res.Records, res.Points, logger)
	if err != nil {
		return err
	}

	if err := maintenance.AfterStore(ctx, pool, a.season, logger); err != nil {
		logger.Warn("View refresh failed", "error", err)
	}

	a.announce(events.PointsComputed{
		RunID:   stored.RunID.String(),
		Season:  a.season,
		Weeks:   weeksOf(res.Records),
		Records: stored.StatsWritten,
		Points:  stored.PointsWritten,
		Policy:  a.policy.String(),
	}, res.Report)
	return nil
}

// observe writes run metrics to the textfile when one was requested.
func (a *app) observe(res *pipeline.Result) {
	if a.metricsFile == "" {
		return
	}
	m := metrics.New()
	m.ObserveRun(metrics.Run{
		Season:   a.season,
		Payloads: res.PayloadsRead,
		Ignored:  res.PayloadsIgnored,
		Records:  len(res.Records),
		Report:   res.Report,
		Duration: res.Duration,
	})
	if err := m.WriteTextfile(a.metricsFile); err != nil {
		logger.Warn("Metrics textfile not written", "path", a.metricsFile, "error", err)
	}
}

// announce publishes ev when NATS is configured. Publishing never fails the
// command.
func (a *app) announce(ev events.PointsComputed, report diag.Report) {
	if a.cfg.NATSURL == "" {
		return
	}
	ev.Diagnostics = make(map[string]int)
	for kind, n := range report.Counts() {
		ev.Diagnostics[string(kind)] = n
	}
	ev.ComputedAt = time.Now().UTC()

	pub, err := events.New(a.cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("Event publisher unavailable", "error", err)
		return
	}
	defer pub.Close()
	if err := events.Announce(pub, ev); err != nil {
		logger.Warn("Event not published", "error", err)
	}
}

// weeksOf lists the distinct weeks present in records, ascending.
func weeksOf(records []stats.Record) []int {
	seen := make(map[int]bool)
	var weeks []int
	for _, r := range records {
		if !seen[r.Week] {
			seen[r.Week] = true
			weeks = append(weeks, r.Week)
		}
	}
	slices.Sort(weeks)
	return weeks
}
