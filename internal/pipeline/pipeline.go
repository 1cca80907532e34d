// Package pipeline runs the batch: extract raw payloads, aggregate them into
// player-weeks, correct units, resolve scoring and compute points.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
	"github.com/albapepper/scoracle-fantasy/internal/scoring"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

var (
	// ErrNoInput is returned when no stat input was provided.
	ErrNoInput = errors.New("no stat input")
	// ErrNoScoring is returned when no scoring configuration was provided.
	ErrNoScoring = errors.New("no scoring configuration")
)

// Input is everything a run consumes. A nil Payloads or Scoring means the
// source was never loaded; an empty, non-nil slice is a valid empty source.
type Input struct {
	Payloads []stats.Payload
	Scoring  []scoring.Item
}

// Options tune a run. The zero value is usable.
type Options struct {
	Workers   int
	Policy    stats.Policy
	Limits    *stats.Limits
	Threshold float64
	Logger    *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) aggregator() *stats.Aggregator {
	a := stats.NewAggregator()
	a.Policy = o.Policy
	if o.Limits != nil {
		a.Limits = *o.Limits
	}
	return a
}

// Result is the output of a run.
type Result struct {
	Records         []stats.Record
	Points          []scoring.Points
	Resolution      scoring.Resolution
	UnitsCorrected  bool
	PayloadsRead    int
	PayloadsIgnored int
	Report          diag.Report
	Duration        time.Duration
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("payloads=%d ignored=%d records=%d points=%d units_corrected=%t %s dur=%s",
		r.PayloadsRead, r.PayloadsIgnored, len(r.Records), len(r.Points),
		r.UnitsCorrected, r.Report.Summary(), r.Duration.Round(time.Millisecond))
}

// Wide runs the stats half of the pipeline: extraction, aggregation and unit
// correction.
func Wide(payloads []stats.Payload, opts Options) (*Result, error) {
	if payloads == nil {
		return nil, ErrNoInput
	}
	start := time.Now()
	logger := opts.logger()

	result := &Result{PayloadsRead: len(payloads)}

	tagged, report := stats.Tag(payloads)
	result.PayloadsIgnored = len(payloads) - len(tagged)
	result.Report.Merge(report)

	records, report := opts.aggregator().Aggregate(tagged)
	result.Report.Merge(report)

	corrected, report := stats.CorrectUnits(records, opts.Threshold)
	result.UnitsCorrected = corrected
	result.Report.Merge(report)

	result.Records = records
	result.Duration = time.Since(start)
	logger.Info("Aggregated player-weeks",
		"payloads", result.PayloadsRead,
		"ignored", result.PayloadsIgnored,
		"records", len(records),
		"policy", opts.Policy.String())
	return result, nil
}

// Score resolves a scoring configuration and applies it to aggregated
// records. Records sharing a key, as a hand-edited or older wide table may
// hold, are merged first so there is one points row per player-week. The
// caller's slice is not modified.
func Score(ctx context.Context, records []stats.Record, items []scoring.Item, opts Options) (*Result, error) {
	if records == nil {
		return nil, ErrNoInput
	}
	if items == nil {
		return nil, ErrNoScoring
	}
	start := time.Now()

	records, folded := stats.MergeRecords(records)
	result := &Result{Records: records}
	if folded > 0 {
		result.Report.Addf(diag.MergedDuplicate, "%d wide rows merged into existing player-weeks", folded)
	}
	result.Resolution = scoring.Resolve(items)
	result.Report.Merge(result.Resolution.Report)

	points, err := calculate(ctx, records, result.Resolution.Table, opts.Workers)
	if err != nil {
		return nil, err
	}
	result.Points = points
	result.Duration = time.Since(start)

	opts.logger().Info("Scored player-weeks",
		"records", len(records),
		"configured", len(result.Resolution.Resolved),
		"unsupported", len(result.Resolution.Unsupported),
		"unknown", len(result.Resolution.Unknown))
	return result, nil
}

// Run executes the whole pipeline. Diagnostics never fail a run; only a
// missing input or scoring source, or cancellation, returns an error.
func Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	if in.Payloads == nil {
		return nil, ErrNoInput
	}
	if in.Scoring == nil {
		return nil, ErrNoScoring
	}
	start := time.Now()

	wide, err := Wide(in.Payloads, opts)
	if err != nil {
		return nil, err
	}
	scored, err := Score(ctx, wide.Records, in.Scoring, opts)
	if err != nil {
		return nil, err
	}

	wide.Points = scored.Points
	wide.Resolution = scored.Resolution
	wide.Report.Merge(scored.Report)
	wide.Duration = time.Since(start)

	wide.Report.Log(opts.logger())
	opts.logger().Info("Pipeline run complete", "summary", wide.Summary())
	return wide, nil
}

// calculate scores records with a pool of workers. Each result is written at
// its record's index so output order never depends on scheduling.
func calculate(ctx context.Context, records []stats.Record, table scoring.Table, workers int) ([]scoring.Points, error) {
	out := make([]scoring.Points, len(records))
	if len(records) == 0 {
		return out, nil
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	// Fixed-size chunks keep channel traffic low for large seasons.
	const chunk = 256
	type span struct{ lo, hi int }

	ch := make(chan span, (len(records)+chunk-1)/chunk)
	for lo := 0; lo < len(records); lo += chunk {
		ch <- span{lo, min(lo+chunk, len(records))}
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range ch {
				if ctx.Err() != nil {
					return
				}
				for j := s.lo; j < s.hi; j++ {
					out[j] = scoring.Calculate(records[j], table)
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring cancelled: %w", err)
	}
	return out, nil
}
