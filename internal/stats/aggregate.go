package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
)

// Policy selects how repeated snapshots of one player-week are reconciled.
type Policy int

const (
	// ReconcileMax takes the field-wise maximum across snapshots. Upstream
	// snapshots are cumulative, so summing would double count.
	ReconcileMax Policy = iota
	// ReconcileSum adds snapshots together. Kept for comparison runs against
	// historical outputs produced under the old policy.
	ReconcileSum
)

func (p Policy) String() string {
	if p == ReconcileSum {
		return "sum"
	}
	return "max"
}

// ParsePolicy reads a policy name ("max" or "sum").
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max":
		return ReconcileMax, nil
	case "sum":
		return ReconcileSum, nil
	default:
		return ReconcileMax, fmt.Errorf("unknown reconcile policy %q (want max or sum)", s)
	}
}

// Limits are the plausibility ceilings for a single player-week.
type Limits struct {
	RecYds  float64
	RecRec  float64
	RushYds float64
	PassYds float64
}

// DefaultLimits flags lines no real player-week has produced.
var DefaultLimits = Limits{RecYds: 300, RecRec: 25, RushYds: 300, PassYds: 700}

// Aggregator collapses tagged category rows into one Record per Key.
type Aggregator struct {
	Policy Policy
	Limits Limits
}

// NewAggregator returns an aggregator with max reconciliation and default limits.
func NewAggregator() *Aggregator {
	return &Aggregator{Policy: ReconcileMax, Limits: DefaultLimits}
}

// Tag extracts every payload and attaches its identity. Payloads in groups the
// extractor does not handle are dropped and counted in the report.
func Tag(payloads []Payload) ([]Tagged, diag.Report) {
	var report diag.Report
	out := make([]Tagged, 0, len(payloads))
	ignored := make(map[string]int)

	for _, p := range payloads {
		row, ok := Extract(p.Category, p.Labels)
		if !ok {
			ignored[strings.ToLower(strings.TrimSpace(p.Category))]++
			continue
		}
		cat, _ := CategoryOf(p.Category)
		out = append(out, Tagged{
			Key:        p.Key(),
			Position:   strings.TrimSpace(p.Position),
			Category:   cat,
			SnapshotID: p.EventID + "|" + p.AthleteID + "|" + p.Snapshot,
			Row:        row,
		})
	}

	if len(ignored) > 0 {
		groups := make([]string, 0, len(ignored))
		for g := range ignored {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		for _, g := range groups {
			report.Add(diag.IgnoredCategory, "stat group ignored by extractor",
				map[string]any{"group": g, "rows": ignored[g]})
		}
	}
	return out, report
}

type snapshot struct {
	categories map[string]Row
}

type group struct {
	key       Key
	position  string
	order     []string
	snapshots map[string]*snapshot
}

// Aggregate produces exactly one Record per Key, sorted by week, team and
// player name. Plausibility findings do not remove records.
func (a *Aggregator) Aggregate(rows []Tagged) ([]Record, diag.Report) {
	var report diag.Report

	groups := make(map[Key]*group)
	var keys []Key

	for _, t := range rows {
		g, ok := groups[t.Key]
		if !ok {
			g = &group{key: t.Key, snapshots: make(map[string]*snapshot)}
			groups[t.Key] = g
			keys = append(keys, t.Key)
		}
		if g.position == "" && t.Position != "" {
			g.position = t.Position
		}

		s, ok := g.snapshots[t.SnapshotID]
		if !ok {
			s = &snapshot{categories: make(map[string]Row)}
			g.snapshots[t.SnapshotID] = s
			g.order = append(g.order, t.SnapshotID)
		}

		// The same category twice inside one snapshot is a re-ingest.
		if prev, seen := s.categories[t.Category]; seen {
			s.categories[t.Category] = maxRow(prev, t.Row)
		} else {
			s.categories[t.Category] = t.Row
		}
	}

	records := make([]Record, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		var line Line
		for i, id := range g.order {
			snap := combineCategories(g.snapshots[id])
			switch {
			case i == 0:
				line = snap
			case a.Policy == ReconcileSum:
				line = sumLine(line, snap)
			default:
				line = maxLine(line, snap)
			}
		}
		records = append(records, Record{Key: k, Position: g.position, Stats: line})
	}

	SortRecords(records)

	for _, r := range records {
		if reasons := a.implausible(r); len(reasons) > 0 {
			report.Add(diag.Plausibility, "player-week exceeds plausible range", map[string]any{
				"season":   r.Season,
				"week":     r.Week,
				"team":     r.Team,
				"player":   r.Player,
				"position": r.Position,
				"checks":   strings.Join(reasons, ","),
			})
		}
	}

	return records, report
}

func (a *Aggregator) implausible(r Record) []string {
	var reasons []string
	if r.Stats[RecYds] > a.Limits.RecYds {
		reasons = append(reasons, fmt.Sprintf("rec_yds=%g", r.Stats[RecYds]))
	}
	if r.Stats[RecRec] > a.Limits.RecRec {
		reasons = append(reasons, fmt.Sprintf("rec_rec=%g", r.Stats[RecRec]))
	}
	if r.Stats[RushYds] > a.Limits.RushYds {
		reasons = append(reasons, fmt.Sprintf("rush_yds=%g", r.Stats[RushYds]))
	}
	if r.Stats[PassYds] > a.Limits.PassYds {
		reasons = append(reasons, fmt.Sprintf("pass_yds=%g", r.Stats[PassYds]))
	}
	return reasons
}

// MergeRecords folds records that share a Key into one, taking the field-wise
// maximum and the first non-empty position, and returns them sorted. It
// reports how many rows were folded away. The input slice is not modified.
func MergeRecords(records []Record) ([]Record, int) {
	index := make(map[Key]int, len(records))
	merged := make([]Record, 0, len(records))
	for _, r := range records {
		i, seen := index[r.Key]
		if !seen {
			index[r.Key] = len(merged)
			merged = append(merged, r)
			continue
		}
		m := &merged[i]
		m.Stats = maxLine(m.Stats, r.Stats)
		if m.Position == "" {
			m.Position = r.Position
		}
	}
	SortRecords(merged)
	return merged, len(records) - len(merged)
}

// SortRecords orders records by week, team, player name, then season.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return lessKey(records[i].Key, records[j].Key)
	})
}

func lessKey(a, b Key) bool {
	if a.Week != b.Week {
		return a.Week < b.Week
	}
	if a.Team != b.Team {
		return a.Team < b.Team
	}
	if a.Player != b.Player {
		return a.Player < b.Player
	}
	return a.Season < b.Season
}

func combineCategories(s *snapshot) Line {
	var l Line
	for _, row := range s.categories {
		for i, v := range row {
			l[i] += float64(v)
		}
	}
	return l
}

func maxRow(a, b Row) Row {
	for i := range a {
		if b[i] > a[i] {
			a[i] = b[i]
		}
	}
	return a
}

func maxLine(a, b Line) Line {
	for i := range a {
		if b[i] > a[i] {
			a[i] = b[i]
		}
	}
	return a
}

func sumLine(a, b Line) Line {
	for i := range a {
		a[i] += b[i]
	}
	return a
}
