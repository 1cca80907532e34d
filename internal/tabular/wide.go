package tabular

import (
	"fmt"
	"io"
	"strconv"

	"github.com/albapepper/scoracle-fantasy/internal/scoring"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

var identityColumns = []string{"season", "week", "team_abbr", "athlete_name", "position"}

// WideColumns returns the wide table header: identity then every canonical field.
func WideColumns() []string {
	cols := append([]string{}, identityColumns...)
	for _, f := range stats.Fields() {
		cols = append(cols, f.String())
	}
	return cols
}

// WriteWide writes one row per record in the order given.
func WriteWide(w io.Writer, records []stats.Record) error {
	fields := stats.Fields()
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, WideColumns())
	for _, r := range records {
		row := make([]string, 0, len(identityColumns)+len(fields))
		row = append(row,
			strconv.Itoa(r.Season),
			strconv.Itoa(r.Week),
			r.Team,
			r.Player,
			r.Position,
		)
		for _, f := range fields {
			row = append(row, formatFloat(r.Get(f)))
		}
		rows = append(rows, row)
	}
	return writeAll(w, rows)
}

// ReadWide parses a wide table. Identity columns are required; a missing
// field column reads as zero, so older files with fewer fields still load.
func ReadWide(r io.Reader) ([]stats.Record, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := h.require(identityColumns...); err != nil {
		return nil, err
	}

	fields := stats.Fields()
	records := make([]stats.Record, 0, 2048)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		season, err := strconv.Atoi(h.get(rec, "season"))
		if err != nil {
			return nil, fmt.Errorf("line %d: season: %w", line, err)
		}
		week, err := strconv.Atoi(h.get(rec, "week"))
		if err != nil {
			return nil, fmt.Errorf("line %d: week: %w", line, err)
		}

		out := stats.Record{
			Key: stats.Key{
				Season: season,
				Week:   week,
				Team:   h.get(rec, "team_abbr"),
				Player: h.get(rec, "athlete_name"),
			},
			Position: h.get(rec, "position"),
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(h.get(rec, f.String()), 64)
			if err == nil && v > 0 {
				out.Stats[f] = v
			}
		}
		records = append(records, out)
	}
	return records, nil
}

// PointsColumns is the points table header.
var PointsColumns = []string{
	"season", "week", "team_abbr", "athlete_name", "position",
	"pts_pass", "pts_rush", "pts_rec", "pts_kick", "pts_misc", "pts_ppr",
}

// WritePoints writes scored player-weeks with two-decimal values.
func WritePoints(w io.Writer, points []scoring.Points) error {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, PointsColumns)
	for _, p := range points {
		rows = append(rows, []string{
			strconv.Itoa(p.Season),
			strconv.Itoa(p.Week),
			p.Team,
			p.Player,
			p.Position,
			formatPoints(p.Pass),
			formatPoints(p.Rush),
			formatPoints(p.Rec),
			formatPoints(p.Kick),
			formatPoints(p.Misc),
			formatPoints(p.Total),
		})
	}
	return writeAll(w, rows)
}
