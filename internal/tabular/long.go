package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

// LongColumns are the required columns of the long stats table.
var LongColumns = []string{
	"season", "week", "event_id", "team_abbr", "athlete_id",
	"athlete_name", "position", "stat_group", "stats_json",
}

// Long is a parsed long stats table.
type Long struct {
	Payloads []stats.Payload
	Report   diag.Report
}

// ReadLong parses the long stats table: one row per athlete, event and stat
// group with the provider's label/value pairs serialized in stats_json.
// Rows without a usable season, week or athlete are discarded and reported.
// Unparseable stats_json yields empty labels, which extract to zeros.
func ReadLong(r io.Reader) (Long, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return Long{}, err
	}
	if err := h.require(LongColumns...); err != nil {
		return Long{}, err
	}

	var out Long
	out.Payloads = make([]stats.Payload, 0, 4096)
	badSeason, noAthlete, badJSON := 0, 0, 0

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Long{}, fmt.Errorf("read row: %w", err)
		}

		season, err1 := strconv.Atoi(h.get(rec, "season"))
		week, err2 := strconv.Atoi(h.get(rec, "week"))
		if err1 != nil || err2 != nil {
			badSeason++
			continue
		}
		name := h.get(rec, "athlete_name")
		if name == "" {
			noAthlete++
			continue
		}

		labels, ok := decodeLabels(h.get(rec, "stats_json"))
		if !ok {
			badJSON++
		}

		out.Payloads = append(out.Payloads, stats.Payload{
			Season:      season,
			Week:        week,
			EventID:     h.get(rec, "event_id"),
			Team:        h.get(rec, "team_abbr"),
			AthleteID:   h.get(rec, "athlete_id"),
			AthleteName: name,
			Position:    h.get(rec, "position"),
			Category:    h.get(rec, "stat_group"),
			Labels:      labels,
			Snapshot:    h.get(rec, "snapshot"),
		})
	}

	if badSeason > 0 {
		out.Report.Add(diag.DiscardedRow, "long rows without numeric season/week discarded", map[string]any{"rows": badSeason})
	}
	if noAthlete > 0 {
		out.Report.Add(diag.DiscardedRow, "long rows without athlete name discarded", map[string]any{"rows": noAthlete})
	}
	if badJSON > 0 {
		out.Report.Add(diag.DiscardedRow, "long rows with malformed stats_json read as empty", map[string]any{"rows": badJSON})
	}
	return out, nil
}

// decodeLabels parses a stats_json object. Numbers are kept as json.Number
// so the extractor sees exactly what the provider wrote.
func decodeLabels(raw string) (map[string]any, bool) {
	if raw == "" {
		return map[string]any{}, true
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var labels map[string]any
	if err := dec.Decode(&labels); err != nil || labels == nil {
		return map[string]any{}, false
	}
	return labels, true
}

// WriteLong writes payloads as a long stats table. Used by the box score
// fetcher so fetched data round-trips through the same loader.
func WriteLong(w io.Writer, payloads []stats.Payload) error {
	rows := make([][]string, 0, len(payloads)+1)
	rows = append(rows, append(append([]string{}, LongColumns...), "snapshot"))
	for _, p := range payloads {
		labels := p.Labels
		if labels == nil {
			labels = map[string]any{}
		}
		raw, err := json.Marshal(labels)
		if err != nil {
			return fmt.Errorf("encode stats for %s: %w", p.AthleteName, err)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Season),
			strconv.Itoa(p.Week),
			p.EventID,
			p.Team,
			p.AthleteID,
			p.AthleteName,
			p.Position,
			p.Category,
			string(raw),
			p.Snapshot,
		})
	}
	return writeAll(w, rows)
}
