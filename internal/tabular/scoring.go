package tabular

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
	"github.com/albapepper/scoracle-fantasy/internal/scoring"
)

// ScoringConfig is a loaded scoring configuration.
type ScoringConfig struct {
	Items  []scoring.Item
	Report diag.Report
}

// ReadScoringCSV parses a statId,points table. Rows with a non-numeric statId
// are discarded; a non-numeric points value reads as 0. The returned Items is
// never nil, so an empty table resolves to defaults.
func ReadScoringCSV(r io.Reader) (ScoringConfig, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return ScoringConfig{}, err
	}
	if err := h.require("statid", "points"); err != nil {
		return ScoringConfig{}, err
	}

	out := ScoringConfig{Items: []scoring.Item{}}
	var discarded []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ScoringConfig{}, fmt.Errorf("read row: %w", err)
		}

		rawID := h.get(rec, "statid")
		id, err := parseStatID(rawID)
		if err != nil {
			discarded = append(discarded, rawID)
			continue
		}
		pts, err := strconv.ParseFloat(h.get(rec, "points"), 64)
		if err != nil {
			pts = 0
		}
		out.Items = append(out.Items, scoring.Item{StatID: id, Points: pts})
	}

	if len(discarded) > 0 {
		out.Report.Add(diag.DiscardedRow, "scoring rows with non-numeric statId discarded", map[string]any{
			"rows":   len(discarded),
			"values": strings.Join(discarded, ","),
		})
	}
	return out, nil
}

// parseStatID accepts integer IDs, including the "25.0" form spreadsheets
// produce.
func parseStatID(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid stat id %q", s)
	}
	return int(f), nil
}

type scoringDoc struct {
	Items []scoring.Item `yaml:"items"`
}

// ReadScoringYAML parses a document of the form
//
//	items:
//	  - stat_id: 25
//	    points: 6
func ReadScoringYAML(r io.Reader) (ScoringConfig, error) {
	var doc scoringDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return ScoringConfig{}, fmt.Errorf("decode scoring yaml: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []scoring.Item{}
	}
	return ScoringConfig{Items: doc.Items}, nil
}

// LoadScoring reads a scoring file, choosing the format by extension.
func LoadScoring(path string) (ScoringConfig, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadFile(path, ReadScoringYAML)
	default:
		return ReadFile(path, ReadScoringCSV)
	}
}

// WriteScoringCSV writes items as a statId,points table.
func WriteScoringCSV(w io.Writer, items []scoring.Item) error {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, []string{"statId", "points"})
	for _, it := range items {
		rows = append(rows, []string{strconv.Itoa(it.StatID), formatFloat(it.Points)})
	}
	return writeAll(w, rows)
}
