// Package diag collects advisory findings from a pipeline run. Nothing in a
// Report is an error: findings are logged and summarized but never change the
// outcome of a run.
package diag

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Kind classifies a finding.
type Kind string

const (
	// UnsupportedIdentifier is a scoring ID for a concept the schema cannot represent.
	UnsupportedIdentifier Kind = "unsupported_identifier"
	// UnknownIdentifier is a scoring ID the catalog does not recognize.
	UnknownIdentifier Kind = "unknown_identifier"
	// Plausibility flags a player-week with implausible magnitudes.
	Plausibility Kind = "plausibility"
	// UnitCorrection notes that yardage was rescaled from tenths.
	UnitCorrection Kind = "unit_correction"
	// IgnoredCategory counts stat groups dropped at the extractor boundary.
	IgnoredCategory Kind = "ignored_category"
	// DiscardedRow notes input rows dropped while loading.
	DiscardedRow Kind = "discarded_row"
	// MergedDuplicate notes wide rows folded into an earlier row with the same key.
	MergedDuplicate Kind = "merged_duplicate"
)

// Finding is one advisory message.
type Finding struct {
	Kind    Kind
	Message string
	Attrs   map[string]any
}

// Report accumulates findings. The zero value is ready to use.
type Report struct {
	Findings []Finding
}

// Add records a finding.
func (r *Report) Add(kind Kind, msg string, attrs map[string]any) {
	r.Findings = append(r.Findings, Finding{Kind: kind, Message: msg, Attrs: attrs})
}

// Addf records a finding with a formatted message.
func (r *Report) Addf(kind Kind, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Merge appends another report's findings.
func (r *Report) Merge(other Report) {
	r.Findings = append(r.Findings, other.Findings...)
}

// Count returns how many findings of a kind were recorded.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Of returns the findings of one kind in recording order.
func (r *Report) Of(kind Kind) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Counts returns a per-kind tally.
func (r *Report) Counts() map[Kind]int {
	out := make(map[Kind]int)
	for _, f := range r.Findings {
		out[f.Kind]++
	}
	return out
}

// Summary returns a stable, human-readable tally.
func (r *Report) Summary() string {
	counts := r.Counts()
	if len(counts) == 0 {
		return "findings=0"
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[Kind(k)]))
	}
	return strings.Join(parts, " ")
}

// Log writes every finding to logger. Unknown identifiers and ignored groups
// are informational; the rest are warnings.
func (r *Report) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, f := range r.Findings {
		args := make([]any, 0, 2+2*len(f.Attrs))
		args = append(args, "kind", string(f.Kind))
		keys := make([]string, 0, len(f.Attrs))
		for k := range f.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			args = append(args, k, f.Attrs[k])
		}
		switch f.Kind {
		case UnknownIdentifier, IgnoredCategory:
			logger.Info(f.Message, args...)
		default:
			logger.Warn(f.Message, args...)
		}
	}
}
