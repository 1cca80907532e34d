package stats

import "github.com/albapepper/scoracle-fantasy/internal/diag"

// DefaultTenthsThreshold is the batch-wide yardage maximum above which the
// feed is assumed to be reporting tenths of a yard.
const DefaultTenthsThreshold = 1000

// CorrectUnits rescales every yardage field in the batch by 1/10 when the
// largest yardage value in the batch exceeds threshold. The correction is all
// or nothing: a partially corrected batch would mix units. A threshold <= 0
// disables the check. Records are modified in place; the returned bool
// reports whether the correction fired.
func CorrectUnits(records []Record, threshold float64) (bool, diag.Report) {
	var report diag.Report
	if threshold <= 0 || len(records) == 0 {
		return false, report
	}

	batchMax := MaxYardage(records)
	if batchMax <= threshold {
		return false, report
	}

	for i := range records {
		for _, f := range YardageFields {
			records[i].Stats[f] /= 10
		}
	}

	report.Add(diag.UnitCorrection, "yardage reported in tenths; divided all yardage by 10", map[string]any{
		"batch_max": batchMax,
		"threshold": threshold,
		"records":   len(records),
	})
	return true, report
}

// MaxYardage returns the largest passing, rushing or receiving yardage value
// across the batch.
func MaxYardage(records []Record) float64 {
	var m float64
	for _, r := range records {
		for _, f := range YardageFields {
			if r.Stats[f] > m {
				m = r.Stats[f]
			}
		}
	}
	return m
}
