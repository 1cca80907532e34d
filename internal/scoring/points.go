package scoring

import (
	"math"

	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

// Points is the scored output for one player-week.
type Points struct {
	stats.Key
	Position string
	Pass     float64
	Rush     float64
	Rec      float64
	Kick     float64
	Misc     float64
	Total    float64
}

// Calculate scores one aggregated player-week. Each subtotal is rounded to two
// decimals before summing so stored subtotals add up to the stored total.
func Calculate(r stats.Record, t Table) Points {
	term := func(f stats.Field) float64 {
		return r.Get(f) * t.Weight(f)
	}

	p := Points{
		Key:      r.Key,
		Position: r.Position,
		Pass:     Round2(term(stats.PassYds) + term(stats.PassTD) + term(stats.PassInt)),
		Rush:     Round2(term(stats.RushYds) + term(stats.RushTD)),
		Rec:      Round2(term(stats.RecRec) + term(stats.RecYds) + term(stats.RecTD)),
		// Field-goal makes are never credited: no distance buckets.
		Kick: Round2(term(stats.XPMade)),
		Misc: Round2(term(stats.FumLost)),
	}
	p.Total = Round2(p.Pass + p.Rush + p.Rec + p.Kick + p.Misc)
	return p
}

// CalculateAll scores records in order.
func CalculateAll(records []stats.Record, t Table) []Points {
	out := make([]Points, len(records))
	for i, r := range records {
		out[i] = Calculate(r, t)
	}
	return out
}

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	v := math.Round(x*100) / 100
	if v == 0 {
		// Avoid "-0" in output.
		return 0
	}
	return v
}
