// Package scoring turns a league's scoring settings into per-field weights and
// applies them to aggregated player-weeks.
//
// League settings name stats by opaque numeric IDs. The catalog below maps the
// IDs this engine can honor onto canonical fields; IDs for concepts the
// canonical schema cannot represent are listed separately so they surface as
// "needs schema support" rather than "irrelevant".
package scoring

import "github.com/albapepper/scoracle-fantasy/internal/stats"

// Mode describes how a weight is applied.
type Mode int

const (
	// PerUnit weights multiply a continuous quantity (yards).
	PerUnit Mode = iota
	// Count weights multiply a discrete event tally (touchdowns, turnovers).
	Count
)

func (m Mode) String() string {
	if m == PerUnit {
		return "per_unit"
	}
	return "count"
}

// Entry is a catalog mapping from a stat ID to a canonical field.
type Entry struct {
	Field stats.Field
	Mode  Mode
}

// Catalog maps ESPN scoring stat IDs to canonical fields. Field-goal makes are
// intentionally absent: without distance buckets a flat rate misscores them.
var Catalog = map[int]Entry{
	3:  {Field: stats.PassYds, Mode: PerUnit},
	25: {Field: stats.PassTD, Mode: Count},
	26: {Field: stats.PassInt, Mode: Count},
	24: {Field: stats.RushYds, Mode: PerUnit},
	27: {Field: stats.RushTD, Mode: Count},
	42: {Field: stats.RecRec, Mode: Count},
	43: {Field: stats.RecYds, Mode: PerUnit},
	44: {Field: stats.RecTD, Mode: Count},
	52: {Field: stats.FumLost, Mode: Count},
	86: {Field: stats.XPMade, Mode: Count},
}

// Unsupported lists IDs for recognized concepts the canonical schema cannot
// score yet, with the missing support named.
var Unsupported = map[int]string{
	29:  "passing two-point conversions are not in the canonical schema",
	32:  "rushing two-point conversions are not in the canonical schema",
	45:  "receiving two-point conversions are not in the canonical schema",
	74:  "field goals 0-39 need distance buckets",
	77:  "field goals 40-49 need distance buckets",
	80:  "field goals 50-59 need distance buckets",
	83:  "field goals 60+ need distance buckets",
	85:  "missed field goals are not in the canonical schema",
	88:  "missed field goals are not in the canonical schema",
	95:  "team defense interceptions are not scored per player",
	96:  "team defense fumble recoveries are not scored per player",
	99:  "team defense sacks are not scored per player",
	101: "kickoff return touchdowns are not in the canonical schema",
	102: "punt return touchdowns are not in the canonical schema",
	120: "team defense points allowed are not scored per player",
	127: "team defense yards allowed are not scored per player",
}

// ScoredFields are the fields the points calculator reads. Every one of them
// must resolve to a weight.
var ScoredFields = []stats.Field{
	stats.PassYds, stats.PassTD, stats.PassInt,
	stats.RushYds, stats.RushTD,
	stats.RecRec, stats.RecYds, stats.RecTD,
	stats.XPMade,
	stats.FumLost,
}

// Defaults is the PPR baseline applied to any scored field the league
// configuration leaves unset.
func Defaults() Layer {
	return Layer{
		stats.PassYds: 0.04,
		stats.PassTD:  4.0,
		stats.PassInt: -2.0,
		stats.RushYds: 0.1,
		stats.RushTD:  6.0,
		stats.RecRec:  1.0,
		stats.RecYds:  0.1,
		stats.RecTD:   6.0,
		stats.FumLost: -2.0,
		stats.XPMade:  1.0,
	}
}
