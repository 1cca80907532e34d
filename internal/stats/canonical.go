// Package stats defines the canonical per-player-week stat schema that every
// upstream box-score payload is normalized into, and the transforms that turn
// raw payloads into one authoritative record per player-week.
//
// The schema is closed: adding a stat means adding a Field here and a synonym
// entry in the extractor tables. Scoring and storage never change shape.
package stats

// Field indexes a canonical numeric stat.
type Field int

const (
	PassCmp Field = iota
	PassAtt
	PassYds
	PassTD
	PassInt
	RushAtt
	RushYds
	RushTD
	RecTgt
	RecRec
	RecYds
	RecTD
	FumLost
	KickFGM
	KickFGA
	XPMade
	XPAtt

	numFields
)

// fieldNames are the column names used in the wide table and by the scoring
// weight table. Order matches the Field constants.
var fieldNames = [numFields]string{
	"pass_cmp", "pass_att", "pass_yds", "pass_td", "pass_int",
	"rush_att", "rush_yds", "rush_td",
	"rec_tgt", "rec_rec", "rec_yds", "rec_td",
	"fum_lost",
	"k_fgm", "k_fga", "xp_made", "xp_att",
}

// String returns the canonical column name.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return fieldNames[f]
}

// Fields returns every canonical field in schema order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// FieldByName resolves a canonical column name.
func FieldByName(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// YardageFields are the fields subject to the tenths-of-a-yard correction.
var YardageFields = []Field{PassYds, RushYds, RecYds}

// Row is one category observation for one player in the canonical schema.
// Every field is always present; absence upstream is 0.
type Row [numFields]int

// Line is the aggregated numeric view of a player-week. It is float-valued so
// that unit correction can produce fractional yards.
type Line [numFields]float64

// LineFromRow widens a Row.
func LineFromRow(r Row) Line {
	var l Line
	for i, v := range r {
		l[i] = float64(v)
	}
	return l
}

// Key identifies a player-week. Position is deliberately absent: upstream
// reports it inconsistently and it must never split one player's rows.
type Key struct {
	Season int
	Week   int
	Team   string
	Player string
}

// Payload is one raw stat-category observation as delivered by the provider.
type Payload struct {
	Season      int
	Week        int
	EventID     string
	Team        string
	AthleteID   string
	AthleteName string
	Position    string
	Category    string
	Labels      map[string]any
	// Snapshot distinguishes repeated ingestions of the same event.
	Snapshot string
}

// Key returns the player-week identity of the payload.
func (p Payload) Key() Key {
	return Key{Season: p.Season, Week: p.Week, Team: p.Team, Player: p.AthleteName}
}

// Tagged is an extracted Row carrying its identity and provenance.
type Tagged struct {
	Key      Key
	Position string
	Category string
	// SnapshotID groups rows that came from the same ingestion of the same
	// event for the same athlete.
	SnapshotID string
	Row        Row
}

// Record is the single authoritative player-week after aggregation.
type Record struct {
	Key
	Position string
	Stats    Line
}

// Get returns the value of a field.
func (r Record) Get(f Field) float64 {
	if f < 0 || f >= numFields {
		return 0
	}
	return r.Stats[f]
}
