package scoring

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
)

// Item is one row of a league scoring configuration.
type Item struct {
	StatID int     `json:"statId" yaml:"stat_id"`
	Points float64 `json:"points" yaml:"points"`
}

// Layer is a partial field -> weight mapping.
type Layer map[stats.Field]float64

// Source records which layer supplied a weight.
type Source string

const (
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
)

// Table is the resolved, read-only weight table for a run.
type Table struct {
	weights map[stats.Field]float64
	sources map[stats.Field]Source
}

// Weight returns the weight for a field; fields outside the table weigh 0.
func (t Table) Weight(f stats.Field) float64 {
	return t.weights[f]
}

// Source reports where the weight for f came from.
func (t Table) Source(f stats.Field) Source {
	return t.sources[f]
}

// Has reports whether f has a weight.
func (t Table) Has(f stats.Field) bool {
	_, ok := t.weights[f]
	return ok
}

// Map returns a copy keyed by canonical column name.
func (t Table) Map() map[string]float64 {
	out := make(map[string]float64, len(t.weights))
	for f, w := range t.weights {
		out[f.String()] = w
	}
	return out
}

// Compose builds a Table from a resolved layer over a defaults layer. A value
// in resolved always wins. Fields the calculator does not score (field-goal
// makes among them) are dropped from both layers. Every scored field must be
// covered by one of the layers.
func Compose(resolved, defaults Layer) (Table, error) {
	t := Table{
		weights: make(map[stats.Field]float64, len(ScoredFields)),
		sources: make(map[stats.Field]Source, len(ScoredFields)),
	}
	var missing []string
	for _, f := range ScoredFields {
		if w, ok := resolved[f]; ok {
			t.weights[f], t.sources[f] = w, SourceConfig
			continue
		}
		if w, ok := defaults[f]; ok {
			t.weights[f], t.sources[f] = w, SourceDefault
			continue
		}
		missing = append(missing, f.String())
	}
	if len(missing) > 0 {
		return Table{}, fmt.Errorf("no weight for scored fields: %s", strings.Join(missing, ", "))
	}
	return t, nil
}

// Resolution is the outcome of resolving a scoring configuration.
type Resolution struct {
	Table    Table
	Resolved Layer
	// Unsupported maps recognized-but-unrepresentable IDs to their configured points.
	Unsupported map[int]float64
	// Unknown lists unrecognized IDs in ascending order.
	Unknown []int
	Report  diag.Report
}

// ResolveLayer maps configuration items onto canonical fields. Later items
// for the same ID overwrite earlier ones.
func ResolveLayer(items []Item) (Layer, map[int]float64, []int) {
	layer := make(Layer)
	unsupported := make(map[int]float64)
	unknownSet := make(map[int]struct{})

	for _, it := range items {
		if e, ok := Catalog[it.StatID]; ok {
			layer[e.Field] = it.Points
			continue
		}
		if _, ok := Unsupported[it.StatID]; ok {
			unsupported[it.StatID] = it.Points
			continue
		}
		unknownSet[it.StatID] = struct{}{}
	}

	unknown := make([]int, 0, len(unknownSet))
	for id := range unknownSet {
		unknown = append(unknown, id)
	}
	sort.Ints(unknown)
	return layer, unsupported, unknown
}

// Resolve builds the weight table for a league configuration. It never fails:
// an empty configuration resolves entirely from defaults.
func Resolve(items []Item) Resolution {
	layer, unsupported, unknown := ResolveLayer(items)

	table, err := Compose(layer, Defaults())
	if err != nil {
		// Defaults cover every scored field.
		panic(fmt.Sprintf("scoring defaults incomplete: %v", err))
	}

	res := Resolution{
		Table:       table,
		Resolved:    layer,
		Unsupported: unsupported,
		Unknown:     unknown,
	}

	ids := make([]int, 0, len(unsupported))
	for id := range unsupported {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		res.Report.Add(diag.UnsupportedIdentifier, "scoring item not supported by canonical schema", map[string]any{
			"stat_id": id,
			"points":  unsupported[id],
			"reason":  Unsupported[id],
		})
	}

	if len(unknown) > 0 {
		strs := make([]string, len(unknown))
		for i, id := range unknown {
			strs[i] = strconv.Itoa(id)
		}
		res.Report.Add(diag.UnknownIdentifier, "scoring stat IDs not used by this engine", map[string]any{
			"count":    len(unknown),
			"stat_ids": strings.Join(strs, ","),
		})
	}

	return res
}
