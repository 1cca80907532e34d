package stats

import "strings"

// parseMode selects how a label's value becomes canonical fields.
type parseMode int

const (
	// modeInt reads one integer into Fields[0].
	modeInt parseMode = iota
	// modePair reads a combined "made/attempted" value into Fields[0] and Fields[1].
	modePair
)

// fieldSpec is one rule of a category table: the first synonym present in the
// payload wins. A rule never overwrites a field already claimed by an earlier
// rule in the same category.
type fieldSpec struct {
	Fields   []Field
	Synonyms []string
	Mode     parseMode
}

// categorySpec maps a provider stat group onto canonical fields.
type categorySpec struct {
	Name  string
	Match []string
	Rules []fieldSpec
}

func single(f Field, synonyms ...string) fieldSpec {
	return fieldSpec{Fields: []Field{f}, Synonyms: synonyms, Mode: modeInt}
}

func pair(made, att Field, synonyms ...string) fieldSpec {
	return fieldSpec{Fields: []Field{made, att}, Synonyms: synonyms, Mode: modePair}
}

// categories is evaluated in order; the first category whose Match substring
// appears in the group name handles the payload. Defensive, return, punting
// and team groups are never extracted.
var categories = []categorySpec{
	{
		Name:  "passing",
		Match: []string{"passing"},
		Rules: []fieldSpec{
			pair(PassCmp, PassAtt, "C/ATT", "CMP/ATT"),
			single(PassCmp, "CMP", "C"),
			single(PassAtt, "ATT"),
			single(PassYds, "YDS"),
			single(PassTD, "TD"),
			single(PassInt, "INT"),
		},
	},
	{
		Name:  "rushing",
		Match: []string{"rushing"},
		Rules: []fieldSpec{
			single(RushAtt, "CAR", "ATT"),
			single(RushYds, "YDS"),
			single(RushTD, "TD"),
		},
	},
	{
		Name:  "receiving",
		Match: []string{"receiving"},
		Rules: []fieldSpec{
			single(RecTgt, "TGT", "TGTS", "TAR"),
			single(RecRec, "REC", "RECEPTIONS"),
			single(RecYds, "YDS"),
			single(RecTD, "TD"),
		},
	},
	{
		Name:  "fumbles",
		Match: []string{"fumbles", "misc"},
		Rules: []fieldSpec{
			single(FumLost, "LOST", "FUM LOST", "LST", "FL"),
		},
	},
	{
		Name:  "kicking",
		Match: []string{"kicking"},
		Rules: []fieldSpec{
			pair(KickFGM, KickFGA, "FGM-A", "FG"),
			single(KickFGM, "FGM", "FG"),
			single(KickFGA, "FGA"),
			pair(XPMade, XPAtt, "XPM-A", "XP"),
			single(XPMade, "XPM"),
			single(XPAtt, "XPA"),
		},
	},
}

// Categories returns the names of the stat groups the extractor understands.
func Categories() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// CategoryOf resolves a free-form provider group name to a known category.
func CategoryOf(group string) (string, bool) {
	spec := lookupCategory(group)
	if spec == nil {
		return "", false
	}
	return spec.Name, true
}

func lookupCategory(group string) *categorySpec {
	g := strings.ToLower(strings.TrimSpace(group))
	if g == "" {
		return nil
	}
	for i := range categories {
		for _, m := range categories[i].Match {
			if strings.Contains(g, m) {
				return &categories[i]
			}
		}
	}
	return nil
}

// Extract maps one stat-group payload to the canonical schema. Fields outside
// the group's domain stay zero. ok is false when the group is not one the
// extractor handles; the row is then all zero and should be dropped.
func Extract(group string, labels map[string]any) (row Row, ok bool) {
	spec := lookupCategory(group)
	if spec == nil {
		return Row{}, false
	}

	norm := make(map[string]any, len(labels))
	for k, v := range labels {
		norm[strings.ToUpper(strings.TrimSpace(k))] = v
	}

	var claimed [numFields]bool
	for _, rule := range spec.Rules {
		if anyClaimed(claimed, rule.Fields) {
			continue
		}
		label, val, found := firstPresent(norm, rule.Synonyms)
		if !found {
			continue
		}
		switch rule.Mode {
		case modePair:
			s := asString(val)
			if bareCounts[label] && !isCombined(s) {
				// A bare "FG" or "XP" count is handled by the single rule that follows.
				continue
			}
			// A present pair label owns both fields; a malformed value gives (0, 0).
			a, b := ParsePair(s)
			row[rule.Fields[0]], row[rule.Fields[1]] = a, b
		default:
			row[rule.Fields[0]] = ToInt(val)
		}
		for _, f := range rule.Fields {
			claimed[f] = true
		}
	}
	return row, true
}

func firstPresent(norm map[string]any, synonyms []string) (string, any, bool) {
	for _, s := range synonyms {
		if v, ok := norm[s]; ok {
			return s, v, true
		}
	}
	return "", nil, false
}

func anyClaimed(claimed [numFields]bool, fields []Field) bool {
	for _, f := range fields {
		if claimed[f] {
			return true
		}
	}
	return false
}

// bareCounts are pair synonyms ESPN also uses for a lone "made" count.
var bareCounts = map[string]bool{"FG": true, "XP": true}

// isCombined reports whether a value carries a pair separator at all. Values
// like "23/" still count and parse to (0, 0).
func isCombined(s string) bool {
	return strings.ContainsAny(s, "/-")
}
