package stats

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var pairPattern = regexp.MustCompile(`^\s*(\d+)\s*[/-]\s*(\d+)\s*$`)

// ParsePair splits combined values such as "23/35" or "3-4". Anything that
// does not match yields (0, 0).
func ParsePair(s string) (int, int) {
	m := pairPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0
	}
	a, errA := strconv.Atoi(m[1])
	b, errB := strconv.Atoi(m[2])
	if errA != nil || errB != nil {
		return 0, 0
	}
	return a, b
}

// ToInt coerces a provider value to a non-negative integer.
//
// Providers send numbers, numeric strings with thousands separators, empty
// strings and the occasional "--". Anything not a finite non-negative number
// is 0. Fractions are truncated.
func ToInt(val any) int {
	f, ok := toFloat(val)
	if !ok || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func toFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.ReplaceAll(v, ",", "")
		s = strings.Join(strings.Fields(s), "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asString renders a label value for pair parsing.
func asString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return ""
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
