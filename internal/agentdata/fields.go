package agentdata

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// accessor reads one candidate location out of a decoded JSON value. The
// second result is false when the location is absent or null.
type accessor func(v any) (any, bool)

// at returns an accessor for a nested object path such as at("data", "output").
func at(path ...string) accessor {
	return func(v any) (any, bool) {
		return lookup(v, path...)
	}
}

func lookup(v any, path ...string) (any, bool) {
	cur := v
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// firstString returns the first candidate holding a non-empty string.
func firstString(v any, fallback string, candidates ...accessor) string {
	for _, get := range candidates {
		if raw, ok := get(v); ok {
			if s, ok := raw.(string); ok && s != "" {
				return s
			}
		}
	}
	return fallback
}

// firstNumber returns the first candidate that is present and numeric. Zero
// is a valid value; only absent, null and non-numeric candidates are skipped.
func firstNumber(v any, fallback float64, candidates ...accessor) float64 {
	for _, get := range candidates {
		if raw, ok := get(v); ok {
			if n, ok := toNumber(raw); ok {
				return n
			}
		}
	}
	return fallback
}

// firstInt is firstNumber for integer fields. Values that do not fit in an
// int are skipped like non-numeric ones.
func firstInt(v any, fallback int, candidates ...accessor) int {
	for _, get := range candidates {
		if raw, ok := get(v); ok {
			if n, ok := toNumber(raw); ok && n >= math.MinInt && n < math.MaxInt {
				return int(n)
			}
		}
	}
	return fallback
}

// toNumber rejects NaN and the infinities; they cannot be encoded as JSON.
func toNumber(v any) (float64, bool) {
	f, ok := rawNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// truthy mirrors the loose truthiness automation payloads rely on.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	}
	return true
}

func asObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok && obj != nil
}

// stringEntries returns the trimmed, non-empty strings of a JSON array.
// Anything that is not an array contributes nothing.
func stringEntries(v any) []string {
	var out []string
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case []string:
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
