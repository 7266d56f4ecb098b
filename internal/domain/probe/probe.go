// Package probe reads fields out of decoded JSON documents whose schema drifts
// between upstream versions. Each lookup takes an ordered list of candidate
// dotted paths and returns the first one that resolves; when none does, the
// typed helpers fall back to the zero value.
//
// Path segments address object keys or array indexes; a negative index counts
// from the end, so "terms.-1.party" reads the party of the last term.
package probe

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Paths is an ordered list of candidate field paths for one logical field.
type Paths []string

// Lookup walks doc along a single dotted path.
func Lookup(doc any, path string) (any, bool) {
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return nil, false
			}
			if i < 0 {
				i += len(node)
			}
			if i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// First returns the first candidate path resolving to a non-null value.
func First(doc any, paths ...string) (any, bool) {
	for _, p := range paths {
		if v, ok := Lookup(doc, p); ok {
			return v, true
		}
	}
	return nil, false
}

// String returns the first candidate rendering as a non-empty string. Numbers
// are formatted without exponent; booleans and containers are skipped.
func String(doc any, paths ...string) string {
	for _, p := range paths {
		v, ok := Lookup(doc, p)
		if !ok {
			continue
		}
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

// Int returns the first candidate convertible to an integer.
func Int(doc any, paths ...string) (int, bool) {
	for _, p := range paths {
		v, ok := Lookup(doc, p)
		if !ok {
			continue
		}
		if f, ok := asFloat(v); ok {
			return int(f), true
		}
	}
	return 0, false
}

// Float returns the first candidate convertible to a number, or 0.
func Float(doc any, paths ...string) float64 {
	for _, p := range paths {
		v, ok := Lookup(doc, p)
		if !ok {
			continue
		}
		if f, ok := asFloat(v); ok {
			return f
		}
	}
	return 0
}

// Slice returns the first candidate that is a JSON array.
func Slice(doc any, paths ...string) ([]any, bool) {
	for _, p := range paths {
		v, ok := Lookup(doc, p)
		if !ok {
			continue
		}
		if s, ok := v.([]any); ok {
			return s, true
		}
	}
	return nil, false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
