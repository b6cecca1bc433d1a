package parser

import (
	"strconv"
	"strings"

	"tpgen-hq/tpgen/pkg/plan"
)

// Parse reads the top two levels of a document.
//
// A line ending in ':' opens a section and later "key: value" lines are
// stored under it until the next section header; "key: value" lines
// before any section go to the root. Every header opens a top-level
// section regardless of its indentation, list items are skipped, and
// nothing deeper is reconstructed.
func Parse(text string) plan.Value {
	root := plan.NewMap()
	var section *plan.Map

	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if strings.HasSuffix(trimmed, ":") {
			name := strings.TrimSpace(strings.TrimSuffix(trimmed, ":"))
			section = plan.NewMap()
			root.Set(name, plan.Mapping(section))
			continue
		}

		if strings.HasPrefix(trimmed, "-") {
			continue
		}

		colon := strings.IndexByte(trimmed, ':')
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:colon])
		value := ParseScalar(trimmed[colon+1:])
		if section != nil {
			section.Set(key, value)
		} else {
			root.Set(key, value)
		}
	}

	return plan.Mapping(root)
}

// SectionNames returns the keys Parse lifted to the root as sections,
// i.e. the root keys holding a mapping.
func SectionNames(v plan.Value) map[string]bool {
	out := map[string]bool{}
	if v.Kind != plan.KindMapping || v.Map == nil {
		return out
	}
	v.Map.Range(func(k string, val plan.Value) bool {
		if val.Kind == plan.KindMapping {
			out[k] = true
		}
		return true
	})
	return out
}

// ParseScalar types a raw scalar: booleans, numbers, null, quoted strings
// and the empty collections [] and {}. Anything else is a string.
func ParseScalar(raw string) plan.Value {
	s := strings.TrimSpace(raw)
	switch s {
	case "", "null", "Null", "NULL", "~":
		return plan.Null()
	case "true", "True", "TRUE":
		return plan.Bool(true)
	case "false", "False", "FALSE":
		return plan.Bool(false)
	case "[]":
		return plan.List()
	case "{}":
		return plan.Mapping(nil)
	}

	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return plan.String(s[1 : len(s)-1])
		}
	}

	if looksNumeric(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return plan.Number(f)
		}
	}
	return plan.String(s)
}

// looksNumeric rejects forms ParseFloat accepts but documents do not mean
// as numbers, such as "Inf", "NaN" and hex literals.
func looksNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	return true
}
