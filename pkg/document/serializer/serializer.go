// Package serializer renders configuration trees as indentation-structured
// documents.
//
// Output is deterministic: mapping keys are written in insertion order and
// never sorted. Scalars are written verbatim, without quoting or escaping,
// so values containing '#', ':' or a leading '-' do not survive a round trip.
package serializer

import (
	"errors"
	"strings"

	"tpgen-hq/tpgen/pkg/plan"
)

// IndentUnit is the indentation written per nesting level.
const IndentUnit = "  "

// ErrNotMapping is returned by Marshal when the root is not a mapping.
var ErrNotMapping = errors.New("document root must be a mapping")

// Serialize renders the entries of a mapping value starting at indentLevel.
// Non-mapping values render as a single scalar line.
func Serialize(v plan.Value, indentLevel int) string {
	var sb strings.Builder
	if v.Kind == plan.KindMapping {
		writeMapping(&sb, v.Map, indentLevel)
	} else {
		sb.WriteString(indent(indentLevel))
		sb.WriteString(v.Text())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Marshal renders a configuration document.
func Marshal(v plan.Value) (string, error) {
	if v.Kind != plan.KindMapping {
		return "", ErrNotMapping
	}
	return Serialize(v, 0), nil
}

func writeMapping(sb *strings.Builder, m *plan.Map, level int) {
	m.Range(func(key string, v plan.Value) bool {
		writeEntry(sb, indent(level), key, v, level)
		return true
	})
}

// writeEntry writes "key: scalar" or "key:" followed by the nested block.
// prefix is everything before the key on its line; children of a nested
// value are written at childLevel+1.
func writeEntry(sb *strings.Builder, prefix, key string, v plan.Value, childLevel int) {
	sb.WriteString(prefix)
	sb.WriteString(key)
	switch v.Kind {
	case plan.KindMapping:
		if v.Map.Len() == 0 {
			sb.WriteString(": {}\n")
			return
		}
		sb.WriteString(":\n")
		writeMapping(sb, v.Map, childLevel+1)
	case plan.KindList:
		if len(v.List) == 0 {
			sb.WriteString(": []\n")
			return
		}
		sb.WriteString(":\n")
		writeList(sb, v.List, childLevel+1)
	default:
		sb.WriteString(": ")
		sb.WriteString(v.Text())
		sb.WriteByte('\n')
	}
}

// writeList writes items with their dash at level. A mapping element puts
// its first pair on the dash line and aligns the rest under it.
func writeList(sb *strings.Builder, items []plan.Value, level int) {
	dash := indent(level) + "- "
	for _, item := range items {
		switch {
		case item.Kind == plan.KindMapping && item.Map.Len() > 0:
			first := true
			item.Map.Range(func(key string, v plan.Value) bool {
				prefix := indent(level) + IndentUnit
				if first {
					prefix = dash
					first = false
				}
				writeEntry(sb, prefix, key, v, level+1)
				return true
			})
		case item.Kind == plan.KindList && len(item.List) > 0:
			sb.WriteString(indent(level))
			sb.WriteString("-\n")
			writeList(sb, item.List, level+1)
		case item.Kind == plan.KindMapping:
			sb.WriteString(dash)
			sb.WriteString("{}\n")
		case item.Kind == plan.KindList:
			sb.WriteString(dash)
			sb.WriteString("[]\n")
		default:
			sb.WriteString(dash)
			sb.WriteString(item.Text())
			sb.WriteByte('\n')
		}
	}
}

func indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat(IndentUnit, level)
}
