// Package locator maps rule failures back to document lines.
//
// LocateLine is a best-effort scan keyed on the bracketed path inside an
// error message. FindPath walks the indentation structure and resolves a
// full dotted path, list indices included.
package locator

import (
	"regexp"
	"strconv"
	"strings"
)

var keyPathPattern = regexp.MustCompile(`\[([^\]]+)\]`)

// ExtractKeyPath returns the first bracketed key path in msg, e.g.
// "environment.os.os" from "E001 Unsupported: missing mandatory key [environment.os.os]".
func ExtractKeyPath(msg string) (string, bool) {
	m := keyPathPattern.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LocateLine returns the 1-based line of the key named in errorCode.
// The last path segment is tried first; if no line defines it, the other
// segments are tried from the end of the path backwards.
func LocateLine(text, errorCode string) (int, bool) {
	if text == "" {
		return 0, false
	}
	path, ok := ExtractKeyPath(errorCode)
	if !ok {
		return 0, false
	}

	lines := strings.Split(text, "\n")
	segs := strings.Split(path, ".")
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] == "" {
			continue
		}
		pattern := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(segs[i]) + `\s*:`)
		for n, line := range lines {
			if pattern.MatchString(line) {
				return n + 1, true
			}
		}
	}
	return 0, false
}

type entry struct {
	num    int    // 1-based line number
	indent int    // column of the first non-blank character
	dash   bool   // line is a list item
	keyCol int    // column of the key text, after any "- "
	key    string // text before the first colon, "" when none
}

func scan(text string) []entry {
	var out []entry
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		e := entry{num: i + 1, indent: len(line) - len(strings.TrimLeft(line, " \t"))}
		e.keyCol = e.indent
		body := trimmed
		if body == "-" || strings.HasPrefix(body, "- ") {
			e.dash = true
			rest := strings.TrimLeft(strings.TrimPrefix(body, "-"), " ")
			e.keyCol = e.indent + (len(body) - len(rest))
			body = rest
		}
		if colon := strings.IndexByte(body, ':'); colon >= 0 {
			e.key = strings.TrimSpace(body[:colon])
		}
		out = append(out, e)
	}
	return out
}

// FindPath returns the line defining a dotted path such as
// "hardware.machines.1.name". Each segment is looked up only inside the
// block of the previous one.
func FindPath(text, path string) (int, bool) {
	if text == "" || path == "" {
		return 0, false
	}
	entries := scan(text)

	var (
		parentCol = -1 // column of the enclosing key or list item
		start     = 0  // first entry of the enclosing block
		inItem    = false
		line      = 0
	)

	for _, seg := range strings.Split(path, ".") {
		idx, isIndex := listIndex(seg)
		found := false
		childCol := -1
		count := -1

		for j := start; j < len(entries); j++ {
			e := entries[j]
			first := inItem && j == start
			if !first && endsBlock(e, parentCol, isIndex) {
				break
			}

			if isIndex {
				if !e.dash {
					continue
				}
				if childCol < 0 {
					childCol = e.indent
				}
				if e.indent != childCol {
					continue
				}
				count++
				if count == idx {
					parentCol, start, inItem, line = e.indent, j, true, e.num
					found = true
					break
				}
				continue
			}

			col := e.keyCol
			if childCol < 0 {
				childCol = col
			}
			if col == childCol && e.key == seg {
				parentCol, start, inItem, line = col, j+1, false, e.num
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return line, true
}

func endsBlock(e entry, parentCol int, wantItem bool) bool {
	if e.indent < parentCol {
		return true
	}
	if e.indent == parentCol {
		// A sequence may sit at the same column as its key.
		return !(wantItem && e.dash)
	}
	return false
}

func listIndex(seg string) (int, bool) {
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
