package rules

import (
	"math"
	"net/netip"
	"strconv"
	"strings"

	"tpgen-hq/tpgen/pkg/plan"
)

// Wildcard is the path segment that matches every key of a mapping or
// every element of a list.
const Wildcard = "*"

// target is one concrete location a rule path resolved to.
type target struct {
	path    string
	value   plan.Value
	defined bool
}

// NormalizePath rewrites "a[].b" as "a.*.b".
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "[]", "."+Wildcard)
	return strings.ReplaceAll(path, "..", ".")
}

// HasWildcard reports whether path expands over several locations.
func HasWildcard(path string) bool {
	for _, seg := range strings.Split(NormalizePath(path), ".") {
		if seg == Wildcard {
			return true
		}
	}
	return false
}

// expand resolves path against root. Paths without wildcards yield exactly
// one target. With wildcards, every existing key or element is visited; a
// location missing below the last wildcard yields an undefined target, while
// a missing prefix yields nothing.
func expand(root plan.Value, path string) []target {
	path = NormalizePath(path)
	if !HasWildcard(path) {
		v, ok := plan.Resolve(root, path)
		return []target{{path: path, value: v, defined: ok}}
	}

	segs := strings.Split(path, ".")
	lastStar := 0
	for i, s := range segs {
		if s == Wildcard {
			lastStar = i
		}
	}

	var out []target
	var walk func(cur plan.Value, i int, prefix []string)
	walk = func(cur plan.Value, i int, prefix []string) {
		if i == len(segs) {
			out = append(out, target{path: strings.Join(prefix, "."), value: cur, defined: true})
			return
		}
		seg := segs[i]
		if seg == Wildcard {
			switch cur.Kind {
			case plan.KindMapping:
				cur.Map.Range(func(k string, child plan.Value) bool {
					walk(child, i+1, appendSeg(prefix, k))
					return true
				})
			case plan.KindList:
				for idx, child := range cur.List {
					walk(child, i+1, appendSeg(prefix, strconv.Itoa(idx)))
				}
			}
			return
		}
		next, ok := plan.GetNestedValue(cur, seg)
		if !ok {
			if i > lastStar {
				full := append(appendSeg(prefix, seg), segs[i+1:]...)
				out = append(out, target{path: strings.Join(full, ".")})
			}
			return
		}
		walk(next, i+1, appendSeg(prefix, seg))
	}
	walk(root, 0, nil)
	return out
}

func appendSeg(prefix []string, seg string) []string {
	out := make([]string, len(prefix), len(prefix)+1)
	copy(out, prefix)
	return append(out, seg)
}

// matches reports whether actual satisfies a condition. A list expected
// value matches when any element matches.
func matches(actual, expected plan.Value) bool {
	if expected.Kind == plan.KindList {
		for _, e := range expected.List {
			if plan.LooseEqual(actual, e) {
				return true
			}
		}
		return false
	}
	return plan.LooseEqual(actual, expected)
}

// conditionsHold evaluates every condition of r against root and returns
// the matched "[path]=\"value\"" pairs in declaration order.
func conditionsHold(root plan.Value, conds []Condition) ([]string, bool) {
	pairs := make([]string, 0, len(conds))
	for _, c := range conds {
		actual, ok := plan.Resolve(root, c.Path)
		if !ok || !matches(actual, c.Expected) {
			return nil, false
		}
		pairs = append(pairs, "["+c.Path+"]=\""+actual.Text()+"\"")
	}
	return pairs, true
}

// hasType reports whether v is of the named rule type.
func hasType(v plan.Value, typ string) bool {
	switch strings.ToLower(typ) {
	case TypeString:
		return v.Kind == plan.KindString
	case TypeNumber:
		return v.Kind == plan.KindNumber
	case TypeInt:
		return v.Kind == plan.KindNumber && v.Num == math.Trunc(v.Num) && !math.IsInf(v.Num, 0)
	case TypeBoolean:
		return v.Kind == plan.KindBool
	case TypeArray:
		return v.Kind == plan.KindList
	case TypeObject:
		return v.Kind == plan.KindMapping
	case TypeIPv4:
		if v.Kind != plan.KindString {
			return false
		}
		addr, err := netip.ParseAddr(strings.TrimSpace(v.Str))
		return err == nil && addr.Is4()
	}
	return false
}

// inWhitelist uses exact equality.
func inWhitelist(v plan.Value, allowed []plan.Value) bool {
	for _, a := range allowed {
		if v.Equal(a) {
			return true
		}
	}
	return false
}
