package plan

import (
	"strconv"
	"strings"
)

// GetNestedValue walks root along a dot-separated path.
// It reports false as soon as a segment is missing or the current node
// cannot be indexed. Numeric segments index into lists.
func GetNestedValue(root Value, path string) (Value, bool) {
	if path == "" {
		return Value{}, false
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch cur.Kind {
		case KindMapping:
			next, ok := cur.Map.Get(seg)
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindList:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.List) {
				return Value{}, false
			}
			cur = cur.List[i]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// HasKey reports whether a bare key exists anywhere in the mapping tree.
// Nested mappings are searched depth-first; list elements are not.
func HasKey(root Value, key string) bool {
	_, ok := FindKey(root, key)
	return ok
}

// FindKey returns the value of the first occurrence of a bare key,
// checking a mapping's own keys before descending into its children.
func FindKey(root Value, key string) (Value, bool) {
	if root.Kind != KindMapping {
		return Value{}, false
	}
	if v, ok := root.Map.Get(key); ok {
		return v, true
	}
	var (
		found Value
		ok    bool
	)
	root.Map.Range(func(_ string, child Value) bool {
		if child.Kind != KindMapping {
			return true
		}
		found, ok = FindKey(child, key)
		return !ok
	})
	return found, ok
}

// Resolve looks up a rule path. Dotted paths go through GetNestedValue;
// bare keys are looked up at the root first and then anywhere in the tree.
func Resolve(root Value, path string) (Value, bool) {
	if strings.Contains(path, ".") {
		return GetNestedValue(root, path)
	}
	return FindKey(root, path)
}

// IsDotted reports whether path addresses a value through nested keys.
func IsDotted(path string) bool {
	return strings.Contains(path, ".")
}
