package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant of Value is populated.
// The names double as the type names reported by the rule engine.
type Kind string

const (
	KindNull    Kind = "null"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBool    Kind = "boolean"
	KindList    Kind = "array"
	KindMapping Kind = "object"
)

// Value is a node of a configuration tree.
// Exactly one payload field is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	List []Value
	Map  *Map
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// String returns a string scalar.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a numeric scalar.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Int returns a numeric scalar from an integer.
func Int(i int) Value { return Value{Kind: KindNumber, Num: float64(i)} }

// Bool returns a boolean scalar.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// List returns a list value holding items in order.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindList, List: items}
}

// Mapping wraps an ordered map. A nil map yields an empty mapping.
func Mapping(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{Kind: KindMapping, Map: m}
}

// IsScalar reports whether v is neither a list nor a mapping.
func (v Value) IsScalar() bool {
	return v.Kind != KindList && v.Kind != KindMapping
}

// IsNull reports whether v is null. The zero Value is null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull || v.Kind == ""
}

// IsEmpty reports whether v counts as empty: null, a blank string,
// an empty list or an empty mapping.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	case KindList:
		return len(v.List) == 0
	case KindMapping:
		return v.Map.Len() == 0
	case KindNumber, KindBool:
		return false
	default:
		return true
	}
}

// TypeName returns the runtime type name of v.
func (v Value) TypeName() string {
	if v.Kind == "" {
		return string(KindNull)
	}
	return string(v.Kind)
}

// Text renders a scalar the way it appears in a document.
// Lists and mappings render in a compact bracketed form.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return FormatNumber(v.Num)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.Text()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMapping:
		parts := make([]string, 0, v.Map.Len())
		v.Map.Range(func(k string, item Value) bool {
			parts = append(parts, k+": "+item.Text())
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "null"
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return v.Text()
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindList:
		items := make([]Value, len(v.List))
		for i, item := range v.List {
			items[i] = item.Clone()
		}
		return Value{Kind: KindList, List: items}
	case KindMapping:
		return Value{Kind: KindMapping, Map: v.Map.Clone()}
	default:
		return v
	}
}

// Equal reports deep, type-strict equality.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindBool:
		return v.Bool == o.Bool
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return v.Map.Equal(o.Map)
	}
	return false
}

// LooseEqual compares two scalars with numeric/string coercion:
// a number equals a string that parses to the same number, and a
// boolean equals the numbers 1 and 0 and their string forms.
func LooseEqual(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Kind == b.Kind {
		return a.Equal(b)
	}
	if !a.IsScalar() || !b.IsScalar() {
		return false
	}
	an, aok := a.numeric()
	bn, bok := b.numeric()
	return aok && bok && an == bn
}

func (v Value) numeric() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// FormatNumber renders f in its shortest decimal form without exponent.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// GoString helps test failure output.
func (v Value) GoString() string {
	return fmt.Sprintf("plan.Value{%s %s}", v.TypeName(), v.Text())
}
