package rules

import (
	"fmt"
	"strings"

	"tpgen-hq/tpgen/pkg/plan"
)

// Kind discriminates the rule variants.
type Kind string

const (
	KindRequired Kind = "required" // E001: path must be defined
	KindNonEmpty Kind = "nonEmpty" // E002: path must be defined and non-empty
	KindType     Kind = "type"     // E101: defined value must have a type
	KindRange    Kind = "range"    // E102: defined value must be whitelisted
	KindCombo    Kind = "combo"    // E300: conditions must not all hold at once
)

// Error codes reported by the engine.
const (
	CodeOK          = "0"
	CodeInvalidData = "E000"
	CodeRequired    = "E001"
	CodeNonEmpty    = "E002"
	CodeType        = "E101"
	CodeRange       = "E102"
	CodeCombo       = "E300"
	CodeInternal    = "E999"
)

// stages lists kinds in evaluation order.
var stages = []Kind{KindRequired, KindNonEmpty, KindType, KindRange, KindCombo}

// Code returns the error code a failing rule of kind k reports.
func (k Kind) Code() string {
	switch k {
	case KindRequired:
		return CodeRequired
	case KindNonEmpty:
		return CodeNonEmpty
	case KindType:
		return CodeType
	case KindRange:
		return CodeRange
	case KindCombo:
		return CodeCombo
	}
	return CodeInternal
}

func (k Kind) stage() int {
	for i, s := range stages {
		if s == k {
			return i
		}
	}
	return -1
}

// Value types accepted by type rules.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInt     = "int"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeIPv4    = "ipv4"
)

var knownTypes = map[string]bool{
	TypeString: true, TypeNumber: true, TypeInt: true, TypeBoolean: true,
	TypeArray: true, TypeObject: true, TypeIPv4: true,
}

// Rule is one compatibility check. Which fields apply depends on Kind:
// Path for every kind but combo, Type for type rules, Allowed for range
// rules, and When for combo rules (the conditions) or required rules
// (only enforce while the conditions hold).
type Rule struct {
	Kind        Kind         `yaml:"kind" json:"kind"`
	Name        string       `yaml:"name,omitempty" json:"name,omitempty"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Path        string       `yaml:"path,omitempty" json:"path,omitempty"`
	Type        string       `yaml:"type,omitempty" json:"type,omitempty"`
	Allowed     []plan.Value `yaml:"allowed,omitempty" json:"allowed,omitempty"`
	When        plan.Value   `yaml:"when,omitempty" json:"when,omitempty"`
}

// Condition is a single path constraint. A list Expected means any of.
type Condition struct {
	Path     string
	Expected plan.Value
}

// Conditions returns the When clause in declaration order.
func (r Rule) Conditions() []Condition {
	if r.When.Kind != plan.KindMapping {
		return nil
	}
	out := make([]Condition, 0, r.When.Map.Len())
	r.When.Map.Range(func(k string, v plan.Value) bool {
		out = append(out, Condition{Path: k, Expected: v})
		return true
	})
	return out
}

// Paths returns the normalized rule path, if any, followed by its
// condition paths.
func (r Rule) Paths() []string {
	var out []string
	if r.Path != "" {
		out = append(out, NormalizePath(r.Path))
	}
	for _, c := range r.Conditions() {
		out = append(out, NormalizePath(c.Path))
	}
	return out
}

// Validate reports a malformed rule.
func (r Rule) Validate() error {
	switch r.Kind {
	case KindRequired, KindNonEmpty:
		if r.Path == "" {
			return fmt.Errorf("%s rule needs a path", r.Kind)
		}
	case KindType:
		if r.Path == "" {
			return fmt.Errorf("type rule needs a path")
		}
		if !knownTypes[strings.ToLower(r.Type)] {
			return fmt.Errorf("type rule for %s has unknown type %q", r.Path, r.Type)
		}
	case KindRange:
		if r.Path == "" {
			return fmt.Errorf("range rule needs a path")
		}
		if len(r.Allowed) == 0 {
			return fmt.Errorf("range rule for %s has an empty whitelist", r.Path)
		}
	case KindCombo:
		if len(r.Conditions()) == 0 {
			return fmt.Errorf("combo rule %q has no conditions", r.Name)
		}
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	if !r.When.IsNull() && r.When.Kind != plan.KindMapping {
		return fmt.Errorf("when clause of %s rule must be a mapping", r.Kind)
	}
	for _, c := range r.Conditions() {
		if HasWildcard(c.Path) {
			return fmt.Errorf("condition path %s must not contain wildcards", c.Path)
		}
	}
	return nil
}

// AllowedText renders the whitelist as "a, b, c".
func (r Rule) AllowedText() string {
	parts := make([]string, len(r.Allowed))
	for i, v := range r.Allowed {
		parts[i] = v.Text()
	}
	return strings.Join(parts, ", ")
}

// Required returns a required-key rule.
func Required(path string) Rule { return Rule{Kind: KindRequired, Path: path} }

// RequiredWhen returns a required-key rule that only applies while every
// condition holds.
func RequiredWhen(path string, when *plan.Map) Rule {
	return Rule{Kind: KindRequired, Path: path, When: plan.Mapping(when)}
}

// NonEmpty returns a non-empty rule.
func NonEmpty(path string) Rule { return Rule{Kind: KindNonEmpty, Path: path} }

// TypeOf returns a value type rule.
func TypeOf(path, typ string) Rule { return Rule{Kind: KindType, Path: path, Type: typ} }

// OneOf returns a whitelist rule over string values.
func OneOf(path string, allowed ...string) Rule {
	vals := make([]plan.Value, len(allowed))
	for i, a := range allowed {
		vals[i] = plan.String(a)
	}
	return Rule{Kind: KindRange, Path: path, Allowed: vals}
}

// Combo returns an invalid-combination rule.
func Combo(name string, when *plan.Map) Rule {
	return Rule{Kind: KindCombo, Name: name, When: plan.Mapping(when)}
}
