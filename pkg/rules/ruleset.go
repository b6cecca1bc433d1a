package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// RuleSet is an ordered collection of rules loaded as data.
type RuleSet struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	Rules   []Rule `yaml:"rules" json:"rules"`
}

// LoadError describes why a rule set could not be loaded.
type LoadError struct {
	Source string // file path or other origin, may be empty
	Index  int    // rule index, -1 when the whole document failed
	Err    error
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	sb.WriteString("rule set")
	if e.Source != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Source)
	}
	if e.Index >= 0 {
		sb.WriteString(fmt.Sprintf(": rule %d", e.Index))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrNoRules is returned for a rule set document without rules.
var ErrNoRules = errors.New("no rules defined")

// Validate checks every rule.
func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return &LoadError{Index: -1, Err: ErrNoRules}
	}
	for i, r := range rs.Rules {
		if err := r.Validate(); err != nil {
			return &LoadError{Index: i, Err: err}
		}
	}
	return nil
}

// ByKind returns the rules of kind k in declaration order.
func (rs *RuleSet) ByKind(k Kind) []Rule {
	var out []Rule
	for _, r := range rs.Rules {
		if r.Kind == k {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of rules per kind.
func (rs *RuleSet) Count() map[Kind]int {
	out := make(map[Kind]int, len(stages))
	for _, r := range rs.Rules {
		out[r.Kind]++
	}
	return out
}

// LoadBytes parses and validates a YAML rule set.
func LoadBytes(data []byte, source string) (*RuleSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rs RuleSet
	if err := dec.Decode(&rs); err != nil {
		return nil, &LoadError{Source: source, Index: -1, Err: err}
	}
	if err := rs.Validate(); err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = source
		}
		return nil, err
	}
	return &rs, nil
}

// LoadFile reads a YAML rule set from path.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule set: %w", err)
	}
	return LoadBytes(data, path)
}

// Default returns the built-in rule set.
func Default() *RuleSet {
	rs, err := LoadBytes(defaultRulesYAML, "default")
	if err != nil {
		panic(fmt.Sprintf("built-in rule set is invalid: %v", err))
	}
	return rs
}

// DefaultYAML returns the built-in rule set document.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultRulesYAML))
	copy(out, defaultRulesYAML)
	return out
}
