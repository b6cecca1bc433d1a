package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"tpgen-hq/tpgen/pkg/plan"
)

//go:embed fixture.yaml
var fixtureYAML []byte

// ErrNotFound is returned for an unknown machine or test case id.
var ErrNotFound = errors.New("not found")

// Catalog is a read-only source of machines and test cases.
type Catalog interface {
	Machines(ctx context.Context) ([]plan.Machine, error)
	Machine(ctx context.Context, id int) (plan.Machine, error)
	TestCases(ctx context.Context) ([]plan.TestCase, error)
	TestCase(ctx context.Context, id int) (plan.TestCase, error)
}

// Fixture is catalog content in load order.
type Fixture struct {
	Machines  []plan.Machine
	TestCases []plan.TestCase
}

type fixtureDoc struct {
	Machines []plan.Machine `yaml:"machines"`
	Groups   []struct {
		Type      string `yaml:"type"`
		Subgroups []struct {
			Name  string          `yaml:"name"`
			Cases []plan.TestCase `yaml:"cases"`
		} `yaml:"subgroups"`
	} `yaml:"groups"`
}

// ParseFixture reads a fixture document. Test cases inherit type and
// subgroup from their enclosing group.
func ParseFixture(data []byte) (*Fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc fixtureDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog fixture: %w", err)
	}

	f := &Fixture{Machines: doc.Machines}
	seen := make(map[int]bool)
	for _, m := range doc.Machines {
		if seen[m.ID] {
			return nil, fmt.Errorf("duplicate machine id %d", m.ID)
		}
		seen[m.ID] = true
	}
	seen = make(map[int]bool)
	for _, g := range doc.Groups {
		for _, sg := range g.Subgroups {
			for _, tc := range sg.Cases {
				if seen[tc.ID] {
					return nil, fmt.Errorf("duplicate test case id %d", tc.ID)
				}
				seen[tc.ID] = true
				tc.Type, tc.Subgroup = g.Type, sg.Name
				f.TestCases = append(f.TestCases, tc)
			}
		}
	}
	return f, nil
}

// DefaultFixture returns the built-in catalog content.
func DefaultFixture() *Fixture {
	f, err := ParseFixture(fixtureYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog fixture is invalid: %v", err))
	}
	return f
}

// BuildInput resolves the ids in sel against cat, keeping the selection
// order, and returns the builder input.
func BuildInput(ctx context.Context, cat Catalog, sel plan.Selection, now time.Time) (plan.Input, error) {
	in := plan.Input{Selection: sel, GeneratedAt: now}
	for _, id := range sel.MachineIDs {
		m, err := cat.Machine(ctx, id)
		if err != nil {
			return plan.Input{}, fmt.Errorf("machine %d: %w", id, err)
		}
		in.Machines = append(in.Machines, m)
	}
	for _, id := range sel.TestCaseIDs {
		tc, err := cat.TestCase(ctx, id)
		if err != nil {
			return plan.Input{}, fmt.Errorf("test case %d: %w", id, err)
		}
		in.TestCases = append(in.TestCases, tc)
	}
	return in, nil
}
