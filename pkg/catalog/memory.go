package catalog

import (
	"context"

	"tpgen-hq/tpgen/pkg/plan"
)

// MemoryCatalog serves a fixture from memory.
type MemoryCatalog struct {
	machines  []plan.Machine
	testCases []plan.TestCase
	machineIx map[int]int
	caseIx    map[int]int
}

// NewMemoryCatalog creates a catalog over f. A nil f selects the built-in
// fixture.
func NewMemoryCatalog(f *Fixture) *MemoryCatalog {
	if f == nil {
		f = DefaultFixture()
	}
	c := &MemoryCatalog{
		machines:  append([]plan.Machine(nil), f.Machines...),
		testCases: append([]plan.TestCase(nil), f.TestCases...),
		machineIx: make(map[int]int, len(f.Machines)),
		caseIx:    make(map[int]int, len(f.TestCases)),
	}
	for i, m := range c.machines {
		c.machineIx[m.ID] = i
	}
	for i, tc := range c.testCases {
		c.caseIx[tc.ID] = i
	}
	return c
}

func (c *MemoryCatalog) Machines(ctx context.Context) ([]plan.Machine, error) {
	return append([]plan.Machine(nil), c.machines...), nil
}

func (c *MemoryCatalog) Machine(ctx context.Context, id int) (plan.Machine, error) {
	i, ok := c.machineIx[id]
	if !ok {
		return plan.Machine{}, ErrNotFound
	}
	return c.machines[i], nil
}

func (c *MemoryCatalog) TestCases(ctx context.Context) ([]plan.TestCase, error) {
	return append([]plan.TestCase(nil), c.testCases...), nil
}

func (c *MemoryCatalog) TestCase(ctx context.Context, id int) (plan.TestCase, error) {
	i, ok := c.caseIx[id]
	if !ok {
		return plan.TestCase{}, ErrNotFound
	}
	return c.testCases[i], nil
}
