package plan

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Input is a Selection with its catalog facts already resolved.
// Machines and TestCases follow the order of the Selection.
type Input struct {
	Selection   Selection
	Machines    []Machine
	TestCases   []TestCase
	GeneratedAt time.Time
}

// BuildError reports a Selection that cannot produce a consistent configuration.
type BuildError struct {
	Field   string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Builder turns resolved selections into configuration trees.
type Builder struct {
	ids *IDAllocator
}

// NewBuilder creates a builder that numbers custom test cases with ids.
// A nil allocator gets a fresh one starting at FirstCustomID.
func NewBuilder(ids *IDAllocator) *Builder {
	if ids == nil {
		ids = NewIDAllocator(FirstCustomID)
	}
	return &Builder{ids: ids}
}

// Build assembles the configuration tree. Test suites are numbered by
// position, and every per-machine environment entry must refer to a
// selected machine.
func (b *Builder) Build(in Input) (Value, error) {
	sel := in.Selection

	selected := make(map[int]bool, len(in.Machines))
	for _, m := range in.Machines {
		selected[m.ID] = true
	}
	if err := checkMachineRefs("environment.os.machines", sel.OS.Method, keysOf(sel.OS.PerMachine), selected); err != nil {
		return Value{}, err
	}
	if err := checkMachineRefs("environment.kernel.machines", sel.Kernel.Method, keysOf(sel.Kernel.PerMachine), selected); err != nil {
		return Value{}, err
	}

	root := NewMap()
	root.Set("metadata", Mapping(NewMap().
		Set("generated", String(in.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000Z"))).
		Set("version", String(SchemaVersion))))

	machines := make([]Value, 0, len(in.Machines))
	for _, m := range in.Machines {
		machines = append(machines, Mapping(NewMap().
			Set("id", Int(m.ID)).
			Set("name", String(m.Name)).
			Set("specs", Mapping(NewMap().
				Set("motherboard", String(m.Motherboard)).
				Set("gpu", String(m.GPU)).
				Set("cpu", String(m.CPU))))))
	}
	root.Set("hardware", Mapping(NewMap().
		Set("cpu", optString(sel.CPU)).
		Set("gpu", optString(sel.GPU)).
		Set("machines", List(machines...))))

	root.Set("environment", Mapping(NewMap().
		Set("os", b.osSection(sel.OS, in.Machines)).
		Set("kernel", b.kernelSection(sel.Kernel, in.Machines))))

	root.Set("firmware", Mapping(NewMap().
		Set("gpu_version", optString(sel.Firmware.GPUVersion)).
		Set("comparison", Bool(sel.Firmware.Comparison))))

	suites := make([]TestCase, 0, len(in.TestCases)+len(sel.CustomTestCases))
	suites = append(suites, in.TestCases...)
	for _, c := range sel.CustomTestCases {
		suites = append(suites, TestCase{
			ID:          b.ids.Next(),
			Name:        c.Name,
			Description: c.Description,
			Type:        TypeCustom,
			Subgroup:    c.Group,
		})
	}
	root.Set("test_suites", TestSuites(suites))

	return Mapping(root), nil
}

// TestSuites renders test cases in the given order, numbering them 1..n.
func TestSuites(cases []TestCase) Value {
	items := make([]Value, 0, len(cases))
	for i, tc := range cases {
		items = append(items, Mapping(NewMap().
			Set("id", Int(tc.ID)).
			Set("name", String(tc.Name)).
			Set("description", String(tc.Description)).
			Set("type", String(tc.Type)).
			Set("subgroup", String(tc.Subgroup)).
			Set("order", Int(i+1))))
	}
	return List(items...)
}

// Renumber rewrites the order field of every test suite to match its
// position. It returns a copy; v is not modified.
func Renumber(v Value) Value {
	out := v.Clone()
	suites, ok := GetNestedValue(out, "test_suites")
	if !ok || suites.Kind != KindList {
		return out
	}
	for i, item := range suites.List {
		if item.Kind == KindMapping {
			item.Map.Set("order", Int(i+1))
		}
	}
	return out
}

func (b *Builder) osSection(c OSChoice, machines []Machine) Value {
	if c.Method != MethodIndividual {
		return Mapping(NewMap().
			Set("method", String(orSame(c.Method))).
			Set("os", optString(c.Same.OS)).
			Set("deployment", optString(c.Same.Deployment)))
	}
	per := NewMap()
	for _, m := range machines {
		s, ok := c.PerMachine[m.ID]
		entry := NewMap()
		if ok {
			entry.Set("os", optString(s.OS)).Set("deployment", optString(s.Deployment))
		} else {
			entry.Set("os", Null()).Set("deployment", Null())
		}
		per.Set(strconv.Itoa(m.ID), Mapping(entry))
	}
	return Mapping(NewMap().
		Set("method", String(MethodIndividual)).
		Set("machines", Mapping(per)))
}

func (b *Builder) kernelSection(c KernelChoice, machines []Machine) Value {
	if c.Method != MethodIndividual {
		return Mapping(NewMap().
			Set("method", String(orSame(c.Method))).
			Set("type", optString(c.Same.Type)).
			Set("version", optString(c.Same.Version)))
	}
	per := NewMap()
	for _, m := range machines {
		s, ok := c.PerMachine[m.ID]
		entry := NewMap()
		if ok {
			entry.Set("type", optString(s.Type)).Set("version", optString(s.Version))
		} else {
			entry.Set("type", Null()).Set("version", Null())
		}
		per.Set(strconv.Itoa(m.ID), Mapping(entry))
	}
	return Mapping(NewMap().
		Set("method", String(MethodIndividual)).
		Set("machines", Mapping(per)))
}

func checkMachineRefs(field, method string, ids []int, selected map[int]bool) error {
	if method != MethodIndividual {
		return nil
	}
	for _, id := range ids {
		if !selected[id] {
			return &BuildError{Field: field, Message: fmt.Sprintf("machine %d is not part of hardware.machines", id)}
		}
	}
	return nil
}

func keysOf[T any](m map[int]T) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func orSame(method string) string {
	if method == "" {
		return MethodSame
	}
	return method
}

// optString maps an unset form field to null.
func optString(s string) Value {
	if s == "" {
		return Null()
	}
	return String(s)
}
