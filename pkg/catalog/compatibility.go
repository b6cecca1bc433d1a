package catalog

import (
	"context"
	"fmt"

	"tpgen-hq/tpgen/pkg/plan"
)

// Incompatible is a machine that does not meet a plan's hardware
// requirements.
type Incompatible struct {
	Machine plan.Machine `json:"machine"`
	Reasons []string     `json:"reasons"`
}

// Report is the outcome of matching a plan against the catalog.
type Report struct {
	Compatible            []plan.Machine `json:"compatibleMachines"`
	Incompatible          []Incompatible `json:"incompatibleMachines"`
	MissingConfigurations []string       `json:"missingConfigurations"`
	Warnings              []string       `json:"warnings"`
}

// Compatibility matches every catalog machine against the CPU and GPU a
// plan requires. An unset requirement matches any machine.
func Compatibility(ctx context.Context, cat Catalog, doc plan.Value) (*Report, error) {
	machines, err := cat.Machines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}

	cpu := textAt(doc, "hardware.cpu")
	gpu := textAt(doc, "hardware.gpu")
	r := &Report{
		Compatible:            []plan.Machine{},
		Incompatible:          []Incompatible{},
		MissingConfigurations: []string{},
		Warnings:              []string{},
	}
	if cpu == "" || gpu == "" {
		r.MissingConfigurations = append(r.MissingConfigurations,
			"Hardware configuration (CPU/GPU) is missing in the YAML file")
	}

	for _, m := range machines {
		var reasons []string
		if cpu != "" && m.CPU != cpu {
			reasons = append(reasons, fmt.Sprintf("CPU mismatch: required %s, found %s", cpu, m.CPU))
		}
		if gpu != "" && m.GPU != gpu {
			reasons = append(reasons, fmt.Sprintf("GPU mismatch: required %s, found %s", gpu, m.GPU))
		}
		if len(reasons) == 0 {
			r.Compatible = append(r.Compatible, m)
			continue
		}
		r.Incompatible = append(r.Incompatible, Incompatible{Machine: m, Reasons: reasons})
	}

	if !present(doc, "environment.os") {
		r.Warnings = append(r.Warnings, "OS configuration is not specified")
	}
	if !present(doc, "environment.kernel") {
		r.Warnings = append(r.Warnings, "Kernel configuration is not specified")
	}
	if textAt(doc, "firmware.gpu_version") == "" {
		r.Warnings = append(r.Warnings, "GPU firmware version is not specified")
	}
	if suites, ok := plan.GetNestedValue(doc, "test_suites"); !ok || suites.IsEmpty() {
		r.Warnings = append(r.Warnings, "No test suites defined")
	}
	return r, nil
}

// textAt returns the scalar text at path, or "" when it is unset, null,
// or not a scalar.
func textAt(doc plan.Value, path string) string {
	v, ok := plan.GetNestedValue(doc, path)
	if !ok || v.IsNull() || !v.IsScalar() {
		return ""
	}
	return v.Text()
}

func present(doc plan.Value, path string) bool {
	v, ok := plan.GetNestedValue(doc, path)
	return ok && !v.IsNull()
}
