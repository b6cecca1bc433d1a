package catalog

import (
	"context"
	"testing"

	"gopkg.in/yaml.v3"

	"tpgen-hq/tpgen/pkg/plan"
)

func parseDoc(t *testing.T, src string) plan.Value {
	t.Helper()
	var v plan.Value
	if err := yaml.Unmarshal([]byte(src), &v); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	return v
}

func TestCompatibility(t *testing.T) {
	doc := parseDoc(t, `hardware:
  cpu: EPYC
  gpu: Radeon RX 7900 Series
environment:
  os:
    method: same
firmware:
  gpu_version: null
test_suites: []
`)
	r, err := Compatibility(context.Background(), NewMemoryCatalog(nil), doc)
	if err != nil {
		t.Fatalf("Compatibility() error = %v", err)
	}

	var ids []int
	for _, m := range r.Compatible {
		ids = append(ids, m.ID)
	}
	if len(ids) != 3 || ids[0] != 7 || ids[1] != 12 || ids[2] != 15 {
		t.Errorf("compatible ids = %v, want [7 12 15]", ids)
	}
	if len(r.Incompatible) != 12 {
		t.Errorf("incompatible = %d, want 12", len(r.Incompatible))
	}
	first := r.Incompatible[0]
	if first.Machine.ID != 1 || len(first.Reasons) != 1 ||
		first.Reasons[0] != "CPU mismatch: required EPYC, found Ryzen Threadripper" {
		t.Errorf("first incompatible = %+v", first)
	}
	if len(r.MissingConfigurations) != 0 {
		t.Errorf("missing = %v", r.MissingConfigurations)
	}

	want := []string{
		"Kernel configuration is not specified",
		"GPU firmware version is not specified",
		"No test suites defined",
	}
	if len(r.Warnings) != len(want) {
		t.Fatalf("warnings = %v, want %v", r.Warnings, want)
	}
	for i := range want {
		if r.Warnings[i] != want[i] {
			t.Errorf("warnings[%d] = %q, want %q", i, r.Warnings[i], want[i])
		}
	}
}

func TestCompatibility_MissingHardware(t *testing.T) {
	doc := parseDoc(t, "hardware:\n  cpu: Ryzen 7\n")
	r, err := Compatibility(context.Background(), NewMemoryCatalog(nil), doc)
	if err != nil {
		t.Fatalf("Compatibility() error = %v", err)
	}
	if len(r.MissingConfigurations) != 1 {
		t.Errorf("missing = %v", r.MissingConfigurations)
	}
	// Only the CPU constrains the match: machines 3, 8 and 14.
	if len(r.Compatible) != 3 {
		t.Errorf("compatible = %d, want 3", len(r.Compatible))
	}
}
