package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	rs := Default()
	counts := rs.Count()
	for _, k := range stages {
		if counts[k] == 0 {
			t.Errorf("default rule set has no %s rules", k)
		}
	}
	if got := len(rs.ByKind(KindCombo)); got != 2 {
		t.Errorf("ByKind(combo) = %d rules, want 2", got)
	}
}

func TestLoadBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"no rules", "name: empty\nrules: []\n", "no rules defined"},
		{"unknown field", "rules:\n  - kind: required\n    paht: a.b\n", "paht"},
		{"unknown kind", "rules:\n  - kind: maybe\n    path: a\n", `unknown rule kind "maybe"`},
		{"unknown type", "rules:\n  - kind: type\n    path: a\n    type: float\n", `unknown type "float"`},
		{"empty whitelist", "rules:\n  - kind: range\n    path: a\n", "empty whitelist"},
		{"combo without conditions", "rules:\n  - kind: combo\n    name: c\n", "no conditions"},
		{"wildcard condition", "rules:\n  - kind: combo\n    when:\n      a.*.b: 1\n", "wildcards"},
		{"scalar when", "rules:\n  - kind: required\n    path: a\n    when: yes\n", "must be a mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.src), "test.yaml")
			if err == nil {
				t.Fatal("LoadBytes() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadBytes() error = %v, want it to contain %q", err, tt.wantErr)
			}
			var le *LoadError
			if !errors.As(err, &le) || le.Source != "test.yaml" {
				t.Errorf("LoadBytes() error %T does not carry the source", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	src := "name: lab\nrules:\n  - kind: required\n    path: hardware.cpu\n  - kind: range\n    path: hardware.cpu\n    allowed: [EPYC]\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	rs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if rs.Name != "lab" || len(rs.Rules) != 2 {
		t.Errorf("LoadFile() = %+v", rs)
	}
	if got := rs.Rules[1].AllowedText(); got != "EPYC" {
		t.Errorf("AllowedText() = %q", got)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) error = nil")
	}
}

func TestDefaultYAML_IsCopy(t *testing.T) {
	a := DefaultYAML()
	a[0] = '#'
	if DefaultYAML()[0] == '#' {
		t.Error("DefaultYAML() exposes the embedded document")
	}
}
