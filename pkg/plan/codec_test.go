package plan

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValue_UnmarshalYAML_KeepsOrderAndTypes(t *testing.T) {
	src := `
zeta: 1
alpha:
  version: 6.1
  enabled: true
  nothing: ~
  when: 2024-01-02
items:
  - a
  - 2
`
	var v Value
	if err := yaml.Unmarshal([]byte(src), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	keys := v.Map.Keys()
	if keys[0] != "zeta" || keys[1] != "alpha" || keys[2] != "items" {
		t.Errorf("keys = %v, want document order", keys)
	}

	tests := []struct {
		path string
		kind Kind
	}{
		{"zeta", KindNumber},
		{"alpha.version", KindNumber},
		{"alpha.enabled", KindBool},
		{"alpha.nothing", KindNull},
		{"alpha.when", KindString},
		{"items", KindList},
		{"items.1", KindNumber},
	}
	for _, tt := range tests {
		got, ok := GetNestedValue(v, tt.path)
		if !ok {
			t.Errorf("%s missing", tt.path)
			continue
		}
		if got.Kind != tt.kind {
			t.Errorf("%s kind = %s, want %s", tt.path, got.Kind, tt.kind)
		}
	}
}

func TestValue_UnmarshalJSON_KeepsOrder(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"b":1,"a":{"y":true,"x":null},"c":["s",1.5]}`), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := v.Map.Keys(); got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Errorf("keys = %v, want [b a c]", got)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"b":1,"a":{"y":true,"x":null},"c":["s",1.5]}`; string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestValue_UnmarshalJSON_RejectsTrailingData(t *testing.T) {
	var v Value
	if err := v.UnmarshalJSON([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Error("UnmarshalJSON() should reject trailing data")
	}
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]interface{}{
		"b": []interface{}{1, "x"},
		"a": nil,
	})
	if err != nil {
		t.Fatalf("FromAny() error = %v", err)
	}
	if keys := v.Map.Keys(); keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v, want sorted", keys)
	}
	if _, err := FromAny(struct{}{}); err == nil {
		t.Error("FromAny() should reject unsupported types")
	}
}
