package main

import (
	"encoding/json"
	"strings"
	"testing"

	"tpgen-hq/tpgen/pkg/check"
)

func setValidateFlags(file, dir string, all bool, format string) {
	validateFlags.file = file
	validateFlags.dir = dir
	validateFlags.strict = false
	validateFlags.all = all
	validateFlags.format = format
}

func TestValidateDocuments(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "a_valid.yaml", validPlan)
	xeon := writeFile(t, dir, "b_xeon.yaml", strings.Replace(validPlan, "cpu: Ryzen 9", "cpu: Intel Xeon", 1))

	t.Run("valid file", func(t *testing.T) {
		setValidateFlags(valid, "", false, "text")
		cmd, out := testCommand(t)
		if err := validateDocuments(cmd, nil); err != nil {
			t.Fatalf("validateDocuments() error = %v\n%s", err, out.String())
		}
		if !strings.Contains(out.String(), "PASS "+valid) {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("rule failure is located", func(t *testing.T) {
		setValidateFlags(xeon, "", false, "text")
		cmd, out := testCommand(t)
		wantBlocked(t, validateDocuments(cmd, nil))
		for _, want := range []string{"FAIL " + xeon + " [compatibility]", "line 5: E102", "key: hardware.cpu"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("output missing %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("directory as JSON", func(t *testing.T) {
		setValidateFlags("", dir, false, "json")
		cmd, out := testCommand(t)
		wantBlocked(t, validateDocuments(cmd, nil))

		var results []struct {
			File   string        `json:"file"`
			Report *check.Report `json:"report"`
		}
		if err := json.Unmarshal(out.Bytes(), &results); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(results) != 2 || !results[0].Report.Valid || results[1].Report.Line != 5 {
			t.Errorf("results = %+v", results)
		}
		if results[1].Report.Verdict == "" || !strings.HasPrefix(results[1].Report.Verdict, "False:E102") {
			t.Errorf("verdict = %q", results[1].Report.Verdict)
		}
	})
}

func TestValidateAllViolations(t *testing.T) {
	doc := strings.NewReplacer("cpu: Ryzen 9", "cpu: Intel Xeon", "gpu: Radeon Pro W7800", "gpu: GeForce").Replace(validPlan)
	setValidateFlags(writeFile(t, t.TempDir(), "plan.yaml", doc), "", true, "text")
	cmd, out := testCommand(t)

	wantBlocked(t, validateDocuments(cmd, nil))
	if strings.Count(out.String(), "E102") < 2 {
		t.Errorf("expected both violations:\n%s", out.String())
	}
}

func TestValidateRecordsHistory(t *testing.T) {
	dbPath := t.TempDir() + "/history.db"
	useConfig(t, "history:\n  enabled: true\n  sqlite_path: "+dbPath+"\n")
	setValidateFlags(writeFile(t, t.TempDir(), "plan.yaml", validPlan), "", false, "text")
	cmd, _ := testCommand(t)
	if err := validateDocuments(cmd, nil); err != nil {
		t.Fatal(err)
	}

	historyFlags.format = "json"
	historyFlags.since = 0
	historyFlags.source = ""
	historyFlags.failed = false
	historyFlags.limit = 10
	cmd, out := testCommand(t)
	if err := listHistory(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"verdict": "True:0"`) || !strings.Contains(out.String(), "plan.yaml") {
		t.Errorf("history = %s", out.String())
	}
}
