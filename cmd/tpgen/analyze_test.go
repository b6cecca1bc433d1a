package main

import (
	"encoding/json"
	"strings"
	"testing"

	"tpgen-hq/tpgen/pkg/catalog"
)

const epycPlan = "hardware:\n  cpu: EPYC\n  gpu: Radeon Pro W7800\n"

func TestAnalyzeDocument(t *testing.T) {
	file := writeFile(t, t.TempDir(), "plan.yaml", epycPlan)

	t.Run("text", func(t *testing.T) {
		analyzeFlags.file, analyzeFlags.format = file, "text"
		cmd, out := testCommand(t)
		if err := analyzeDocument(cmd, nil); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "Compatible: 1 machine(s)") || !strings.Contains(out.String(), "Machine D") {
			t.Errorf("output = %s", out.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		analyzeFlags.file, analyzeFlags.format = file, "json"
		cmd, out := testCommand(t)
		if err := analyzeDocument(cmd, nil); err != nil {
			t.Fatal(err)
		}
		var rep catalog.Report
		if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
			t.Fatal(err)
		}
		if len(rep.Compatible) != 1 || rep.Compatible[0].ID != 4 || len(rep.Incompatible) != 14 {
			t.Errorf("report = %+v", rep)
		}
	})
}

func TestAnalyzeDocumentErrors(t *testing.T) {
	analyzeFlags.file, analyzeFlags.format = "", "text"
	if err := analyzeDocument(nil, nil); err == nil {
		t.Error("missing --file accepted")
	}

	analyzeFlags.file = writeFile(t, t.TempDir(), "broken.yaml", "hardware:\n  cpu: [EPYC\n")
	cmd, _ := testCommand(t)
	if err := analyzeDocument(cmd, nil); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("error = %v", err)
	}
}
