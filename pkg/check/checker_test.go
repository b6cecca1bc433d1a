package check

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gopkg.in/yaml.v3"

	"tpgen-hq/tpgen/pkg/config"
	"tpgen-hq/tpgen/pkg/history"
	"tpgen-hq/tpgen/pkg/plan"
	"tpgen-hq/tpgen/pkg/rules"
	"tpgen-hq/tpgen/pkg/rules/source"
	"tpgen-hq/tpgen/pkg/telemetry/logging"
	"tpgen-hq/tpgen/pkg/telemetry/metrics"
)

const validPlan = `metadata:
  generated: "2024-05-01T10:00:00.000Z"
  version: "1.0"
hardware:
  cpu: Ryzen 9
  gpu: Radeon Pro W7800
  machines:
    - id: 1
      name: Machine A
    - id: 2
      name: Machine B
environment:
  os:
    method: same
    os: Ubuntu 22.04
    deployment: Bare Metal
  kernel:
    method: same
    type: DKMS
    version: 6.1
firmware:
  gpu_version: null
  comparison: false
test_suites:
  - id: 101
    name: Basic Performance
    order: 1
  - id: 102
    name: Memory Test
    order: 2
`

func newChecker(t *testing.T, opts Options, options ...Option) *Checker {
	t.Helper()
	options = append([]Option{WithLogger(logging.Discard().Slog())}, options...)
	c, err := New(nil, opts, options...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func edit(doc string, pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		doc = strings.Replace(doc, pairs[i], pairs[i+1], 1)
	}
	return doc
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		opts      Options
		wantValid bool
		wantStage Stage
		wantCode  string
		wantLine  int
		wantPath  string
	}{
		{
			name:      "valid plan",
			doc:       validPlan,
			opts:      Options{UseDecoder: true},
			wantValid: true,
			wantCode:  "0",
		},
		{
			name:      "cpu outside whitelist",
			doc:       edit(validPlan, "cpu: Ryzen 9", "cpu: Intel Xeon"),
			opts:      Options{UseDecoder: true},
			wantStage: StageCompatibility,
			wantCode:  "E102",
			wantLine:  5,
			wantPath:  "hardware.cpu",
		},
		{
			name:      "machine id type inside a list",
			doc:       edit(validPlan, "- id: 2", "- id: two"),
			opts:      Options{UseDecoder: true},
			wantStage: StageCompatibility,
			wantCode:  "E101",
			wantLine:  10,
			wantPath:  "hardware.machines.1.id",
		},
		{
			name:      "missing key falls back to the parent line",
			doc:       edit(validPlan, "  gpu: Radeon Pro W7800\n", ""),
			opts:      Options{UseDecoder: true},
			wantStage: StageCompatibility,
			wantCode:  "E001",
			wantLine:  4,
			wantPath:  "hardware.gpu",
		},
		{
			name: "invalid combination",
			doc: edit(validPlan,
				"os: Ubuntu 22.04", "os: RHEL 7",
				"type: DKMS", "type: LTS"),
			opts:      Options{UseDecoder: true},
			wantStage: StageCompatibility,
			wantCode:  "E300",
			wantLine:  15,
			wantPath:  "environment.os.os",
		},
		{
			name:      "tab indentation blocks",
			doc:       edit(validPlan, "  cpu: Ryzen 9", "\tcpu: Ryzen 9"),
			opts:      Options{UseDecoder: true},
			wantStage: StageSyntax,
			wantLine:  5,
		},
		{
			name:      "dash without space blocks",
			doc:       edit(validPlan, "- id: 1", "-id: 1"),
			opts:      Options{UseDecoder: true},
			wantStage: StageSyntax,
			wantLine:  8,
		},
		{
			name:      "decoder rejects flow garbage",
			doc:       edit(validPlan, "  cpu: Ryzen 9", "  cpu: [Ryzen 9"),
			opts:      Options{UseDecoder: true},
			wantStage: StageParse,
		},
		{
			name:      "warning blocks in strict mode",
			doc:       edit(validPlan, "  cpu: Ryzen 9", "  cpu : Ryzen 9"),
			opts:      Options{UseDecoder: true, Strict: true},
			wantStage: StageSyntax,
			wantLine:  5,
		},
		{
			name:      "warning passes outside strict mode",
			doc:       edit(validPlan, "  cpu: Ryzen 9", "  cpu : Ryzen 9"),
			opts:      Options{UseDecoder: true},
			wantValid: true,
			wantCode:  "0",
		},
		{
			name:      "shallow parser passes a valid plan",
			doc:       validPlan,
			opts:      Options{},
			wantValid: true,
			wantCode:  "0",
		},
		{
			name:      "shallow parser still checks top-level scalars",
			doc:       edit(validPlan, "cpu: Ryzen 9", "cpu: Intel Xeon"),
			opts:      Options{},
			wantStage: StageCompatibility,
			wantCode:  "E102",
			wantLine:  5,
			wantPath:  "hardware.cpu",
		},
		{
			name:      "shallow parser reports a missing scalar",
			doc:       edit(validPlan, "  comparison: false\n", ""),
			opts:      Options{},
			wantStage: StageCompatibility,
			wantCode:  "E001",
			wantLine:  21,
			wantPath:  "firmware.comparison",
		},
		{
			name:      "empty document",
			doc:       "  \n\n",
			opts:      Options{UseDecoder: true},
			wantStage: StageInput,
		},
		{
			name:      "oversized document",
			doc:       validPlan,
			opts:      Options{UseDecoder: true, MaxDocumentBytes: 64},
			wantStage: StageInput,
		},
		{
			name:      "not a mapping",
			doc:       "- a\n- b\n",
			opts:      Options{UseDecoder: true},
			wantStage: StageCompatibility,
			wantCode:  "E000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := newChecker(t, tt.opts).Check(context.Background(), tt.doc)

			if rep.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, report %+v", rep.Valid, rep)
			}
			if rep.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q (%s)", rep.Stage, tt.wantStage, rep.Summary())
			}
			if rep.Code() != tt.wantCode {
				t.Errorf("Code() = %q, want %q", rep.Code(), tt.wantCode)
			}
			if tt.wantLine != 0 && rep.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", rep.Line, tt.wantLine)
			}
			if rep.KeyPath != tt.wantPath {
				t.Errorf("KeyPath = %q, want %q", rep.KeyPath, tt.wantPath)
			}
			if !rep.Valid && rep.Summary() == "" {
				t.Error("blocked report has an empty summary")
			}
		})
	}
}

func TestChecker_VerdictAndSuggestion(t *testing.T) {
	c := newChecker(t, Options{UseDecoder: true})

	rep := c.Check(context.Background(), validPlan)
	if rep.Verdict != "True:0" {
		t.Errorf("Verdict = %q", rep.Verdict)
	}

	rep = c.Check(context.Background(), edit(validPlan, "cpu: Ryzen 9", "cpu: EPYX"))
	valid, code := rules.SplitVerdict(rep.Verdict)
	if valid || !strings.HasPrefix(code, "E102 ") {
		t.Errorf("Verdict = %q", rep.Verdict)
	}
	if rep.Suggestion != "EPYC" {
		t.Errorf("Suggestion = %q", rep.Suggestion)
	}
}

func TestChecker_ShallowSkipsUnreachableRules(t *testing.T) {
	rep := newChecker(t, Options{}).Check(context.Background(), validPlan)
	if !rep.Valid {
		t.Fatalf("shallow check blocked: %s", rep.Summary())
	}

	skipped := map[string]bool{}
	for _, name := range rep.Skipped {
		skipped[name] = true
	}
	for _, want := range []string{
		"required:hardware.machines",     // section header
		"required:environment.os.method", // three segments
		"type:hardware.machines.*.id",    // wildcard
		"rhel7-lts-6.1",                  // conditions too deep
	} {
		if !skipped[want] {
			t.Errorf("%s not skipped; skipped = %v", want, rep.Skipped)
		}
	}
	for _, kept := range []string{"required:hardware.cpu", "range:hardware.gpu", "type:firmware.comparison"} {
		if skipped[kept] {
			t.Errorf("%s skipped", kept)
		}
	}
	if !strings.Contains(rep.Summary(), "rules skipped") {
		t.Errorf("Summary() = %q", rep.Summary())
	}

	if rep := newChecker(t, Options{UseDecoder: true}).Check(context.Background(), validPlan); len(rep.Skipped) != 0 {
		t.Errorf("decoder skipped rules: %v", rep.Skipped)
	}
}

func TestChecker_AllViolations(t *testing.T) {
	c := newChecker(t, Options{UseDecoder: true, AllViolations: true})
	doc := edit(validPlan,
		"cpu: Ryzen 9", "cpu: Intel Xeon",
		"gpu: Radeon Pro W7800", "gpu: GeForce")
	rep := c.Check(context.Background(), doc)

	if len(rep.Violations) != 2 {
		t.Fatalf("Violations = %+v", rep.Violations)
	}
	if rep.Violations[0].Path != "hardware.cpu" || rep.Violations[1].Path != "hardware.gpu" {
		t.Errorf("paths = %s, %s", rep.Violations[0].Path, rep.Violations[1].Path)
	}
}

func TestChecker_CheckValue(t *testing.T) {
	var v plan.Value
	if err := yaml.Unmarshal([]byte(edit(validPlan, "- id: 2", "- id: two")), &v); err != nil {
		t.Fatal(err)
	}

	rep := newChecker(t, Options{}).CheckValue(context.Background(), v)
	if rep.Code() != "E101" {
		t.Fatalf("Code() = %q (%s)", rep.Code(), rep.Summary())
	}
	lines := strings.Split(rep.Document, "\n")
	if rep.Line < 1 || !strings.Contains(lines[rep.Line-1], "id: two") {
		t.Errorf("Line = %d points at %q", rep.Line, lines[max(rep.Line-1, 0)])
	}
}

func TestChecker_CheckValueStrictGeneratedPlan(t *testing.T) {
	v, err := plan.NewBuilder(nil).Build(plan.Input{
		Selection: plan.Selection{
			CPU:        "Ryzen 9",
			GPU:        "Radeon Pro W7800",
			MachineIDs: []int{1},
			OS:         plan.OSChoice{Method: plan.MethodSame, Same: plan.OSSetting{OS: "Ubuntu 22.04", Deployment: "Bare Metal"}},
			Kernel:     plan.KernelChoice{Method: plan.MethodSame, Same: plan.KernelSetting{Type: "DKMS", Version: "6.1"}},
		},
		Machines:    []plan.Machine{{ID: 1, Name: "Machine A"}},
		TestCases:   []plan.TestCase{{ID: 101, Name: "Basic Performance", Type: plan.TypeBenchmark}},
		GeneratedAt: time.Date(2024, 3, 9, 14, 5, 2, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}

	rep := newChecker(t, Options{UseDecoder: true, Strict: true}).CheckValue(context.Background(), v)
	if !rep.Valid {
		t.Fatalf("strict CheckValue blocked generated plan: %s", rep.Summary())
	}
	if len(rep.Lint.Warnings()) == 0 {
		t.Error("timestamp colon warning not reported")
	}

	rep = newChecker(t, Options{UseDecoder: true, Strict: true}).Check(context.Background(), rep.Document)
	if rep.Valid || rep.Stage != StageSyntax || rep.Line != 2 {
		t.Errorf("strict Check of the same text = %s, want syntax block on line 2", rep.Summary())
	}
}

func TestChecker_HotReload(t *testing.T) {
	holder, err := source.NewHolder(nil, logging.Discard().Slog())
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(holder, Options{UseDecoder: true})
	if err != nil {
		t.Fatal(err)
	}
	if rep := c.Check(context.Background(), validPlan); !rep.Valid {
		t.Fatalf("built-in rules rejected the plan: %s", rep.Summary())
	}

	strict := &rules.RuleSet{Name: "lab", Rules: []rules.Rule{rules.Required("hardware.bios")}}
	if err := holder.Swap(strict, "lab"); err != nil {
		t.Fatal(err)
	}
	rep := c.Check(context.Background(), validPlan)
	if rep.Code() != "E001" || rep.KeyPath != "hardware.bios" {
		t.Errorf("after reload: %s", rep.Summary())
	}
}

func TestChecker_RecordsHistoryAndMetrics(t *testing.T) {
	store := history.NewMemoryStore()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "t"}, prometheus.NewRegistry())
	c := newChecker(t, Options{UseDecoder: true, Source: "cli"}, WithHistory(store), WithMetrics(collector))

	ctx := logging.WithDocument(context.Background(), "plan.yaml")
	c.Check(ctx, validPlan)
	c.Check(context.Background(), edit(validPlan, "cpu: Ryzen 9", "cpu: Intel Xeon"))

	recs, err := store.List(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	byCode := map[string]*history.Record{}
	for _, r := range recs {
		byCode[r.ErrorCode] = r
	}
	if r := byCode["0"]; r == nil || !r.Valid || r.Source != "plan.yaml" || r.DocumentHash != history.HashDocument(validPlan) {
		t.Errorf("passing record = %+v", r)
	}
	if r := byCode["E102"]; r == nil || r.Stage != string(StageCompatibility) || r.Line != 5 || r.Source != "cli" {
		t.Errorf("failing record = %+v", r)
	}

	if n, err := testutil.GatherAndCount(collector.Registry(), "t_check_stage_duration_seconds"); err != nil || n != 3 {
		t.Errorf("stage series = %d (%v), want syntax, parse, compatibility", n, err)
	}
	if n, err := testutil.GatherAndCount(collector.Registry(), "t_verdicts_total"); err != nil || n != 2 {
		t.Errorf("verdict series = %d (%v)", n, err)
	}
}

func TestCommit(t *testing.T) {
	c := newChecker(t, Options{UseDecoder: true})

	if err := Commit(c.Check(context.Background(), validPlan)); err != nil {
		t.Errorf("Commit(valid) = %v", err)
	}
	err := Commit(c.Check(context.Background(), edit(validPlan, "- id: 1", "-id: 1")))
	if !errors.Is(err, ErrNotCommittable) || !strings.Contains(err.Error(), "line 8") {
		t.Errorf("Commit(syntax error) = %v", err)
	}
	if err := Commit(nil); !errors.Is(err, ErrNotCommittable) {
		t.Errorf("Commit(nil) = %v", err)
	}
}
