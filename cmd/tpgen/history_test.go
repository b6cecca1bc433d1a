package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestHistoryDisabled(t *testing.T) {
	historyFlags.format = "text"
	cmd, _ := testCommand(t)
	if err := listHistory(cmd, nil); !errors.Is(err, errHistoryDisabled) {
		t.Errorf("list error = %v", err)
	}
	if err := pruneHistory(cmd, nil); !errors.Is(err, errHistoryDisabled) {
		t.Errorf("prune error = %v", err)
	}
}

func TestHistoryListAndPrune(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	useConfig(t, "history:\n  enabled: true\n  retention_days: 30\n  sqlite_path: "+dbPath+"\n")

	bad := writeFile(t, t.TempDir(), "bad.yaml", strings.Replace(validPlan, "cpu: Ryzen 9", "cpu: Intel Xeon", 1))
	setValidateFlags(bad, "", false, "text")
	cmd, _ := testCommand(t)
	wantBlocked(t, validateDocuments(cmd, nil))

	historyFlags.format = "text"
	historyFlags.since = 0
	historyFlags.source = ""
	historyFlags.failed = true
	historyFlags.limit = 0
	defer func() { historyFlags.failed = false }()

	cmd, out := testCommand(t)
	if err := listHistory(cmd, nil); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"blocked", "compatibility", "E102"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("history table missing %q:\n%s", want, out.String())
		}
	}

	cmd, out = testCommand(t)
	if err := pruneHistory(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Deleted 0 record(s) older than 30 day(s)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestShortHash(t *testing.T) {
	if got := shortHash("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("shortHash() = %q", got)
	}
	if got := shortHash("abc"); got != "abc" {
		t.Errorf("shortHash() = %q", got)
	}
}
