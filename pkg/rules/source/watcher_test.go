package source

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
	}
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("callback ran %d times after Stop", got)
	}
}

func TestFileWatcher_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeFile(t, path, labRules)

	h, err := NewHolder(nil, nil)
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	fw, err := NewFileWatcher(path, h, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fw.Watch(ctx) }()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, path, labRules+"  - kind: nonEmpty\n    path: test_suites\n")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(h.Engine().RuleSet().Rules) == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := len(h.Engine().RuleSet().Rules); got != 2 {
		t.Errorf("active rules = %d after change, want 2", got)
	}

	if err := fw.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
