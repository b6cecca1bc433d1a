package main

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestServeDryRun(t *testing.T) {
	rulesPath := writeFile(t, t.TempDir(), "rules.yaml", "name: lab\nrules:\n  - kind: required\n    path: hardware.cpu\n")
	useConfig(t, "rules:\n  file: "+rulesPath+"\n  watch: true\n")
	serveFlags.listenAddress = "127.0.0.1:0"
	serveFlags.dryRun = true
	defer func() { serveFlags.dryRun = false }()

	cmd, out := testCommand(t)
	if err := runServer(cmd, nil); err != nil {
		t.Fatalf("runServer() error = %v", err)
	}
	if !strings.Contains(out.String(), "Configuration valid (rules: lab") {
		t.Errorf("output = %q", out.String())
	}
}

func TestServeBadRules(t *testing.T) {
	rulesPath := writeFile(t, t.TempDir(), "rules.yaml", "rules: [")
	useConfig(t, "rules:\n  file: "+rulesPath+"\n")
	serveFlags.dryRun = true
	defer func() { serveFlags.dryRun = false }()

	cmd, _ := testCommand(t)
	if err := runServer(cmd, nil); err == nil || !strings.Contains(err.Error(), "failed to load rules") {
		t.Errorf("error = %v", err)
	}
}

func TestServeStopsWithContext(t *testing.T) {
	useConfig(t, "history:\n  enabled: true\n")
	serveFlags.listenAddress = "127.0.0.1:0"
	serveFlags.dryRun = false

	ctx, cancel := context.WithCancel(context.Background())
	cmd, out := testCommand(t)
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() { done <- runServer(cmd, nil) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServer() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if !strings.Contains(out.String(), "Server stopped") {
		t.Errorf("output = %q", out.String())
	}
}
