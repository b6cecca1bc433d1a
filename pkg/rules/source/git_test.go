package source

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content, msg string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, name), content)
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func TestNewGitSource_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts GitOptions
	}{
		{"no repository", GitOptions{File: "rules.yaml"}},
		{"no file", GitOptions{Repository: "/tmp/repo"}},
		{"token without token", GitOptions{Repository: "/tmp/repo", File: "r.yaml", Auth: GitAuth{Type: "token"}}},
		{"ssh without key", GitOptions{Repository: "/tmp/repo", File: "r.yaml", Auth: GitAuth{Type: "ssh"}}},
		{"unknown auth", GitOptions{Repository: "/tmp/repo", File: "r.yaml", Auth: GitAuth{Type: "kerberos"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGitSource(tt.opts, nil); err == nil {
				t.Error("NewGitSource() error = nil")
			}
		})
	}
}

func TestGitSource_Refresh(t *testing.T) {
	upstream := t.TempDir()
	repo, err := gogit.PlainInit(upstream, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	commitFile(t, repo, upstream, "rules.yaml", labRules, "initial rules")

	src, err := NewGitSource(GitOptions{
		Repository: upstream,
		Branch:     "master", // go-git init creates master
		File:       "rules.yaml",
		LocalPath:  t.TempDir(),
		Timeout:    10 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewGitSource() error = %v", err)
	}
	if _, err := src.Load(); err != ErrNotCloned {
		t.Errorf("Load() before Sync error = %v, want ErrNotCloned", err)
	}

	h, err := NewHolder(nil, nil)
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	ctx := context.Background()
	if err := src.Refresh(ctx, h); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := len(h.Engine().RuleSet().Rules); got != 1 {
		t.Errorf("active rules = %d, want 1", got)
	}
	head, err := src.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head.Message != "initial rules" {
		t.Errorf("Head().Message = %q", head.Message)
	}

	// Nothing new upstream.
	if changed, err := src.Sync(ctx); err != nil || changed {
		t.Errorf("Sync() = %v, %v; want false, nil", changed, err)
	}

	commitFile(t, repo, upstream, "rules.yaml", labRules+"  - kind: required\n    path: hardware.gpu\n", "require gpu")
	if err := src.Refresh(ctx, h); err != nil {
		t.Fatalf("Refresh() after upstream commit error = %v", err)
	}
	if got := len(h.Engine().RuleSet().Rules); got != 2 {
		t.Errorf("active rules = %d after upstream commit, want 2", got)
	}
}
