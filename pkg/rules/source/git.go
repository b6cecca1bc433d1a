package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"tpgen-hq/tpgen/pkg/rules"
)

// GitAuth selects how the repository is accessed.
type GitAuth struct {
	Type          string // "none", "token" or "ssh"
	Token         string
	SSHKeyPath    string
	SSHPassphrase string
}

// GitOptions configures a GitSource.
type GitOptions struct {
	Repository string        // URL or local path
	Branch     string        // defaults to "main"
	File       string        // rule file, relative to the repository root
	LocalPath  string        // clone directory, defaults to a temp directory
	Depth      int           // shallow clone depth, 0 for full history
	Timeout    time.Duration // per clone or pull
	Auth       GitAuth
}

// Commit identifies the revision a rule set was read from.
type Commit struct {
	SHA       string    `json:"sha"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrNotCloned is returned before the first successful Sync.
var ErrNotCloned = errors.New("repository not cloned")

// GitSource reads a rule file from a git repository.
type GitSource struct {
	opts   GitOptions
	auth   transport.AuthMethod
	logger *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewGitSource validates opts and prepares authentication. Nothing is
// fetched until Sync.
func NewGitSource(opts GitOptions, logger *slog.Logger) (*GitSource, error) {
	if opts.Repository == "" {
		return nil, errors.New("repository URL cannot be empty")
	}
	if opts.File == "" {
		return nil, errors.New("rule file path cannot be empty")
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.LocalPath == "" {
		opts.LocalPath = filepath.Join(os.TempDir(), "tpgen-rules")
	}
	auth, err := authMethod(opts.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create git auth: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{
		opts:   opts,
		auth:   auth,
		logger: logger.With("component", "rules-git", "repository", opts.Repository),
	}, nil
}

func authMethod(a GitAuth) (transport.AuthMethod, error) {
	switch a.Type {
	case "", "none":
		return nil, nil
	case "token":
		if a.Token == "" {
			return nil, errors.New("token auth requires a token")
		}
		return &http.BasicAuth{Username: "git", Password: a.Token}, nil
	case "ssh":
		if a.SSHKeyPath == "" {
			return nil, errors.New("ssh auth requires a key path")
		}
		info, err := os.Stat(a.SSHKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to access SSH key file: %w", err)
		}
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			return nil, fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
		}
		keys, err := ssh.NewPublicKeysFromFile("git", a.SSHKeyPath, a.SSHPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("unknown auth type: %s", a.Type)
	}
}

// Sync clones the repository on first use and pulls afterwards. It
// reports whether HEAD moved.
func (g *GitSource) Sync(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	if g.repo == nil {
		return true, g.cloneLocked(ctx)
	}

	before, err := g.repo.Head()
	if err != nil {
		return false, fmt.Errorf("failed to get HEAD: %w", err)
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	err = wt.PullContext(ctx, &gogit.PullOptions{RemoteName: "origin", Auth: g.auth})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to pull: %w", err)
	}
	after, err := g.repo.Head()
	if err != nil {
		return false, fmt.Errorf("failed to get HEAD: %w", err)
	}
	return before.Hash() != after.Hash(), nil
}

func (g *GitSource) cloneLocked(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(g.opts.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(g.opts.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open existing clone: %w", err)
		}
		g.repo = repo
		return nil
	}
	if err := os.MkdirAll(g.opts.LocalPath, 0o755); err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}
	repo, err := gogit.PlainCloneContext(ctx, g.opts.LocalPath, false, &gogit.CloneOptions{
		URL:           g.opts.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(g.opts.Branch),
		SingleBranch:  g.opts.Depth > 0,
		Depth:         g.opts.Depth,
		Auth:          g.auth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	g.repo = repo
	g.logger.Info("Rule repository cloned", "branch", g.opts.Branch, "path", g.opts.LocalPath)
	return nil
}

// Load reads the rule file from the working tree.
func (g *GitSource) Load() (*rules.RuleSet, error) {
	g.mu.Lock()
	cloned := g.repo != nil
	g.mu.Unlock()
	if !cloned {
		return nil, ErrNotCloned
	}
	return rules.LoadFile(filepath.Join(g.opts.LocalPath, g.opts.File))
}

// Head returns the checked-out commit.
func (g *GitSource) Head() (*Commit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.repo == nil {
		return nil, ErrNotCloned
	}
	ref, err := g.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	c, err := g.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	return &Commit{
		SHA:       c.Hash.String(),
		Author:    c.Author.Name,
		Message:   c.Message,
		Timestamp: c.Author.When,
	}, nil
}

// Refresh syncs and, when the repository changed, installs the rule file
// into h.
func (g *GitSource) Refresh(ctx context.Context, h *Holder) error {
	changed, err := g.Sync(ctx)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	head, err := g.Head()
	if err != nil {
		return err
	}
	origin := fmt.Sprintf("%s@%s", g.opts.Repository, shortSHA(head.SHA))
	rs, err := g.Load()
	if err != nil {
		h.finish(origin, nil, err)
		return err
	}
	return h.Swap(rs, origin)
}

// Poll calls Refresh every interval until ctx is cancelled.
func (g *GitSource) Poll(ctx context.Context, h *Holder, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.Refresh(ctx, h); err != nil {
				g.logger.Warn("Rule repository refresh failed", "error", err)
			}
		}
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
