package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tpgen-hq/tpgen/pkg/cli"
	"tpgen-hq/tpgen/pkg/rules/source"
	"tpgen-hq/tpgen/pkg/server"
)

var serveFlags struct {
	listenAddress string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the generation and validation API",
	Long: `Start the HTTP API that generates plans, checks documents and lists the
catalog.

The rule set is read from rules.file (optionally watched for changes),
from a git repository (rules.git), or the built-in rules are used.

Examples:
  # Start with defaults
  tpgen serve

  # Start with a config file and another address
  tpgen serve --config /etc/tpgen/config.yaml --listen 0.0.0.0:9000

  # Validate configuration and rules without starting
  tpgen serve --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and rules without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(errWriter(cmd))
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer a.Close()
	cfg := a.cfg
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	stdout := outWriter(cmd)

	ctx, stop := cli.SetupSignalHandler(cmdContext(cmd))
	defer stop()

	if err := startRuleSources(ctx, a); err != nil {
		return cli.NewCommandError("serve", err)
	}

	cat, err := a.openCatalog(ctx)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	checker, err := a.checker("http", false, false)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	health := a.tel.Health()
	health.RegisterDetails(func() map[string]string {
		origin, loaded := a.holder.Origin()
		return map[string]string{
			"rules_origin": origin,
			"rules_loaded": loaded.UTC().Format(time.RFC3339),
		}
	})

	if store, _ := a.openHistory(); store != nil {
		health.RegisterCheck("history", func(ctx context.Context) error {
			_, err := store.Count(ctx)
			return err
		})
		if cfg.History.RetentionDays > 0 && cfg.History.PruneSchedule != "" {
			pruner := a.pruner(store)
			if err := pruner.Start(ctx); err != nil {
				a.logger.Warn("failed to start history pruner", "error", err)
			} else {
				defer pruner.Stop()
				a.logger.Debug("history pruner started", "next_run", pruner.NextRun())
			}
		}
	}

	srv, err := server.New(&cfg.Server, server.Deps{
		Checker:     checker,
		Catalog:     cat,
		Telemetry:   a.tel,
		Version:     Version,
		Commit:      GitCommit,
		BuildTime:   BuildDate,
		MetricsPath: cfg.Telemetry.Metrics.Path,
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	if serveFlags.dryRun {
		fmt.Fprintf(stdout, "Configuration valid (rules: %s)\n", a.holder)
		return nil
	}

	fmt.Fprintf(stdout, "tpgen %s listening on %s (rules: %s)\n", Version, cfg.Server.ListenAddress, a.holder)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(stdout, "Server stopped")
	return nil
}

// startRuleSources starts the file watcher or the git poller. Both stop
// when ctx is cancelled.
func startRuleSources(ctx context.Context, a *app) error {
	rc := a.cfg.Rules

	if rc.File != "" && rc.Watch && !serveFlags.dryRun {
		w, err := source.NewFileWatcher(rc.File, a.holder, rc.Debounce, a.logger)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Watch(ctx); err != nil {
				a.logger.Error("rule file watcher stopped", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = w.Stop()
		}()
	}

	if rc.Git.Repository == "" {
		return nil
	}
	g, err := source.NewGitSource(source.GitOptions{
		Repository: rc.Git.Repository,
		Branch:     rc.Git.Branch,
		File:       rc.Git.File,
		LocalPath:  rc.Git.LocalPath,
		Depth:      rc.Git.Depth,
		Timeout:    rc.Git.Timeout,
		Auth: source.GitAuth{
			Type:          rc.Git.Auth.Type,
			Token:         rc.Git.Auth.Token,
			SSHKeyPath:    rc.Git.Auth.SSHKeyPath,
			SSHPassphrase: rc.Git.Auth.SSHPassphrase,
		},
	}, a.logger)
	if err != nil {
		return err
	}
	if err := g.Refresh(ctx, a.holder); err != nil {
		return fmt.Errorf("failed to load rules from %s: %w", rc.Git.Repository, err)
	}
	if rc.Git.PollInterval > 0 && !serveFlags.dryRun {
		go g.Poll(ctx, a.holder, rc.Git.PollInterval)
	}
	return nil
}
