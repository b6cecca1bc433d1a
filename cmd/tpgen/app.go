package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"tpgen-hq/tpgen/pkg/catalog"
	"tpgen-hq/tpgen/pkg/check"
	"tpgen-hq/tpgen/pkg/config"
	"tpgen-hq/tpgen/pkg/history"
	"tpgen-hq/tpgen/pkg/rules"
	"tpgen-hq/tpgen/pkg/rules/source"
	"tpgen-hq/tpgen/pkg/telemetry"
)

// app holds the components shared by every command, built from the
// configuration file and TPGEN_* environment overrides.
type app struct {
	cfg     *config.Config
	tel     *telemetry.Telemetry
	logger  *slog.Logger
	holder  *source.Holder
	history history.Store
	closers []func() error
}

// newApp loads configuration and the rule set. Logs go to logOut.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	tel, err := telemetry.New(&cfg.Telemetry, Version, telemetry.WithLogWriter(logOut))
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, tel: tel, logger: tel.Logger().Slog()}

	var rs *rules.RuleSet
	origin := "built-in"
	if cfg.Rules.File != "" {
		rs, err = rules.LoadFile(cfg.Rules.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		origin = cfg.Rules.File
	}
	a.holder, err = source.NewHolder(rs, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to install rules: %w", err)
	}
	metrics := tel.Metrics()
	metrics.RecordRuleReload(origin, nil, ruleCount(a.holder))
	a.holder.OnReload(func(origin string, err error) {
		metrics.RecordRuleReload(origin, err, ruleCount(a.holder))
	})
	return a, nil
}

func ruleCount(h *source.Holder) int {
	if rs := h.Engine().RuleSet(); rs != nil {
		return len(rs.Rules)
	}
	return 0
}

// checker builds the pipeline. strict widens the configured strictness.
func (a *app) checker(sourceLabel string, strict, all bool) (*check.Checker, error) {
	opts := check.Options{
		UseDecoder:       a.cfg.Check.UseDecoder,
		MaxDocumentBytes: a.cfg.Check.MaxDocumentBytes,
		Strict:           a.cfg.Check.Strict || strict,
		AllViolations:    all,
		Source:           sourceLabel,
	}
	options := []check.Option{
		check.WithLogger(a.logger),
		check.WithMetrics(a.tel.Metrics()),
		check.WithTracer(a.tel.Tracer()),
	}
	store, err := a.openHistory()
	if err != nil {
		return nil, err
	}
	if store != nil {
		options = append(options, check.WithHistory(store))
	}
	return check.New(a.holder, opts, options...)
}

// openCatalog opens the configured catalog backend, seeded from the
// configured fixture file or the built-in one.
func (a *app) openCatalog(ctx context.Context) (catalog.Catalog, error) {
	fixture := catalog.DefaultFixture()
	if a.cfg.Catalog.Seed != "" {
		data, err := os.ReadFile(a.cfg.Catalog.Seed)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog seed: %w", err)
		}
		if fixture, err = catalog.ParseFixture(data); err != nil {
			return nil, fmt.Errorf("invalid catalog seed %s: %w", a.cfg.Catalog.Seed, err)
		}
	}

	switch a.cfg.Catalog.Backend {
	case "sqlite":
		c, err := catalog.OpenSQLite(ctx, a.cfg.Catalog.SQLitePath, fixture)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	default:
		return catalog.NewMemoryCatalog(fixture), nil
	}
}

// openHistory returns the history store, or nil when history is disabled.
// The store is opened once and shared.
func (a *app) openHistory() (history.Store, error) {
	if !a.cfg.History.Enabled {
		return nil, nil
	}
	if a.history != nil {
		return a.history, nil
	}
	if a.cfg.History.SQLitePath == "" {
		a.history = history.NewMemoryStore()
		return a.history, nil
	}
	s, err := history.OpenSQLite(a.cfg.History.SQLitePath, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	a.history = s
	a.closers = append(a.closers, s.Close)
	return s, nil
}

// pruner returns a pruner over the history store that reports to metrics.
func (a *app) pruner(store history.Store) *history.Pruner {
	p := history.NewPruner(store, a.cfg.History.RetentionDays, a.cfg.History.PruneSchedule, a.logger)
	metrics := a.tel.Metrics()
	p.OnPrune(metrics.RecordHistoryPruned)
	return p
}

// Close releases stores and flushes telemetry.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	errs = append(errs, a.tel.Shutdown(context.Background()))
	return errors.Join(errs...)
}
