package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes records older than the retention period.
type Pruner struct {
	store         Store
	retentionDays int
	schedule      string
	logger        *slog.Logger
	now           func() time.Time

	hookMu  sync.Mutex
	onPrune func(deleted int64)

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPruner creates a pruner. A retentionDays of 0 keeps records forever;
// an empty schedule disables Start.
func NewPruner(store Store, retentionDays int, schedule string, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:         store,
		retentionDays: retentionDays,
		schedule:      schedule,
		logger:        logger.With("component", "history.retention"),
		now:           time.Now,
	}
}

// OnPrune registers fn to be called with the count of every successful
// prune, scheduled or not.
func (p *Pruner) OnPrune(fn func(deleted int64)) {
	p.hookMu.Lock()
	defer p.hookMu.Unlock()
	p.onPrune = fn
}

// Prune deletes expired records and returns how many were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := p.now().AddDate(0, 0, -p.retentionDays)
	deleted, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune by age failed: %w", err)
	}
	p.hookMu.Lock()
	hook := p.onPrune
	p.hookMu.Unlock()
	if hook != nil {
		hook(deleted)
	}
	if deleted > 0 {
		p.logger.Info("Pruned check history",
			"deleted_count", deleted,
			"retention_days", p.retentionDays,
		)
	} else {
		p.logger.Debug("No history records pruned", "retention_days", p.retentionDays)
	}
	return deleted, nil
}

// Start schedules Prune using the cron expression. It stops when ctx is
// cancelled.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.schedule == "" || p.retentionDays <= 0 {
		p.logger.Info("History pruning not scheduled")
		return nil
	}
	if p.running {
		return fmt.Errorf("pruner already running")
	}
	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.schedule, err)
	}

	p.cron = cron.New()
	if _, err := p.cron.AddFunc(p.schedule, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("Scheduled pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}
	p.cron.Start()
	p.running = true
	p.logger.Info("History pruning scheduled",
		"schedule", p.schedule,
		"retention_days", p.retentionDays,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
}

// NextRun returns the next scheduled prune, or the zero time when not
// scheduled.
func (p *Pruner) NextRun() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return time.Time{}
	}
	entries := p.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
