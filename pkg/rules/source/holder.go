package source

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tpgen-hq/tpgen/pkg/rules"
)

// ReloadHook observes every reload attempt.
type ReloadHook func(origin string, err error)

// Holder owns the active rule engine.
type Holder struct {
	engine atomic.Pointer[rules.Engine]
	logger *slog.Logger

	mu       sync.Mutex
	origin   string
	loadedAt time.Time
	hooks    []ReloadHook
}

// NewHolder creates a holder serving rs. A nil rs selects the built-in
// rule set.
func NewHolder(rs *rules.RuleSet, logger *slog.Logger) (*Holder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Holder{logger: logger.With("component", "rules")}
	origin := "built-in"
	if rs != nil && rs.Name != "" {
		origin = rs.Name
	}
	if err := h.Swap(rs, origin); err != nil {
		return nil, err
	}
	return h, nil
}

// Engine returns the active engine.
func (h *Holder) Engine() *rules.Engine {
	return h.engine.Load()
}

// OnReload registers a hook called after every reload attempt.
func (h *Holder) OnReload(hook ReloadHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Origin reports where the active rule set came from and when it was
// installed.
func (h *Holder) Origin() (string, time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.origin, h.loadedAt
}

// Swap installs rs. On error the active engine is left unchanged.
func (h *Holder) Swap(rs *rules.RuleSet, origin string) error {
	e, err := rules.NewEngine(rs)
	if err == nil {
		h.engine.Store(e)
	}
	h.finish(origin, e, err)
	return err
}

// ReloadFile loads path and installs it.
func (h *Holder) ReloadFile(path string) error {
	rs, err := rules.LoadFile(path)
	if err != nil {
		h.finish(path, nil, err)
		return err
	}
	return h.Swap(rs, path)
}

func (h *Holder) finish(origin string, e *rules.Engine, err error) {
	h.mu.Lock()
	if err == nil {
		h.origin = origin
		h.loadedAt = time.Now()
	}
	hooks := append([]ReloadHook(nil), h.hooks...)
	h.mu.Unlock()

	if err != nil {
		h.logger.Error("Rule set rejected, keeping previous rules",
			"origin", origin,
			"error", err,
		)
	} else {
		h.logger.Info("Rule set installed",
			"origin", origin,
			"rules", len(e.RuleSet().Rules),
		)
	}
	for _, hook := range hooks {
		hook(origin, err)
	}
}

// String describes the active rule set.
func (h *Holder) String() string {
	origin, at := h.Origin()
	return fmt.Sprintf("%s (loaded %s)", origin, at.Format(time.RFC3339))
}
