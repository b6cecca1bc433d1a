package metrics

import (
	"strconv"
	"sync"
	"time"

	"tpgen-hq/tpgen/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OtherLabel replaces label values past the cardinality limit.
const OtherLabel = "other"

// Collector owns every tpgen metric. A nil *Collector, or one built from a
// disabled configuration, records nothing.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	check *CheckMetrics
	rules *RuleMetrics
	http  *HTTPMetrics

	// Rule names come from user-supplied rule files.
	ruleLimiter *CardinalityLimiter
}

// NewCollector registers all metrics on registry, or on a fresh private
// registry when nil.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collector{
		registry:    registry,
		ruleLimiter: NewCardinalityLimiter(500),
	}
	if cfg != nil {
		c.config = *cfg
	}
	if c.config.Namespace == "" {
		c.config.Namespace = config.DefaultMetricsNamespace
	}

	c.check = NewCheckMetrics(c.config.Namespace, registry)
	c.rules = NewRuleMetrics(c.config.Namespace, registry)
	c.http = NewHTTPMetrics(c.config.Namespace, registry)
	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordCheck records a finished document check.
//
// Parameters:
//   - source: where the document came from ("cli", "http", "generate")
//   - code: the bare error code, "0" for a pass
//   - stage: the blocking stage, empty for a pass
//   - size: document length in bytes
//   - duration: total pipeline time
func (c *Collector) RecordCheck(source, code, stage string, size int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.check.RecordDocument(source, code, stage, size, duration)
}

// RecordStage records the time one pipeline stage took.
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.check.RecordStage(stage, duration)
}

// RecordDiagnostic counts a linter or rule engine finding.
func (c *Collector) RecordDiagnostic(severity, rule string) {
	if !c.enabled() {
		return
	}
	if !c.ruleLimiter.Allow(rule) {
		rule = OtherLabel
	}
	c.check.RecordDiagnostic(severity, rule)
}

// RecordRuleReload records a rule set reload from origin.
func (c *Collector) RecordRuleReload(origin string, err error, rules int) {
	if !c.enabled() {
		return
	}
	c.rules.RecordReload(origin, err, rules)
}

// RecordHistoryPruned counts history records removed by retention.
func (c *Collector) RecordHistoryPruned(n int64) {
	if !c.enabled() {
		return
	}
	c.check.RecordPruned(n)
}

// RecordHTTPRequest records a served API request.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.http.RecordRequest(route, method, strconv.Itoa(status), duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether label is already tracked or still fits under the limit.
func (cl *CardinalityLimiter) Allow(label string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[label]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, exists := cl.current[label]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[label] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
