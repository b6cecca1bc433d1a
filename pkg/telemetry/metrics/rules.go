package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleMetrics tracks rule set reloads.
//
// Metrics:
//   - tpgen_rule_reloads_total: reload attempts by result
//   - tpgen_rules_loaded: rules in the active set
//   - tpgen_rules_last_reload_timestamp_seconds: time of the last successful reload
type RuleMetrics struct {
	reloadsTotal *prometheus.CounterVec
	rulesLoaded  prometheus.Gauge
	lastReload   prometheus.Gauge
}

// NewRuleMetrics creates and registers rule metrics.
func NewRuleMetrics(namespace string, registry *prometheus.Registry) *RuleMetrics {
	rm := &RuleMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_reloads_total",
				Help:      "Rule set reload attempts",
			},
			[]string{"result"},
		),
		rulesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rules_loaded",
				Help:      "Number of rules in the active rule set",
			},
		),
		lastReload: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rules_last_reload_timestamp_seconds",
				Help:      "Unix time of the last successful rule set reload",
			},
		),
	}
	registry.MustRegister(rm.reloadsTotal, rm.rulesLoaded, rm.lastReload)
	return rm
}

// RecordReload records a reload attempt. The origin is not a label since
// git origins embed commit hashes.
func (rm *RuleMetrics) RecordReload(_ string, err error, rules int) {
	if err != nil {
		rm.reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	rm.reloadsTotal.WithLabelValues("success").Inc()
	rm.rulesLoaded.Set(float64(rules))
	rm.lastReload.Set(float64(time.Now().Unix()))
}
