package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckMetrics tracks the document check pipeline.
//
// Metrics:
//   - tpgen_documents_checked_total: documents by source and result
//   - tpgen_verdicts_total: verdicts by error code
//   - tpgen_diagnostics_total: findings by severity and rule
//   - tpgen_check_stage_duration_seconds: time per pipeline stage
//   - tpgen_document_size_bytes: size of checked documents
//   - tpgen_history_pruned_total: history records removed by retention
type CheckMetrics struct {
	documentsTotal   *prometheus.CounterVec
	verdictsTotal    *prometheus.CounterVec
	diagnosticsTotal *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	checkDuration    prometheus.Histogram
	documentSize     prometheus.Histogram
	prunedTotal      prometheus.Counter
}

// NewCheckMetrics creates and registers check metrics.
func NewCheckMetrics(namespace string, registry *prometheus.Registry) *CheckMetrics {
	cm := &CheckMetrics{
		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_checked_total",
				Help:      "Total number of documents checked",
			},
			[]string{"source", "result"},
		),
		verdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdicts_total",
				Help:      "Compatibility verdicts by error code",
			},
			[]string{"code"},
		),
		diagnosticsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Syntax and compatibility findings by severity and rule",
			},
			[]string{"severity", "rule"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_stage_duration_seconds",
				Help:      "Duration of each check pipeline stage in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
			[]string{"stage"},
		),
		checkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_duration_seconds",
				Help:      "Duration of a whole document check in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9),
			},
		),
		documentSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_size_bytes",
				Help:      "Size of checked documents in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4MB
			},
		),
		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_pruned_total",
				Help:      "History records removed by retention",
			},
		),
	}

	registry.MustRegister(
		cm.documentsTotal,
		cm.verdictsTotal,
		cm.diagnosticsTotal,
		cm.stageDuration,
		cm.checkDuration,
		cm.documentSize,
		cm.prunedTotal,
	)
	return cm
}

// RecordDocument records one finished check. An empty stage means it passed.
func (cm *CheckMetrics) RecordDocument(source, code, stage string, size int, duration time.Duration) {
	result := "pass"
	if stage != "" {
		result = stage
	}
	cm.documentsTotal.WithLabelValues(source, result).Inc()
	if code != "" {
		cm.verdictsTotal.WithLabelValues(code).Inc()
	}
	cm.checkDuration.Observe(duration.Seconds())
	cm.documentSize.Observe(float64(size))
}

// RecordStage observes the duration of one stage.
func (cm *CheckMetrics) RecordStage(stage string, duration time.Duration) {
	cm.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordDiagnostic counts one finding.
func (cm *CheckMetrics) RecordDiagnostic(severity, rule string) {
	cm.diagnosticsTotal.WithLabelValues(severity, rule).Inc()
}

// RecordPruned adds n removed history records.
func (cm *CheckMetrics) RecordPruned(n int64) {
	if n > 0 {
		cm.prunedTotal.Add(float64(n))
	}
}
