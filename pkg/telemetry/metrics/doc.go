// Package metrics provides Prometheus metrics for tpgen.
//
// A Collector registers every metric on a private registry and exposes it
// through Handler:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
//	collector.RecordStage("compatibility", elapsed)
//	collector.RecordCheck("http", "E102", "compatibility", len(doc), total)
//
// # Metrics
//
//   - tpgen_documents_checked_total{source,result}
//   - tpgen_verdicts_total{code}
//   - tpgen_diagnostics_total{severity,rule}
//   - tpgen_check_stage_duration_seconds{stage}
//   - tpgen_check_duration_seconds
//   - tpgen_document_size_bytes
//   - tpgen_history_pruned_total
//   - tpgen_rule_reloads_total{result}, tpgen_rules_loaded
//   - tpgen_http_requests_total{route,method,status}
//
// Rule labels are capped by a CardinalityLimiter; overflow is counted
// under "other". Every Record method is a no-op on a nil or disabled
// Collector, so callers never need to guard.
package metrics
