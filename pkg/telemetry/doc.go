// Package telemetry bundles the observability components of tpgen.
//
//   - logging: slog-based structured logging
//   - metrics: Prometheus metrics for checks, rule reloads and the API
//   - tracing: OpenTelemetry spans per pipeline stage
//   - health: liveness and readiness probes
//
// New builds all four from the telemetry configuration section:
//
//	tel, err := telemetry.New(&cfg.Telemetry, version)
//	defer tel.Shutdown(ctx)
//	tel.Logger().Info("serving", "address", cfg.Server.ListenAddress)
package telemetry
