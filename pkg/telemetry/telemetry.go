package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"tpgen-hq/tpgen/pkg/config"
	"tpgen-hq/tpgen/pkg/telemetry/health"
	"tpgen-hq/tpgen/pkg/telemetry/logging"
	"tpgen-hq/tpgen/pkg/telemetry/metrics"
	"tpgen-hq/tpgen/pkg/telemetry/tracing"
)

// Telemetry owns the process-wide logger, metrics, tracer and health checker.
type Telemetry struct {
	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	health  *health.Checker
}

// Option adjusts New.
type Option func(*options)

type options struct {
	writer io.Writer
}

// WithLogWriter sends log output to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// New builds every component from cfg. Metrics are registered on a private
// registry; a disabled metrics section yields a collector that records
// nothing.
func New(cfg *config.TelemetryConfig, version string, opts ...Option) (*Telemetry, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Writer:    o.writer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Metrics, nil),
		tracer:  tracer,
		health:  health.New(2 * time.Second),
	}, nil
}

// Logger returns the root logger.
func (t *Telemetry) Logger() *logging.Logger { return t.logger }

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the tracer.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if err := t.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer: %w", err))
	}
	return errors.Join(errs...)
}
