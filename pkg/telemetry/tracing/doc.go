// Package tracing provides OpenTelemetry tracing for the check pipeline
// and the HTTP API.
//
// When telemetry.tracing.enabled is set, spans are batched to an OTLP gRPC
// collector; otherwise every span is a no-op:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "check.compatibility")
//	tracing.SetVerdict(span, "False:E102", "E102", 14)
//	span.End()
//
// New traces are sampled at sample_ratio; child spans follow their parent.
// Incoming W3C traceparent headers are honoured by HTTPMiddleware.
package tracing
