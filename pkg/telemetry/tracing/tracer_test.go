package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tpgen-hq/tpgen/pkg/config"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tr, err := NewWithExporter(&config.TracingConfig{Enabled: true, SampleRatio: 1}, "test", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr, exporter
}

func TestNew_Disabled(t *testing.T) {
	tr, err := New(&config.TracingConfig{}, "test")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Error("disabled tracer reports enabled")
	}
	ctx, span := tr.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("noop span carries a trace id")
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	if _, err := New(nil, "test"); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestNilTracer(t *testing.T) {
	var tr *Tracer
	_, span := tr.Start(context.Background(), "x")
	span.End()
	if tr.Enabled() || tr.Shutdown(context.Background()) != nil {
		t.Error("nil tracer misbehaves")
	}
}

func TestTracer_Spans(t *testing.T) {
	tr, exporter := newTestTracer(t)

	ctx, parent := tr.Start(context.Background(), "check")
	_, child := tr.Start(ctx, "check.compatibility")
	SetVerdict(child, "False:E102", "E102", 7)
	SetStatus(child, errors.New("blocked"))
	child.End()
	parent.End()

	if err := tr.ForceFlush(context.Background()); err != nil {
		t.Fatal(err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans", len(spans))
	}
	got := spans[0]
	if got.Name != "check.compatibility" || got.Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Errorf("child span = %s, parent %v", got.Name, got.Parent.SpanID())
	}
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v", got.Status.Code)
	}
	attrs := map[string]any{}
	for _, kv := range got.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["tpgen.check.error_code"] != "E102" || attrs["tpgen.check.line"] != int64(7) {
		t.Errorf("attributes = %v", attrs)
	}
}

func TestCreateSampler(t *testing.T) {
	for _, ratio := range []float64{0, 0.5, 1} {
		if _, err := createSampler(ratio); err != nil {
			t.Errorf("createSampler(%v) error = %v", ratio, err)
		}
	}
	if _, err := createSampler(2); err == nil {
		t.Error("createSampler(2) should fail")
	}
}

func TestHTTPMiddleware(t *testing.T) {
	tr, exporter := newTestTracer(t)

	var seen string
	h := tr.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/validate", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id = %q, want the incoming one", seen)
	}
	if rec.Header().Get("X-Trace-ID") != seen {
		t.Errorf("X-Trace-ID = %q", rec.Header().Get("X-Trace-ID"))
	}
	_ = tr.ForceFlush(context.Background())
	if spans := exporter.GetSpans(); len(spans) != 1 || spans[0].Name != "POST /api/v1/documents/validate" {
		t.Errorf("spans = %v", spans)
	}
}
