package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"tpgen-hq/tpgen/pkg/document/diag"
	"tpgen-hq/tpgen/pkg/document/lint"
	"tpgen-hq/tpgen/pkg/document/locator"
	"tpgen-hq/tpgen/pkg/document/parser"
	"tpgen-hq/tpgen/pkg/document/serializer"
	"tpgen-hq/tpgen/pkg/history"
	"tpgen-hq/tpgen/pkg/plan"
	"tpgen-hq/tpgen/pkg/rules"
	"tpgen-hq/tpgen/pkg/telemetry/logging"
	"tpgen-hq/tpgen/pkg/telemetry/metrics"
	"tpgen-hq/tpgen/pkg/telemetry/tracing"
)

// EngineSource yields the rule engine to use for each check. A
// *source.Holder satisfies it, so reloads apply to the next check.
type EngineSource interface {
	Engine() *rules.Engine
}

// StaticEngine serves one fixed engine.
type StaticEngine struct{ E *rules.Engine }

// Engine returns the wrapped engine.
func (s StaticEngine) Engine() *rules.Engine { return s.E }

// Options tune the pipeline.
type Options struct {
	// UseDecoder parses with the full YAML decoder and exact key positions.
	// When false the shallow line parser feeds the rule engine.
	UseDecoder bool

	// MaxDocumentBytes rejects larger documents. Zero means no limit.
	MaxDocumentBytes int

	// Strict makes syntax warnings blocking.
	Strict bool

	// AllViolations collects every rule failure into Report.Violations.
	AllViolations bool

	// Source labels metrics and history records, e.g. "cli" or "http".
	Source string
}

// Checker runs lint, parse, compatibility analysis and line location over
// documents. It is safe for concurrent use.
type Checker struct {
	engines EngineSource
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	history history.Store
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Checker) { c.logger = l } }

// WithMetrics records stage timings and verdicts.
func WithMetrics(m *metrics.Collector) Option { return func(c *Checker) { c.metrics = m } }

// WithTracer opens a span per stage.
func WithTracer(t *tracing.Tracer) Option { return func(c *Checker) { c.tracer = t } }

// WithHistory records every outcome in s.
func WithHistory(s history.Store) Option { return func(c *Checker) { c.history = s } }

// New creates a Checker. A nil engines source uses the built-in rules.
func New(engines EngineSource, opts Options, options ...Option) (*Checker, error) {
	if engines == nil {
		e, err := rules.NewEngine(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build default engine: %w", err)
		}
		engines = StaticEngine{E: e}
	}
	if opts.Source == "" {
		opts.Source = "library"
	}
	c := &Checker{engines: engines, opts: opts}
	for _, o := range options {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "check")
	return c, nil
}

// Check runs the full pipeline over text. Failures are reported in the
// Report; Check never returns an error.
func (c *Checker) Check(ctx context.Context, text string) *Report {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "check", trace.WithAttributes(tracing.AttrDocumentSize.Int(len(text))))
	defer span.End()

	rep := &Report{Document: text}
	c.run(ctx, rep, text, nil)
	c.finish(ctx, span, rep, start)
	return rep
}

// CheckValue serializes v and checks the result. Lines are located by
// walking the serialized structure, so list indices resolve exactly.
func (c *Checker) CheckValue(ctx context.Context, v plan.Value) *Report {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "check.value")
	defer span.End()

	text := serializer.Serialize(v, 0)
	rep := &Report{Document: text}
	c.run(ctx, rep, text, &v)
	c.finish(ctx, span, rep, start)
	return rep
}

func (c *Checker) run(ctx context.Context, rep *Report, text string, value *plan.Value) {
	if strings.TrimSpace(text) == "" {
		rep.Stage = StageInput
		rep.Message = "Document is empty: nothing to validate"
		return
	}
	if c.opts.MaxDocumentBytes > 0 && len(text) > c.opts.MaxDocumentBytes {
		rep.Stage = StageInput
		rep.Message = fmt.Sprintf("Document is %d bytes, larger than the %d byte limit", len(text), c.opts.MaxDocumentBytes)
		return
	}

	c.stage(ctx, StageSyntax, func() {
		rep.Lint = lint.Lint(text)
	})
	for _, d := range rep.Lint.Diagnostics {
		c.metrics.RecordDiagnostic(string(d.Severity), d.Rule)
	}
	// Serialized values are written unquoted, so warnings on generated text
	// describe the serializer rather than the author and never block.
	if blocking := c.blocking(rep.Lint, c.opts.Strict && value == nil); blocking != nil {
		rep.Stage = StageSyntax
		rep.Line = blocking.Line
		rep.Message = blocking.Message
		return
	}

	var (
		data plan.Value
		pos  parser.Positions
	)
	switch {
	case value != nil:
		data = *value
	case c.opts.UseDecoder:
		var err error
		c.stage(ctx, StageParse, func() {
			data, pos, err = parser.Decode(text)
		})
		if err != nil {
			rep.Stage = StageParse
			rep.Message = "Document could not be parsed: " + err.Error()
			var se *parser.SyntaxError
			if errors.As(err, &se) {
				rep.Line = se.Line
			}
			return
		}
	default:
		c.stage(ctx, StageParse, func() {
			data = parser.Parse(text)
		})
	}

	engine := c.engines.Engine()
	if value == nil && !c.opts.UseDecoder {
		engine, rep.Skipped = shallowEngine(engine, data)
	}
	var res rules.Result
	c.stage(ctx, StageCompatibility, func() {
		res = engine.Analyze(data)
		if c.opts.AllViolations && !res.Valid {
			rep.Violations = engine.AnalyzeAll(data)
		}
	})

	rep.Verdict = rules.Verdict(res)
	if res.Valid {
		rep.Valid = true
		return
	}
	rep.Stage = StageCompatibility
	rep.ErrorCode = res.ErrorCode
	rep.Suggestion = res.Suggestion
	rep.KeyPath = res.Path
	if rep.KeyPath == "" {
		rep.KeyPath, _ = locator.ExtractKeyPath(res.ErrorCode)
	}
	c.metrics.RecordDiagnostic(string(diag.SeverityError), res.Code())
	rep.Line = locate(text, pos, res)
}

// shallowEngine restricts engine to the rules the line parser can answer.
// A rule runs only when every path it reads has at most two segments, no
// wildcard, and a leaf that is not a section header: the parser lifts
// every header to the root, so such keys never resolve in place.
func shallowEngine(engine *rules.Engine, data plan.Value) (*rules.Engine, []string) {
	sections := parser.SectionNames(data)
	return engine.Restrict(func(r rules.Rule) bool {
		for _, p := range r.Paths() {
			segs := strings.Split(p, ".")
			if len(segs) > 2 || rules.HasWildcard(p) || sections[segs[len(segs)-1]] {
				return false
			}
		}
		return true
	})
}

// blocking returns the first diagnostic that stops the pipeline. With
// strict set, warnings stop it too.
func (c *Checker) blocking(res lint.Result, strict bool) *diag.Diagnostic {
	for i, d := range res.Diagnostics {
		if d.IsError() || strict {
			return &res.Diagnostics[i]
		}
	}
	return nil
}

// locate finds the line of a rule failure: exact decoder positions first,
// then the structural walk, then the message scan.
func locate(text string, pos parser.Positions, res rules.Result) int {
	if res.Path != "" {
		if line, ok := pos[res.Path]; ok {
			return line
		}
		if line, ok := locator.FindPath(text, res.Path); ok {
			return line
		}
	}
	line, _ := locator.LocateLine(text, res.ErrorCode)
	return line
}

func (c *Checker) stage(ctx context.Context, s Stage, fn func()) {
	_, span := c.tracer.Start(ctx, "check."+string(s), trace.WithAttributes(tracing.AttrStage.String(string(s))))
	start := time.Now()
	fn()
	c.metrics.RecordStage(string(s), time.Since(start))
	span.End()
}

func (c *Checker) finish(ctx context.Context, span trace.Span, rep *Report, start time.Time) {
	elapsed := time.Since(start)
	tracing.SetVerdict(span, rep.Verdict, rep.Code(), rep.Line)
	c.metrics.RecordCheck(c.opts.Source, rep.Code(), string(rep.Stage), len(rep.Document), elapsed)

	log := c.logger
	if id := logging.GetRequestID(ctx); id != "" {
		log = log.With("request_id", id)
	}
	if name := logging.GetDocument(ctx); name != "" {
		log = log.With("document", name)
	}
	if rep.Valid {
		log.DebugContext(ctx, "document passed", "duration", elapsed, "warnings", len(rep.Lint.Warnings()))
	} else {
		log.InfoContext(ctx, "document blocked",
			"stage", rep.Stage,
			"line", rep.Line,
			"code", rep.Code(),
			"duration", elapsed,
		)
	}

	if c.history == nil {
		return
	}
	source := c.opts.Source
	if name := logging.GetDocument(ctx); name != "" {
		source = name
	}
	rec := history.NewRecord(source, rep.Document)
	rec.Valid = rep.Valid
	rec.Verdict = rep.Verdict
	rec.ErrorCode = rep.Code()
	rec.Line = rep.Line
	rec.Stage = string(rep.Stage)
	if err := c.history.Record(ctx, rec); err != nil {
		log.WarnContext(ctx, "failed to record check history", "error", err)
	}
}
