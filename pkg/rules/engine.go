package rules

import (
	"fmt"
	"strings"

	"tpgen-hq/tpgen/pkg/document/diag"
	"tpgen-hq/tpgen/pkg/plan"
)

// Result is the outcome of a compatibility analysis.
type Result struct {
	Valid bool `json:"valid"`

	// ErrorCode is "0" on success, otherwise a code followed by a
	// human-readable reference such as
	// "E001 Unsupported: missing mandatory key [hardware.gpu]".
	ErrorCode string `json:"errorCode"`

	// Path is the concrete path that failed, list indices expanded.
	Path string `json:"path,omitempty"`

	// Rule names the failing rule: its name, or its path when unnamed.
	Rule string `json:"rule,omitempty"`

	// Suggestion is a close whitelist entry for E102 failures.
	Suggestion string `json:"suggestion,omitempty"`
}

// Code returns the bare code, e.g. "E102".
func (r Result) Code() string {
	code, _, _ := strings.Cut(r.ErrorCode, " ")
	return code
}

var okResult = Result{Valid: true, ErrorCode: CodeOK}

// Engine evaluates a rule set against configuration trees. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	set    *RuleSet
	stages [][]Rule
}

// NewEngine groups rs by kind in evaluation order.
func NewEngine(rs *RuleSet) (*Engine, error) {
	if rs == nil {
		rs = Default()
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{set: rs, stages: make([][]Rule, len(stages))}
	for _, r := range rs.Rules {
		e.stages[r.Kind.stage()] = append(e.stages[r.Kind.stage()], r)
	}
	return e, nil
}

// RuleSet returns the rules the engine evaluates.
func (e *Engine) RuleSet() *RuleSet { return e.set }

// Restrict returns an engine over the rules keep accepts and the labels
// of the rules it dropped. The result may hold no rules at all, in which
// case every analysis passes.
func (e *Engine) Restrict(keep func(Rule) bool) (*Engine, []string) {
	out := &Engine{
		set:    &RuleSet{Name: e.set.Name, Version: e.set.Version},
		stages: make([][]Rule, len(stages)),
	}
	var skipped []string
	for _, r := range e.set.Rules {
		if !keep(r) {
			skipped = append(skipped, r.label())
			continue
		}
		out.set.Rules = append(out.set.Rules, r)
		out.stages[r.Kind.stage()] = append(out.stages[r.Kind.stage()], r)
	}
	return out, skipped
}

// Analyze returns the first violation in evaluation order, or a valid
// result. The input is never modified.
func (e *Engine) Analyze(data plan.Value) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = internalError(r)
		}
	}()
	if data.Kind != plan.KindMapping {
		return invalidData()
	}
	for _, rs := range e.stages {
		for _, r := range rs {
			if v := check(data, r, true); len(v) > 0 {
				return v[0]
			}
		}
	}
	return okResult
}

// AnalyzeAll returns every violation in evaluation order. It is empty for
// a valid document.
func (e *Engine) AnalyzeAll(data plan.Value) (out []Result) {
	defer func() {
		if r := recover(); r != nil {
			out = []Result{internalError(r)}
		}
	}()
	if data.Kind != plan.KindMapping {
		return []Result{invalidData()}
	}
	for _, rs := range e.stages {
		for _, r := range rs {
			out = append(out, check(data, r, false)...)
		}
	}
	return out
}

// Verdict runs Analyze and renders the caller-facing string.
func (e *Engine) Verdict(data plan.Value) string {
	return Verdict(e.Analyze(data))
}

func invalidData() Result {
	return Result{ErrorCode: CodeInvalidData + " Invalid YAML data object"}
}

func internalError(r any) Result {
	return Result{ErrorCode: fmt.Sprintf("%s Validation exception: %v", CodeInternal, r)}
}

// check evaluates one rule. With first set it stops at the first failure.
func check(root plan.Value, r Rule, first bool) []Result {
	if r.Kind == KindCombo {
		pairs, ok := conditionsHold(root, r.Conditions())
		if !ok {
			return nil
		}
		return []Result{{
			ErrorCode: CodeCombo + " Unsupported: invalid combination detected " + strings.Join(pairs, " with "),
			Path:      r.Conditions()[0].Path,
			Rule:      r.label(),
		}}
	}

	if conds := r.Conditions(); len(conds) > 0 {
		if _, ok := conditionsHold(root, conds); !ok {
			return nil
		}
	}

	var out []Result
	for _, t := range expand(root, r.Path) {
		res, failed := checkTarget(r, t)
		if !failed {
			continue
		}
		res.Path = t.path
		res.Rule = r.label()
		out = append(out, res)
		if first {
			break
		}
	}
	return out
}

func checkTarget(r Rule, t target) (Result, bool) {
	switch r.Kind {
	case KindRequired:
		if !t.defined {
			return Result{ErrorCode: fmt.Sprintf("%s Unsupported: missing mandatory key [%s]", CodeRequired, t.path)}, true
		}
	case KindNonEmpty:
		if !t.defined || t.value.IsEmpty() {
			return Result{ErrorCode: fmt.Sprintf("%s Unsupported: empty value for [%s]", CodeNonEmpty, t.path)}, true
		}
	case KindType:
		if t.defined && !hasType(t.value, r.Type) {
			return Result{ErrorCode: fmt.Sprintf("%s Unsupported: value type error for [%s]. Expected %s, got %s",
				CodeType, t.path, strings.ToLower(r.Type), t.value.TypeName())}, true
		}
	case KindRange:
		if t.defined && !inWhitelist(t.value, r.Allowed) {
			got := t.value.Text()
			allowed := make([]string, len(r.Allowed))
			for i, a := range r.Allowed {
				allowed[i] = a.Text()
			}
			return Result{
				ErrorCode: fmt.Sprintf("%s Unsupported: invalid value range for [%s]. Value \"%s\" is not in whitelist [%s]",
					CodeRange, t.path, got, r.AllowedText()),
				Suggestion: diag.SuggestValue(got, allowed),
			}, true
		}
	default:
		panic(fmt.Sprintf("unhandled rule kind %q", r.Kind))
	}
	return Result{}, false
}

// label identifies a rule in results and logs.
func (r Rule) label() string {
	if r.Name != "" {
		return r.Name
	}
	return string(r.Kind) + ":" + r.Path
}
