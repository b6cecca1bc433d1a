package check

import (
	"errors"
	"fmt"
	"strings"

	"tpgen-hq/tpgen/pkg/document/lint"
	"tpgen-hq/tpgen/pkg/rules"
)

// Stage names the pipeline step that blocked a document.
type Stage string

const (
	StageInput         Stage = "input"         // empty or oversized document
	StageSyntax        Stage = "syntax"        // linter errors
	StageParse         Stage = "parse"         // decoder rejected the text
	StageCompatibility Stage = "compatibility" // a rule failed
)

// Report is the outcome of checking one document.
type Report struct {
	// Lint holds every syntax diagnostic, blocking or not.
	Lint lint.Result `json:"lint"`

	// Valid is true when no stage blocked.
	Valid bool `json:"valid"`

	// Verdict is "True:0" or "False:<errorCode>" once the rule engine ran.
	Verdict string `json:"verdict,omitempty"`

	// ErrorCode is the rule engine message, e.g.
	// "E102 Unsupported: invalid value range for [hardware.cpu]. ...".
	ErrorCode string `json:"errorCode,omitempty"`

	// Message explains an input, syntax or parse failure.
	Message string `json:"message,omitempty"`

	// Line is the 1-based line of the failure, 0 when unknown.
	Line int `json:"line,omitempty"`

	// KeyPath is the dotted path the failure refers to.
	KeyPath string `json:"keyPath,omitempty"`

	// Suggestion is a close allowed value for range failures.
	Suggestion string `json:"suggestion,omitempty"`

	// Stage is the blocking stage, empty when Valid.
	Stage Stage `json:"stage,omitempty"`

	// Violations lists every rule failure when the checker collects them all.
	Violations []rules.Result `json:"violations,omitempty"`

	// Skipped names the rules the shallow line parser could not evaluate:
	// rules on list elements, on paths deeper than two levels, or on keys
	// that open a section.
	Skipped []string `json:"skipped,omitempty"`

	// Document is the text that was checked. CheckValue fills it with the
	// serialized configuration.
	Document string `json:"-"`
}

// Code returns the bare error code, "0" for a pass and "" when the rule
// engine never ran.
func (r *Report) Code() string {
	switch {
	case r.Valid:
		return rules.CodeOK
	case r.ErrorCode != "":
		return rules.Result{ErrorCode: r.ErrorCode}.Code()
	}
	return ""
}

// Summary is a one-line description of the outcome.
func (r *Report) Summary() string {
	if r.Valid {
		var notes []string
		if n := len(r.Lint.Warnings()); n > 0 {
			notes = append(notes, fmt.Sprintf("%d warnings", n))
		}
		if n := len(r.Skipped); n > 0 {
			notes = append(notes, fmt.Sprintf("%d rules skipped", n))
		}
		if len(notes) > 0 {
			return "valid (" + strings.Join(notes, ", ") + ")"
		}
		return "valid"
	}
	msg := r.ErrorCode
	if msg == "" {
		msg = r.Message
	}
	if r.Line > 0 {
		return fmt.Sprintf("line %d: %s", r.Line, msg)
	}
	return msg
}

// ErrNotCommittable is wrapped by Commit for reports that did not pass.
var ErrNotCommittable = errors.New("document is not committable")

// Commit gates copy and download actions: only a passing report may leave
// the editor.
func Commit(r *Report) error {
	if r == nil {
		return fmt.Errorf("%w: no check result", ErrNotCommittable)
	}
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotCommittable, r.Summary())
}
