package diag

import (
	"fmt"
	"strings"
)

// Severity grades a diagnostic. Only errors block further processing.
type Severity string

const (
	SeverityError   Severity = "error"   // Document cannot be parsed safely
	SeverityWarning Severity = "warning" // Parseable but ambiguous or unusual
)

// Diagnostic is a single line-scoped finding in a document.
type Diagnostic struct {
	Line       int      `json:"line"`             // 1-based line number
	Column     int      `json:"column,omitempty"` // 1-based column, 0 when unknown
	Severity   Severity `json:"severity"`
	Rule       string   `json:"rule,omitempty"` // Stable identifier of the check
	Message    string   `json:"message"`
	Context    string   `json:"-"` // Surrounding source lines, filled on demand
	Suggestion string   `json:"suggestion,omitempty"`
}

// IsError reports whether d blocks further processing.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// String formats the diagnostic as "line N: severity: message".
func (d Diagnostic) String() string {
	if d.Column > 0 {
		return fmt.Sprintf("line %d:%d: %s: %s", d.Line, d.Column, d.Severity, d.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, d.Message)
}

// List accumulates diagnostics in the order they were found.
type List []Diagnostic

// Add appends a diagnostic.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Errorf appends an error-severity diagnostic.
func (l *List) Errorf(line, column int, rule, format string, args ...any) {
	l.Add(Diagnostic{Line: line, Column: column, Severity: SeverityError, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning-severity diagnostic.
func (l *List) Warnf(line, column int, rule, format string, args ...any) {
	l.Add(Diagnostic{Line: line, Column: column, Severity: SeverityWarning, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// BySeverity returns the diagnostics with the given severity.
func (l List) BySeverity(s Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns the error-severity diagnostics.
func (l List) Errors() List { return l.BySeverity(SeverityError) }

// Warnings returns the warning-severity diagnostics.
func (l List) Warnings() List { return l.BySeverity(SeverityWarning) }

// String renders every diagnostic, one per line, with its context if set.
func (l List) String() string {
	var sb strings.Builder
	for _, d := range l {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
		if d.Context != "" {
			sb.WriteString(d.Context)
		}
		if d.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", d.Suggestion))
		}
	}
	return sb.String()
}

// WithContext fills the Context of every diagnostic from text.
func (l List) WithContext(text string, contextLines int) List {
	out := make(List, len(l))
	for i, d := range l {
		d.Context = ExtractContext(text, d.Line, d.Column, contextLines)
		out[i] = d
	}
	return out
}
