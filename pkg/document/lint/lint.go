package lint

import (
	"strings"

	"tpgen-hq/tpgen/pkg/document/diag"
)

// Rule identifiers attached to diagnostics.
const (
	RuleIndentTab        = "indent-tab"
	RuleIndentMixed      = "indent-mixed"
	RuleIndentStep       = "indent-step"
	RuleIndentJump       = "indent-jump"
	RuleListMarkerSpace  = "list-marker-space"
	RuleKeyBrackets      = "key-brackets"
	RuleColonSpace       = "colon-space"
	RuleKeyTrailingSpace = "key-trailing-space"
	RuleValueHash        = "value-hash"
	RuleValueColon       = "value-colon"
	RuleSyntax           = "syntax"
)

// Result is the outcome of linting one document.
type Result struct {
	Diagnostics      diag.List `json:"diagnostics"`
	HasBlockingError bool      `json:"has_blocking_error"`
}

// Errors returns the blocking diagnostics.
func (r Result) Errors() diag.List { return r.Diagnostics.Errors() }

// Warnings returns the non-blocking diagnostics.
func (r Result) Warnings() diag.List { return r.Diagnostics.Warnings() }

// Lint checks the raw lines of text without parsing it. Blank lines and
// comment lines are skipped and do not take part in indentation tracking.
func Lint(text string) Result {
	var (
		diags      diag.List
		step       int  // established indentation step, 0 until known
		lastIndent int  // indentation of the previous tracked line
		tracked    bool // whether lastIndent is set
	)

	for i, raw := range strings.Split(text, "\n") {
		lineNum := i + 1
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := leadingWhitespace(line)
		lead := line[:indent]

		if strings.Contains(lead, "\t") {
			diags.Errorf(lineNum, 1, RuleIndentTab,
				"Tab character detected in indentation. Indentation must use spaces only.")
			if strings.Contains(lead, " ") {
				diags.Errorf(lineNum, 1, RuleIndentMixed,
					"Mixed tabs and spaces in indentation. Use spaces only.")
			}
		}

		if step == 0 && (indent == 2 || indent == 4) {
			step = indent
		}
		if indent > 0 && step != 0 && indent%step != 0 {
			diags.Errorf(lineNum, 1, RuleIndentStep,
				"Inconsistent indentation. Expected multiples of %d spaces, but found %d spaces.", step, indent)
		}

		if tracked {
			if diff := indent - lastIndent; diff > 0 && !isOneStep(diff, step) {
				diags.Warnf(lineNum, 1, RuleIndentJump,
					"Unusual indentation increase. Indent changed by %d spaces. Expected one step of %s.", diff, stepText(step))
			}
		}
		lastIndent, tracked = indent, true

		if strings.HasPrefix(trimmed, "-") && len(trimmed) > 1 && trimmed[1] != ' ' {
			diags.Errorf(lineNum, indent+2, RuleListMarkerSpace,
				`Missing space after dash "-". List items must have format "- item", not "-item".`)
		}

		colon := strings.IndexByte(trimmed, ':')
		if colon < 0 {
			if !strings.HasPrefix(trimmed, "-") {
				diags.Errorf(lineNum, indent+1, RuleSyntax,
					"Invalid syntax. Expected key-value pair (key: value) or list item (- item).")
			}
			continue
		}
		checkPair(&diags, lineNum, indent, trimmed, colon)
	}

	return Result{
		Diagnostics:      diags,
		HasBlockingError: diags.HasErrors(),
	}
}

// checkPair runs the key/value checks on a line split at its first colon.
func checkPair(diags *diag.List, lineNum, indent int, trimmed string, colon int) {
	key := trimmed[:colon]
	after := trimmed[colon+1:]

	if strings.ContainsAny(key, "[]{}") {
		diags.Errorf(lineNum, indent+1, RuleKeyBrackets,
			"Invalid character in key %q. Keys should not contain brackets.", key)
	}

	if after != "" && after[0] != ' ' && strings.TrimSpace(after) != "" {
		diags.Errorf(lineNum, indent+colon+2, RuleColonSpace,
			`Missing space after colon. Use "key: value" format, not "key:value".`)
	}

	if strings.TrimSpace(key) != "" && key != strings.TrimSpace(key) {
		diags.Warnf(lineNum, indent+colon+1, RuleKeyTrailingSpace,
			"Unnecessary spaces before colon in key.")
	}

	value := strings.TrimSpace(after)
	if value == "" || strings.ContainsAny(value[:1], `"'[{`) {
		return
	}
	if strings.Contains(value, "#") {
		diags.Warnf(lineNum, indent+colon+2, RuleValueHash,
			`Unquoted "#" character in value may be interpreted as a comment. Consider quoting the value.`)
	}
	if strings.Contains(value, ":") && !strings.HasSuffix(trimmed, ":") {
		diags.Warnf(lineNum, indent+colon+2, RuleValueColon,
			"Unquoted colon in value. Consider quoting the value to avoid parsing issues.")
	}
}

// leadingWhitespace returns the byte length of the indentation of line.
func leadingWhitespace(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return len(line)
}

// isOneStep reports whether an indentation increase is a single level.
// Before the step is known either width is accepted.
func isOneStep(diff, step int) bool {
	if step == 0 {
		return diff == 2 || diff == 4
	}
	return diff == step
}

func stepText(step int) string {
	if step == 0 {
		return "2 or 4 spaces"
	}
	if step == 2 {
		return "2 spaces"
	}
	return "4 spaces"
}
