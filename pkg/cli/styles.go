package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"tpgen-hq/tpgen/pkg/check"
	"tpgen-hq/tpgen/pkg/document/diag"
	"tpgen-hq/tpgen/pkg/document/lint"
)

var (
	colorPass = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}
	colorFail = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	colorWarn = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	colorDim  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorPath = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}
)

// Styles renders check results for humans. Colour is only used when the
// writer is a terminal and NO_COLOR is unset.
type Styles struct {
	color bool
	pass  lipgloss.Style
	fail  lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
	path  lipgloss.Style
}

// NewStyles picks plain or coloured output for w.
func NewStyles(w io.Writer) *Styles {
	if !IsTerminal(w) || os.Getenv("NO_COLOR") != "" {
		return PlainStyles()
	}
	r := lipgloss.NewRenderer(w)
	return &Styles{
		color: true,
		pass:  r.NewStyle().Foreground(colorPass).Bold(true),
		fail:  r.NewStyle().Foreground(colorFail).Bold(true),
		warn:  r.NewStyle().Foreground(colorWarn),
		dim:   r.NewStyle().Foreground(colorDim),
		path:  r.NewStyle().Foreground(colorPath),
	}
}

// PlainStyles renders without escape sequences.
func PlainStyles() *Styles { return &Styles{} }

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *Styles) render(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}

// Pass styles a success marker.
func (s *Styles) Pass(text string) string { return s.render(s.pass, text) }

// Fail styles a failure marker.
func (s *Styles) Fail(text string) string { return s.render(s.fail, text) }

// Warn styles a warning.
func (s *Styles) Warn(text string) string { return s.render(s.warn, text) }

// Dim styles secondary text.
func (s *Styles) Dim(text string) string { return s.render(s.dim, text) }

// Path styles a key path or file name.
func (s *Styles) Path(text string) string { return s.render(s.path, text) }

// RenderReport writes the outcome of checking the document called name:
// a PASS or FAIL header, the diagnostics, and source context around the
// blocking line.
func (s *Styles) RenderReport(w io.Writer, name string, rep *check.Report) error {
	var sb strings.Builder

	if rep.Valid {
		fmt.Fprintf(&sb, "%s %s", s.Pass("PASS"), s.Path(name))
		if n := len(rep.Lint.Warnings()); n > 0 {
			sb.WriteString(s.Dim(fmt.Sprintf(" (%d warnings)", n)))
		}
		if n := len(rep.Skipped); n > 0 {
			sb.WriteString(s.Dim(fmt.Sprintf(" (%d rules skipped by the line parser)", n)))
		}
		sb.WriteByte('\n')
	} else {
		fmt.Fprintf(&sb, "%s %s %s\n", s.Fail("FAIL"), s.Path(name), s.Dim("["+string(rep.Stage)+"]"))
	}

	for _, d := range rep.Lint.Diagnostics {
		line := "  " + d.String()
		if d.IsError() {
			line = s.Fail(line)
		} else {
			line = s.Warn(line)
		}
		sb.WriteString(line + "\n")
	}

	if !rep.Valid && rep.Stage != check.StageSyntax {
		msg := rep.ErrorCode
		if msg == "" {
			msg = rep.Message
		}
		if rep.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", rep.Line, msg)
		}
		sb.WriteString("  " + s.Fail(msg) + "\n")
		if rep.KeyPath != "" {
			fmt.Fprintf(&sb, "  key: %s\n", s.Path(rep.KeyPath))
		}
		if rep.Suggestion != "" {
			fmt.Fprintf(&sb, "  did you mean: %s\n", s.Pass(rep.Suggestion))
		}
		for _, v := range rep.Violations[min(1, len(rep.Violations)):] {
			sb.WriteString("  " + s.Warn(v.ErrorCode) + "\n")
		}
	}

	if !rep.Valid && rep.Line > 0 {
		if ctx := diag.ExtractContext(rep.Document, rep.Line, 0, 2); ctx != "" {
			for _, l := range strings.Split(strings.TrimSuffix(ctx, "\n"), "\n") {
				sb.WriteString("  " + s.Dim(l) + "\n")
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderLint writes the syntax diagnostics of the document called name.
// blocked marks the document as rejected.
func (s *Styles) RenderLint(w io.Writer, name string, res lint.Result, blocked bool) error {
	var sb strings.Builder
	if blocked {
		fmt.Fprintf(&sb, "%s %s\n", s.Fail("FAIL"), s.Path(name))
	} else {
		fmt.Fprintf(&sb, "%s %s\n", s.Pass("PASS"), s.Path(name))
	}
	for _, d := range res.Diagnostics {
		line := "  " + d.String()
		if d.IsError() {
			line = s.Fail(line)
		} else {
			line = s.Warn(line)
		}
		sb.WriteString(line + "\n")
		if d.Suggestion != "" {
			sb.WriteString("    " + s.Dim("suggestion: "+d.Suggestion) + "\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Table renders rows under headers with box borders.
func (s *Styles) Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	if s.color {
		t = t.BorderStyle(s.dim).StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.path.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	} else {
		t = t.StyleFunc(func(int, int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) })
	}
	return t.Render()
}
