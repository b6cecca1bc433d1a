package plan

import (
	"fmt"
	"strings"
	"time"
)

// Filename returns the download name for a document produced at t,
// e.g. test_plan_2024-03-09_140502.yaml. The caller picks the time zone.
func Filename(t time.Time) string {
	return fmt.Sprintf("test_plan_%s.yaml", t.Format("2006-01-02_150405"))
}

// LineNumbers returns the 1-based numbers of the lines in text, one per
// emitted line. A trailing newline does not start a new line.
func LineNumbers(text string) []int {
	n := strings.Count(text, "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		n++
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
