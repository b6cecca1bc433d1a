package rules

import "strings"

// Verdict renders r as "True:0" or "False:<errorCode>".
func Verdict(r Result) string {
	if r.Valid {
		return "True:" + CodeOK
	}
	return "False:" + r.ErrorCode
}

// SplitVerdict parses a verdict string. Only the first colon separates the
// flag from the code, since codes may contain colons themselves.
func SplitVerdict(verdict string) (valid bool, errorCode string) {
	flag, code, ok := strings.Cut(verdict, ":")
	if !ok {
		return false, strings.TrimSpace(verdict)
	}
	return strings.EqualFold(strings.TrimSpace(flag), "true"), code
}
