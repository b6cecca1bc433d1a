// Package lint checks configuration documents line by line without
// parsing them.
//
// Checks run per non-blank, non-comment line in a fixed order: tab and
// mixed indentation, indentation step (2 or 4 spaces, set by the first
// indented line), unusual indentation jumps, list markers, and key/value
// layout around the first colon. Each finding is a diag.Diagnostic with a
// stable rule identifier; any error-severity finding makes the result
// blocking.
package lint
