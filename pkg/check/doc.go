// Package check runs a plan document through the validation pipeline:
// input checks, syntax lint, parsing, compatibility analysis and line
// location. The resulting Report decides whether a document may be
// committed.
package check
