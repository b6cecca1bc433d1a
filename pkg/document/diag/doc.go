// Package diag defines line-scoped diagnostics reported against documents.
//
// A Diagnostic names a line (and column when known), a severity and a
// stable rule identifier. Errors block further processing; warnings are
// informational. ExtractContext renders the neighbouring source lines for
// display, and SuggestValue proposes near matches for rejected values.
package diag
