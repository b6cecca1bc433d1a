// Package parser reads configuration documents back into value trees.
//
// Parse is a shallow reader: it recovers root-level scalars and one level
// of nested scalars, which is all the compatibility rules need for
// hardware and environment fields. It never fails.
//
// Decode runs the full YAML decoder (gopkg.in/yaml.v3). It keeps key order
// and nesting, records the line of every key, and reports malformed input
// as a *SyntaxError with the decoder's line number.
package parser
