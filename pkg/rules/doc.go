// Package rules checks configuration trees against compatibility rules.
//
// Rules are data. A RuleSet is loaded from YAML, either the built-in
// default or a file, and handed to an Engine. The engine evaluates rule
// kinds in a fixed order and reports the first failure:
//
//	required  E001  path must be defined
//	nonEmpty  E002  path must be defined and non-empty
//	type      E101  value must have the expected type
//	range     E102  value must be in the whitelist
//	combo     E300  conditions must not all hold together
//
// Input that is not a mapping is rejected with E000, and a fault during
// evaluation is reported as E999 instead of propagating.
//
// Paths are dotted. A "*" segment, or the "[]" suffix, expands over every
// key of a mapping or element of a list, and failures name the concrete
// path, e.g. "test_suites.2.order".
package rules
