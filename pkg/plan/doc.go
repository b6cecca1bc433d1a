// Package plan models test-plan configurations.
//
// A configuration is a tree of Values: a closed tagged union of null,
// string, number, boolean, list and ordered mapping. The package also
// resolves dotted paths against a tree, builds configurations from a
// user's Selection, hands out identifiers for user-defined test cases,
// and names downloaded documents.
//
// # Building a plan
//
//	in := plan.Input{
//	    Selection:   sel,
//	    Machines:    machines,
//	    TestCases:   cases,
//	    GeneratedAt: time.Now(),
//	}
//	cfg, err := plan.NewBuilder(plan.NewIDAllocator(0)).Build(in)
//
// # Path resolution
//
// GetNestedValue follows dot-separated keys and reports false as soon as
// a segment is missing. HasKey and FindKey look for a bare key anywhere
// in the mapping tree, skipping list elements.
package plan
