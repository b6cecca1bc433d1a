// Package catalog provides the machines and test cases a test plan is
// built from.
//
// Two backends implement Catalog: MemoryCatalog, seeded from the built-in
// fixture, and SQLiteCatalog, which persists the same data in a SQLite
// database. Compatibility compares a plan document against the catalog's
// machines.
package catalog
