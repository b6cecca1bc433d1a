// Package source supplies rule sets to a running engine.
//
// A Holder owns the active rules.Engine and swaps it atomically. Callers
// read it once per check, so a reload never affects a check in flight.
// Rule sets reach the holder from a file, from a FileWatcher that reloads
// the file on change, or from a GitSource that clones a repository and
// polls it for new commits.
//
// A rule set that fails to load or validate never replaces the active
// one; the last good rule set stays in effect.
package source
