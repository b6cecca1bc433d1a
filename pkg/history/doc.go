// Package history keeps a record of every document check.
//
// A Record stores the verdict of one check together with a SHA-256 hash
// of the checked text; the text itself is never stored. Records live in
// a Store, either SQLiteStore for durable history or MemoryStore for tests
// and short-lived processes. A Pruner removes records past the retention
// period, on demand or on a cron schedule.
package history
