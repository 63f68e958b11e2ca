// Package datastore implements prefix-scoped access to an embedded ordered
// key-value store.
//
// Keys form a hierarchical namespace through string prefixes, for example
// "slack.token" or "motion.snapshots.<id>". The package never opens, closes or
// writes records; it reads through the Store contract and deletes whole
// records during a trim.
//
//	all, err := datastore.GetAllRecords(ctx, db)
//	snaps, err := datastore.GetRecordsByPrefix(ctx, db, "motion.snapshots.")
//	n, err := datastore.TrimByPrefix(ctx, db, "motion.snapshots.")
//
// # Retention
//
// TrimByPrefix keeps the RetainCount lexicographically largest keys under a
// prefix and deletes the rest. That is "keep the most recent" only when keys
// embed a sortable sequence; callers in this repository build such keys with
// pkg/id.
//
// # Errors
//
// Read failures are reported as *StoreReadError and no partial result is
// returned. Delete failures abort the trim and are reported as
// *StoreWriteError.
//
// # Concurrency
//
// Calls hold no locks. Two trims on overlapping prefixes may observe the same
// key set and issue overlapping deletes; callers serialize trims themselves
// when that matters.
package datastore
