// Package history persists finished batch runs in SQLite.
//
// Each run stores its roots, counts, and terminal status, plus one row per
// executed unit with the failure kind and message. The CLI reads the ledger to
// list past runs and to print the failed units of a run so they can be fed
// back through "run --only".
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt the new schema. Old runs are pruned to history.keep_runs after each
// record.
package history
