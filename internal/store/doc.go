// Package store provides SQLite-backed run history.
//
// Every run writes one row to runs and one row per executed test to
// records. Rows are append-only: a record is keyed by (run_id, test) and a
// duplicate write is ignored.
//
// # Ordering
//
// Records are read back ORDER BY seq ASC, test COLLATE BINARY ASC. seq is
// the logical clock value the harness stamped when the test was reported,
// never wall time. Runs are listed in insertion order.
//
// # Digests
//
// records.digest is invoke.Digest of the outcome. Two records with the same
// digest have the same observable outcome; Diff compares runs on digest
// alone so frame locations and messages never register as a change.
//
// # Connection settings
//
// Open passes its pragmas in the driver DSN so each pooled connection gets
// WAL journaling, synchronous=NORMAL, a 5s busy timeout and foreign key
// enforcement. schema.sql is applied on every open and only creates what is
// missing.
package store
