// Package store provides the SQLite run ledger for supervised guest runs.
//
// Each supervised run is one row in runs, with its verdict errors in
// run_errors ordered by idx. Rows are append-only: writing a run ID that
// already exists is a no-op.
//
// # Ordering
//
// Runs are listed newest first by recorded_at, then seq, then id
// (COLLATE BINARY), so listings are stable when several runs share a
// timestamp.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
