// Package store keeps validation run history in SQLite.
//
// Each run is stored with its summary, every (rule, file, cell) tally and
// its diagnostics, written in a single transaction. Runs are identified by
// their run ID and ordered by an insertion sequence, never by wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Tallies and diagnostics belong to a run
//   - user_version: Incremental migrations
package store
