// Package store provides an optional SQLite ledger of pipeline runs.
//
// Each run gets one row in runs and one row per executed step in
// step_runs. Configurations and parameters are stored as canonical JSON
// next to the configuration hash, so two runs with the same hash ran the
// same pipeline.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Rows are ordered by seq, a per-database counter assigned on insert.
package store
