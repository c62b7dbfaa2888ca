// Package store provides the SQLite run ledger.
//
// The ledger mirrors two append-only artifacts so a run can be audited and
// re-verified without re-reading the output tree:
//   - Execution events: one row per (run_id, scenario_id, pass_label)
//   - Regression fixtures: promoted adversarial findings, keyed by id
//
// # Ordering
//
// Events are read back in insertion order (seq), never by timestamp, so the
// verifier sees passes in the order they were executed.
//
// # Idempotency
//
// Re-appending an event for the same (run_id, scenario_id, pass_label) is a
// no-op. Fixtures are upserted: the latest triage of an id replaces the row.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - single connection (SQLite has one writer)
package store
