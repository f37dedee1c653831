// Package store provides the SQLite session journal.
//
// The journal is an append-only audit trail of one interactive session:
//   - Sessions: algorithm name, speed and the engine/codec versions
//   - Actions: every do and undo, with its argument
//   - Commands: every executed command in wire form, with any failure
//   - Snapshots: every step boundary, with the scene hash and objects
//
// It is never used to restore animation state. The replay command re-runs
// the recorded actions in a fresh session and compares scene hashes.
//
// # Ordering
//
// All rows are stamped with seq from one logical clock per session and
// every query orders by seq ASC. No wall-clock timestamps are stored, so a
// replayed session produces an identical journal.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
