// Package store provides SQLite-backed durable storage for compiled
// programs and recorded runs.
//
// The store is an append-only log with:
//   - Programs: source and canonical IR, content-addressed by ir.ProgramHash
//   - Runs: one execution of a program with its source, config, input,
//     output and error code
//
// # Ordering
//
// Every record carries a seq INTEGER assigned from a logical clock inside
// the write transaction. Listings order by seq ASC, id ASC COLLATE BINARY,
// never by wall time, so two stores fed the same writes list identically.
//
// # File Identity
//
// A log is stamped with application_id "bfc\x00" and user_version 1. Open
// refuses SQLite files stamped by other applications and logs written by a
// newer schema.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
