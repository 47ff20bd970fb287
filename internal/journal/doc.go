// Package journal records executed CQL statements in a SQLite database.
//
// The journal is an append-only audit log: one row per statement sent to
// the session, with the operation, table, CQL text, bind values as JSON,
// duration, affected row count and error text. It never feeds back into
// query compilation.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// Entries are always listed in insertion order (ORDER BY id).
package journal
