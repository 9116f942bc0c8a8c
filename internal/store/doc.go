// Package store provides the durable mutation journal backing the
// sequencing engine.
//
// The engine itself is an in-memory model; persistence is strictly an
// append-only journal of accepted mutations per project. A project's
// graph is rebuilt by replaying its journal in sequence order (see the
// engine package's Replay).
//
// SQLite with WAL mode is used so concurrent readers (snapshot tooling,
// the replay CLI) never block the single writer. Writes are idempotent:
// re-journaling an already-recorded (project, seq) pair is a no-op, which
// makes crash recovery safe.
package store
