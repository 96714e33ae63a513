// Package ledger holds the shared task document and its file store.
//
// The ledger is a single JSON file with two top-level arrays: tasks and
// task_pairs. It is the only source of truth shared between agents and the
// administrative commands; every mutation is a full read-mutate-write of the
// document, performed while holding the lockfile manager's lock.
//
// # Data Model
//
// A [Task] moves PENDING → IN_PROGRESS → {COMPLETED, FAILED}. A [TaskPair]
// links exactly two tasks and moves BLOCKED → READY → COMPLETED, ordered by
// its sequence_index. Both carry an append-only history of
// [HistoryEvent] records.
//
// # Store Semantics
//
// [Store.Read] returns an empty well-formed ledger when the file is absent
// (first run) and a LedgerError wrapping errors.ErrLedgerCorrupt when the
// file exists but fails to parse. Callers must never overwrite a document
// they could not parse. [Store.Write] replaces the whole file atomically via
// a temp file and rename.
package ledger
