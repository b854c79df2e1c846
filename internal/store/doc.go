// Package store is a SQLite-backed vertex store that executes pushed-down
// filter conditions.
//
// Each vertex is one row:
//
//	vertices(id INTEGER PRIMARY KEY, label INTEGER NOT NULL, props TEXT NOT NULL)
//
// props holds a JSON object keyed by decimal property identifier, so
// property 7 of a vertex is json_extract(props, '$."7"'). Scan compiles a
// condition.Condition with condsql and runs it inside SQLite.
//
// # Deterministic Results
//
// Every read orders by id ascending.
//
// # Database Configuration
//
// File databases run in WAL mode; every database gets synchronous=NORMAL
// and a 5 second busy timeout. The pool holds a single connection, so a
// ":memory:" database persists for the lifetime of the Store. Schema
// changes are applied as numbered migrations tracked in user_version.
package store
