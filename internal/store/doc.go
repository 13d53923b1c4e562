// Package store persists analysis output in SQLite.
//
// Relationships are keyed by (schema_a, schema_b, kind) and skipped schemas
// by their ref, so saving the same report twice leaves those tables as they
// were. Every saved report also appends one row to runs.
//
// The database is opened through the ncruces/go-sqlite3 database/sql driver,
// which embeds a WebAssembly build of SQLite and needs no cgo.
package store
