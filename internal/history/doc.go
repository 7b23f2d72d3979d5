// Package history persists a record of every processed episode in SQLite.
//
// The database lives at <state_dir>/history.db and is opened in WAL mode.
// The schema is embedded and stamped with a version; opening a database
// written by a different version fails with ErrSchemaMismatch and the
// operator is expected to clear it.
package history
