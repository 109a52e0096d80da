// Package storage loads the bank table into SQLite and runs the read-back
// queries against it.
//
// A Store wraps one database handle. Load replaces the named table in a
// single transaction, so loading the same table twice leaves the same rows.
// Table names are interpolated into SQL and must be plain identifiers.
package storage
