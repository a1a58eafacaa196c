// Package repository defines the data access interfaces for the
// discovery server.
//
// This package provides the repository abstraction layer for
// persisting operator-created credentials. The actual implementation
// is in the sqlite subpackage.
//
// # SQLite Implementation
//
// The sqlite implementation uses WAL mode for concurrency and stores
// credential data as JSON. The schema is migrated automatically on
// startup.
//
// Scan jobs and their results are deliberately not persisted here:
// they are retained in memory for a bounded window and expire.
package repository
