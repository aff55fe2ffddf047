package migration

import "time"

// Migration is one schema change read from a migration file.
type Migration struct {
	Version     int    // sequence number parsed from the filename
	Description string // taken from a "-- Description:" comment, else the filename
	SQL         string
	FileName    string
	Checksum    string // SHA-256 of the file content
}

// AppliedMigration is one row of the schema_migrations ledger.
type AppliedMigration struct {
	Version       int
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarizes the ledger against the available migration files.
type Status struct {
	CurrentVersion int // highest applied version, 0 when the database is empty
	Applied        []AppliedMigration
	Pending        []Migration
}
