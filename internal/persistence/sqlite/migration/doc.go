// Package migration applies versioned schema changes to a SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_create_users.sql") and are read from any fs.FS, which lets the
// binary ship with a compiled-in set while still accepting a directory
// override for operational fixes. Each migration runs inside its own
// transaction together with the ledger insert, so a failed statement leaves
// neither schema change nor ledger row behind.
//
// The schema_migrations table tracks applied versions with their checksums;
// a file that changes after it was applied fails the run instead of silently
// diverging.
package migration
