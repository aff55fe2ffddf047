package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Executor applies migrations and maintains the schema_migrations ledger.
type Executor struct {
	db *sql.DB
}

// NewExecutor creates a migration executor for the given database.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// InitLedger creates the schema_migrations table if it does not exist.
func (e *Executor) InitLedger(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version           INTEGER PRIMARY KEY,
			applied_at        TEXT NOT NULL,
			checksum          TEXT NOT NULL DEFAULT '',
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)
	`
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return newError(0, "schema_migrations", "create ledger", err)
	}
	return nil
}

// Apply runs every statement of the migration and inserts its ledger row in
// a single transaction, so a failure leaves no partial schema behind.
func (e *Executor) Apply(ctx context.Context, m Migration) error {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return newError(m.Version, m.FileName, "parse sql",
			fmt.Errorf("%w: no statements found", ErrInvalidMigrationFile))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(m.Version, m.FileName, "begin transaction", err)
	}

	started := time.Now()
	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return newError(m.Version, m.FileName, fmt.Sprintf("execute statement %d", i+1),
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
	}

	const record = `
		INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
		VALUES (?, ?, ?, ?)
	`
	appliedAt := time.Now().UTC().Format(time.RFC3339)
	elapsedMs := time.Since(started).Milliseconds()
	if _, err := tx.ExecContext(ctx, record, m.Version, appliedAt, m.Checksum, elapsedMs); err != nil {
		_ = tx.Rollback()
		return newError(m.Version, m.FileName, "record migration", err)
	}

	if err := tx.Commit(); err != nil {
		return newError(m.Version, m.FileName, "commit transaction", err)
	}
	return nil
}

// Applied returns the ledger rows ordered by ascending version.
func (e *Executor) Applied(ctx context.Context) ([]AppliedMigration, error) {
	const query = `
		SELECT version, applied_at, checksum, execution_time_ms
		FROM schema_migrations
		ORDER BY version ASC
	`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, newError(0, "schema_migrations", "query ledger", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			record      AppliedMigration
			appliedAt   string
			executionMs int64
		)
		if err := rows.Scan(&record.Version, &appliedAt, &record.Checksum, &executionMs); err != nil {
			return nil, newError(0, "schema_migrations", "scan ledger row", err)
		}
		record.AppliedAt, err = time.Parse(time.RFC3339, appliedAt)
		if err != nil {
			return nil, newError(record.Version, "schema_migrations", "parse applied_at", err)
		}
		record.ExecutionTime = time.Duration(executionMs) * time.Millisecond
		applied = append(applied, record)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(0, "schema_migrations", "iterate ledger", err)
	}

	return applied, nil
}

// splitStatements breaks migration SQL on semicolons, dropping empty pieces
// and comment-only lines. Statement bodies must not contain semicolons in
// string literals.
func splitStatements(sqlContent string) []string {
	var statements []string

	for _, chunk := range strings.Split(sqlContent, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}

	return statements
}
