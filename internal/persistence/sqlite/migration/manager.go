package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
)

// Manager orchestrates the migration run: scan the filesystem, diff against
// the ledger, and apply whatever is pending in version order.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	fsys     fs.FS
	dir      string
	logger   zerolog.Logger
}

// NewManager creates a manager reading migrations from dir inside fsys.
func NewManager(db *sql.DB, fsys fs.FS, dir string, logger zerolog.Logger) *Manager {
	return &Manager{
		scanner:  NewScanner(),
		executor: NewExecutor(db),
		fsys:     fsys,
		dir:      dir,
		logger:   logger.With().Str("component", "migration").Logger(),
	}
}

// Run applies every pending migration in ascending version order. A failure
// stops the run; already-applied migrations stay committed.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.executor.InitLedger(ctx); err != nil {
		return err
	}

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	if len(status.Pending) == 0 {
		m.logger.Debug().Int("version", status.CurrentVersion).Msg("schema up to date")
		return nil
	}

	m.logger.Info().
		Int("current_version", status.CurrentVersion).
		Int("pending", len(status.Pending)).
		Msg("applying schema migrations")

	for _, mig := range status.Pending {
		if err := m.executor.Apply(ctx, mig); err != nil {
			m.logger.Error().Err(err).Int("version", mig.Version).Msg("migration failed")
			return err
		}
		m.logger.Info().
			Int("version", mig.Version).
			Str("description", mig.Description).
			Msg("migration applied")
	}

	return nil
}

// Status diffs the available migration files against the ledger. It fails
// on sequence gaps, applied versions without a file, and checksum drift.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	available, err := m.scanner.Scan(m.fsys, m.dir)
	if err != nil {
		return nil, err
	}

	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return nil, err
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	appliedSet := make(map[int]struct{}, len(applied))
	current := 0
	for _, record := range applied {
		appliedSet[record.Version] = struct{}{}
		if record.Version > current {
			current = record.Version
		}
	}

	var pending []Migration
	for _, mig := range available {
		if _, ok := appliedSet[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}

	return &Status{CurrentVersion: current, Applied: applied, Pending: pending}, nil
}

// validateSequence enforces a gapless version range, a file for every
// applied version, and unchanged content for applied files.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	if len(available) == 0 {
		if len(applied) > 0 {
			return fmt.Errorf("%w: %d applied migrations but no migration files", ErrSequenceGap, len(applied))
		}
		return nil
	}

	byVersion := make(map[int]Migration, len(available))
	for _, mig := range available {
		byVersion[mig.Version] = mig
	}

	// available is sorted, so the bounds are the first and last entries.
	lo, hi := available[0].Version, available[len(available)-1].Version
	for v := lo; v <= hi; v++ {
		if _, ok := byVersion[v]; !ok {
			return fmt.Errorf("%w: missing version %03d", ErrSequenceGap, v)
		}
	}

	for _, record := range applied {
		mig, ok := byVersion[record.Version]
		if !ok {
			return fmt.Errorf("%w: applied version %03d has no migration file", ErrSequenceGap, record.Version)
		}
		if record.Checksum != "" && record.Checksum != mig.Checksum {
			return newError(mig.Version, mig.FileName, "verify checksum", ErrChecksumMismatch)
		}
	}

	return nil
}
