package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/booking-portal/internal/persistence"
)

const authConfigColumns = "id, auth_type, settings, is_active, created_by, created_at"

// AuthConfigRepository implements persistence.AuthConfigRepository using
// SQLite. Rows are append-only; switching strategies deactivates the old row
// and inserts a new active one, so the table doubles as an audit trail.
type AuthConfigRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAuthConfigRepository creates a new SQLite auth config repository.
func NewAuthConfigRepository(pool *ConnectionPool) *AuthConfigRepository {
	return &AuthConfigRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetActiveConfig returns the single active row. A partial unique index
// guarantees at most one exists.
func (r *AuthConfigRepository) GetActiveConfig(ctx context.Context) (persistence.AuthConfig, error) {
	query := `SELECT ` + authConfigColumns + ` FROM auth_configs WHERE is_active = 1`
	return r.scanConfig(r.helper.QueryRow(ctx, query))
}

// ActivateConfig deactivates the previous row and inserts the new active one
// in the same transaction, so readers never observe zero or two active rows.
func (r *AuthConfigRepository) ActivateConfig(ctx context.Context, config persistence.AuthConfig) error {
	if config.ID == "" || config.AuthType == "" {
		return persistence.ErrConstraintViolation
	}

	settings := string(config.Settings)
	if settings == "" {
		settings = "{}"
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(ctx, tx,
			`UPDATE auth_configs SET is_active = 0 WHERE is_active = 1`); err != nil {
			return r.mapper.MapError(err)
		}

		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO auth_configs (id, auth_type, settings, is_active, created_by, created_at)
			VALUES (?, ?, ?, 1, ?, ?)
		`,
			config.ID,
			config.AuthType,
			settings,
			config.CreatedBy,
			formatTime(config.CreatedAt),
		)
		return r.mapper.MapError(err)
	})
}

// ListConfigs returns the full audit trail, newest first.
func (r *AuthConfigRepository) ListConfigs(ctx context.Context) ([]persistence.AuthConfig, error) {
	query := `SELECT ` + authConfigColumns + ` FROM auth_configs ORDER BY created_at DESC, id DESC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var configs []persistence.AuthConfig
	for rows.Next() {
		config, err := r.scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return configs, nil
}

func (r *AuthConfigRepository) scanConfig(row rowScanner) (persistence.AuthConfig, error) {
	var (
		config    persistence.AuthConfig
		settings  string
		createdAt string
	)

	err := row.Scan(
		&config.ID,
		&config.AuthType,
		&settings,
		&config.IsActive,
		&config.CreatedBy,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AuthConfig{}, persistence.ErrNotFound
		}
		return persistence.AuthConfig{}, r.mapper.MapError(err)
	}

	config.Settings = []byte(settings)
	if config.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.AuthConfig{}, fmt.Errorf("auth_configs.created_at: %w", err)
	}

	return config, nil
}
