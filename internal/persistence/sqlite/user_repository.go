package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/booking-portal/internal/persistence"
)

const userColumns = "id, username, email, password_hash, display_name, role, auth_type, created_at, updated_at"

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new account. Username and email are stored lowercased
// so the unique constraints are case-insensitive.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.Username == "" || user.Email == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		user.ID,
		normalizeKey(user.Username),
		normalizeKey(user.Email),
		nullString(user.PasswordHash),
		user.DisplayName,
		user.Role,
		user.AuthType,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetUser retrieves an account by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.helper.QueryRow(ctx, query, id))
}

// GetUserByUsername retrieves an account by its lowercased username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	if username == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanUser(r.helper.QueryRow(ctx, query, normalizeKey(username)))
}

// GetUserByEmail retrieves an account by its lowercased email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.helper.QueryRow(ctx, query, normalizeKey(email)))
}

// ListUsers returns all accounts ordered by creation time then ID.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return users, nil
}

// CountUsers returns the number of accounts. The registration flow uses it
// to grant the first account the admin role.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// UpsertDirectoryUser creates a shadow account on first directory login and
// refreshes its email and display name afterwards. The stored role survives
// refreshes so a promotion to admin is not lost on the next login.
func (r *UserRepository) UpsertDirectoryUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	if user.ID == "" || user.Username == "" || user.Email == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}

	username := normalizeKey(user.Username)

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			updated_at = excluded.updated_at
	`

	_, err := r.helper.Exec(ctx, query,
		user.ID,
		username,
		normalizeKey(user.Email),
		nullString(user.PasswordHash),
		user.DisplayName,
		user.Role,
		user.AuthType,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	return r.GetUserByUsername(ctx, username)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var (
		user         persistence.User
		passwordHash sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&passwordHash,
		&user.DisplayName,
		&user.Role,
		&user.AuthType,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, r.mapper.MapError(err)
	}

	user.PasswordHash = stringPtr(passwordHash)
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("users.created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("users.updated_at: %w", err)
	}

	return user, nil
}
