package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// UserStore captures the persistence operations needed by the user service.
// Accounts are created by registration or by the directory shadow upsert, so
// this surface is read-only.
type UserStore interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService serves account lookups. Mutation happens through AuthService
// (registration, shadow upserts); there is no user editing surface.
type UserService struct {
	users  UserStore
	logger zerolog.Logger
}

// NewUserService constructs a user service with the provided store.
func NewUserService(users UserStore) *UserService {
	return NewUserServiceWithLogger(users, zerolog.Nop())
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users UserStore, logger zerolog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation)
}

// GetUser returns one account. Non-admin callers may only read their own.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	logger := s.loggerWith(ctx, "GetUser").With().
		Str("principal_id", principal.UserID).
		Str("user_id", userID).
		Logger()

	if userID != principal.UserID && !principal.IsAdmin() {
		err = ErrForbidden
		logger.Error().Str("error_kind", ErrorKind(err)).Msg("failed to load user")
		return
	}

	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		if isNotFoundError(err) {
			err = ErrNotFound
		}
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to load user")
		return
	}
	return
}

// Profile returns the account behind the authenticated principal. A missing
// row means the session outlived its account, so the caller is treated as
// unauthenticated.
func (s *UserService) Profile(ctx context.Context, principal Principal) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	if principal.UserID == "" {
		return User{}, ErrUnauthorized
	}

	user, err = s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		if isNotFoundError(err) {
			err = ErrUnauthorized
		}
		logger := s.loggerWith(ctx, "Profile")
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Str("principal_id", principal.UserID).Msg("failed to load profile")
		return
	}
	return
}

// ListUsers returns every account sorted by username, for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) (users []User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListUsers").With().
		Str("principal_id", principal.UserID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to list users")
			return
		}
		logger.Info().Int("result_count", len(users)).Msg("users listed")
	}()

	if !principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	var raw []User
	raw, err = s.users.ListUsers(ctx)
	if err != nil {
		return
	}

	users = make([]User, len(raw))
	copy(users, raw)

	sort.Slice(users, func(i, j int) bool {
		if !strings.EqualFold(users[i].Username, users[j].Username) {
			return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
		}
		return users[i].ID < users[j].ID
	})

	return
}
