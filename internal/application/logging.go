package application

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/logging"
)

// serviceLogger derives an operation-scoped logger, preferring the
// request-scoped logger carried by the context over the service's base logger.
func serviceLogger(ctx context.Context, base zerolog.Logger, serviceName, operation string) zerolog.Logger {
	logger := logging.FromContext(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = base
	}

	lc := logger.With().Str("service", serviceName)
	if operation != "" {
		lc = lc.Str("operation", operation)
	}
	return lc.Logger()
}

// ErrorKind maps sentinel and structured errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, ErrAuthNotConfigured):
		return "auth_not_configured"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return "conflict"
	}

	return "unexpected"
}
