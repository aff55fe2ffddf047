package http

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
	"github.com/example/booking-portal/internal/logging"
)

// Error codes carried in the error envelope. Clients branch on the code; the
// message is for humans.
const (
	codeBadRequest         = "BAD_REQUEST"
	codeValidationFailed   = "VALIDATION_FAILED"
	codeAuthRequired       = "AUTH_REQUIRED"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeForbidden          = "FORBIDDEN"
	codeNotFound           = "NOT_FOUND"
	codeAlreadyExists      = "ALREADY_EXISTS"
	codeBookingConflict    = "BOOKING_CONFLICT"
	codeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	codeInternal           = "INTERNAL_ERROR"
)

var errBadRequestBody = errors.New("request body is not valid JSON")

// errorResponse is the uniform error envelope: a machine-readable code, a
// human-readable message, and per-field detail on validation failures.
type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type responder struct {
	logger zerolog.Logger
}

func newResponder(logger zerolog.Logger) responder {
	return responder{logger: logger}
}

func (rp responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger := rp.loggerFor(ctx)
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (rp responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	rp.writeJSON(ctx, w, status, errorResponse{Error: code, Message: message})
}

// writeDecodeError answers a rejected request body: structural validation
// failures carry field detail, malformed JSON is a plain 400.
func (rp responder) writeDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		rp.writeValidationError(ctx, w, vErr)
		return
	}
	rp.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, errBadRequestBody.Error())
}

func (rp responder) writeValidationError(ctx context.Context, w http.ResponseWriter, vErr *application.ValidationError) {
	rp.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
		Error:   codeValidationFailed,
		Message: "validation failed",
		Fields:  vErr.FieldErrors,
	})
}

// handleServiceError translates the application error taxonomy into HTTP
// statuses. Credential failures answer 401 with one shared message
// regardless of the active strategy. Unrecognized errors answer 500 with no
// internal detail; the cause goes to the log only.
func (rp responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		rp.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "internal server error")
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		rp.writeValidationError(ctx, w, vErr)
		return
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		rp.writeError(ctx, w, http.StatusConflict, codeBookingConflict, cErr.Error())
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrAuthNotConfigured):
		rp.writeError(ctx, w, http.StatusUnauthorized, codeInvalidCredentials, "invalid username or password")
	case errors.Is(err, application.ErrUnauthorized):
		rp.writeError(ctx, w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
	case errors.Is(err, application.ErrForbidden):
		rp.writeError(ctx, w, http.StatusForbidden, codeForbidden, "permission denied")
	case errors.Is(err, application.ErrNotFound):
		rp.writeError(ctx, w, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, application.ErrAlreadyExists):
		rp.writeError(ctx, w, http.StatusConflict, codeAlreadyExists, "resource already exists")
	case errors.Is(err, application.ErrTooManyAttempts):
		rp.writeError(ctx, w, http.StatusTooManyRequests, codeTooManyAttempts, "too many login attempts, retry later")
	default:
		logger := rp.loggerFor(ctx)
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("request failed")
		rp.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func (rp responder) loggerFor(ctx context.Context) zerolog.Logger {
	logger := logging.FromContext(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		return rp.logger
	}
	return logger
}
