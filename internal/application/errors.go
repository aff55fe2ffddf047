package application

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned when the caller is not authenticated or the
	// presented token is invalid, expired, or revoked.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the acting principal lacks permission for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness rule would be violated.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned for any failed username/password pair,
	// regardless of the active authentication strategy.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrTooManyAttempts is returned when a username is locked out after
	// repeated login failures.
	ErrTooManyAttempts = errors.New("application: too many login attempts")
	// ErrAuthNotConfigured is returned when the active authentication strategy
	// cannot serve the requested operation, for example password login while
	// OIDC is active or an unreachable directory.
	ErrAuthNotConfigured = errors.New("application: authentication strategy not configured")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// SlotConflict identifies an existing reservation blocking a requested slot.
type SlotConflict struct {
	BookingID string
	Date      string
	StartTime string
	EndTime   string
}

// ConflictError reports the reservations that made a booking write fail. It
// is distinct from ValidationError so callers can answer with a conflict
// status instead of a bad-request one.
type ConflictError struct {
	Conflicts []SlotConflict
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || len(c.Conflicts) == 0 {
		return "booking conflicts with an existing reservation"
	}
	slots := make([]string, 0, len(c.Conflicts))
	for _, conflict := range c.Conflicts {
		slots = append(slots, fmt.Sprintf("%s %s-%s", conflict.Date, conflict.StartTime, conflict.EndTime))
	}
	return "booking conflicts with existing reservations: " + strings.Join(slots, ", ")
}
