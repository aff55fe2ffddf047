package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned for any other constraint failure.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)

// BookingConflict identifies a confirmed booking that blocks a checked write.
type BookingConflict struct {
	BookingID string
	Date      string
	StartTime string
	EndTime   string
}

// ConflictError aborts a checked booking write; it lists every blocking
// reservation found inside the write transaction.
type ConflictError struct {
	Conflicts []BookingConflict
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return "persistence: booking slot conflict"
}
