package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMigrationFile indicates a malformed migration file or name.
	ErrInvalidMigrationFile = errors.New("invalid migration file")

	// ErrDuplicateVersion indicates two files claim the same version number.
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrSequenceGap indicates a missing version between the lowest and
	// highest available migrations, or an applied version without a file.
	ErrSequenceGap = errors.New("migration sequence gap")

	// ErrChecksumMismatch indicates an applied migration file was edited
	// after it ran.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")

	// ErrMigrationFailed indicates a migration statement failed to execute.
	ErrMigrationFailed = errors.New("migration execution failed")
)

// Error carries the version and file a migration failure belongs to.
type Error struct {
	Version   int
	FileName  string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("migration %03d (%s): %s: %v", e.Version, e.FileName, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.FileName, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(version int, fileName, operation string, err error) *Error {
	return &Error{Version: version, FileName: fileName, Operation: operation, Err: err}
}
