package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for portal accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	// UpsertDirectoryUser inserts a shadow account on first directory login
	// and refreshes its email and display name afterwards, preserving the
	// stored role. The persisted row is returned.
	UpsertDirectoryUser(ctx context.Context, user User) (User, error)
}

// RoomRepository exposes CRUD operations for rooms. Deletion is always the
// soft kind; rows never leave the table.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, includeInactive bool) ([]Room, error)
	DeactivateRoom(ctx context.Context, id string, updatedAt time.Time) error
	CountActiveRooms(ctx context.Context) (int, error)
}

// BookingFilter narrows booking queries. Zero fields are ignored.
type BookingFilter struct {
	OwnerID          string
	RoomID           string
	Date             string
	SeriesID         string
	IncludeCancelled bool
}

// BookingRepository stores reservations. The checked writes run their
// availability scan and the subsequent mutation inside a single transaction,
// returning *ConflictError when a confirmed reservation blocks the slot.
type BookingRepository interface {
	// CreateBookings inserts every booking, plus the series row when the
	// create expands a recurrence rule, atomically.
	CreateBookings(ctx context.Context, series *BookingSeries, bookings []Booking) error
	// UpdateBooking rewrites a booking after re-checking its slot, excluding
	// the booking's own row from the overlap scan.
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	GetBookingDetails(ctx context.Context, id string) (BookingDetails, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	ListBookingDetails(ctx context.Context, filter BookingFilter) ([]BookingDetails, error)
	SetBookingStatus(ctx context.Context, id string, status string, updatedAt time.Time) error
	// CancelSeries cancels every confirmed booking in the series and reports
	// how many rows changed.
	CancelSeries(ctx context.Context, seriesID string, updatedAt time.Time) (int, error)
	ListConfirmedSlots(ctx context.Context, roomID, date string) ([]BookingSlot, error)
	CountConfirmedOn(ctx context.Context, date string) (int, error)
	// CountRoomsBusyAt counts distinct rooms with a confirmed booking whose
	// interval contains the given clock value on the given date.
	CountRoomsBusyAt(ctx context.Context, date, clock string) (int, error)
}

// SessionRepository stores issued bearer sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthConfigRepository stores the authentication strategy audit trail.
type AuthConfigRepository interface {
	// GetActiveConfig returns the single active row, or ErrNotFound when the
	// portal has never been configured.
	GetActiveConfig(ctx context.Context) (AuthConfig, error)
	// ActivateConfig deactivates the previous row and inserts the new active
	// one in the same transaction.
	ActivateConfig(ctx context.Context, config AuthConfig) error
	ListConfigs(ctx context.Context) ([]AuthConfig, error)
}
