package persistence

import "time"

// User represents a portal account row.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash *string
	DisplayName  string
	Role         string
	AuthType     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a meeting room catalog row.
type Room struct {
	ID        string
	Name      string
	Floor     int
	Capacity  int
	Equipment []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booking represents a reservation row. Date is "YYYY-MM-DD"; StartTime and
// EndTime are zero-padded "HH:MM" bounds of a half-open interval.
type Booking struct {
	ID          string
	Title       string
	Description *string
	UserID      string
	RoomID      string
	Date        string
	StartTime   string
	EndTime     string
	Attendees   []string
	Status      string
	SeriesID    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingSeries records the recurrence rule a booking series was created from.
type BookingSeries struct {
	ID        string
	Frequency string
	Interval  int
	Count     int
	Until     *string
	CreatedBy string
	CreatedAt time.Time
}

// BookingDetails joins a booking row with its owner and room rows.
type BookingDetails struct {
	Booking Booking
	Owner   User
	Room    Room
}

// BookingSlot is the minimal projection used by availability probes.
type BookingSlot struct {
	BookingID string
	StartTime string
	EndTime   string
}

// Session represents an issued bearer token; ID equals the token's jti claim.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// AuthConfig is one audit row of the authentication strategy trail. Settings
// holds the provider-specific configuration as a JSON document.
type AuthConfig struct {
	ID        string
	AuthType  string
	Settings  []byte
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
}
