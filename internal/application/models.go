package application

import (
	"time"

	"github.com/example/booking-portal/internal/recurrence"
)

// Role gates access to administrative operations.
type Role string

const (
	// RoleUser is the default role assigned to new accounts.
	RoleUser Role = "user"
	// RoleAdmin unlocks room management, user listings, and auth configuration.
	RoleAdmin Role = "admin"
)

// AuthType records which credential path owns a user account.
type AuthType string

const (
	// AuthTypeJWT marks locally registered accounts verified by password hash.
	AuthTypeJWT AuthType = "jwt"
	// AuthTypeLDAP marks shadow accounts created from directory logins.
	AuthTypeLDAP AuthType = "ldap"
	// AuthTypeOIDC marks accounts provisioned by an OpenID Connect provider.
	AuthTypeOIDC AuthType = "oidc"
	// AuthTypeReplit is a historical value kept for imported accounts; new
	// logins never produce it.
	AuthTypeReplit AuthType = "replit"
)

// BookingStatus tracks the lifecycle of a reservation.
type BookingStatus string

const (
	// BookingStatusConfirmed counts toward the room's availability.
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusCancelled frees the slot but keeps the row for history.
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal may perform administrative operations.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User represents an account exposed by the application services. Password
// material never leaves the persistence layer.
type User struct {
	ID          string
	Username    string
	Email       string
	DisplayName string
	Role        Role
	AuthType    AuthType
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Room represents a bookable meeting room.
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

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string
	Floor     int
	Capacity  int
	Equipment []string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Booking represents a reservation of one room for one interval on one day.
type Booking struct {
	ID          string
	Title       string
	Description string
	UserID      string
	RoomID      string
	Date        string
	StartTime   string
	EndTime     string
	Attendees   []string
	Status      BookingStatus
	SeriesID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserSummary is the owner projection embedded in detailed booking views.
type UserSummary struct {
	ID          string
	Username    string
	Email       string
	DisplayName string
}

// RoomSummary is the room projection embedded in detailed booking views.
type RoomSummary struct {
	ID       string
	Name     string
	Floor    int
	Capacity int
	IsActive bool
}

// BookingDetails joins a booking with its owner and room.
type BookingDetails struct {
	Booking Booking
	Owner   UserSummary
	Room    RoomSummary
}

// RoomSchedule lists a room's bookings for one day.
type RoomSchedule struct {
	Room     Room
	Date     string
	Bookings []BookingDetails
}

// BookingInput captures caller provided booking fields for creation.
type BookingInput struct {
	Title       string
	Description string
	RoomID      string
	Date        string
	StartTime   string
	EndTime     string
	Attendees   []string
	Recurrence  recurrence.Rule
}

// BookingUpdate captures a partial update; nil fields keep their current values.
type BookingUpdate struct {
	Title       *string
	Description *string
	RoomID      *string
	Date        *string
	StartTime   *string
	EndTime     *string
	Attendees   *[]string
}

// CreateBookingParams wraps the data required to create a booking or series.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// UpdateBookingParams wraps the data required to update an existing booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Update    BookingUpdate
}

// ListBookingsParams filters booking listings. Non-admin principals are
// always restricted to their own bookings.
type ListBookingsParams struct {
	Principal        Principal
	RoomID           string
	Date             string
	OwnerID          string
	IncludeCancelled bool
}

// AvailabilityQuery asks whether a room is free for one slot, optionally
// ignoring one existing booking (the one being edited).
type AvailabilityQuery struct {
	RoomID           string
	Date             string
	StartTime        string
	EndTime          string
	ExcludeBookingID string
}

// AvailabilityResult reports the probe outcome with the blocking slots.
type AvailabilityResult struct {
	Available bool
	Conflicts []SlotConflict
}

// Stats is the dashboard snapshot computed per request.
type Stats struct {
	TotalRooms      int
	AvailableRooms  int
	TodayBookings   int
	UtilizationRate int
}

// LDAPSettings configures the directory strategy.
type LDAPSettings struct {
	URL                  string `json:"url"`
	BindDN               string `json:"bindDn"`
	BindPassword         string `json:"bindPassword"`
	BaseDN               string `json:"baseDn"`
	UserFilter           string `json:"userFilter"`
	EmailAttribute       string `json:"emailAttribute"`
	DisplayNameAttribute string `json:"displayNameAttribute"`
	StartTLS             bool   `json:"startTls"`
	InsecureSkipVerify   bool   `json:"insecureSkipVerify"`
}

// OIDCSettings configures the OpenID Connect strategy. The interactive flow
// is not served by this portal; the settings are stored for the frontend and
// future use.
type OIDCSettings struct {
	Issuer       string   `json:"issuer"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURL  string   `json:"redirectUrl"`
	Scopes       []string `json:"scopes"`
}

// AuthConfig is one row of the strategy audit trail; the newest active row
// is mirrored into the auth service's in-memory singleton.
type AuthConfig struct {
	ID        string
	Type      AuthType
	LDAP      *LDAPSettings
	OIDC      *OIDCSettings
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
}

// SetAuthConfigParams wraps the data required to activate a strategy.
type SetAuthConfigParams struct {
	Principal Principal
	Type      AuthType
	LDAP      *LDAPSettings
	OIDC      *OIDCSettings
}

// RegisterParams captures a local account registration.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// LoginParams captures a credential pair presented for authentication.
type LoginParams struct {
	Username string
	Password string
}

// LoginResult carries the authenticated user and their bearer token.
type LoginResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}
