// Package testfixtures provides deterministic domain fixtures, a controllable
// clock, sequential ID generation, and a migrated SQLite harness for tests
// across the application and persistence layers.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/example/booking-portal/internal/application"
	"github.com/example/booking-portal/internal/persistence"
	"github.com/example/booking-portal/internal/recurrence"
)

var (
	userCounter    atomic.Uint64
	roomCounter    atomic.Uint64
	bookingCounter atomic.Uint64
	seriesCounter  atomic.Uint64
	sessionCounter atomic.Uint64
	configCounter  atomic.Uint64
)

// referenceTime is a Wednesday morning; booking fixtures default to its date.
var referenceTime = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic portal account that can be materialised for
// application or persistence tests. An empty PasswordHash models a directory
// shadow account without local credentials.
type UserFixture struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         application.Role
	AuthType     application.AuthType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := userCounter.Add(1)
	username := fmt.Sprintf("user%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           fmt.Sprintf("user-%03d", idx),
		Username:     username,
		Email:        username + "@example.com",
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("$2a$04$fixture-%03d", idx),
		Role:         application.RoleUser,
		AuthType:     application.AuthTypeJWT,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithoutUserPassword clears the password hash, as for directory accounts.
func WithoutUserPassword() UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = ""
	}
}

// WithUserRole sets the role on the generated fixture.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithAdminUser marks the fixture as an administrator.
func WithAdminUser() UserOption {
	return WithUserRole(application.RoleAdmin)
}

// WithUserAuthType sets the credential path that owns the account.
func WithUserAuthType(authType application.AuthType) UserOption {
	return func(f *UserFixture) {
		f.AuthType = authType
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Username:    f.Username,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		AuthType:    f.AuthType,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

// Summary returns the owner projection embedded in booking details.
func (f UserFixture) Summary() application.UserSummary {
	return application.UserSummary{
		ID:          f.ID,
		Username:    f.Username,
		Email:       f.Email,
		DisplayName: f.DisplayName,
	}
}

// Persistence returns the fixture as a persistence.User row.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Username:     f.Username,
		Email:        f.Email,
		PasswordHash: optionalString(f.PasswordHash),
		DisplayName:  f.DisplayName,
		Role:         string(f.Role),
		AuthType:     string(f.AuthType),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture is a deterministic meeting room record.
type RoomFixture struct {
	ID        string
	Name      string
	Floor     int
	Capacity  int
	Equipment []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := roomCounter.Add(1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Floor:     int(1 + idx%5),
		Capacity:  int(4 + idx%4),
		Equipment: []string{"display"},
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomFloor overrides the generated floor.
func WithRoomFloor(floor int) RoomOption {
	return func(f *RoomFixture) {
		f.Floor = floor
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithRoomEquipment sets the equipment list on the fixture.
func WithRoomEquipment(equipment ...string) RoomOption {
	return func(f *RoomFixture) {
		f.Equipment = append([]string(nil), equipment...)
	}
}

// WithoutRoomEquipment clears the equipment list.
func WithoutRoomEquipment() RoomOption {
	return func(f *RoomFixture) {
		f.Equipment = nil
	}
}

// WithInactiveRoom marks the room as deactivated.
func WithInactiveRoom() RoomOption {
	return func(f *RoomFixture) {
		f.IsActive = false
	}
}

// WithRoomTimestamps sets both created and updated timestamps.
func WithRoomTimestamps(created, updated time.Time) RoomOption {
	return func(f *RoomFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Floor:     f.Floor,
		Capacity:  f.Capacity,
		Equipment: append([]string(nil), f.Equipment...),
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room row.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Floor:     f.Floor,
		Capacity:  f.Capacity,
		Equipment: append([]string(nil), f.Equipment...),
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.RoomInput.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Name:      f.Name,
		Floor:     f.Floor,
		Capacity:  f.Capacity,
		Equipment: append([]string(nil), f.Equipment...),
	}
}

// Summary returns the room projection embedded in booking details.
func (f RoomFixture) Summary() application.RoomSummary {
	return application.RoomSummary{
		ID:       f.ID,
		Name:     f.Name,
		Floor:    f.Floor,
		Capacity: f.Capacity,
		IsActive: f.IsActive,
	}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture is a deterministic reservation record. Generated fixtures
// land on the reference date with hourly slots so they never overlap.
type BookingFixture struct {
	ID          string
	Title       string
	Description string
	UserID      string
	RoomID      string
	Date        string
	StartTime   string
	EndTime     string
	Attendees   []string
	Status      application.BookingStatus
	SeriesID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture with optional
// overrides.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := bookingCounter.Add(1)
	startHour := 9 + int(idx%8)
	fixture := BookingFixture{
		ID:        fmt.Sprintf("booking-%03d", idx),
		Title:     fmt.Sprintf("Booking %03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		RoomID:    fmt.Sprintf("room-%03d", idx),
		Date:      referenceTime.Format("2006-01-02"),
		StartTime: fmt.Sprintf("%02d:00", startHour),
		EndTime:   fmt.Sprintf("%02d:00", startHour+1),
		Status:    application.BookingStatusConfirmed,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingTitle overrides the generated title.
func WithBookingTitle(title string) BookingOption {
	return func(f *BookingFixture) {
		f.Title = title
	}
}

// WithBookingDescription sets the description on the fixture.
func WithBookingDescription(description string) BookingOption {
	return func(f *BookingFixture) {
		f.Description = description
	}
}

// WithBookingOwner sets the owning user ID.
func WithBookingOwner(userID string) BookingOption {
	return func(f *BookingFixture) {
		f.UserID = userID
	}
}

// WithBookingRoom sets the reserved room ID.
func WithBookingRoom(roomID string) BookingOption {
	return func(f *BookingFixture) {
		f.RoomID = roomID
	}
}

// WithBookingDate sets the reservation date ("YYYY-MM-DD").
func WithBookingDate(date string) BookingOption {
	return func(f *BookingFixture) {
		f.Date = date
	}
}

// WithBookingSlot sets the start and end clock values ("HH:MM").
func WithBookingSlot(start, end string) BookingOption {
	return func(f *BookingFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithBookingAttendees sets the attendee email list.
func WithBookingAttendees(attendees ...string) BookingOption {
	return func(f *BookingFixture) {
		f.Attendees = append([]string(nil), attendees...)
	}
}

// WithCancelledBooking marks the booking as cancelled.
func WithCancelledBooking() BookingOption {
	return func(f *BookingFixture) {
		f.Status = application.BookingStatusCancelled
	}
}

// WithBookingSeries links the booking to a recurrence series.
func WithBookingSeries(seriesID string) BookingOption {
	return func(f *BookingFixture) {
		f.SeriesID = seriesID
	}
}

// WithBookingTimestamps sets both created and updated timestamps.
func WithBookingTimestamps(created, updated time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Booking value.
func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		UserID:      f.UserID,
		RoomID:      f.RoomID,
		Date:        f.Date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		Attendees:   append([]string(nil), f.Attendees...),
		Status:      f.Status,
		SeriesID:    f.SeriesID,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Booking row.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:          f.ID,
		Title:       f.Title,
		Description: optionalString(f.Description),
		UserID:      f.UserID,
		RoomID:      f.RoomID,
		Date:        f.Date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		Attendees:   append([]string(nil), f.Attendees...),
		Status:      string(f.Status),
		SeriesID:    optionalString(f.SeriesID),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input returns the fixture as an application.BookingInput without a
// recurrence rule.
func (f BookingFixture) Input() application.BookingInput {
	return application.BookingInput{
		Title:       f.Title,
		Description: f.Description,
		RoomID:      f.RoomID,
		Date:        f.Date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		Attendees:   append([]string(nil), f.Attendees...),
	}
}

// Slot returns the availability projection of the fixture.
func (f BookingFixture) Slot() persistence.BookingSlot {
	return persistence.BookingSlot{
		BookingID: f.ID,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
	}
}

// ----------------------------- Series fixtures ----------------------------

// SeriesFixture is a deterministic recurrence series record.
type SeriesFixture struct {
	ID        string
	Frequency recurrence.Frequency
	Interval  int
	Count     int
	Until     string
	CreatedBy string
	CreatedAt time.Time
}

// SeriesOption configures the generated series fixture.
type SeriesOption func(*SeriesFixture)

// NewSeriesFixture returns a deterministic series fixture with optional
// overrides.
func NewSeriesFixture(opts ...SeriesOption) SeriesFixture {
	idx := seriesCounter.Add(1)
	fixture := SeriesFixture{
		ID:        fmt.Sprintf("series-%03d", idx),
		Frequency: recurrence.FrequencyWeekly,
		Interval:  1,
		Count:     4,
		CreatedBy: fmt.Sprintf("user-%03d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSeriesID overrides the generated series ID.
func WithSeriesID(id string) SeriesOption {
	return func(f *SeriesFixture) {
		f.ID = id
	}
}

// WithSeriesRule sets frequency, interval, and count in one call.
func WithSeriesRule(frequency recurrence.Frequency, interval, count int) SeriesOption {
	return func(f *SeriesFixture) {
		f.Frequency = frequency
		f.Interval = interval
		f.Count = count
	}
}

// WithSeriesUntil bounds the series by date instead of occurrence count.
func WithSeriesUntil(until string) SeriesOption {
	return func(f *SeriesFixture) {
		f.Until = until
		f.Count = 0
	}
}

// WithSeriesCreatedBy sets the creating user ID.
func WithSeriesCreatedBy(userID string) SeriesOption {
	return func(f *SeriesFixture) {
		f.CreatedBy = userID
	}
}

// Rule returns the recurrence rule stored on the fixture.
func (f SeriesFixture) Rule() recurrence.Rule {
	return recurrence.Rule{
		Frequency: f.Frequency,
		Interval:  f.Interval,
		Count:     f.Count,
		Until:     f.Until,
	}
}

// Record returns the fixture as an application.BookingSeriesRecord.
func (f SeriesFixture) Record() application.BookingSeriesRecord {
	return application.BookingSeriesRecord{
		ID:        f.ID,
		Rule:      f.Rule(),
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.BookingSeries row.
func (f SeriesFixture) Persistence() persistence.BookingSeries {
	return persistence.BookingSeries{
		ID:        f.ID,
		Frequency: string(f.Frequency),
		Interval:  f.Interval,
		Count:     f.Count,
		Until:     optionalString(f.Until),
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
	}
}

// ----------------------------- Session fixtures ---------------------------

// SessionFixture is a deterministic issued-token record; the ID doubles as
// the token's jti claim.
type SessionFixture struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := sessionCounter.Add(1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		IssuedAt:  referenceTime,
		ExpiresAt: referenceTime.Add(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionUser sets the owning user ID.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionIssuedAt sets the issue timestamp.
func WithSessionIssuedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.IssuedAt = t
	}
}

// WithSessionExpiresAt sets the expiry timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithRevokedSession marks the session revoked at the given time.
func WithRevokedSession(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Record returns the fixture as an application.SessionRecord.
func (f SessionFixture) Record() application.SessionRecord {
	return application.SessionRecord{
		ID:        f.ID,
		UserID:    f.UserID,
		IssuedAt:  f.IssuedAt,
		ExpiresAt: f.ExpiresAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session row.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		IssuedAt:  f.IssuedAt,
		ExpiresAt: f.ExpiresAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

// --------------------------- Auth config fixtures -------------------------

// AuthConfigFixture is a deterministic strategy audit row.
type AuthConfigFixture struct {
	ID        string
	Type      application.AuthType
	LDAP      *application.LDAPSettings
	OIDC      *application.OIDCSettings
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
}

// AuthConfigOption configures the generated auth config fixture.
type AuthConfigOption func(*AuthConfigFixture)

// NewAuthConfigFixture returns a deterministic auth config fixture with
// optional overrides.
func NewAuthConfigFixture(opts ...AuthConfigOption) AuthConfigFixture {
	idx := configCounter.Add(1)
	fixture := AuthConfigFixture{
		ID:        fmt.Sprintf("config-%03d", idx),
		Type:      application.AuthTypeJWT,
		IsActive:  true,
		CreatedBy: fmt.Sprintf("user-%03d", idx),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithConfigID overrides the generated config ID.
func WithConfigID(id string) AuthConfigOption {
	return func(f *AuthConfigFixture) {
		f.ID = id
	}
}

// WithConfigLDAP switches the fixture to the directory strategy.
func WithConfigLDAP(settings application.LDAPSettings) AuthConfigOption {
	return func(f *AuthConfigFixture) {
		f.Type = application.AuthTypeLDAP
		f.LDAP = &settings
		f.OIDC = nil
	}
}

// WithConfigOIDC switches the fixture to the OpenID Connect strategy.
func WithConfigOIDC(settings application.OIDCSettings) AuthConfigOption {
	return func(f *AuthConfigFixture) {
		f.Type = application.AuthTypeOIDC
		f.OIDC = &settings
		f.LDAP = nil
	}
}

// WithInactiveConfig marks the row as a superseded audit entry.
func WithInactiveConfig() AuthConfigOption {
	return func(f *AuthConfigFixture) {
		f.IsActive = false
	}
}

// WithConfigCreatedBy sets the administrator that activated the strategy.
func WithConfigCreatedBy(userID string) AuthConfigOption {
	return func(f *AuthConfigFixture) {
		f.CreatedBy = userID
	}
}

// WithConfigCreatedAt sets the activation timestamp.
func WithConfigCreatedAt(t time.Time) AuthConfigOption {
	return func(f *AuthConfigFixture) {
		f.CreatedAt = t
	}
}

// Application returns the fixture as an application.AuthConfig value.
func (f AuthConfigFixture) Application() application.AuthConfig {
	config := application.AuthConfig{
		ID:        f.ID,
		Type:      f.Type,
		IsActive:  f.IsActive,
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
	}
	if f.LDAP != nil {
		ldap := *f.LDAP
		config.LDAP = &ldap
	}
	if f.OIDC != nil {
		oidc := *f.OIDC
		config.OIDC = &oidc
	}
	return config
}

// Persistence returns the fixture as a persistence.AuthConfig row with the
// provider settings marshalled into the settings document.
func (f AuthConfigFixture) Persistence() persistence.AuthConfig {
	var settings []byte
	switch {
	case f.LDAP != nil:
		settings, _ = json.Marshal(f.LDAP)
	case f.OIDC != nil:
		settings, _ = json.Marshal(f.OIDC)
	}
	return persistence.AuthConfig{
		ID:        f.ID,
		AuthType:  string(f.Type),
		Settings:  settings,
		IsActive:  f.IsActive,
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
