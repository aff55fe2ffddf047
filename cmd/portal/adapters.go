package main

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/example/booking-portal/internal/application"
	"github.com/example/booking-portal/internal/persistence"
)

// The adapters below bridge the persistence repositories to the application
// service ports. They translate between the two model vocabularies and pass
// repository errors through untouched; the services own the mapping from
// persistence sentinels to their error kinds.

type credentialStoreAdapter struct {
	users persistence.UserRepository
}

func (a *credentialStoreAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) error {
	return a.users.CreateUser(ctx, toPersistenceUser(user, passwordHash))
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	row, err := a.users.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(row), nil
}

func (a *credentialStoreAdapter) GetCredentials(ctx context.Context, username string) (application.UserCredentials, error) {
	row, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(row),
		PasswordHash: stringValue(row.PasswordHash),
	}, nil
}

func (a *credentialStoreAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	row, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(row), nil
}

func (a *credentialStoreAdapter) CountUsers(ctx context.Context) (int, error) {
	return a.users.CountUsers(ctx)
}

func (a *credentialStoreAdapter) UpsertDirectoryUser(ctx context.Context, user application.User) (application.User, error) {
	row, err := a.users.UpsertDirectoryUser(ctx, toPersistenceUser(user, ""))
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(row), nil
}

type userStoreAdapter struct {
	users persistence.UserRepository
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	row, err := a.users.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(row), nil
}

func (a *userStoreAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	rows, err := a.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, len(rows))
	for i, row := range rows {
		users[i] = toApplicationUser(row)
	}
	return users, nil
}

type sessionStoreAdapter struct {
	sessions persistence.SessionRepository
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.SessionRecord) error {
	return a.sessions.CreateSession(ctx, toPersistenceSession(session))
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, id string) (application.SessionRecord, error) {
	row, err := a.sessions.GetSession(ctx, id)
	if err != nil {
		return application.SessionRecord{}, err
	}
	return toApplicationSession(row), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, id string, revokedAt time.Time) error {
	return a.sessions.RevokeSession(ctx, id, revokedAt)
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.sessions.DeleteExpiredSessions(ctx, reference)
}

// authConfigStoreAdapter stores the provider settings as the JSON document
// the audit table expects, keyed by strategy type on the way back out.
type authConfigStoreAdapter struct {
	configs persistence.AuthConfigRepository
}

func (a *authConfigStoreAdapter) GetActiveConfig(ctx context.Context) (application.AuthConfig, error) {
	row, err := a.configs.GetActiveConfig(ctx)
	if err != nil {
		return application.AuthConfig{}, err
	}
	return toApplicationAuthConfig(row)
}

func (a *authConfigStoreAdapter) ActivateConfig(ctx context.Context, config application.AuthConfig) error {
	row, err := toPersistenceAuthConfig(config)
	if err != nil {
		return err
	}
	return a.configs.ActivateConfig(ctx, row)
}

// roomStoreAdapter serves both the room service's store port and the booking
// service's catalog port; the latter is the GetRoom subset.
type roomStoreAdapter struct {
	rooms persistence.RoomRepository
}

func (a *roomStoreAdapter) CreateRoom(ctx context.Context, room application.Room) error {
	return a.rooms.CreateRoom(ctx, toPersistenceRoom(room))
}

func (a *roomStoreAdapter) UpdateRoom(ctx context.Context, room application.Room) error {
	return a.rooms.UpdateRoom(ctx, toPersistenceRoom(room))
}

func (a *roomStoreAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	row, err := a.rooms.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(row), nil
}

func (a *roomStoreAdapter) ListRooms(ctx context.Context, includeInactive bool) ([]application.Room, error) {
	rows, err := a.rooms.ListRooms(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, len(rows))
	for i, row := range rows {
		rooms[i] = toApplicationRoom(row)
	}
	return rooms, nil
}

func (a *roomStoreAdapter) DeactivateRoom(ctx context.Context, id string, updatedAt time.Time) error {
	return a.rooms.DeactivateRoom(ctx, id, updatedAt)
}

type bookingStoreAdapter struct {
	bookings persistence.BookingRepository
}

func (a *bookingStoreAdapter) CreateBookings(ctx context.Context, series *application.BookingSeriesRecord, bookings []application.Booking) error {
	var seriesRow *persistence.BookingSeries
	if series != nil {
		row := toPersistenceSeries(*series)
		seriesRow = &row
	}
	rows := make([]persistence.Booking, len(bookings))
	for i, booking := range bookings {
		rows[i] = toPersistenceBooking(booking)
	}
	return a.bookings.CreateBookings(ctx, seriesRow, rows)
}

func (a *bookingStoreAdapter) UpdateBooking(ctx context.Context, booking application.Booking) error {
	return a.bookings.UpdateBooking(ctx, toPersistenceBooking(booking))
}

func (a *bookingStoreAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	row, err := a.bookings.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(row), nil
}

func (a *bookingStoreAdapter) GetBookingDetails(ctx context.Context, id string) (application.BookingDetails, error) {
	row, err := a.bookings.GetBookingDetails(ctx, id)
	if err != nil {
		return application.BookingDetails{}, err
	}
	return toApplicationBookingDetails(row), nil
}

func (a *bookingStoreAdapter) ListBookings(ctx context.Context, query application.BookingQuery) ([]application.Booking, error) {
	rows, err := a.bookings.ListBookings(ctx, toBookingFilter(query))
	if err != nil {
		return nil, err
	}
	bookings := make([]application.Booking, len(rows))
	for i, row := range rows {
		bookings[i] = toApplicationBooking(row)
	}
	return bookings, nil
}

func (a *bookingStoreAdapter) ListBookingDetails(ctx context.Context, query application.BookingQuery) ([]application.BookingDetails, error) {
	rows, err := a.bookings.ListBookingDetails(ctx, toBookingFilter(query))
	if err != nil {
		return nil, err
	}
	details := make([]application.BookingDetails, len(rows))
	for i, row := range rows {
		details[i] = toApplicationBookingDetails(row)
	}
	return details, nil
}

func (a *bookingStoreAdapter) SetBookingStatus(ctx context.Context, id string, status application.BookingStatus, updatedAt time.Time) error {
	return a.bookings.SetBookingStatus(ctx, id, string(status), updatedAt)
}

func (a *bookingStoreAdapter) CancelSeries(ctx context.Context, seriesID string, updatedAt time.Time) (int, error) {
	return a.bookings.CancelSeries(ctx, seriesID, updatedAt)
}

func (a *bookingStoreAdapter) ListConfirmedSlots(ctx context.Context, roomID, date string) ([]application.RoomSlot, error) {
	rows, err := a.bookings.ListConfirmedSlots(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	slots := make([]application.RoomSlot, len(rows))
	for i, row := range rows {
		slots[i] = application.RoomSlot{
			BookingID: row.BookingID,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
		}
	}
	return slots, nil
}

// statsSourceAdapter feeds the dashboard counters from the room catalog and
// the booking table.
type statsSourceAdapter struct {
	rooms    persistence.RoomRepository
	bookings persistence.BookingRepository
}

func (a *statsSourceAdapter) CountActiveRooms(ctx context.Context) (int, error) {
	return a.rooms.CountActiveRooms(ctx)
}

func (a *statsSourceAdapter) CountConfirmedOn(ctx context.Context, date string) (int, error) {
	return a.bookings.CountConfirmedOn(ctx, date)
}

func (a *statsSourceAdapter) CountRoomsBusyAt(ctx context.Context, date, clock string) (int, error) {
	return a.bookings.CountRoomsBusyAt(ctx, date, clock)
}

func toApplicationUser(row persistence.User) application.User {
	return application.User{
		ID:          row.ID,
		Username:    row.Username,
		Email:       row.Email,
		DisplayName: row.DisplayName,
		Role:        application.Role(row.Role),
		AuthType:    application.AuthType(row.AuthType),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: optionalString(passwordHash),
		DisplayName:  user.DisplayName,
		Role:         string(user.Role),
		AuthType:     string(user.AuthType),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationRoom(row persistence.Room) application.Room {
	return application.Room{
		ID:        row.ID,
		Name:      row.Name,
		Floor:     row.Floor,
		Capacity:  row.Capacity,
		Equipment: row.Equipment,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Floor:     room.Floor,
		Capacity:  room.Capacity,
		Equipment: room.Equipment,
		IsActive:  room.IsActive,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationBooking(row persistence.Booking) application.Booking {
	return application.Booking{
		ID:          row.ID,
		Title:       row.Title,
		Description: stringValue(row.Description),
		UserID:      row.UserID,
		RoomID:      row.RoomID,
		Date:        row.Date,
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Attendees:   row.Attendees,
		Status:      application.BookingStatus(row.Status),
		SeriesID:    stringValue(row.SeriesID),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:          booking.ID,
		Title:       booking.Title,
		Description: optionalString(booking.Description),
		UserID:      booking.UserID,
		RoomID:      booking.RoomID,
		Date:        booking.Date,
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		Attendees:   booking.Attendees,
		Status:      string(booking.Status),
		SeriesID:    optionalString(booking.SeriesID),
		CreatedAt:   booking.CreatedAt,
		UpdatedAt:   booking.UpdatedAt,
	}
}

func toApplicationBookingDetails(row persistence.BookingDetails) application.BookingDetails {
	return application.BookingDetails{
		Booking: toApplicationBooking(row.Booking),
		Owner: application.UserSummary{
			ID:          row.Owner.ID,
			Username:    row.Owner.Username,
			Email:       row.Owner.Email,
			DisplayName: row.Owner.DisplayName,
		},
		Room: application.RoomSummary{
			ID:       row.Room.ID,
			Name:     row.Room.Name,
			Floor:    row.Room.Floor,
			Capacity: row.Room.Capacity,
			IsActive: row.Room.IsActive,
		},
	}
}

func toPersistenceSeries(record application.BookingSeriesRecord) persistence.BookingSeries {
	return persistence.BookingSeries{
		ID:        record.ID,
		Frequency: string(record.Rule.Frequency),
		Interval:  record.Rule.Interval,
		Count:     record.Rule.Count,
		Until:     optionalString(record.Rule.Until),
		CreatedBy: record.CreatedBy,
		CreatedAt: record.CreatedAt,
	}
}

func toBookingFilter(query application.BookingQuery) persistence.BookingFilter {
	return persistence.BookingFilter{
		OwnerID:          query.OwnerID,
		RoomID:           query.RoomID,
		Date:             query.Date,
		SeriesID:         query.SeriesID,
		IncludeCancelled: query.IncludeCancelled,
	}
}

func toApplicationSession(row persistence.Session) application.SessionRecord {
	return application.SessionRecord{
		ID:        row.ID,
		UserID:    row.UserID,
		IssuedAt:  row.IssuedAt,
		ExpiresAt: row.ExpiresAt,
		RevokedAt: cloneTime(row.RevokedAt),
	}
}

func toPersistenceSession(record application.SessionRecord) persistence.Session {
	return persistence.Session{
		ID:        record.ID,
		UserID:    record.UserID,
		IssuedAt:  record.IssuedAt,
		ExpiresAt: record.ExpiresAt,
		RevokedAt: cloneTime(record.RevokedAt),
	}
}

func toApplicationAuthConfig(row persistence.AuthConfig) (application.AuthConfig, error) {
	config := application.AuthConfig{
		ID:        row.ID,
		Type:      application.AuthType(row.AuthType),
		IsActive:  row.IsActive,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Settings) == 0 {
		return config, nil
	}
	switch config.Type {
	case application.AuthTypeLDAP:
		var settings application.LDAPSettings
		if err := json.Unmarshal(row.Settings, &settings); err != nil {
			return application.AuthConfig{}, fmt.Errorf("decode ldap settings for config %s: %w", row.ID, err)
		}
		config.LDAP = &settings
	case application.AuthTypeOIDC:
		var settings application.OIDCSettings
		if err := json.Unmarshal(row.Settings, &settings); err != nil {
			return application.AuthConfig{}, fmt.Errorf("decode oidc settings for config %s: %w", row.ID, err)
		}
		config.OIDC = &settings
	}
	return config, nil
}

func toPersistenceAuthConfig(config application.AuthConfig) (persistence.AuthConfig, error) {
	row := persistence.AuthConfig{
		ID:        config.ID,
		AuthType:  string(config.Type),
		IsActive:  config.IsActive,
		CreatedBy: config.CreatedBy,
		CreatedAt: config.CreatedAt,
	}

	var settings any
	switch {
	case config.LDAP != nil:
		settings = config.LDAP
	case config.OIDC != nil:
		settings = config.OIDC
	}
	if settings != nil {
		raw, err := json.Marshal(settings)
		if err != nil {
			return persistence.AuthConfig{}, fmt.Errorf("encode settings for config %s: %w", config.ID, err)
		}
		row.Settings = raw
	}
	return row, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
