package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/availability"
	"github.com/example/booking-portal/internal/metrics"
	"github.com/example/booking-portal/internal/persistence"
	"github.com/example/booking-portal/internal/recurrence"
)

// BookingStore captures the persistence operations needed by the booking
// service. CreateBookings and UpdateBooking run the overlap check and the
// write inside one transaction; the service never pre-checks outside it.
type BookingStore interface {
	CreateBookings(ctx context.Context, series *BookingSeriesRecord, bookings []Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	GetBookingDetails(ctx context.Context, id string) (BookingDetails, error)
	ListBookings(ctx context.Context, query BookingQuery) ([]Booking, error)
	ListBookingDetails(ctx context.Context, query BookingQuery) ([]BookingDetails, error)
	SetBookingStatus(ctx context.Context, id string, status BookingStatus, updatedAt time.Time) error
	CancelSeries(ctx context.Context, seriesID string, updatedAt time.Time) (int, error)
	ListConfirmedSlots(ctx context.Context, roomID, date string) ([]RoomSlot, error)
}

// RoomCatalog resolves the rooms referenced by bookings.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// Notifier receives booking lifecycle events. Implementations must not block;
// delivery is best effort and never influences the outcome of the operation
// that triggered it.
type Notifier interface {
	BookingCreated(ctx context.Context, created []BookingDetails)
	BookingUpdated(ctx context.Context, updated BookingDetails)
	BookingCancelled(ctx context.Context, cancelled BookingDetails)
}

// BookingSeriesRecord describes the recurrence rule behind a group of
// bookings. It is persisted once per series alongside the expanded rows.
type BookingSeriesRecord struct {
	ID        string
	Rule      recurrence.Rule
	CreatedBy string
	CreatedAt time.Time
}

// BookingQuery filters booking listings. Empty fields are ignored; cancelled
// rows are excluded unless IncludeCancelled is set.
type BookingQuery struct {
	OwnerID          string
	RoomID           string
	Date             string
	SeriesID         string
	IncludeCancelled bool
}

// RoomSlot is an occupied interval of one room on one date.
type RoomSlot struct {
	BookingID string
	StartTime string
	EndTime   string
}

// BookingLimits bounds what a single request may reserve. Zero fields fall
// back to the configuration defaults.
type BookingLimits struct {
	MinDuration    time.Duration
	MaxDuration    time.Duration
	MaxAttendees   int
	MaxOccurrences int
}

func (l BookingLimits) withDefaults() BookingLimits {
	if l.MinDuration <= 0 {
		l.MinDuration = 15 * time.Minute
	}
	if l.MaxDuration < l.MinDuration {
		l.MaxDuration = 12 * time.Hour
	}
	if l.MaxAttendees <= 0 {
		l.MaxAttendees = 50
	}
	if l.MaxOccurrences <= 0 {
		l.MaxOccurrences = 52
	}
	return l
}

const (
	maxBookingTitleLength       = 200
	maxBookingDescriptionLength = 1000
)

// BookingService orchestrates validation, authorization, conflict detection,
// and notification for reservations. Bookings are created by any
// authenticated user and mutated by their owner or an administrator;
// cancellation is a status flip, never a row delete.
type BookingService struct {
	bookings    BookingStore
	rooms       RoomCatalog
	notifier    Notifier
	limits      BookingLimits
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(bookings BookingStore, rooms RoomCatalog, notifier Notifier, limits BookingLimits, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, notifier, limits, idGenerator, now, zerolog.Nop())
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingStore, rooms RoomCatalog, notifier Notifier, limits BookingLimits, idGenerator func() string, now func() time.Time, logger zerolog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		notifier:    notifier,
		limits:      limits.withDefaults(),
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation)
}

// CreateBooking reserves a room for one slot, or for every occurrence of a
// recurrence rule. The repository checks and inserts all occurrences in one
// transaction, so a single blocked slot rejects the whole series. On success
// a confirmation is dispatched to the owner and attendees.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (created []BookingDetails, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking").With().
		Str("principal_id", params.Principal.UserID).
		Str("room_id", params.Input.RoomID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to create booking")
			return
		}
		logger.Info().Int("booking_count", len(created)).Msg("booking created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	input := normalizeBookingInput(params.Input)

	vErr := &ValidationError{}
	validateBookingCore(input.Title, input.Description, input.RoomID, input.Date, input.StartTime, input.EndTime, input.Attendees, s.limits, vErr)
	validateRecurrenceRule(input.Recurrence, s.limits.MaxOccurrences, vErr)
	if err = s.checkRoomBookable(ctx, input.RoomID, vErr); err != nil {
		return
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	dates := []string{input.Date}
	if !input.Recurrence.IsZero() {
		dates, err = recurrence.Expand(input.Recurrence, input.Date, s.limits.MaxOccurrences)
		if err != nil {
			vErr.add("recurrence", recurrenceMessage(err))
			err = vErr
			return
		}
	}

	now := s.now()
	var series *BookingSeriesRecord
	seriesID := ""
	if !input.Recurrence.IsZero() {
		seriesID = s.idGenerator()
		series = &BookingSeriesRecord{
			ID:        seriesID,
			Rule:      input.Recurrence,
			CreatedBy: params.Principal.UserID,
			CreatedAt: now,
		}
	}

	bookings := make([]Booking, 0, len(dates))
	for _, date := range dates {
		bookings = append(bookings, Booking{
			ID:          s.idGenerator(),
			Title:       input.Title,
			Description: input.Description,
			UserID:      params.Principal.UserID,
			RoomID:      input.RoomID,
			Date:        date,
			StartTime:   input.StartTime,
			EndTime:     input.EndTime,
			Attendees:   input.Attendees,
			Status:      BookingStatusConfirmed,
			SeriesID:    seriesID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err = s.bookings.CreateBookings(ctx, series, bookings); err != nil {
		err = mapBookingRepoError(err)
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.RecordBookingConflict()
		}
		return
	}
	metrics.RecordBookingsCreated(len(bookings))

	created, err = s.loadCreated(ctx, seriesID, bookings)
	if err != nil {
		return
	}

	if s.notifier != nil && len(created) > 0 {
		s.notifier.BookingCreated(ctx, created)
	}
	return
}

// loadCreated reloads the rows written by CreateBooking joined with their
// owner and room. Series members come back in one query; a single booking is
// fetched directly.
func (s *BookingService) loadCreated(ctx context.Context, seriesID string, bookings []Booking) ([]BookingDetails, error) {
	if seriesID != "" {
		details, err := s.bookings.ListBookingDetails(ctx, BookingQuery{SeriesID: seriesID})
		if err != nil {
			return nil, fmt.Errorf("load created series: %w", err)
		}
		return details, nil
	}

	details, err := s.bookings.GetBookingDetails(ctx, bookings[0].ID)
	if err != nil {
		return nil, fmt.Errorf("load created booking: %w", err)
	}
	return []BookingDetails{details}, nil
}

// UpdateBooking applies a partial update to one booking. Nil fields keep
// their stored values; the effective slot is re-checked against every other
// confirmed booking inside the write transaction. Cancelled bookings are not
// editable.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (details BookingDetails, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking").With().
		Str("principal_id", params.Principal.UserID).
		Str("booking_id", params.BookingID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to update booking")
			return
		}
		logger.Info().Msg("booking updated")
	}()

	var existing Booking
	existing, err = s.authorizeBooking(ctx, params.Principal, params.BookingID)
	if err != nil {
		return
	}

	if existing.Status == BookingStatusCancelled {
		vErr := &ValidationError{}
		vErr.add("status", "cancelled bookings cannot be edited")
		err = vErr
		return
	}

	updated := applyBookingUpdate(existing, params.Update)

	vErr := &ValidationError{}
	validateBookingCore(updated.Title, updated.Description, updated.RoomID, updated.Date, updated.StartTime, updated.EndTime, updated.Attendees, s.limits, vErr)
	if updated.RoomID != existing.RoomID {
		if err = s.checkRoomBookable(ctx, updated.RoomID, vErr); err != nil {
			return
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated.UpdatedAt = s.now()
	if err = s.bookings.UpdateBooking(ctx, updated); err != nil {
		err = mapBookingRepoError(err)
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.RecordBookingConflict()
		}
		return
	}

	details, err = s.bookings.GetBookingDetails(ctx, updated.ID)
	if err != nil {
		err = fmt.Errorf("load updated booking: %w", mapBookingRepoError(err))
		return
	}

	if s.notifier != nil {
		s.notifier.BookingUpdated(ctx, details)
	}
	return
}

// CancelBooking flips a booking to cancelled, freeing its slot while keeping
// the row for history. Cancelling an already cancelled booking is a no-op.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking store not configured")
	}

	logger := s.loggerWith(ctx, "CancelBooking").With().
		Str("principal_id", principal.UserID).
		Str("booking_id", bookingID).
		Logger()

	existing, err := s.authorizeBooking(ctx, principal, bookingID)
	if err != nil {
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to cancel booking")
		return err
	}

	if existing.Status == BookingStatusCancelled {
		logger.Info().Msg("booking already cancelled")
		return nil
	}

	if err := s.bookings.SetBookingStatus(ctx, bookingID, BookingStatusCancelled, s.now()); err != nil {
		err = mapBookingRepoError(err)
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to cancel booking")
		return err
	}
	logger.Info().Msg("booking cancelled")

	if s.notifier != nil {
		details, err := s.bookings.GetBookingDetails(ctx, bookingID)
		if err != nil {
			logger.Warn().Err(err).Msg("cancelled booking details unavailable, notification skipped")
			return nil
		}
		s.notifier.BookingCancelled(ctx, details)
	}
	return nil
}

// CancelSeries cancels every confirmed booking in a series. Authorization is
// checked against the series members' owner; the count of newly cancelled
// bookings is returned, which may be zero when the series was already fully
// cancelled.
func (s *BookingService) CancelSeries(ctx context.Context, principal Principal, seriesID string) (cancelled int, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CancelSeries").With().
		Str("principal_id", principal.UserID).
		Str("series_id", seriesID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to cancel series")
			return
		}
		logger.Info().Int("cancelled_count", cancelled).Msg("series cancelled")
	}()

	if seriesID == "" {
		err = ErrNotFound
		return
	}

	var members []BookingDetails
	members, err = s.bookings.ListBookingDetails(ctx, BookingQuery{SeriesID: seriesID, IncludeCancelled: true})
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	if len(members) == 0 {
		err = ErrNotFound
		return
	}

	owner := members[0].Booking.UserID
	if owner != principal.UserID && !principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	cancelled, err = s.bookings.CancelSeries(ctx, seriesID, s.now())
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	if s.notifier != nil && cancelled > 0 {
		s.notifier.BookingCancelled(ctx, members[0])
	}
	return
}

// GetBooking returns one booking joined with its owner and room. Non-admin
// callers may only view their own bookings.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (details BookingDetails, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	details, err = s.bookings.GetBookingDetails(ctx, bookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		logger := s.loggerWith(ctx, "GetBooking")
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Str("booking_id", bookingID).Msg("failed to load booking")
		return
	}

	if details.Booking.UserID != principal.UserID && !principal.IsAdmin() {
		details = BookingDetails{}
		err = ErrForbidden
		logger := s.loggerWith(ctx, "GetBooking")
		logger.Error().Str("error_kind", ErrorKind(err)).Str("booking_id", bookingID).Msg("failed to load booking")
		return
	}
	return
}

// ListBookings returns bookings matching the filter ordered by date and start
// time. Non-admin principals are always restricted to their own bookings
// regardless of the requested owner filter.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (bookings []Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		return nil, nil
	}

	query := BookingQuery{
		OwnerID:          params.OwnerID,
		RoomID:           params.RoomID,
		Date:             params.Date,
		IncludeCancelled: params.IncludeCancelled,
	}
	if !params.Principal.IsAdmin() {
		query.OwnerID = params.Principal.UserID
	}

	logger := s.loggerWith(ctx, "ListBookings").With().
		Str("principal_id", params.Principal.UserID).
		Logger()

	bookings, err = s.bookings.ListBookings(ctx, query)
	if err != nil {
		err = mapBookingRepoError(err)
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to list bookings")
		return
	}
	return
}

// ListRoomSchedule returns a room's confirmed bookings for one day, joined
// with owner details for the schedule grid. Any authenticated user may view
// any room's schedule; inactive rooms stay queryable for their history.
func (s *BookingService) ListRoomSchedule(ctx context.Context, roomID, date string) (schedule RoomSchedule, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListRoomSchedule").With().
		Str("room_id", roomID).
		Str("date", date).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to load room schedule")
			return
		}
		logger.Info().Int("booking_count", len(schedule.Bookings)).Msg("room schedule loaded")
	}()

	vErr := &ValidationError{}
	if _, dateErr := availability.ParseDate(date); dateErr != nil {
		vErr.add("date", "date must be formatted YYYY-MM-DD")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var room Room
	if s.rooms != nil {
		room, err = s.rooms.GetRoom(ctx, roomID)
		if err != nil {
			if isNotFoundError(err) {
				err = ErrNotFound
			}
			return
		}
	}

	var bookings []BookingDetails
	bookings, err = s.bookings.ListBookingDetails(ctx, BookingQuery{RoomID: roomID, Date: date})
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	schedule = RoomSchedule{Room: room, Date: date, Bookings: bookings}
	return
}

// CheckAvailability probes whether a slot is free without writing anything.
// The authoritative check still happens inside the booking write transaction;
// this read-only answer can go stale the moment it is produced.
func (s *BookingService) CheckAvailability(ctx context.Context, query AvailabilityQuery) (result AvailabilityResult, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CheckAvailability").With().
		Str("room_id", query.RoomID).
		Str("date", query.Date).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("availability check failed")
			return
		}
		logger.Info().Bool("available", result.Available).Msg("availability checked")
	}()

	vErr := &ValidationError{}
	if query.RoomID == "" {
		vErr.add("roomId", "room is required")
	}
	if _, dateErr := availability.ParseDate(query.Date); dateErr != nil {
		vErr.add("date", "date must be formatted YYYY-MM-DD")
	}
	candidate := validateInterval(query.StartTime, query.EndTime, vErr)
	if err = s.checkRoomExists(ctx, query.RoomID, vErr); err != nil {
		return
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var slots []RoomSlot
	slots, err = s.bookings.ListConfirmedSlots(ctx, query.RoomID, query.Date)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	booked := make([]availability.BookedSlot, 0, len(slots))
	for _, slot := range slots {
		interval, slotErr := availability.NewInterval(slot.StartTime, slot.EndTime)
		if slotErr != nil {
			err = fmt.Errorf("stored slot %s: %w", slot.BookingID, slotErr)
			return
		}
		booked = append(booked, availability.BookedSlot{BookingID: slot.BookingID, Interval: interval})
	}

	conflicts := availability.FindConflicts(candidate, query.ExcludeBookingID, booked)

	result.Available = len(conflicts) == 0
	for _, conflict := range conflicts {
		result.Conflicts = append(result.Conflicts, SlotConflict{
			BookingID: conflict.BookingID,
			Date:      query.Date,
			StartTime: availability.FormatClock(conflict.Interval.Start),
			EndTime:   availability.FormatClock(conflict.Interval.End),
		})
	}
	return
}

// authorizeBooking loads a booking and verifies the principal may mutate it.
func (s *BookingService) authorizeBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	if booking.UserID != principal.UserID && !principal.IsAdmin() {
		return Booking{}, ErrForbidden
	}
	return booking, nil
}

// checkRoomBookable records a field error when the room is missing or
// inactive. Infrastructure failures from the catalog are returned as-is.
func (s *BookingService) checkRoomBookable(ctx context.Context, roomID string, vErr *ValidationError) error {
	if s.rooms == nil || roomID == "" {
		return nil
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if isNotFoundError(err) {
			vErr.add("roomId", "room does not exist")
			return nil
		}
		return err
	}
	if !room.IsActive {
		vErr.add("roomId", "room is inactive")
	}
	return nil
}

// checkRoomExists records a field error when the room is missing. Inactive
// rooms pass; availability probes may target rooms that can no longer take
// new bookings.
func (s *BookingService) checkRoomExists(ctx context.Context, roomID string, vErr *ValidationError) error {
	if s.rooms == nil || roomID == "" {
		return nil
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		if isNotFoundError(err) {
			vErr.add("roomId", "room does not exist")
			return nil
		}
		return err
	}
	return nil
}

func normalizeBookingInput(input BookingInput) BookingInput {
	out := input
	out.Title = strings.TrimSpace(input.Title)
	out.Description = strings.TrimSpace(input.Description)
	out.Attendees = normalizeAttendees(input.Attendees)
	return out
}

func normalizeAttendees(attendees []string) []string {
	if len(attendees) == 0 {
		return nil
	}
	out := make([]string, 0, len(attendees))
	for _, attendee := range attendees {
		attendee = strings.TrimSpace(attendee)
		if attendee == "" {
			continue
		}
		out = append(out, attendee)
	}
	return out
}

// applyBookingUpdate merges the partial update over the stored booking. Nil
// fields keep their current values; a provided attendee list replaces the
// stored one entirely.
func applyBookingUpdate(existing Booking, update BookingUpdate) Booking {
	merged := existing
	if update.Title != nil {
		merged.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		merged.Description = strings.TrimSpace(*update.Description)
	}
	if update.RoomID != nil {
		merged.RoomID = *update.RoomID
	}
	if update.Date != nil {
		merged.Date = *update.Date
	}
	if update.StartTime != nil {
		merged.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		merged.EndTime = *update.EndTime
	}
	if update.Attendees != nil {
		merged.Attendees = normalizeAttendees(*update.Attendees)
	}
	return merged
}

// validateBookingCore checks the fields shared by create and update. Field
// keys match the JSON wire names so handlers can return them verbatim.
func validateBookingCore(title, description, roomID, date, startTime, endTime string, attendees []string, limits BookingLimits, vErr *ValidationError) {
	switch {
	case title == "":
		vErr.add("title", "title is required")
	case len(title) > maxBookingTitleLength:
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxBookingTitleLength))
	}

	if len(description) > maxBookingDescriptionLength {
		vErr.add("description", fmt.Sprintf("description must be at most %d characters", maxBookingDescriptionLength))
	}

	if roomID == "" {
		vErr.add("roomId", "room is required")
	}

	if _, err := availability.ParseDate(date); err != nil {
		vErr.add("date", "date must be formatted YYYY-MM-DD")
	}

	interval := validateInterval(startTime, endTime, vErr)
	if interval.Valid() {
		duration := time.Duration(interval.End-interval.Start) * time.Minute
		if duration < limits.MinDuration {
			vErr.add("endTime", fmt.Sprintf("booking must last at least %s", limits.MinDuration))
		} else if duration > limits.MaxDuration {
			vErr.add("endTime", fmt.Sprintf("booking must not exceed %s", limits.MaxDuration))
		}
	}

	if len(attendees) > limits.MaxAttendees {
		vErr.add("attendees", fmt.Sprintf("at most %d attendees are allowed", limits.MaxAttendees))
	}
	for _, attendee := range attendees {
		if len(attendee) > maxEmailLength {
			vErr.add("attendees", fmt.Sprintf("attendee addresses must be at most %d characters", maxEmailLength))
			break
		}
		if _, err := mail.ParseAddress(attendee); err != nil {
			vErr.add("attendees", fmt.Sprintf("%q is not a valid email address", attendee))
			break
		}
	}
}

// validateInterval parses the slot bounds and records field errors. The
// returned interval is only meaningful when no errors were added.
func validateInterval(startTime, endTime string, vErr *ValidationError) availability.Interval {
	interval, err := availability.NewInterval(startTime, endTime)
	if err != nil {
		if _, startErr := availability.ParseClock(startTime, false); startErr != nil {
			vErr.add("startTime", "start time must be formatted HH:MM")
		}
		if _, endErr := availability.ParseClock(endTime, true); endErr != nil {
			vErr.add("endTime", "end time must be formatted HH:MM")
		}
		return availability.Interval{}
	}
	if !interval.Valid() {
		vErr.add("endTime", "end time must be after start time")
	}
	return interval
}

func validateRecurrenceRule(rule recurrence.Rule, maxOccurrences int, vErr *ValidationError) {
	if rule.IsZero() {
		return
	}
	if err := rule.Validate(maxOccurrences); err != nil {
		vErr.add("recurrence", recurrenceMessage(err))
	}
}

// recurrenceMessage translates recurrence engine sentinels into field messages.
func recurrenceMessage(err error) string {
	switch {
	case errors.Is(err, recurrence.ErrInvalidFrequency):
		return "frequency must be daily or weekly"
	case errors.Is(err, recurrence.ErrInvalidInterval):
		return "interval must be at least 1"
	case errors.Is(err, recurrence.ErrUnboundedRule):
		return "a count or an until date is required"
	case errors.Is(err, recurrence.ErrConflictingBounds):
		return "count and until are mutually exclusive"
	case errors.Is(err, recurrence.ErrInvalidUntil):
		return "until must be a date on or after the start date"
	case errors.Is(err, recurrence.ErrTooManyOccurrences):
		return "rule expands to too many occurrences"
	}
	return "recurrence rule is invalid"
}

// isNotFoundError recognizes missing-record errors from both the application
// and persistence layers.
func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

// mapBookingRepoError converts persistence failures into application errors.
// Checked-write conflicts become *ConflictError so handlers can answer with a
// conflict status carrying the blocking slots.
func mapBookingRepoError(err error) error {
	var conflict *persistence.ConflictError
	if errors.As(err, &conflict) {
		mapped := &ConflictError{Conflicts: make([]SlotConflict, 0, len(conflict.Conflicts))}
		for _, blocking := range conflict.Conflicts {
			mapped.Conflicts = append(mapped.Conflicts, SlotConflict{
				BookingID: blocking.BookingID,
				Date:      blocking.Date,
				StartTime: blocking.StartTime,
				EndTime:   blocking.EndTime,
			})
		}
		return mapped
	}

	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("roomId", "room does not exist")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("input", "input violates a storage constraint")
		return vErr
	}
	return err
}
