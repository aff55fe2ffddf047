package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
	"github.com/example/booking-portal/internal/recurrence"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) ([]application.BookingDetails, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.BookingDetails, error)
	CancelBooking(ctx context.Context, principal application.Principal, bookingID string) error
	CancelSeries(ctx context.Context, principal application.Principal, seriesID string) (int, error)
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.BookingDetails, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
	ListRoomSchedule(ctx context.Context, roomID, date string) (application.RoomSchedule, error)
	CheckAvailability(ctx context.Context, query application.AvailabilityQuery) (application.AvailabilityResult, error)
}

type BookingHandler struct {
	bookings  bookingService
	responder responder
	logger    zerolog.Logger
}

func NewBookingHandler(bookings bookingService, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, responder: newResponder(logger), logger: logger}
}

func (h *BookingHandler) log(ctx context.Context, operation string) zerolog.Logger {
	if h == nil {
		return zerolog.Nop()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation)
}

// List returns bookings matching the query filters. Admins see everyone's
// bookings; other principals are restricted to their own regardless of the
// userId filter.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	query := r.URL.Query()
	params := application.ListBookingsParams{
		Principal:        principal,
		RoomID:           query.Get("roomId"),
		Date:             query.Get("date"),
		OwnerID:          query.Get("userId"),
		IncludeCancelled: boolQuery(r, "includeCancelled"),
	}

	bookings, err := h.bookings.ListBookings(r.Context(), params)
	if err != nil {
		logger := h.log(r.Context(), "List")
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("booking list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

// My returns the caller's own bookings, soonest first.
func (h *BookingHandler) My(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	params := application.ListBookingsParams{
		Principal:        principal,
		OwnerID:          principal.UserID,
		Date:             r.URL.Query().Get("date"),
		IncludeCancelled: boolQuery(r, "includeCancelled"),
	}

	bookings, err := h.bookings.ListBookings(r.Context(), params)
	if err != nil {
		logger := h.log(r.Context(), "My")
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("own booking list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

// RoomSchedule returns a room's confirmed bookings for one day with owner
// and room details, the data behind the schedule grid.
func (h *BookingHandler) RoomSchedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "roomID"))
	date := r.URL.Query().Get("date")

	schedule, err := h.bookings.ListRoomSchedule(r.Context(), roomID, date)
	if err != nil {
		logger := h.log(r.Context(), "RoomSchedule")
		logger.Error().Err(err).
			Str("error_kind", application.ErrorKind(err)).
			Str("room_id", roomID).
			Msg("room schedule failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomScheduleResponse{
		Room:     toRoomDTO(schedule.Room),
		Date:     schedule.Date,
		Bookings: toBookingDetailsDTOs(schedule.Bookings),
	})
}

// Create books a room, expanding an optional recurrence rule into a series.
// Series creation is all-or-nothing: one conflicting occurrence rejects the
// whole request.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	var req createBookingRequest
	if err := decodeRequest(r, &req); err != nil {
		logger := h.log(r.Context(), "Create")
		logger.Error().Err(err).Msg("failed to decode booking request")
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Create").With().
		Str("principal_id", principal.UserID).
		Str("room_id", req.RoomID).
		Logger()

	created, err := h.bookings.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("booking creation failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Int("booking_count", len(created)).Msg("bookings created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingsCreatedResponse{Bookings: toBookingDetailsDTOs(created)})
}

// Update applies a partial edit to one booking. Owner or admin only;
// cancelled bookings are immutable.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "bookingID"))
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	var req updateBookingRequest
	if err := decodeRequest(r, &req); err != nil {
		logger := h.log(r.Context(), "Update")
		logger.Error().Err(err).Msg("failed to decode booking update")
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Update").With().
		Str("principal_id", principal.UserID).
		Str("booking_id", bookingID).
		Logger()

	details, err := h.bookings.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Update:    req.toUpdate(),
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("booking update failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Msg("booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDetailsDTO(details)})
}

// Delete cancels one booking, or the whole series with ?scope=series. A
// series scope on a standalone booking degrades to a single cancellation.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "bookingID"))
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	logger := h.log(r.Context(), "Delete").With().
		Str("principal_id", principal.UserID).
		Str("booking_id", bookingID).
		Logger()

	if r.URL.Query().Get("scope") == "series" {
		details, err := h.bookings.GetBooking(r.Context(), principal, bookingID)
		if err != nil {
			logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("series lookup failed")
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		if seriesID := details.Booking.SeriesID; seriesID != "" {
			cancelled, err := h.bookings.CancelSeries(r.Context(), principal, seriesID)
			if err != nil {
				logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("series cancellation failed")
				h.responder.handleServiceError(r.Context(), w, err)
				return
			}
			logger.Info().Str("series_id", seriesID).Int("cancelled_count", cancelled).Msg("series cancelled")
			h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
			return
		}
	}

	if err := h.bookings.CancelBooking(r.Context(), principal, bookingID); err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("booking cancellation failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Msg("booking cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CheckAvailability answers whether a slot is free without writing anything.
// The blocking reservations come back so the UI can show what is in the way.
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req availabilityRequest
	if err := decodeRequest(r, &req); err != nil {
		logger := h.log(r.Context(), "CheckAvailability")
		logger.Error().Err(err).Msg("failed to decode availability request")
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	result, err := h.bookings.CheckAvailability(r.Context(), req.toQuery())
	if err != nil {
		logger := h.log(r.Context(), "CheckAvailability")
		logger.Error().Err(err).
			Str("error_kind", application.ErrorKind(err)).
			Str("room_id", req.RoomID).
			Msg("availability check failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		Available: result.Available,
		Conflicts: toSlotConflictDTOs(result.Conflicts),
	})
}

type createBookingRequest struct {
	Title       string             `json:"title" validate:"required"`
	Description string             `json:"description"`
	RoomID      string             `json:"roomId" validate:"required"`
	Date        string             `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string             `json:"startTime" validate:"required"`
	EndTime     string             `json:"endTime" validate:"required"`
	Attendees   []string           `json:"attendees"`
	Recurrence  *recurrenceRequest `json:"recurrence"`
}

func (req createBookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		Title:       req.Title,
		Description: req.Description,
		RoomID:      req.RoomID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Attendees:   req.Attendees,
		Recurrence:  req.Recurrence.toRule(),
	}
}

type recurrenceRequest struct {
	Frequency string `json:"frequency" validate:"required,oneof=daily weekly"`
	Interval  int    `json:"interval" validate:"omitempty,min=1"`
	Count     int    `json:"count" validate:"omitempty,min=1"`
	Until     string `json:"until" validate:"omitempty,datetime=2006-01-02"`
}

// toRule maps the wire rule onto the engine's; an omitted interval means
// every occurrence ("weekly" alone is every week).
func (req *recurrenceRequest) toRule() recurrence.Rule {
	if req == nil {
		return recurrence.Rule{}
	}
	interval := req.Interval
	if interval == 0 {
		interval = 1
	}
	return recurrence.Rule{
		Frequency: recurrence.Frequency(req.Frequency),
		Interval:  interval,
		Count:     req.Count,
		Until:     req.Until,
	}
}

type updateBookingRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	RoomID      *string   `json:"roomId"`
	Date        *string   `json:"date"`
	StartTime   *string   `json:"startTime"`
	EndTime     *string   `json:"endTime"`
	Attendees   *[]string `json:"attendees"`
}

func (req updateBookingRequest) toUpdate() application.BookingUpdate {
	return application.BookingUpdate{
		Title:       req.Title,
		Description: req.Description,
		RoomID:      req.RoomID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Attendees:   req.Attendees,
	}
}

type availabilityRequest struct {
	RoomID           string `json:"roomId" validate:"required"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime        string `json:"startTime" validate:"required"`
	EndTime          string `json:"endTime" validate:"required"`
	ExcludeBookingID string `json:"excludeBookingId"`
}

func (req availabilityRequest) toQuery() application.AvailabilityQuery {
	return application.AvailabilityQuery{
		RoomID:           req.RoomID,
		Date:             req.Date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		ExcludeBookingID: req.ExcludeBookingID,
	}
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingsCreatedResponse struct {
	Bookings []bookingDetailsDTO `json:"bookings"`
}

type bookingResponse struct {
	Booking bookingDetailsDTO `json:"booking"`
}

type availabilityResponse struct {
	Available bool              `json:"available"`
	Conflicts []slotConflictDTO `json:"conflicts"`
}
