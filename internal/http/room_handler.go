package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeactivateRoom(ctx context.Context, principal application.Principal, roomID string) error
	GetRoom(ctx context.Context, roomID string) (application.Room, error)
	ListRooms(ctx context.Context, principal application.Principal, includeInactive bool) ([]application.Room, error)
}

type roomScheduleService interface {
	ListRoomSchedule(ctx context.Context, roomID, date string) (application.RoomSchedule, error)
}

type RoomHandler struct {
	rooms     roomService
	schedules roomScheduleService
	responder responder
	logger    zerolog.Logger
}

func NewRoomHandler(rooms roomService, schedules roomScheduleService, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, schedules: schedules, responder: newResponder(logger), logger: logger}
}

func (h *RoomHandler) log(ctx context.Context, operation string) zerolog.Logger {
	if h == nil {
		return zerolog.Nop()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation)
}

// List returns rooms ordered by floor then name. includeInactive widens the
// listing for admins; the service downgrades it silently for everyone else.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.rooms == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}

	logger := h.log(r.Context(), "List")

	rooms, err := h.rooms.ListRooms(r.Context(), principal, boolQuery(r, "includeInactive"))
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("room list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

// Get returns a single room. With ?date= it also carries the room's bookings
// for that day, which is what the schedule page loads.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.rooms == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "roomID"))
	logger := h.log(r.Context(), "Get").With().Str("room_id", roomID).Logger()

	if date := r.URL.Query().Get("date"); date != "" {
		if h.schedules == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		schedule, err := h.schedules.ListRoomSchedule(r.Context(), roomID, date)
		if err != nil {
			logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("room schedule failed")
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, roomScheduleResponse{
			Room:     toRoomDTO(schedule.Room),
			Date:     schedule.Date,
			Bookings: toBookingDetailsDTOs(schedule.Bookings),
		})
		return
	}

	room, err := h.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("room fetch failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

// Create registers a new room. Admin only.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.rooms == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := decodeRequest(r, &req); err != nil {
		logger := h.log(r.Context(), "Create")
		logger.Error().Err(err).Msg("failed to decode room request")
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Create").With().Str("principal_id", principal.UserID).Logger()

	room, err := h.rooms.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("room creation failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("room_id", room.ID).Msg("room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

// Update replaces the mutable fields of a room. Admin only.
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.rooms == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "roomID"))
	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := decodeRequest(r, &req); err != nil {
		logger := h.log(r.Context(), "Update")
		logger.Error().Err(err).Msg("failed to decode room update")
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Update").With().
		Str("principal_id", principal.UserID).
		Str("room_id", roomID).
		Logger()

	room, err := h.rooms.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("room update failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Msg("room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

// Delete soft-deactivates a room; its booking history stays queryable.
// Admin only.
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.rooms == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "roomID"))
	principal, _ := PrincipalFromContext(r.Context())

	logger := h.log(r.Context(), "Delete").With().
		Str("principal_id", principal.UserID).
		Str("room_id", roomID).
		Logger()

	if err := h.rooms.DeactivateRoom(r.Context(), principal, roomID); err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("room deactivation failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Msg("room deactivated")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type roomRequest struct {
	Name      string   `json:"name" validate:"required"`
	Floor     int      `json:"floor"`
	Capacity  int      `json:"capacity" validate:"required,min=1"`
	Equipment []string `json:"equipment"`
}

func (req roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:      strings.TrimSpace(req.Name),
		Floor:     req.Floor,
		Capacity:  req.Capacity,
		Equipment: req.Equipment,
	}
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomScheduleResponse struct {
	Room     roomDTO             `json:"room"`
	Date     string              `json:"date"`
	Bookings []bookingDetailsDTO `json:"bookings"`
}
