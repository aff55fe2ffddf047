package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/persistence"
)

// RoomStore captures the persistence operations needed by the room service.
type RoomStore interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, includeInactive bool) ([]Room, error)
	DeactivateRoom(ctx context.Context, id string, updatedAt time.Time) error
}

const (
	maxRoomNameLength  = 100
	maxRoomCapacity    = 1000
	minRoomFloor       = -10
	maxRoomFloor       = 200
	maxEquipmentItems  = 20
	maxEquipmentLength = 50
)

// RoomService orchestrates validation, authorization, and persistence for the
// room catalog. Every mutation is admin-gated; deletion is always the soft kind.
type RoomService struct {
	rooms       RoomStore
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomStore, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, zerolog.Nop())
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomStore, idGenerator func() string, now func() time.Time, logger zerolog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: logger}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom").With().Str("principal_id", params.Principal.UserID).Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to create room")
			return
		}
		logger.Info().Str("room_id", room.ID).Msg("room created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	input := normalizeRoomInput(params.Input)
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	room = Room{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Floor:     input.Floor,
		Capacity:  input.Capacity,
		Equipment: input.Equipment,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.rooms == nil {
		return
	}

	if err = s.rooms.CreateRoom(ctx, room); err != nil {
		err = mapRoomRepoError(err)
		room = Room{}
		return
	}
	return
}

// UpdateRoom validates input and updates an existing room for administrators.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom").With().
		Str("principal_id", params.Principal.UserID).
		Str("room_id", params.RoomID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to update room")
			return
		}
		logger.Info().Msg("room updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	var existing Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	input := normalizeRoomInput(params.Input)
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = input.Name
	updated.Floor = input.Floor
	updated.Capacity = input.Capacity
	updated.Equipment = input.Equipment
	updated.UpdatedAt = s.now()

	if err = s.rooms.UpdateRoom(ctx, updated); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = updated
	return
}

// DeactivateRoom soft-deletes a room for administrators. Historical bookings
// keep referencing the row; only new reservations are blocked.
func (s *RoomService) DeactivateRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room store not configured")
	}

	logger := s.loggerWith(ctx, "DeactivateRoom").With().
		Str("principal_id", principal.UserID).
		Str("room_id", roomID).
		Logger()

	if !principal.IsAdmin() {
		logger.Error().Str("error_kind", ErrorKind(ErrForbidden)).Msg("failed to deactivate room")
		return ErrForbidden
	}

	if err := s.rooms.DeactivateRoom(ctx, roomID, s.now()); err != nil {
		err = mapRoomRepoError(err)
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to deactivate room")
		return err
	}

	logger.Info().Msg("room deactivated")
	return nil
}

// GetRoom returns one room, active or not, for any authenticated user.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room store not configured")
		return
	}

	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRoomRepoError(err)
		logger := s.loggerWith(ctx, "GetRoom")
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Str("room_id", roomID).Msg("failed to load room")
		return
	}
	return
}

// ListRooms returns the catalog sorted by floor then name. Inactive rooms are
// only included for administrators that ask for them.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal, includeInactive bool) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	if includeInactive && !principal.IsAdmin() {
		includeInactive = false
	}

	logger := s.loggerWith(ctx, "ListRooms").With().
		Str("principal_id", principal.UserID).
		Bool("include_inactive", includeInactive).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to list rooms")
			return
		}
		logger.Info().Int("result_count", len(rooms)).Msg("rooms listed")
	}()

	var raw []Room
	raw, err = s.rooms.ListRooms(ctx, includeInactive)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	rooms = make([]Room, len(raw))
	copy(rooms, raw)

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Floor != rooms[j].Floor {
			return rooms[i].Floor < rooms[j].Floor
		}
		if !strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
		}
		return rooms[i].ID < rooms[j].ID
	})

	return
}

func normalizeRoomInput(input RoomInput) RoomInput {
	out := input
	out.Name = strings.TrimSpace(input.Name)

	if len(input.Equipment) > 0 {
		items := make([]string, 0, len(input.Equipment))
		for _, item := range input.Equipment {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			items = append(items, item)
		}
		out.Equipment = items
	}
	return out
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case input.Name == "":
		vErr.add("name", "name is required")
	case len(input.Name) > maxRoomNameLength:
		vErr.add("name", fmt.Sprintf("name must be at most %d characters", maxRoomNameLength))
	}

	if input.Floor < minRoomFloor || input.Floor > maxRoomFloor {
		vErr.add("floor", fmt.Sprintf("floor must be between %d and %d", minRoomFloor, maxRoomFloor))
	}

	switch {
	case input.Capacity <= 0:
		vErr.add("capacity", "capacity must be positive")
	case input.Capacity > maxRoomCapacity:
		vErr.add("capacity", fmt.Sprintf("capacity must be at most %d", maxRoomCapacity))
	}

	if len(input.Equipment) > maxEquipmentItems {
		vErr.add("equipment", fmt.Sprintf("at most %d equipment items are allowed", maxEquipmentItems))
	}
	for _, item := range input.Equipment {
		if len(item) > maxEquipmentLength {
			vErr.add("equipment", fmt.Sprintf("equipment items must be at most %d characters", maxEquipmentLength))
			break
		}
	}

	return vErr
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("input", "input violates a storage constraint")
		return vErr
	}
	return err
}
