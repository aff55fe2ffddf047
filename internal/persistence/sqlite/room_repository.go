package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/booking-portal/internal/persistence"
)

const roomColumns = "id, name, floor, capacity, equipment, is_active, created_at, updated_at"

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateRoom inserts a new room. A partial unique index rejects a second
// active room with the same name.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Name == "" {
		return persistence.ErrConstraintViolation
	}

	equipment, err := encodeStrings(room.Equipment)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rooms (` + roomColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.helper.Exec(ctx, query,
		room.ID,
		room.Name,
		room.Floor,
		room.Capacity,
		equipment,
		room.IsActive,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateRoom rewrites a room row, including its active flag, so an update
// can reactivate a soft-deleted room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrNotFound
	}

	equipment, err := encodeStrings(room.Equipment)
	if err != nil {
		return err
	}

	query := `
		UPDATE rooms
		SET name = ?, floor = ?, capacity = ?, equipment = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		room.Name,
		room.Floor,
		room.Capacity,
		equipment,
		room.IsActive,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetRoom retrieves a room by ID, active or not.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	return r.scanRoom(r.helper.QueryRow(ctx, query, id))
}

// ListRooms returns rooms ordered by name then ID. Inactive rooms are
// filtered out unless includeInactive is set.
func (r *RoomRepository) ListRooms(ctx context.Context, includeInactive bool) ([]persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := r.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return rooms, nil
}

// DeactivateRoom soft-deletes a room. Bookings keep referencing the row.
// Deactivating an already inactive room succeeds again.
func (r *RoomRepository) DeactivateRoom(ctx context.Context, id string, updatedAt time.Time) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	query := `UPDATE rooms SET is_active = 0, updated_at = ? WHERE id = ?`

	result, err := r.helper.Exec(ctx, query, formatTime(updatedAt), id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// CountActiveRooms returns the number of bookable rooms.
func (r *RoomRepository) CountActiveRooms(ctx context.Context) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM rooms WHERE is_active = 1`).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

func (r *RoomRepository) scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room      persistence.Room
		equipment string
		createdAt string
		updatedAt string
	)

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Floor,
		&room.Capacity,
		&equipment,
		&room.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, r.mapper.MapError(err)
	}

	if room.Equipment, err = decodeStrings(equipment); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("rooms.created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, fmt.Errorf("rooms.updated_at: %w", err)
	}

	return room, nil
}
