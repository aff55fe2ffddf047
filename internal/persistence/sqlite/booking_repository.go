package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/booking-portal/internal/persistence"
)

const bookingColumns = "b.id, b.title, b.description, b.user_id, b.room_id, b.date, b.start_time, b.end_time, b.attendees, b.status, b.series_id, b.created_at, b.updated_at"

// overlapQuery finds confirmed bookings blocking a slot. Two half-open
// intervals overlap exactly when each starts before the other ends; the
// zero-padded "HH:MM" encoding makes that a string comparison. Bound order
// is (end, start).
const overlapQuery = `
	SELECT b.id, b.date, b.start_time, b.end_time
	FROM bookings b
	WHERE b.room_id = ? AND b.date = ? AND b.status = 'confirmed'
	  AND b.start_time < ? AND b.end_time > ?
`

// BookingRepository implements persistence.BookingRepository using SQLite.
// Both checked writes run their overlap scan and the mutation inside one
// transaction, which closes the race between checking a slot and taking it.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// CreateBookings inserts every booking, plus the series row when expanding a
// recurrence rule, in a single transaction. Every slot is scanned first; any
// blocking reservation aborts the whole batch with a *ConflictError listing
// all of them.
func (r *BookingRepository) CreateBookings(ctx context.Context, series *persistence.BookingSeries, bookings []persistence.Booking) error {
	if len(bookings) == 0 {
		return persistence.ErrConstraintViolation
	}
	for _, booking := range bookings {
		if booking.ID == "" || booking.UserID == "" || booking.RoomID == "" {
			return persistence.ErrConstraintViolation
		}
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			var conflicts []persistence.BookingConflict
			for _, booking := range bookings {
				found, err := r.scanConflictsTx(ctx, tx, booking.RoomID, booking.Date, booking.StartTime, booking.EndTime, "")
				if err != nil {
					return err
				}
				conflicts = append(conflicts, found...)
			}
			if len(conflicts) > 0 {
				return &persistence.ConflictError{Conflicts: conflicts}
			}

			if series != nil {
				if err := r.insertSeriesTx(ctx, tx, *series); err != nil {
					return err
				}
			}
			for _, booking := range bookings {
				if err := r.insertBookingTx(ctx, tx, booking); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// UpdateBooking rewrites a booking after re-checking its slot inside the
// same transaction. The booking's own row is excluded from the scan so a
// reservation can shrink or move within itself.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrNotFound
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			conflicts, err := r.scanConflictsTx(ctx, tx, booking.RoomID, booking.Date, booking.StartTime, booking.EndTime, booking.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return &persistence.ConflictError{Conflicts: conflicts}
			}

			query := `
				UPDATE bookings
				SET title = ?, description = ?, room_id = ?, date = ?, start_time = ?, end_time = ?, attendees = ?, updated_at = ?
				WHERE id = ?
			`

			attendees, err := encodeStrings(booking.Attendees)
			if err != nil {
				return err
			}

			result, err := r.helper.ExecTx(ctx, tx, query,
				booking.Title,
				nullString(booking.Description),
				booking.RoomID,
				booking.Date,
				booking.StartTime,
				booking.EndTime,
				attendees,
				formatTime(booking.UpdatedAt),
				booking.ID,
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
		})
	})
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	return r.scanBooking(r.helper.QueryRow(ctx, query, id))
}

// GetBookingDetails retrieves a booking joined with its owner and room.
// The owner and room carry their identifying columns; password hashes and
// row timestamps stay out of the projection.
func (r *BookingRepository) GetBookingDetails(ctx context.Context, id string) (persistence.BookingDetails, error) {
	if id == "" {
		return persistence.BookingDetails{}, persistence.ErrNotFound
	}
	query := `SELECT ` + detailColumns + ` FROM bookings b ` + detailJoins + ` WHERE b.id = ?`
	return r.scanDetails(r.helper.QueryRow(ctx, query, id))
}

// ListBookings returns bookings matching the filter ordered by date, start
// time, then ID. Cancelled rows are excluded unless the filter asks for them.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	where, args := buildBookingFilter(filter)
	query := `SELECT ` + bookingColumns + ` FROM bookings b` + where + ` ORDER BY b.date ASC, b.start_time ASC, b.id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return bookings, nil
}

// ListBookingDetails returns joined rows matching the filter in the same
// order as ListBookings.
func (r *BookingRepository) ListBookingDetails(ctx context.Context, filter persistence.BookingFilter) ([]persistence.BookingDetails, error) {
	where, args := buildBookingFilter(filter)
	query := `SELECT ` + detailColumns + ` FROM bookings b ` + detailJoins + where + ` ORDER BY b.date ASC, b.start_time ASC, b.id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var details []persistence.BookingDetails
	for rows.Next() {
		detail, err := r.scanDetails(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return details, nil
}

// SetBookingStatus flips a booking between confirmed and cancelled.
func (r *BookingRepository) SetBookingStatus(ctx context.Context, id string, status string, updatedAt time.Time) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.helper.Exec(ctx, query, status, formatTime(updatedAt), id)
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

// CancelSeries cancels every confirmed booking in the series and reports how
// many rows changed. Zero is not an error; the series may already be fully
// cancelled.
func (r *BookingRepository) CancelSeries(ctx context.Context, seriesID string, updatedAt time.Time) (int, error) {
	if seriesID == "" {
		return 0, persistence.ErrNotFound
	}

	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = ?
		WHERE series_id = ? AND status = 'confirmed'
	`

	result, err := r.helper.Exec(ctx, query, formatTime(updatedAt), seriesID)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return int(affected), nil
}

// ListConfirmedSlots returns the occupied intervals of a room on a date,
// ordered by start time.
func (r *BookingRepository) ListConfirmedSlots(ctx context.Context, roomID, date string) ([]persistence.BookingSlot, error) {
	query := `
		SELECT id, start_time, end_time
		FROM bookings
		WHERE room_id = ? AND date = ? AND status = 'confirmed'
		ORDER BY start_time ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, roomID, date)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []persistence.BookingSlot
	for rows.Next() {
		var slot persistence.BookingSlot
		if err := rows.Scan(&slot.BookingID, &slot.StartTime, &slot.EndTime); err != nil {
			return nil, r.mapper.MapError(err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return slots, nil
}

// CountConfirmedOn counts the confirmed bookings on a date.
func (r *BookingRepository) CountConfirmedOn(ctx context.Context, date string) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE date = ? AND status = 'confirmed'`, date).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// CountRoomsBusyAt counts distinct rooms whose confirmed booking interval
// contains the given clock value on the given date.
func (r *BookingRepository) CountRoomsBusyAt(ctx context.Context, date, clock string) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx, `
		SELECT COUNT(DISTINCT room_id)
		FROM bookings
		WHERE date = ? AND status = 'confirmed' AND start_time <= ? AND end_time > ?
	`, date, clock, clock).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// scanConflictsTx runs the overlap scan inside the write transaction.
func (r *BookingRepository) scanConflictsTx(ctx context.Context, tx *sql.Tx, roomID, date, startTime, endTime, excludeID string) ([]persistence.BookingConflict, error) {
	query := overlapQuery
	args := []any{roomID, date, endTime, startTime}
	if excludeID != "" {
		query += ` AND b.id <> ?`
		args = append(args, excludeID)
	}
	query += ` ORDER BY b.start_time ASC, b.id ASC`

	rows, err := r.helper.QueryTx(ctx, tx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var conflicts []persistence.BookingConflict
	for rows.Next() {
		var conflict persistence.BookingConflict
		if err := rows.Scan(&conflict.BookingID, &conflict.Date, &conflict.StartTime, &conflict.EndTime); err != nil {
			return nil, r.mapper.MapError(err)
		}
		conflicts = append(conflicts, conflict)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return conflicts, nil
}

func (r *BookingRepository) insertSeriesTx(ctx context.Context, tx *sql.Tx, series persistence.BookingSeries) error {
	if series.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO booking_series (id, frequency, interval, count, until, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var count sql.NullInt64
	if series.Count > 0 {
		count = sql.NullInt64{Int64: int64(series.Count), Valid: true}
	}

	_, err := r.helper.ExecTx(ctx, tx, query,
		series.ID,
		series.Frequency,
		series.Interval,
		count,
		nullString(series.Until),
		series.CreatedBy,
		formatTime(series.CreatedAt),
	)
	return r.mapper.MapError(err)
}

func (r *BookingRepository) insertBookingTx(ctx context.Context, tx *sql.Tx, booking persistence.Booking) error {
	attendees, err := encodeStrings(booking.Attendees)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (id, title, description, user_id, room_id, date, start_time, end_time, attendees, status, series_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.helper.ExecTx(ctx, tx, query,
		booking.ID,
		booking.Title,
		nullString(booking.Description),
		booking.UserID,
		booking.RoomID,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		attendees,
		booking.Status,
		nullString(booking.SeriesID),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

func (r *BookingRepository) scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking     persistence.Booking
		description sql.NullString
		attendees   string
		seriesID    sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&booking.ID,
		&booking.Title,
		&description,
		&booking.UserID,
		&booking.RoomID,
		&booking.Date,
		&booking.StartTime,
		&booking.EndTime,
		&attendees,
		&booking.Status,
		&seriesID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, r.mapper.MapError(err)
	}

	booking.Description = stringPtr(description)
	booking.SeriesID = stringPtr(seriesID)
	if booking.Attendees, err = decodeStrings(attendees); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("bookings.created_at: %w", err)
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("bookings.updated_at: %w", err)
	}

	return booking, nil
}

const detailColumns = bookingColumns + `,
	u.id, u.username, u.email, u.display_name, u.role, u.auth_type,
	r.id, r.name, r.floor, r.capacity, r.equipment, r.is_active`

const detailJoins = `
	JOIN users u ON u.id = b.user_id
	JOIN rooms r ON r.id = b.room_id`

func (r *BookingRepository) scanDetails(row rowScanner) (persistence.BookingDetails, error) {
	var (
		details     persistence.BookingDetails
		description sql.NullString
		attendees   string
		seriesID    sql.NullString
		createdAt   string
		updatedAt   string
		equipment   string
	)

	err := row.Scan(
		&details.Booking.ID,
		&details.Booking.Title,
		&description,
		&details.Booking.UserID,
		&details.Booking.RoomID,
		&details.Booking.Date,
		&details.Booking.StartTime,
		&details.Booking.EndTime,
		&attendees,
		&details.Booking.Status,
		&seriesID,
		&createdAt,
		&updatedAt,
		&details.Owner.ID,
		&details.Owner.Username,
		&details.Owner.Email,
		&details.Owner.DisplayName,
		&details.Owner.Role,
		&details.Owner.AuthType,
		&details.Room.ID,
		&details.Room.Name,
		&details.Room.Floor,
		&details.Room.Capacity,
		&equipment,
		&details.Room.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.BookingDetails{}, persistence.ErrNotFound
		}
		return persistence.BookingDetails{}, r.mapper.MapError(err)
	}

	details.Booking.Description = stringPtr(description)
	details.Booking.SeriesID = stringPtr(seriesID)
	if details.Booking.Attendees, err = decodeStrings(attendees); err != nil {
		return persistence.BookingDetails{}, err
	}
	if details.Booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.BookingDetails{}, fmt.Errorf("bookings.created_at: %w", err)
	}
	if details.Booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.BookingDetails{}, fmt.Errorf("bookings.updated_at: %w", err)
	}
	if details.Room.Equipment, err = decodeStrings(equipment); err != nil {
		return persistence.BookingDetails{}, err
	}

	return details, nil
}

// buildBookingFilter renders the WHERE clause for the list queries. The
// booking table is always aliased b.
func buildBookingFilter(filter persistence.BookingFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.OwnerID != "" {
		conditions = append(conditions, "b.user_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, "b.room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Date != "" {
		conditions = append(conditions, "b.date = ?")
		args = append(args, filter.Date)
	}
	if filter.SeriesID != "" {
		conditions = append(conditions, "b.series_id = ?")
		args = append(args, filter.SeriesID)
	}
	if !filter.IncludeCancelled {
		conditions = append(conditions, "b.status = 'confirmed'")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
