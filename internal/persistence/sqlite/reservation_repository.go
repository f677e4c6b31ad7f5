package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/timetable"
)

// ReservationRepository implements persistence.ReservationRepository using SQLite.
type ReservationRepository struct {
	pool *ConnectionPool
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// CreateReservation inserts a new reservation.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO reservations
			(id, room_id, instructor_id, section_id, course_id, requester_id, date, start_time, end_time, status, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		reservation.ID,
		reservation.RoomID,
		reservation.InstructorID,
		reservation.SectionID,
		reservation.CourseID,
		reservation.RequesterID,
		reservation.Date.String(),
		reservation.Window.Start.String(),
		reservation.Window.End.String(),
		string(reservation.Status),
		reservation.Note,
		reservation.CreatedAt.UTC().Format(time.RFC3339),
		reservation.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateReservation replaces an existing reservation.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	query := `
		UPDATE reservations
		SET room_id = ?, instructor_id = ?, section_id = ?, course_id = ?, requester_id = ?,
			date = ?, start_time = ?, end_time = ?, status = ?, note = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		reservation.RoomID,
		reservation.InstructorID,
		reservation.SectionID,
		reservation.CourseID,
		reservation.RequesterID,
		reservation.Date.String(),
		reservation.Window.Start.String(),
		reservation.Window.End.String(),
		string(reservation.Status),
		reservation.Note,
		reservation.UpdatedAt.UTC().Format(time.RFC3339),
		reservation.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

const reservationColumns = `id, room_id, instructor_id, section_id, course_id, requester_id, date, start_time, end_time, status, note, created_at, updated_at`

// GetReservation retrieves one reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, mapError(err)
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter ordered by date,
// start time then ID.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE 1 = 1`
	var args []any

	if filter.RoomID != "" {
		query += ` AND room_id = ?`
		args = append(args, filter.RoomID)
	}
	if filter.InstructorID != "" {
		query += ` AND instructor_id = ?`
		args = append(args, filter.InstructorID)
	}
	if filter.SectionID != "" {
		query += ` AND section_id = ?`
		args = append(args, filter.SectionID)
	}
	if filter.RequesterID != "" {
		query += ` AND requester_id = ?`
		args = append(args, filter.RequesterID)
	}
	if filter.Date != nil {
		query += ` AND date = ?`
		args = append(args, filter.Date.String())
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY date ASC, start_time ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, mapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

// DeleteReservation removes one reservation.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation            persistence.Reservation
		dateStr                string
		startStr, endStr       string
		status                 string
		createdStr, updatedStr string
	)
	if err := row.Scan(
		&reservation.ID, &reservation.RoomID, &reservation.InstructorID, &reservation.SectionID,
		&reservation.CourseID, &reservation.RequesterID, &dateStr, &startStr, &endStr,
		&status, &reservation.Note, &createdStr, &updatedStr,
	); err != nil {
		return persistence.Reservation{}, err
	}

	var err error
	if reservation.Date, err = timetable.ParseDate(dateStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if reservation.Window, err = parseStoredWindow(startStr, endStr); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.Status, err = timetable.ParseReservationStatus(status); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse status: %w", err)
	}
	if reservation.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return reservation, nil
}
