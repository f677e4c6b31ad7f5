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

// EntryRepository implements persistence.EntryRepository and
// persistence.OverrideRepository using SQLite.
type EntryRepository struct {
	pool *ConnectionPool
}

// NewEntryRepository creates a new SQLite entry repository.
func NewEntryRepository(pool *ConnectionPool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// CreateEntry inserts a new schedule entry.
func (r *EntryRepository) CreateEntry(ctx context.Context, entry persistence.ScheduleEntry) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO schedule_entries
			(id, section_id, course_id, instructor_id, room_id, weekday, start_time, end_time, status, confirmed_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		entry.ID,
		entry.SectionID,
		entry.CourseID,
		entry.InstructorID,
		entry.RoomID,
		int(entry.Weekday),
		entry.Window.Start.String(),
		entry.Window.End.String(),
		string(entry.Status),
		entry.ConfirmedBy,
		entry.CreatedAt.UTC().Format(time.RFC3339),
		entry.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateEntry replaces an existing schedule entry.
func (r *EntryRepository) UpdateEntry(ctx context.Context, entry persistence.ScheduleEntry) error {
	query := `
		UPDATE schedule_entries
		SET section_id = ?, course_id = ?, instructor_id = ?, room_id = ?,
			weekday = ?, start_time = ?, end_time = ?, status = ?, confirmed_by = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		entry.SectionID,
		entry.CourseID,
		entry.InstructorID,
		entry.RoomID,
		int(entry.Weekday),
		entry.Window.Start.String(),
		entry.Window.End.String(),
		string(entry.Status),
		entry.ConfirmedBy,
		entry.UpdatedAt.UTC().Format(time.RFC3339),
		entry.ID,
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

const entryColumns = `id, section_id, course_id, instructor_id, room_id, weekday, start_time, end_time, status, confirmed_by, created_at, updated_at`

// GetEntry retrieves one schedule entry by ID.
func (r *EntryRepository) GetEntry(ctx context.Context, id string) (persistence.ScheduleEntry, error) {
	if id == "" {
		return persistence.ScheduleEntry{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM schedule_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ScheduleEntry{}, persistence.ErrNotFound
		}
		return persistence.ScheduleEntry{}, mapError(err)
	}
	return entry, nil
}

// ListEntries returns entries matching the filter ordered by weekday, start
// time then ID.
func (r *EntryRepository) ListEntries(ctx context.Context, filter persistence.EntryFilter) ([]persistence.ScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM schedule_entries WHERE 1 = 1`
	var args []any

	if filter.SectionID != "" {
		query += ` AND section_id = ?`
		args = append(args, filter.SectionID)
	}
	if filter.RoomID != "" {
		query += ` AND room_id = ?`
		args = append(args, filter.RoomID)
	}
	if filter.InstructorID != "" {
		query += ` AND instructor_id = ?`
		args = append(args, filter.InstructorID)
	}
	if filter.Weekday != nil {
		query += ` AND weekday = ?`
		args = append(args, int(*filter.Weekday))
	}
	query += ` ORDER BY weekday ASC, start_time ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.ScheduleEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, mapError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// DeleteEntry removes one schedule entry and its recorded exceptions in a
// single transaction, so a failure partway leaves both tables untouched.
func (r *EntryRepository) DeleteEntry(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_overrides WHERE entry_id = ?`, id); err != nil {
			return mapError(err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = ?`, id)
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
	})
}

// PutOverride stores the exception for (entry, date), replacing any prior one.
func (r *EntryRepository) PutOverride(ctx context.Context, override persistence.DateOverride) error {
	var start, end any
	if override.Window != nil {
		start = override.Window.Start.String()
		end = override.Window.End.String()
	}

	query := `
		INSERT INTO schedule_overrides (entry_id, date, status, start_time, end_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entry_id, date) DO UPDATE SET
			status = excluded.status,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		override.EntryID,
		override.Date.String(),
		string(override.Status),
		start,
		end,
		override.CreatedAt.UTC().Format(time.RFC3339),
		override.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

const overrideColumns = `entry_id, date, status, start_time, end_time, created_at, updated_at`

// GetOverride looks up the exception for (entry, date).
func (r *EntryRepository) GetOverride(ctx context.Context, entryID string, date timetable.Date) (persistence.DateOverride, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+overrideColumns+` FROM schedule_overrides WHERE entry_id = ? AND date = ?`,
		entryID, date.String())
	override, err := scanOverride(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.DateOverride{}, persistence.ErrNotFound
		}
		return persistence.DateOverride{}, mapError(err)
	}
	return override, nil
}

// ListOverridesForDate returns every exception recorded for the date.
func (r *EntryRepository) ListOverridesForDate(ctx context.Context, date timetable.Date) ([]persistence.DateOverride, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+overrideColumns+` FROM schedule_overrides WHERE date = ? ORDER BY entry_id ASC`,
		date.String())
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var overrides []persistence.DateOverride
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, mapError(err)
		}
		overrides = append(overrides, override)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return overrides, nil
}

// DeleteOverride removes the exception for (entry, date).
func (r *EntryRepository) DeleteOverride(ctx context.Context, entryID string, date timetable.Date) error {
	result, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM schedule_overrides WHERE entry_id = ? AND date = ?`,
		entryID, date.String())
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

// DeleteOverridesForEntry removes every exception recorded for the entry.
func (r *EntryRepository) DeleteOverridesForEntry(ctx context.Context, entryID string) error {
	_, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM schedule_overrides WHERE entry_id = ?`, entryID)
	return mapError(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (persistence.ScheduleEntry, error) {
	var (
		entry                  persistence.ScheduleEntry
		weekday                int
		startStr, endStr       string
		status                 string
		createdStr, updatedStr string
	)
	if err := row.Scan(
		&entry.ID, &entry.SectionID, &entry.CourseID, &entry.InstructorID, &entry.RoomID,
		&weekday, &startStr, &endStr, &status, &entry.ConfirmedBy, &createdStr, &updatedStr,
	); err != nil {
		return persistence.ScheduleEntry{}, err
	}

	entry.Weekday = time.Weekday(weekday)

	window, err := parseStoredWindow(startStr, endStr)
	if err != nil {
		return persistence.ScheduleEntry{}, err
	}
	entry.Window = window

	entry.Status, err = timetable.ParseEntryStatus(status)
	if err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("failed to parse status: %w", err)
	}
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return entry, nil
}

func scanOverride(row rowScanner) (persistence.DateOverride, error) {
	var (
		override               persistence.DateOverride
		dateStr, status        string
		startStr, endStr       sql.NullString
		createdStr, updatedStr string
	)
	if err := row.Scan(
		&override.EntryID, &dateStr, &status, &startStr, &endStr, &createdStr, &updatedStr,
	); err != nil {
		return persistence.DateOverride{}, err
	}

	var err error
	if override.Date, err = timetable.ParseDate(dateStr); err != nil {
		return persistence.DateOverride{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if override.Status, err = timetable.ParseEntryStatus(status); err != nil {
		return persistence.DateOverride{}, fmt.Errorf("failed to parse status: %w", err)
	}
	if startStr.Valid && endStr.Valid {
		window, err := parseStoredWindow(startStr.String, endStr.String)
		if err != nil {
			return persistence.DateOverride{}, err
		}
		override.Window = &window
	}
	if override.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return persistence.DateOverride{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if override.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return persistence.DateOverride{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return override, nil
}

func parseStoredWindow(start, end string) (timetable.Interval, error) {
	startAt, err := timetable.ParseTimeOfDay(start)
	if err != nil {
		return timetable.Interval{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	endAt, err := timetable.ParseTimeOfDay(end)
	if err != nil {
		return timetable.Interval{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	return timetable.Interval{Start: startAt, End: endAt}, nil
}
