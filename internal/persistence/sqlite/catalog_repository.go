package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// CatalogRepository implements persistence.CatalogRepository using SQLite.
type CatalogRepository struct {
	pool *ConnectionPool
}

// NewCatalogRepository creates a new SQLite catalog repository.
func NewCatalogRepository(pool *ConnectionPool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// SaveRoom upserts a room.
func (r *CatalogRepository) SaveRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}
	query := `
		INSERT INTO rooms (id, name, location, capacity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			location = excluded.location,
			capacity = excluded.capacity,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		room.ID, room.Name, room.Location, room.Capacity,
		room.CreatedAt.UTC().Format(time.RFC3339),
		room.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetRoom retrieves one room by ID.
func (r *CatalogRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, name, location, capacity, created_at, updated_at FROM rooms WHERE id = ?`, id)

	var room persistence.Room
	var createdStr, updatedStr string
	if err := row.Scan(&room.ID, &room.Name, &room.Location, &room.Capacity, &createdStr, &updatedStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapError(err)
	}
	var err error
	if room.CreatedAt, room.UpdatedAt, err = parseTimestamps(createdStr, updatedStr); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

// ListRooms returns every room ordered by name then ID.
func (r *CatalogRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, name, location, capacity, created_at, updated_at FROM rooms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		var room persistence.Room
		var createdStr, updatedStr string
		if err := rows.Scan(&room.ID, &room.Name, &room.Location, &room.Capacity, &createdStr, &updatedStr); err != nil {
			return nil, mapError(err)
		}
		if room.CreatedAt, room.UpdatedAt, err = parseTimestamps(createdStr, updatedStr); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes one room. Referencing entries make the delete fail with
// a foreign key violation.
func (r *CatalogRepository) DeleteRoom(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "rooms", id)
}

// SaveInstructor upserts an instructor.
func (r *CatalogRepository) SaveInstructor(ctx context.Context, instructor persistence.Instructor) error {
	if instructor.ID == "" {
		return persistence.ErrConstraintViolation
	}
	query := `
		INSERT INTO instructors (id, code, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		instructor.ID, instructor.Code, instructor.Name,
		instructor.CreatedAt.UTC().Format(time.RFC3339),
		instructor.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetInstructor retrieves one instructor by ID.
func (r *CatalogRepository) GetInstructor(ctx context.Context, id string) (persistence.Instructor, error) {
	if id == "" {
		return persistence.Instructor{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, code, name, created_at, updated_at FROM instructors WHERE id = ?`, id)

	var instructor persistence.Instructor
	var createdStr, updatedStr string
	if err := row.Scan(&instructor.ID, &instructor.Code, &instructor.Name, &createdStr, &updatedStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Instructor{}, persistence.ErrNotFound
		}
		return persistence.Instructor{}, mapError(err)
	}
	var err error
	if instructor.CreatedAt, instructor.UpdatedAt, err = parseTimestamps(createdStr, updatedStr); err != nil {
		return persistence.Instructor{}, err
	}
	return instructor, nil
}

// ListInstructors returns every instructor ordered by code then ID.
func (r *CatalogRepository) ListInstructors(ctx context.Context) ([]persistence.Instructor, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, code, name, created_at, updated_at FROM instructors ORDER BY code ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var instructors []persistence.Instructor
	for rows.Next() {
		var instructor persistence.Instructor
		var createdStr, updatedStr string
		if err := rows.Scan(&instructor.ID, &instructor.Code, &instructor.Name, &createdStr, &updatedStr); err != nil {
			return nil, mapError(err)
		}
		if instructor.CreatedAt, instructor.UpdatedAt, err = parseTimestamps(createdStr, updatedStr); err != nil {
			return nil, err
		}
		instructors = append(instructors, instructor)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return instructors, nil
}

// DeleteInstructor removes one instructor.
func (r *CatalogRepository) DeleteInstructor(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "instructors", id)
}

// SaveClassSection upserts a class section.
func (r *CatalogRepository) SaveClassSection(ctx context.Context, section persistence.ClassSection) error {
	if section.ID == "" {
		return persistence.ErrConstraintViolation
	}
	query := `
		INSERT INTO class_sections (id, name, program, semester, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			program = excluded.program,
			semester = excluded.semester,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		section.ID, section.Name, section.Program, section.Semester,
		section.CreatedAt.UTC().Format(time.RFC3339),
		section.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetClassSection retrieves one class section by ID.
func (r *CatalogRepository) GetClassSection(ctx context.Context, id string) (persistence.ClassSection, error) {
	if id == "" {
		return persistence.ClassSection{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, name, program, semester, created_at, updated_at FROM class_sections WHERE id = ?`, id)

	var section persistence.ClassSection
	var createdStr, updatedStr string
	if err := row.Scan(&section.ID, &section.Name, &section.Program, &section.Semester, &createdStr, &updatedStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ClassSection{}, persistence.ErrNotFound
		}
		return persistence.ClassSection{}, mapError(err)
	}
	var err error
	if section.CreatedAt, section.UpdatedAt, err = parseTimestamps(createdStr, updatedStr); err != nil {
		return persistence.ClassSection{}, err
	}
	return section, nil
}

// ListClassSections returns every class section ordered by name then ID.
func (r *CatalogRepository) ListClassSections(ctx context.Context) ([]persistence.ClassSection, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, name, program, semester, created_at, updated_at FROM class_sections ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sections []persistence.ClassSection
	for rows.Next() {
		var section persistence.ClassSection
		var createdStr, updatedStr string
		if err := rows.Scan(&section.ID, &section.Name, &section.Program, &section.Semester, &createdStr, &updatedStr); err != nil {
			return nil, mapError(err)
		}
		if section.CreatedAt, section.UpdatedAt, err = parseTimestamps(createdStr, updatedStr); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sections, nil
}

// DeleteClassSection removes one class section.
func (r *CatalogRepository) DeleteClassSection(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "class_sections", id)
}

// SaveCourse upserts a course.
func (r *CatalogRepository) SaveCourse(ctx context.Context, course persistence.Course) error {
	if course.ID == "" {
		return persistence.ErrConstraintViolation
	}
	query := `
		INSERT INTO courses (id, name, program, semester, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			program = excluded.program,
			semester = excluded.semester,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		course.ID, course.Name, course.Program, course.Semester,
		course.CreatedAt.UTC().Format(time.RFC3339),
		course.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetCourse retrieves one course by ID.
func (r *CatalogRepository) GetCourse(ctx context.Context, id string) (persistence.Course, error) {
	if id == "" {
		return persistence.Course{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, name, program, semester, created_at, updated_at FROM courses WHERE id = ?`, id)

	var course persistence.Course
	var createdStr, updatedStr string
	if err := row.Scan(&course.ID, &course.Name, &course.Program, &course.Semester, &createdStr, &updatedStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Course{}, persistence.ErrNotFound
		}
		return persistence.Course{}, mapError(err)
	}
	var err error
	if course.CreatedAt, course.UpdatedAt, err = parseTimestamps(createdStr, updatedStr); err != nil {
		return persistence.Course{}, err
	}
	return course, nil
}

// ListCourses returns every course ordered by name then ID.
func (r *CatalogRepository) ListCourses(ctx context.Context) ([]persistence.Course, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, name, program, semester, created_at, updated_at FROM courses ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var courses []persistence.Course
	for rows.Next() {
		var course persistence.Course
		var createdStr, updatedStr string
		if err := rows.Scan(&course.ID, &course.Name, &course.Program, &course.Semester, &createdStr, &updatedStr); err != nil {
			return nil, mapError(err)
		}
		if course.CreatedAt, course.UpdatedAt, err = parseTimestamps(createdStr, updatedStr); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return courses, nil
}

// DeleteCourse removes one course.
func (r *CatalogRepository) DeleteCourse(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "courses", id)
}

func (r *CatalogRepository) deleteByID(ctx context.Context, table, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
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

func parseTimestamps(created, updated string) (time.Time, time.Time, error) {
	createdAt, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, updated)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return createdAt, updatedAt, nil
}
