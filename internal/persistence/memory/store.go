// Package memory provides an in-memory implementation of the persistence
// repositories. It backs service tests and ephemeral development runs; the
// sqlite package is the production store.
package memory

import (
	"context"
	"sync"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/timetable"
)

// Store holds all records behind one mutex. Department-scale data never makes
// the single lock a bottleneck.
type Store struct {
	mu           sync.RWMutex
	rooms        map[string]persistence.Room
	instructors  map[string]persistence.Instructor
	sections     map[string]persistence.ClassSection
	courses      map[string]persistence.Course
	entries      map[string]persistence.ScheduleEntry
	overrides    map[string]persistence.DateOverride
	reservations map[string]persistence.Reservation
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		rooms:        make(map[string]persistence.Room),
		instructors:  make(map[string]persistence.Instructor),
		sections:     make(map[string]persistence.ClassSection),
		courses:      make(map[string]persistence.Course),
		entries:      make(map[string]persistence.ScheduleEntry),
		overrides:    make(map[string]persistence.DateOverride),
		reservations: make(map[string]persistence.Reservation),
	}
}

func overrideKey(entryID string, date timetable.Date) string {
	return entryID + "|" + date.String()
}

// CreateEntry stores a new schedule entry.
func (s *Store) CreateEntry(ctx context.Context, entry persistence.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.entries[entry.ID] = entry
	return nil
}

// UpdateEntry replaces an existing schedule entry.
func (s *Store) UpdateEntry(ctx context.Context, entry persistence.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.entries[entry.ID] = entry
	return nil
}

// GetEntry looks up one schedule entry.
func (s *Store) GetEntry(ctx context.Context, id string) (persistence.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return persistence.ScheduleEntry{}, persistence.ErrNotFound
	}
	return entry, nil
}

// ListEntries returns entries matching the filter in unspecified order.
func (s *Store) ListEntries(ctx context.Context, filter persistence.EntryFilter) ([]persistence.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []persistence.ScheduleEntry
	for _, entry := range s.entries {
		if filter.SectionID != "" && entry.SectionID != filter.SectionID {
			continue
		}
		if filter.RoomID != "" && entry.RoomID != filter.RoomID {
			continue
		}
		if filter.InstructorID != "" && entry.InstructorID != filter.InstructorID {
			continue
		}
		if filter.Weekday != nil && entry.Weekday != *filter.Weekday {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// DeleteEntry removes one schedule entry.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// PutOverride stores the exception for (entry, date), replacing any prior one.
func (s *Store) PutOverride(ctx context.Context, override persistence.DateOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[override.EntryID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.overrides[overrideKey(override.EntryID, override.Date)] = override
	return nil
}

// GetOverride looks up the exception for (entry, date).
func (s *Store) GetOverride(ctx context.Context, entryID string, date timetable.Date) (persistence.DateOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	override, ok := s.overrides[overrideKey(entryID, date)]
	if !ok {
		return persistence.DateOverride{}, persistence.ErrNotFound
	}
	return override, nil
}

// ListOverridesForDate returns every exception recorded for the date.
func (s *Store) ListOverridesForDate(ctx context.Context, date timetable.Date) ([]persistence.DateOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []persistence.DateOverride
	for _, override := range s.overrides {
		if override.Date == date {
			out = append(out, override)
		}
	}
	return out, nil
}

// DeleteOverride removes the exception for (entry, date).
func (s *Store) DeleteOverride(ctx context.Context, entryID string, date timetable.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := overrideKey(entryID, date)
	if _, ok := s.overrides[key]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.overrides, key)
	return nil
}

// DeleteOverridesForEntry removes every exception recorded for the entry.
func (s *Store) DeleteOverridesForEntry(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, override := range s.overrides {
		if override.EntryID == entryID {
			delete(s.overrides, key)
		}
	}
	return nil
}

// CreateReservation stores a new reservation.
func (s *Store) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[reservation.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.reservations[reservation.ID] = reservation
	return nil
}

// UpdateReservation replaces an existing reservation.
func (s *Store) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[reservation.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.reservations[reservation.ID] = reservation
	return nil
}

// GetReservation looks up one reservation.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reservation, ok := s.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter in unspecified order.
func (s *Store) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []persistence.Reservation
	for _, reservation := range s.reservations {
		if filter.RoomID != "" && reservation.RoomID != filter.RoomID {
			continue
		}
		if filter.InstructorID != "" && reservation.InstructorID != filter.InstructorID {
			continue
		}
		if filter.SectionID != "" && reservation.SectionID != filter.SectionID {
			continue
		}
		if filter.RequesterID != "" && reservation.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Date != nil && reservation.Date != *filter.Date {
			continue
		}
		if filter.Status != nil && reservation.Status != *filter.Status {
			continue
		}
		out = append(out, reservation)
	}
	return out, nil
}

// DeleteReservation removes one reservation.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

// SaveRoom upserts a room.
func (s *Store) SaveRoom(ctx context.Context, room persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

// GetRoom looks up one room.
func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// ListRooms returns every room in unspecified order.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out, nil
}

// DeleteRoom removes one room unless the timetable still references it.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, entry := range s.entries {
		if entry.RoomID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	for _, reservation := range s.reservations {
		if reservation.RoomID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.rooms, id)
	return nil
}

// SaveInstructor upserts an instructor.
func (s *Store) SaveInstructor(ctx context.Context, instructor persistence.Instructor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instructors[instructor.ID] = instructor
	return nil
}

// GetInstructor looks up one instructor.
func (s *Store) GetInstructor(ctx context.Context, id string) (persistence.Instructor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instructor, ok := s.instructors[id]
	if !ok {
		return persistence.Instructor{}, persistence.ErrNotFound
	}
	return instructor, nil
}

// ListInstructors returns every instructor in unspecified order.
func (s *Store) ListInstructors(ctx context.Context) ([]persistence.Instructor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]persistence.Instructor, 0, len(s.instructors))
	for _, instructor := range s.instructors {
		out = append(out, instructor)
	}
	return out, nil
}

// DeleteInstructor removes one instructor unless the timetable still references it.
func (s *Store) DeleteInstructor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instructors[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, entry := range s.entries {
		if entry.InstructorID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.instructors, id)
	return nil
}

// SaveClassSection upserts a class section.
func (s *Store) SaveClassSection(ctx context.Context, section persistence.ClassSection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[section.ID] = section
	return nil
}

// GetClassSection looks up one class section.
func (s *Store) GetClassSection(ctx context.Context, id string) (persistence.ClassSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	section, ok := s.sections[id]
	if !ok {
		return persistence.ClassSection{}, persistence.ErrNotFound
	}
	return section, nil
}

// ListClassSections returns every class section in unspecified order.
func (s *Store) ListClassSections(ctx context.Context) ([]persistence.ClassSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]persistence.ClassSection, 0, len(s.sections))
	for _, section := range s.sections {
		out = append(out, section)
	}
	return out, nil
}

// DeleteClassSection removes one class section unless the timetable still references it.
func (s *Store) DeleteClassSection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sections[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, entry := range s.entries {
		if entry.SectionID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.sections, id)
	return nil
}

// SaveCourse upserts a course.
func (s *Store) SaveCourse(ctx context.Context, course persistence.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
	return nil
}

// GetCourse looks up one course.
func (s *Store) GetCourse(ctx context.Context, id string) (persistence.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[id]
	if !ok {
		return persistence.Course{}, persistence.ErrNotFound
	}
	return course, nil
}

// ListCourses returns every course in unspecified order.
func (s *Store) ListCourses(ctx context.Context) ([]persistence.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]persistence.Course, 0, len(s.courses))
	for _, course := range s.courses {
		out = append(out, course)
	}
	return out, nil
}

// DeleteCourse removes one course unless the timetable still references it.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, entry := range s.entries {
		if entry.CourseID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.courses, id)
	return nil
}
