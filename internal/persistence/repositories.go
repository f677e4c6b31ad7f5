package persistence

import (
	"context"
	"time"

	"github.com/example/campus-scheduler/internal/timetable"
)

// EntryFilter narrows schedule entry queries.
type EntryFilter struct {
	SectionID    string
	RoomID       string
	InstructorID string
	Weekday      *time.Weekday
}

// EntryRepository stores the recurring weekly timetable.
type EntryRepository interface {
	CreateEntry(ctx context.Context, entry ScheduleEntry) error
	UpdateEntry(ctx context.Context, entry ScheduleEntry) error
	GetEntry(ctx context.Context, id string) (ScheduleEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]ScheduleEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// OverrideRepository stores per-date exceptions keyed by (entry, date). At most
// one override exists per pair; PutOverride replaces any prior one.
type OverrideRepository interface {
	PutOverride(ctx context.Context, override DateOverride) error
	GetOverride(ctx context.Context, entryID string, date timetable.Date) (DateOverride, error)
	ListOverridesForDate(ctx context.Context, date timetable.Date) ([]DateOverride, error)
	DeleteOverride(ctx context.Context, entryID string, date timetable.Date) error
	DeleteOverridesForEntry(ctx context.Context, entryID string) error
}

// ReservationFilter narrows reservation queries.
type ReservationFilter struct {
	RoomID       string
	InstructorID string
	SectionID    string
	RequesterID  string
	Date         *timetable.Date
	Status       *timetable.ReservationStatus
}

// ReservationRepository stores ad hoc room reservations.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// CatalogRepository stores the static reference data the scheduler validates
// foreign references against. Save operations upsert.
type CatalogRepository interface {
	SaveRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error

	SaveInstructor(ctx context.Context, instructor Instructor) error
	GetInstructor(ctx context.Context, id string) (Instructor, error)
	ListInstructors(ctx context.Context) ([]Instructor, error)
	DeleteInstructor(ctx context.Context, id string) error

	SaveClassSection(ctx context.Context, section ClassSection) error
	GetClassSection(ctx context.Context, id string) (ClassSection, error)
	ListClassSections(ctx context.Context) ([]ClassSection, error)
	DeleteClassSection(ctx context.Context, id string) error

	SaveCourse(ctx context.Context, course Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)
	DeleteCourse(ctx context.Context, id string) error
}
