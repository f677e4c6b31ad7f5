// Package testfixtures supplies deterministic clocks, identifier sequences
// and pre-populated records shared by the package test suites.
package testfixtures

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/persistence/memory"
	"github.com/example/campus-scheduler/internal/timetable"
)

// referenceTime falls on a Monday so weekday arithmetic in tests stays easy
// to follow.
var referenceTime = time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime, a Monday.
func ReferenceDate() timetable.Date {
	return timetable.DateOf(referenceTime, time.UTC)
}

// Catalog bundles the reference records most suites need.
type Catalog struct {
	Room       persistence.Room
	SecondRoom persistence.Room
	Instructor persistence.Instructor
	Section    persistence.ClassSection
	Course     persistence.Course
}

// SeedCatalog inserts a small consistent catalog into the store.
func SeedCatalog(t *testing.T, store *memory.Store) Catalog {
	t.Helper()
	ctx := context.Background()

	catalog := Catalog{
		Room:       persistence.Room{ID: "room-1", Name: "Lab A", Location: "Building 2", Capacity: 40, CreatedAt: referenceTime, UpdatedAt: referenceTime},
		SecondRoom: persistence.Room{ID: "room-2", Name: "Lab B", Location: "Building 2", Capacity: 30, CreatedAt: referenceTime, UpdatedAt: referenceTime},
		Instructor: persistence.Instructor{ID: "instructor-1", Code: "NIP-001", Name: "Dewi Lestari", CreatedAt: referenceTime, UpdatedAt: referenceTime},
		Section:    persistence.ClassSection{ID: "section-1", Name: "TI-3A", Program: "Informatics", Semester: 3, CreatedAt: referenceTime, UpdatedAt: referenceTime},
		Course:     persistence.Course{ID: "course-1", Name: "Databases", Program: "Informatics", Semester: 3, CreatedAt: referenceTime, UpdatedAt: referenceTime},
	}

	for _, err := range []error{
		store.SaveRoom(ctx, catalog.Room),
		store.SaveRoom(ctx, catalog.SecondRoom),
		store.SaveInstructor(ctx, catalog.Instructor),
		store.SaveClassSection(ctx, catalog.Section),
		store.SaveCourse(ctx, catalog.Course),
	} {
		if err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
	return catalog
}

// NewEntry returns a Monday 08:00-10:00 entry over the seeded catalog.
func NewEntry(id string) persistence.ScheduleEntry {
	return persistence.ScheduleEntry{
		ID:           id,
		SectionID:    "section-1",
		CourseID:     "course-1",
		InstructorID: "instructor-1",
		RoomID:       "room-1",
		Weekday:      time.Monday,
		Window:       Window(8, 10),
		Status:       timetable.StatusActive,
		ConfirmedBy:  "admin-1",
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
}

// Window builds an on-the-hour interval.
func Window(startHour, endHour int) timetable.Interval {
	return timetable.Interval{
		Start: timetable.MustTimeOfDay(startHour, 0),
		End:   timetable.MustTimeOfDay(endHour, 0),
	}
}

// Date builds a date, failing the test on malformed input.
func Date(t *testing.T, value string) timetable.Date {
	t.Helper()
	date, err := timetable.ParseDate(value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return date
}

// NewReservation returns a pending reservation for room-2 on the reference date.
func NewReservation(id string) persistence.Reservation {
	return persistence.Reservation{
		ID:          id,
		RoomID:      "room-2",
		RequesterID: "user-1",
		Date:        ReferenceDate(),
		Window:      Window(13, 15),
		Status:      timetable.ReservationPending,
		Note:        fmt.Sprintf("fixture %s", id),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
}
