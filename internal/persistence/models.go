package persistence

import (
	"time"

	"github.com/example/campus-scheduler/internal/timetable"
)

// Room is a bookable physical room in the department's building.
type Room struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Instructor is a teaching staff catalog entry.
type Instructor struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClassSection is a cohort of students that attends meetings together.
type ClassSection struct {
	ID        string
	Name      string
	Program   string
	Semester  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Course is a subject taught to class-sections.
type Course struct {
	ID        string
	Name      string
	Program   string
	Semester  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleEntry is a weekly-repeating class meeting in the base timetable.
type ScheduleEntry struct {
	ID           string
	SectionID    string
	CourseID     string
	InstructorID string
	RoomID       string
	Weekday      time.Weekday
	Window       timetable.Interval
	Status       timetable.EntryStatus
	ConfirmedBy  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DateOverride is a per-date exception to one schedule entry. Window is set
// only when Status is postponed.
type DateOverride struct {
	EntryID   string
	Date      timetable.Date
	Status    timetable.EntryStatus
	Window    *timetable.Interval
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is a one-off, approval-gated request to occupy a room.
type Reservation struct {
	ID           string
	RoomID       string
	InstructorID string
	SectionID    string
	CourseID     string
	RequesterID  string
	Date         timetable.Date
	Window       timetable.Interval
	Status       timetable.ReservationStatus
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
