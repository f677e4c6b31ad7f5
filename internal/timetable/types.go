package timetable

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with minute granularity, stored as minutes
// since midnight. The scheduling domain never needs seconds.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ErrInvalidTimeOfDay indicates a time outside 00:00-23:59 or a malformed string.
var ErrInvalidTimeOfDay = errors.New("timetable: invalid time of day")

// ErrInvalidWeekday indicates a weekday outside Sunday..Saturday.
var ErrInvalidWeekday = errors.New("timetable: invalid weekday")

// ErrInvalidDate indicates a malformed or impossible calendar date.
var ErrInvalidDate = errors.New("timetable: invalid date")

// ErrInvalidStatus indicates a status value outside the supported enum.
var ErrInvalidStatus = errors.New("timetable: invalid status")

// NewTimeOfDay constructs a TimeOfDay from an hour and minute pair.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, ErrInvalidTimeOfDay
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay is NewTimeOfDay for statically known values; it panics on error.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses a "HH:MM" value. Both components must be exactly two
// digits; "12:3x" and "+1:30" are rejected rather than partially parsed.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
		}
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	return NewTimeOfDay(hour, minute)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Valid reports whether the value is within a single day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < minutesPerDay }

// String formats the value as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Interval is a half-open time range [Start, End) within one day. The half-open
// convention makes back-to-back bookings non-conflicting.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ErrInvalidInterval indicates an empty or inverted time window.
var ErrInvalidInterval = errors.New("timetable: interval start must precede end")

// NewInterval constructs an interval and validates its ordering.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if !iv.Valid() {
		return Interval{}, fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	return iv, nil
}

// Valid reports whether both endpoints are in range and Start < End.
func (iv Interval) Valid() bool {
	return iv.Start.Valid() && iv.End.Valid() && iv.Start < iv.End
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints (one ends exactly when the other starts) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// String formats the interval as "HH:MM-HH:MM".
func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}

// Date is a calendar date without time zone. The deployment is single-zone, so
// a plain (year, month, day) triple is unambiguous.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a "YYYY-MM-DD" value.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf truncates an instant to its calendar date in the given location.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Weekday returns the day of week the date falls on.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == Date{} }

// Valid reports whether the triple names a real calendar date.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return t.Year() == d.Year && t.Month() == d.Month && t.Day() == d.Day
}

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseWeekday parses a lowercase English weekday name.
func ParseWeekday(value string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, value)
}

// ValidWeekday reports whether the value is one of the seven weekdays.
func ValidWeekday(day time.Weekday) bool {
	return day >= time.Sunday && day <= time.Saturday
}

// EntryStatus describes whether a recurring meeting (or its dated override) is
// held, cancelled for a holiday, or postponed to a replacement window.
type EntryStatus string

const (
	// StatusActive marks a meeting that occupies its window as scheduled.
	StatusActive EntryStatus = "active"
	// StatusHoliday marks a meeting that does not take place at all.
	StatusHoliday EntryStatus = "holiday"
	// StatusPostponed marks a meeting moved to a replacement window.
	StatusPostponed EntryStatus = "postponed"
)

// ParseEntryStatus validates and normalizes a status value.
func ParseEntryStatus(value string) (EntryStatus, error) {
	switch EntryStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StatusActive:
		return StatusActive, nil
	case StatusHoliday:
		return StatusHoliday, nil
	case StatusPostponed:
		return StatusPostponed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}

// ReservationStatus tracks the approval lifecycle of an ad hoc reservation.
type ReservationStatus string

const (
	// ReservationPending awaits an administrator decision and does not occupy.
	ReservationPending ReservationStatus = "pending"
	// ReservationApproved occupies its room, instructor and section.
	ReservationApproved ReservationStatus = "approved"
	// ReservationRejected is terminal and never occupies.
	ReservationRejected ReservationStatus = "rejected"
)

// ParseReservationStatus validates and normalizes a reservation status value.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	switch ReservationStatus(strings.ToLower(strings.TrimSpace(value))) {
	case ReservationPending:
		return ReservationPending, nil
	case ReservationApproved:
		return ReservationApproved, nil
	case ReservationRejected:
		return ReservationRejected, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}
