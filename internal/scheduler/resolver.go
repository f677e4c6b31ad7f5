package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/timetable"
)

// ResourceKind names one of the three independent occupancy dimensions.
type ResourceKind string

const (
	// KindRoom is the physical room dimension.
	KindRoom ResourceKind = "room"
	// KindInstructor is the teaching staff dimension.
	KindInstructor ResourceKind = "instructor"
	// KindSection is the class-section (student cohort) dimension.
	KindSection ResourceKind = "class_section"
)

// ErrUnknownResourceKind indicates a kind outside room/instructor/class_section.
var ErrUnknownResourceKind = errors.New("scheduler: unknown resource kind")

// ParseResourceKind validates and normalizes a resource kind value.
func ParseResourceKind(value string) (ResourceKind, error) {
	switch ResourceKind(value) {
	case KindRoom, KindInstructor, KindSection:
		return ResourceKind(value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResourceKind, value)
}

// OccupancySource identifies which store an occupied interval came from.
type OccupancySource string

const (
	// SourceEntry marks occupancy produced by a recurring schedule entry.
	SourceEntry OccupancySource = "entry"
	// SourceReservation marks occupancy produced by an approved reservation.
	SourceReservation OccupancySource = "reservation"
)

// OccupancyRef identifies the record behind an occupied interval.
type OccupancyRef struct {
	Source OccupancySource
	ID     string
}

// Occupancy is one interval in force for a resource on a date.
type Occupancy struct {
	Ref      OccupancyRef
	Interval timetable.Interval
}

// EntrySource exposes the timetable store reads the resolver needs.
type EntrySource interface {
	ListEntries(ctx context.Context, filter persistence.EntryFilter) ([]persistence.ScheduleEntry, error)
	GetOverride(ctx context.Context, entryID string, date timetable.Date) (persistence.DateOverride, error)
}

// ReservationSource exposes the reservation store reads the resolver needs.
type ReservationSource interface {
	ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error)
}

// Resolver projects the effective occupancy of a resource on a date from the
// recurring timetable, its date overrides and approved reservations. It owns
// no state and never caches: staleness here would silently reintroduce
// double-bookings, and departmental data volumes make recomputation cheap.
type Resolver struct {
	entries      EntrySource
	reservations ReservationSource
}

// NewResolver wires the resolver's store dependencies.
func NewResolver(entries EntrySource, reservations ReservationSource) *Resolver {
	return &Resolver{entries: entries, reservations: reservations}
}

// EffectiveOccupancy returns every interval occupying the resource on the
// date. The result is unordered and may contain duplicates; deduplication is
// the conflict detector's concern.
func (r *Resolver) EffectiveOccupancy(ctx context.Context, kind ResourceKind, resourceID string, date timetable.Date) ([]Occupancy, error) {
	if r == nil || r.entries == nil || r.reservations == nil {
		return nil, fmt.Errorf("scheduler: resolver is not configured")
	}
	if _, err := ParseResourceKind(string(kind)); err != nil {
		return nil, err
	}
	if !date.Valid() {
		return nil, fmt.Errorf("%w: %v", timetable.ErrInvalidDate, date)
	}

	weekday := date.Weekday()
	entries, err := r.entries.ListEntries(ctx, entryFilterFor(kind, resourceID, weekday))
	if err != nil {
		return nil, fmt.Errorf("scheduler: list entries: %w", err)
	}

	occupancies := make([]Occupancy, 0, len(entries))
	for _, entry := range entries {
		state, err := r.effectiveState(ctx, entry, date)
		if err != nil {
			return nil, err
		}
		if !state.Occupied {
			continue
		}
		occupancies = append(occupancies, Occupancy{
			Ref:      OccupancyRef{Source: SourceEntry, ID: entry.ID},
			Interval: state.Window,
		})
	}

	approved := timetable.ReservationApproved
	reservations, err := r.reservations.ListReservations(ctx, reservationFilterFor(kind, resourceID, date, &approved))
	if err != nil {
		return nil, fmt.Errorf("scheduler: list reservations: %w", err)
	}
	for _, reservation := range reservations {
		occupancies = append(occupancies, Occupancy{
			Ref:      OccupancyRef{Source: SourceReservation, ID: reservation.ID},
			Interval: reservation.Window,
		})
	}

	return occupancies, nil
}

func (r *Resolver) effectiveState(ctx context.Context, entry persistence.ScheduleEntry, date timetable.Date) (timetable.EffectiveState, error) {
	var override *timetable.Override
	stored, err := r.entries.GetOverride(ctx, entry.ID, date)
	switch {
	case err == nil:
		override = &timetable.Override{Status: stored.Status}
		if stored.Window != nil {
			override.Window = *stored.Window
		}
	case errors.Is(err, persistence.ErrNotFound):
		// No exception recorded for this date.
	default:
		return timetable.EffectiveState{}, fmt.Errorf("scheduler: load override for entry %s: %w", entry.ID, err)
	}

	return timetable.Resolve(entry.Status, entry.Window, override), nil
}

func entryFilterFor(kind ResourceKind, resourceID string, weekday time.Weekday) persistence.EntryFilter {
	filter := persistence.EntryFilter{Weekday: &weekday}
	switch kind {
	case KindRoom:
		filter.RoomID = resourceID
	case KindInstructor:
		filter.InstructorID = resourceID
	case KindSection:
		filter.SectionID = resourceID
	}
	return filter
}

func reservationFilterFor(kind ResourceKind, resourceID string, date timetable.Date, status *timetable.ReservationStatus) persistence.ReservationFilter {
	filter := persistence.ReservationFilter{Date: &date, Status: status}
	switch kind {
	case KindRoom:
		filter.RoomID = resourceID
	case KindInstructor:
		filter.InstructorID = resourceID
	case KindSection:
		filter.SectionID = resourceID
	}
	return filter
}
