package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timetable"
)

// TimetableService orchestrates validation, authorization and conflict
// detection for the recurring weekly timetable and its dated exceptions.
type TimetableService struct {
	entries     persistence.EntryRepository
	overrides   persistence.OverrideRepository
	catalog     persistence.CatalogRepository
	resolver    *scheduler.Resolver
	detector    *scheduler.Detector
	guard       *resourceGuard
	logger      *slog.Logger
	location    *time.Location
	idGenerator func() string
	now         func() time.Time
}

// NewTimetableService wires dependencies for timetable operations.
func NewTimetableService(
	entries persistence.EntryRepository,
	overrides persistence.OverrideRepository,
	catalog persistence.CatalogRepository,
	resolver *scheduler.Resolver,
	logger *slog.Logger,
	location *time.Location,
	idGenerator func() string,
	now func() time.Time,
) *TimetableService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &TimetableService{
		entries:     entries,
		overrides:   overrides,
		catalog:     catalog,
		resolver:    resolver,
		detector:    scheduler.NewDetector(resolver),
		guard:       bookingGuard,
		logger:      defaultLogger(logger),
		location:    location,
		idGenerator: idGenerator,
		now:         now,
	}
}

// CreateEntry validates, conflict-checks and persists a new recurring entry.
func (s *TimetableService) CreateEntry(ctx context.Context, params CreateEntryParams) (persistence.ScheduleEntry, error) {
	if s == nil || s.entries == nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("TimetableService is not configured")
	}

	input := params.Input
	if err := authorizeSection(params.Principal, input.SectionID); err != nil {
		return persistence.ScheduleEntry{}, err
	}

	weekday, window, status, vErr := parseEntryInput(input)
	refErrs, err := s.ensureEntryRefsExist(ctx, input)
	if err != nil {
		return persistence.ScheduleEntry{}, err
	}
	vErr.merge(refErrs)
	if vErr.HasErrors() {
		return persistence.ScheduleEntry{}, vErr
	}

	release := s.guard.acquire(entryGuardKeys(input.RoomID, input.InstructorID, input.SectionID)...)
	defer release()

	if status == timetable.StatusActive {
		if err := s.checkRecurringOverlap(ctx, input, weekday, window, ""); err != nil {
			return persistence.ScheduleEntry{}, err
		}
		date := s.nextOccurrence(weekday)
		if err := s.checkEntryConflicts(ctx, input, date, window, nil); err != nil {
			return persistence.ScheduleEntry{}, err
		}
	}

	createdAt := s.now()
	entry := persistence.ScheduleEntry{
		ID:           s.idGenerator(),
		SectionID:    input.SectionID,
		CourseID:     input.CourseID,
		InstructorID: input.InstructorID,
		RoomID:       input.RoomID,
		Weekday:      weekday,
		Window:       window,
		Status:       status,
		ConfirmedBy:  params.Principal.UserID,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if err := s.entries.CreateEntry(ctx, entry); err != nil {
		return persistence.ScheduleEntry{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "timetable", "create_entry", "entry_id", entry.ID).
		InfoContext(ctx, "schedule entry created", "section_id", entry.SectionID, "room_id", entry.RoomID)
	return entry, nil
}

// UpdateEntry applies validation, authorization and conflict checks before
// replacing an existing recurring entry.
func (s *TimetableService) UpdateEntry(ctx context.Context, params UpdateEntryParams) (persistence.ScheduleEntry, error) {
	if s == nil || s.entries == nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("TimetableService is not configured")
	}

	existing, err := s.entries.GetEntry(ctx, params.EntryID)
	if err != nil {
		return persistence.ScheduleEntry{}, mapRepoError(err)
	}

	input := params.Input
	if err := authorizeSection(params.Principal, existing.SectionID); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	if input.SectionID != existing.SectionID {
		if err := authorizeSection(params.Principal, input.SectionID); err != nil {
			return persistence.ScheduleEntry{}, err
		}
	}

	weekday, window, status, vErr := parseEntryInput(input)
	refErrs, err := s.ensureEntryRefsExist(ctx, input)
	if err != nil {
		return persistence.ScheduleEntry{}, err
	}
	vErr.merge(refErrs)
	if vErr.HasErrors() {
		return persistence.ScheduleEntry{}, vErr
	}

	keys := append(
		entryGuardKeys(input.RoomID, input.InstructorID, input.SectionID),
		entryGuardKeys(existing.RoomID, existing.InstructorID, existing.SectionID)...,
	)
	release := s.guard.acquire(keys...)
	defer release()

	exclude := &scheduler.OccupancyRef{Source: scheduler.SourceEntry, ID: existing.ID}
	if status == timetable.StatusActive {
		if err := s.checkRecurringOverlap(ctx, input, weekday, window, existing.ID); err != nil {
			return persistence.ScheduleEntry{}, err
		}
		date := s.nextOccurrence(weekday)
		if err := s.checkEntryConflicts(ctx, input, date, window, exclude); err != nil {
			return persistence.ScheduleEntry{}, err
		}
	}

	updated := existing
	updated.SectionID = input.SectionID
	updated.CourseID = input.CourseID
	updated.InstructorID = input.InstructorID
	updated.RoomID = input.RoomID
	updated.Weekday = weekday
	updated.Window = window
	updated.Status = status
	updated.ConfirmedBy = params.Principal.UserID
	updated.UpdatedAt = s.now()

	if err := s.entries.UpdateEntry(ctx, updated); err != nil {
		return persistence.ScheduleEntry{}, mapRepoError(err)
	}

	// The weekly slot moved, so per-date exceptions recorded against the old
	// slot no longer describe real occurrences.
	if s.overrides != nil && (existing.Weekday != updated.Weekday || existing.Window != updated.Window) {
		if err := s.overrides.DeleteOverridesForEntry(ctx, updated.ID); err != nil {
			return persistence.ScheduleEntry{}, mapRepoError(err)
		}
	}

	serviceLogger(ctx, s.logger, "timetable", "update_entry", "entry_id", updated.ID).
		InfoContext(ctx, "schedule entry updated")
	return updated, nil
}

// DeleteEntry removes a recurring entry together with its dated exceptions.
func (s *TimetableService) DeleteEntry(ctx context.Context, principal Principal, entryID string) error {
	if s == nil || s.entries == nil {
		return fmt.Errorf("TimetableService is not configured")
	}

	existing, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return mapRepoError(err)
	}
	if err := authorizeSection(principal, existing.SectionID); err != nil {
		return err
	}

	if s.overrides != nil {
		if err := s.overrides.DeleteOverridesForEntry(ctx, entryID); err != nil {
			return mapRepoError(err)
		}
	}
	if err := s.entries.DeleteEntry(ctx, entryID); err != nil {
		return mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "timetable", "delete_entry", "entry_id", entryID).
		InfoContext(ctx, "schedule entry deleted")
	return nil
}

// ListEntries enumerates recurring entries matching the filter, ordered by
// weekday then start time.
func (s *TimetableService) ListEntries(ctx context.Context, params ListEntriesParams) ([]persistence.ScheduleEntry, error) {
	if s == nil || s.entries == nil {
		return nil, fmt.Errorf("TimetableService is not configured")
	}

	filter := persistence.EntryFilter{
		SectionID:    params.SectionID,
		RoomID:       params.RoomID,
		InstructorID: params.InstructorID,
	}
	if strings.TrimSpace(params.Weekday) != "" {
		weekday, err := timetable.ParseWeekday(params.Weekday)
		if err != nil {
			vErr := &ValidationError{}
			vErr.add("weekday", "must be a weekday name such as monday")
			return nil, vErr
		}
		filter.Weekday = &weekday
	}

	entries, err := s.entries.ListEntries(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weekday != entries[j].Weekday {
			return entries[i].Weekday < entries[j].Weekday
		}
		if entries[i].Window.Start != entries[j].Window.Start {
			return entries[i].Window.Start < entries[j].Window.Start
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// SetOverride records the dated exception for one entry occurrence, replacing
// any exception already stored for that date.
func (s *TimetableService) SetOverride(ctx context.Context, params SetOverrideParams) (persistence.DateOverride, error) {
	if s == nil || s.entries == nil || s.overrides == nil {
		return persistence.DateOverride{}, fmt.Errorf("TimetableService is not configured")
	}

	entry, err := s.entries.GetEntry(ctx, params.EntryID)
	if err != nil {
		return persistence.DateOverride{}, mapRepoError(err)
	}
	if err := authorizeSection(params.Principal, entry.SectionID); err != nil {
		return persistence.DateOverride{}, err
	}

	input := params.Input
	vErr := &ValidationError{}

	date, err := timetable.ParseDate(input.Date)
	if err != nil {
		vErr.add("date", "must be a date in YYYY-MM-DD form")
	} else if date.Weekday() != entry.Weekday {
		vErr.add("date", "does not fall on the entry's weekday")
	}

	status, err := timetable.ParseEntryStatus(input.Status)
	if err != nil {
		vErr.add("status", "must be one of active, holiday, postponed")
	}

	var window *timetable.Interval
	if status == timetable.StatusPostponed {
		parsed, wErr := parseWindow(input.Start, input.End, vErr)
		if wErr == nil {
			window = &parsed
		}
	} else if strings.TrimSpace(input.Start) != "" || strings.TrimSpace(input.End) != "" {
		vErr.add("time", "replacement window is only meaningful for a postponed status")
	}

	if vErr.HasErrors() {
		return persistence.DateOverride{}, vErr
	}

	release := s.guard.acquire(entryGuardKeys(entry.RoomID, entry.InstructorID, entry.SectionID)...)
	defer release()

	// A holiday frees the slot and can never collide; active and postponed
	// both put a window back in force, so both are checked.
	if status != timetable.StatusHoliday {
		effective := entry.Window
		if window != nil {
			effective = *window
		}
		exclude := &scheduler.OccupancyRef{Source: scheduler.SourceEntry, ID: entry.ID}
		if err := s.checkEntryConflicts(ctx, EntryInput{
			RoomID:       entry.RoomID,
			InstructorID: entry.InstructorID,
			SectionID:    entry.SectionID,
		}, date, effective, exclude); err != nil {
			return persistence.DateOverride{}, err
		}
	}

	now := s.now()
	override := persistence.DateOverride{
		EntryID:   entry.ID,
		Date:      date,
		Status:    status,
		Window:    window,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.overrides.PutOverride(ctx, override); err != nil {
		return persistence.DateOverride{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "timetable", "set_override", "entry_id", entry.ID).
		InfoContext(ctx, "date override recorded", "date", date.String(), "status", string(status))
	return override, nil
}

// ClearOverride removes the dated exception, restoring the base schedule for
// that occurrence.
func (s *TimetableService) ClearOverride(ctx context.Context, params ClearOverrideParams) error {
	if s == nil || s.entries == nil || s.overrides == nil {
		return fmt.Errorf("TimetableService is not configured")
	}

	entry, err := s.entries.GetEntry(ctx, params.EntryID)
	if err != nil {
		return mapRepoError(err)
	}
	if err := authorizeSection(params.Principal, entry.SectionID); err != nil {
		return err
	}

	date, err := timetable.ParseDate(params.Date)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "must be a date in YYYY-MM-DD form")
		return vErr
	}

	if err := s.overrides.DeleteOverride(ctx, entry.ID, date); err != nil {
		return mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "timetable", "clear_override", "entry_id", entry.ID).
		InfoContext(ctx, "date override cleared", "date", date.String())
	return nil
}

// ResolveSchedule projects the effective occupancy of one resource on one
// date, ordered by start time.
func (s *TimetableService) ResolveSchedule(ctx context.Context, params ResolveScheduleParams) ([]scheduler.Occupancy, error) {
	if s == nil || s.resolver == nil {
		return nil, fmt.Errorf("TimetableService is not configured")
	}

	kind, resourceID, date, vErr := parseResourceDate(params.Kind, params.ResourceID, params.Date)
	if vErr.HasErrors() {
		return nil, vErr
	}

	occupancies, err := s.resolver.EffectiveOccupancy(ctx, kind, resourceID, date)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(occupancies, func(i, j int) bool {
		if occupancies[i].Interval.Start != occupancies[j].Interval.Start {
			return occupancies[i].Interval.Start < occupancies[j].Interval.Start
		}
		return occupancies[i].Ref.ID < occupancies[j].Ref.ID
	})
	return occupancies, nil
}

// CheckConflict probes whether a window would collide on one dimension
// without writing anything. A detected collision is returned as a value, not
// an error, because for this operation it is the answer.
func (s *TimetableService) CheckConflict(ctx context.Context, params CheckConflictParams) (*ConflictError, error) {
	if s == nil || s.detector == nil {
		return nil, fmt.Errorf("TimetableService is not configured")
	}

	kind, resourceID, date, vErr := parseResourceDate(params.Kind, params.ResourceID, params.Date)
	window, _ := parseWindow(params.Start, params.End, vErr)

	var exclude *scheduler.OccupancyRef
	if params.ExcludeID != "" {
		switch scheduler.OccupancySource(params.ExcludeSource) {
		case scheduler.SourceEntry, scheduler.SourceReservation:
			exclude = &scheduler.OccupancyRef{
				Source: scheduler.OccupancySource(params.ExcludeSource),
				ID:     params.ExcludeID,
			}
		default:
			vErr.add("exclude_source", "must be entry or reservation")
		}
	}

	if vErr.HasErrors() {
		return nil, vErr
	}

	conflict, err := s.detector.FindConflict(ctx, kind, resourceID, date, window, exclude)
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		return nil, nil
	}
	return conflictError(date, conflict), nil
}

// AvailableRooms returns the catalog rooms whose occupancy leaves the whole
// window free on the date.
func (s *TimetableService) AvailableRooms(ctx context.Context, params AvailableRoomsParams) ([]persistence.Room, error) {
	if s == nil || s.catalog == nil || s.detector == nil {
		return nil, fmt.Errorf("TimetableService is not configured")
	}

	vErr := &ValidationError{}
	date, err := timetable.ParseDate(params.Date)
	if err != nil {
		vErr.add("date", "must be a date in YYYY-MM-DD form")
	}
	window, _ := parseWindow(params.Start, params.End, vErr)
	if vErr.HasErrors() {
		return nil, vErr
	}

	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	available := make([]persistence.Room, 0, len(rooms))
	for _, room := range rooms {
		occupied, err := s.detector.HasConflict(ctx, scheduler.KindRoom, room.ID, date, window, nil)
		if err != nil {
			return nil, err
		}
		if !occupied {
			available = append(available, room)
		}
	}
	return available, nil
}

func (s *TimetableService) nextOccurrence(weekday time.Weekday) timetable.Date {
	today := timetable.DateOf(s.now(), s.location)
	delta := (int(weekday) - int(today.Weekday()) + 7) % 7
	return today.AddDays(delta)
}

// checkRecurringOverlap compares base windows of active entries meeting on
// the same weekday. A date override only excuses a single occurrence, so a
// weekly collision must be rejected even when the representative date the
// detector looks at happens to be a holiday.
func (s *TimetableService) checkRecurringOverlap(ctx context.Context, input EntryInput, weekday time.Weekday, window timetable.Interval, excludeID string) error {
	checks := []struct {
		kind       scheduler.ResourceKind
		resourceID string
		filter     persistence.EntryFilter
	}{
		{scheduler.KindRoom, input.RoomID, persistence.EntryFilter{RoomID: input.RoomID, Weekday: &weekday}},
		{scheduler.KindInstructor, input.InstructorID, persistence.EntryFilter{InstructorID: input.InstructorID, Weekday: &weekday}},
		{scheduler.KindSection, input.SectionID, persistence.EntryFilter{SectionID: input.SectionID, Weekday: &weekday}},
	}
	for _, check := range checks {
		entries, err := s.entries.ListEntries(ctx, check.filter)
		if err != nil {
			return mapRepoError(err)
		}
		for _, other := range entries {
			if other.ID == excludeID || other.Status != timetable.StatusActive {
				continue
			}
			if !other.Window.Overlaps(window) {
				continue
			}
			return &ConflictError{
				Dimension:  check.kind,
				ResourceID: check.resourceID,
				Date:       s.nextOccurrence(weekday),
				With:       scheduler.OccupancyRef{Source: scheduler.SourceEntry, ID: other.ID},
				Window:     other.Window,
			}
		}
	}
	return nil
}

// checkEntryConflicts probes all three dimensions and fails on the first
// collision; nothing is persisted when any dimension is occupied.
func (s *TimetableService) checkEntryConflicts(ctx context.Context, input EntryInput, date timetable.Date, window timetable.Interval, exclude *scheduler.OccupancyRef) error {
	checks := []struct {
		kind       scheduler.ResourceKind
		resourceID string
	}{
		{scheduler.KindRoom, input.RoomID},
		{scheduler.KindInstructor, input.InstructorID},
		{scheduler.KindSection, input.SectionID},
	}
	for _, check := range checks {
		conflict, err := s.detector.FindConflict(ctx, check.kind, check.resourceID, date, window, exclude)
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflictError(date, conflict)
		}
	}
	return nil
}

// ensureEntryRefsExist reports unknown catalog references as field errors so
// the caller can fold them into the validation result. Blank references are
// left to the required-field checks. Storage failures come back as the error.
func (s *TimetableService) ensureEntryRefsExist(ctx context.Context, input EntryInput) (*ValidationError, error) {
	if s.catalog == nil {
		return nil, nil
	}
	vErr := &ValidationError{}

	if input.RoomID != "" {
		if _, err := s.catalog.GetRoom(ctx, input.RoomID); err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return nil, mapRepoError(err)
			}
			vErr.add("room_id", "room does not exist")
		}
	}
	if input.InstructorID != "" {
		if _, err := s.catalog.GetInstructor(ctx, input.InstructorID); err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return nil, mapRepoError(err)
			}
			vErr.add("instructor_id", "instructor does not exist")
		}
	}
	if input.SectionID != "" {
		if _, err := s.catalog.GetClassSection(ctx, input.SectionID); err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return nil, mapRepoError(err)
			}
			vErr.add("section_id", "class section does not exist")
		}
	}
	if input.CourseID != "" {
		if _, err := s.catalog.GetCourse(ctx, input.CourseID); err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return nil, mapRepoError(err)
			}
			vErr.add("course_id", "course does not exist")
		}
	}

	return vErr, nil
}

func parseEntryInput(input EntryInput) (time.Weekday, timetable.Interval, timetable.EntryStatus, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.SectionID) == "" {
		vErr.add("section_id", "section is required")
	}
	if strings.TrimSpace(input.CourseID) == "" {
		vErr.add("course_id", "course is required")
	}
	if strings.TrimSpace(input.InstructorID) == "" {
		vErr.add("instructor_id", "instructor is required")
	}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}

	weekday, err := timetable.ParseWeekday(input.Weekday)
	if err != nil {
		vErr.add("weekday", "must be a weekday name such as monday")
	}

	window, _ := parseWindow(input.Start, input.End, vErr)

	status := timetable.StatusActive
	if strings.TrimSpace(input.Status) != "" {
		status, err = timetable.ParseEntryStatus(input.Status)
		if err != nil {
			vErr.add("status", "must be one of active, holiday, postponed")
		}
	}

	return weekday, window, status, vErr
}

// parseWindow validates a start/end pair into a half-open interval, recording
// field errors on vErr. The returned error only signals that the interval is
// unusable.
func parseWindow(start, end string, vErr *ValidationError) (timetable.Interval, error) {
	startAt, startErr := timetable.ParseTimeOfDay(start)
	if startErr != nil {
		vErr.add("start", "must be a time in HH:MM form")
	}
	endAt, endErr := timetable.ParseTimeOfDay(end)
	if endErr != nil {
		vErr.add("end", "must be a time in HH:MM form")
	}
	if startErr != nil || endErr != nil {
		return timetable.Interval{}, timetable.ErrInvalidInterval
	}

	window, err := timetable.NewInterval(startAt, endAt)
	if err != nil {
		vErr.add("time", "start must be before end")
		return timetable.Interval{}, err
	}
	return window, nil
}

func parseResourceDate(kind, resourceID, rawDate string) (scheduler.ResourceKind, string, timetable.Date, *ValidationError) {
	vErr := &ValidationError{}

	parsedKind, err := scheduler.ParseResourceKind(kind)
	if err != nil {
		vErr.add("kind", "must be one of room, instructor, class_section")
	}
	if strings.TrimSpace(resourceID) == "" {
		vErr.add("resource_id", "resource is required")
	}
	date, err := timetable.ParseDate(rawDate)
	if err != nil {
		vErr.add("date", "must be a date in YYYY-MM-DD form")
	}

	return parsedKind, resourceID, date, vErr
}

func authorizeSection(principal Principal, sectionID string) error {
	if principal.IsAdmin {
		return nil
	}
	if principal.Representative && principal.SectionID != "" && principal.SectionID == sectionID {
		return nil
	}
	return ErrForbidden
}

func entryGuardKeys(roomID, instructorID, sectionID string) []string {
	return []string{
		guardKey(string(scheduler.KindRoom), roomID),
		guardKey(string(scheduler.KindInstructor), instructorID),
		guardKey(string(scheduler.KindSection), sectionID),
	}
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("references", "related records are missing")
		return vErr
	}
	return err
}
