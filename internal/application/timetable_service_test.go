package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/persistence/memory"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/testfixtures"
	"github.com/example/campus-scheduler/internal/timetable"
)

var (
	adminPrincipal = Principal{UserID: "admin-1", IsAdmin: true}
	repPrincipal   = Principal{UserID: "rep-1", SectionID: "section-1", Representative: true}
	plainPrincipal = Principal{UserID: "user-1"}
)

func newTimetableService(t *testing.T) (*TimetableService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	testfixtures.SeedCatalog(t, store)
	resolver := scheduler.NewResolver(store, store)
	service := NewTimetableService(
		store, store, store, resolver,
		nil, nil,
		testfixtures.NewIDGenerator("entry").NextFunc(),
		testfixtures.NewClock(testfixtures.ReferenceTime()).NowFunc(),
	)
	return service, store
}

func validEntryInput() EntryInput {
	return EntryInput{
		SectionID:    "section-1",
		CourseID:     "course-1",
		InstructorID: "instructor-1",
		RoomID:       "room-1",
		Weekday:      "monday",
		Start:        "08:00",
		End:          "10:00",
	}
}

func TestCreateEntryPersistsValidInput(t *testing.T) {
	t.Parallel()
	service, store := newTimetableService(t)

	entry, err := service.CreateEntry(context.Background(), CreateEntryParams{
		Principal: adminPrincipal,
		Input:     validEntryInput(),
	})
	if err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	if entry.ID == "" {
		t.Error("entry ID not generated")
	}
	if entry.Status != timetable.StatusActive {
		t.Errorf("status = %s, want active by default", entry.Status)
	}
	if entry.ConfirmedBy != "admin-1" {
		t.Errorf("confirmed_by = %q", entry.ConfirmedBy)
	}

	stored, err := store.GetEntry(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("entry not persisted: %v", err)
	}
	if stored.Window != testfixtures.Window(8, 10) {
		t.Errorf("stored window = %s", stored.Window)
	}
}

func TestCreateEntryCollectsFieldErrors(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	input := EntryInput{Weekday: "someday", Start: "8am", End: "10:00"}
	_, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: input})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"section_id", "room_id", "weekday", "start"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("missing field error for %s: %v", field, vErr.FieldErrors)
		}
	}
}

func TestCreateEntryRejectsUnknownReferences(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	input := validEntryInput()
	input.RoomID = "room-404"
	_, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: input})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["room_id"]; !ok {
		t.Errorf("missing room_id error: %v", vErr.FieldErrors)
	}
}

func TestCreateEntryRequiresAdminOrOwnRepresentative(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: plainPrincipal, Input: validEntryInput()}); !errors.Is(err, ErrForbidden) {
		t.Errorf("plain user: expected ErrForbidden, got %v", err)
	}

	otherRep := Principal{UserID: "rep-9", SectionID: "section-9", Representative: true}
	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: otherRep, Input: validEntryInput()}); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign representative: expected ErrForbidden, got %v", err)
	}

	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: repPrincipal, Input: validEntryInput()}); err != nil {
		t.Errorf("own representative: unexpected error %v", err)
	}
}

func TestCreateEntryDetectsRoomConflict(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()}); err != nil {
		t.Fatalf("first entry: %v", err)
	}

	second := validEntryInput()
	second.Start, second.End = "09:00", "11:00"
	_, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: second})

	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if cErr.Dimension != scheduler.KindRoom {
		t.Errorf("dimension = %s, want room", cErr.Dimension)
	}
}

func TestCreateEntryDetectsInstructorConflictAcrossRooms(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()}); err != nil {
		t.Fatalf("first entry: %v", err)
	}

	second := validEntryInput()
	second.RoomID = "room-2"
	second.SectionID = "section-1"
	_, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: second})

	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if cErr.Dimension != scheduler.KindInstructor {
		t.Errorf("dimension = %s, want instructor", cErr.Dimension)
	}
}

func TestCreateEntryDetectsWeeklyConflictDespiteHolidayOverride(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	first, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("first entry: %v", err)
	}
	// A holiday frees only 2025-03-10; every later Monday still meets.
	if _, err := service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   first.ID,
		Input:     OverrideInput{Date: "2025-03-10", Status: "holiday"},
	}); err != nil {
		t.Fatalf("set override: %v", err)
	}

	second := validEntryInput()
	second.Start, second.End = "09:00", "11:00"
	_, err = service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: second})

	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("weekly overlap admitted because one occurrence is a holiday: %v", err)
	}
	if cErr.With.ID != first.ID {
		t.Errorf("conflict with %s, want %s", cErr.With.ID, first.ID)
	}
}

func TestCreateEntryReportsParseAndReferenceErrorsTogether(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	input := validEntryInput()
	input.Start = "8am"
	input.RoomID = "room-404"
	_, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: input})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"start", "room_id"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("missing field error for %s: %v", field, vErr.FieldErrors)
		}
	}
}

func TestCreateEntryAllowsTouchingWindows(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()}); err != nil {
		t.Fatalf("first entry: %v", err)
	}

	second := validEntryInput()
	second.Start, second.End = "10:00", "12:00"
	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: second}); err != nil {
		t.Errorf("back-to-back entry rejected: %v", err)
	}
}

func TestUpdateEntryDoesNotConflictWithItself(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	entry, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	input := validEntryInput()
	input.Start, input.End = "08:00", "11:00"
	updated, err := service.UpdateEntry(context.Background(), UpdateEntryParams{
		Principal: adminPrincipal,
		EntryID:   entry.ID,
		Input:     input,
	})
	if err != nil {
		t.Fatalf("self-overlapping update rejected: %v", err)
	}
	if updated.Window != testfixtures.Window(8, 11) {
		t.Errorf("window = %s", updated.Window)
	}
}

func TestUpdateEntryDropsOverridesWhenSlotMoves(t *testing.T) {
	t.Parallel()
	service, store := newTimetableService(t)

	entry, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   entry.ID,
		Input:     OverrideInput{Date: "2025-03-17", Status: "holiday"},
	}); err != nil {
		t.Fatalf("set override: %v", err)
	}

	input := validEntryInput()
	input.Weekday = "tuesday"
	if _, err := service.UpdateEntry(context.Background(), UpdateEntryParams{Principal: adminPrincipal, EntryID: entry.ID, Input: input}); err != nil {
		t.Fatalf("update: %v", err)
	}

	overrides, err := store.ListOverridesForDate(context.Background(), testfixtures.Date(t, "2025-03-17"))
	if err != nil {
		t.Fatalf("list overrides: %v", err)
	}
	if len(overrides) != 0 {
		t.Errorf("stale overrides survived slot move: %+v", overrides)
	}
}

func TestDeleteEntryRemovesEntryAndOverrides(t *testing.T) {
	t.Parallel()
	service, store := newTimetableService(t)

	entry, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   entry.ID,
		Input:     OverrideInput{Date: "2025-03-17", Status: "holiday"},
	}); err != nil {
		t.Fatalf("set override: %v", err)
	}

	if err := service.DeleteEntry(context.Background(), adminPrincipal, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetEntry(context.Background(), entry.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("entry still present after delete: %v", err)
	}
	overrides, _ := store.ListOverridesForDate(context.Background(), testfixtures.Date(t, "2025-03-17"))
	if len(overrides) != 0 {
		t.Errorf("overrides survived entry delete: %+v", overrides)
	}

	if err := service.DeleteEntry(context.Background(), adminPrincipal, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestSetOverrideHolidayFreesTheSlot(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	entry, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   entry.ID,
		Input:     OverrideInput{Date: "2025-03-10", Status: "holiday"},
	}); err != nil {
		t.Fatalf("set override: %v", err)
	}

	occupancies, err := service.ResolveSchedule(context.Background(), ResolveScheduleParams{
		Kind: "room", ResourceID: "room-1", Date: "2025-03-10",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(occupancies) != 0 {
		t.Errorf("holiday date still occupied: %+v", occupancies)
	}

	conflict, err := service.CheckConflict(context.Background(), CheckConflictParams{
		Kind: "room", ResourceID: "room-1", Date: "2025-03-10", Start: "08:00", End: "10:00",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if conflict != nil {
		t.Errorf("freed slot reported conflict: %v", conflict)
	}
}

func TestSetOverridePostponedChecksReplacementWindow(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	first, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("first entry: %v", err)
	}
	second := validEntryInput()
	second.Start, second.End = "10:00", "12:00"
	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: second}); err != nil {
		t.Fatalf("second entry: %v", err)
	}

	// Moving the first meeting onto the second one's window must fail.
	_, err = service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   first.ID,
		Input:     OverrideInput{Date: "2025-03-10", Status: "postponed", Start: "11:00", End: "13:00"},
	})
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// A free afternoon window is fine, and it replaces rather than stacks.
	override, err := service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   first.ID,
		Input:     OverrideInput{Date: "2025-03-10", Status: "postponed", Start: "13:00", End: "15:00"},
	})
	if err != nil {
		t.Fatalf("postpone to free window: %v", err)
	}
	if override.Window == nil || *override.Window != testfixtures.Window(13, 15) {
		t.Errorf("override window = %v", override.Window)
	}

	occupancies, err := service.ResolveSchedule(context.Background(), ResolveScheduleParams{
		Kind: "room", ResourceID: "room-1", Date: "2025-03-10",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, occupancy := range occupancies {
		if occupancy.Ref.ID == first.ID && occupancy.Interval != testfixtures.Window(13, 15) {
			t.Errorf("postponed entry occupies %s, want 13:00-15:00", occupancy.Interval)
		}
	}
}

func TestSetOverrideRejectsMismatchedWeekdayAndStrayWindow(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	entry, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 2025-03-11 is a Tuesday; the entry meets on Mondays.
	_, err = service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   entry.ID,
		Input:     OverrideInput{Date: "2025-03-11", Status: "holiday"},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["date"]; !ok {
		t.Errorf("missing date error: %v", vErr.FieldErrors)
	}

	_, err = service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   entry.ID,
		Input:     OverrideInput{Date: "2025-03-10", Status: "holiday", Start: "13:00", End: "15:00"},
	})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["time"]; !ok {
		t.Errorf("missing time error: %v", vErr.FieldErrors)
	}
}

func TestClearOverrideRestoresBaseSchedule(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	entry, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.SetOverride(context.Background(), SetOverrideParams{
		Principal: adminPrincipal,
		EntryID:   entry.ID,
		Input:     OverrideInput{Date: "2025-03-10", Status: "holiday"},
	}); err != nil {
		t.Fatalf("set override: %v", err)
	}
	if err := service.ClearOverride(context.Background(), ClearOverrideParams{
		Principal: adminPrincipal, EntryID: entry.ID, Date: "2025-03-10",
	}); err != nil {
		t.Fatalf("clear override: %v", err)
	}

	occupancies, err := service.ResolveSchedule(context.Background(), ResolveScheduleParams{
		Kind: "room", ResourceID: "room-1", Date: "2025-03-10",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(occupancies) != 1 || occupancies[0].Interval != testfixtures.Window(8, 10) {
		t.Errorf("base schedule not restored: %+v", occupancies)
	}

	if err := service.ClearOverride(context.Background(), ClearOverrideParams{
		Principal: adminPrincipal, EntryID: entry.ID, Date: "2025-03-10",
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("clearing absent override: expected ErrNotFound, got %v", err)
	}
}

func TestCheckConflictReportsCollisionAsValue(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	entry, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	conflict, err := service.CheckConflict(context.Background(), CheckConflictParams{
		Kind: "room", ResourceID: "room-1", Date: "2025-03-10", Start: "09:00", End: "11:00",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if conflict == nil {
		t.Fatal("expected conflict")
	}
	if conflict.With.ID != entry.ID {
		t.Errorf("conflict with %s, want %s", conflict.With.ID, entry.ID)
	}

	conflict, err = service.CheckConflict(context.Background(), CheckConflictParams{
		Kind: "room", ResourceID: "room-1", Date: "2025-03-10", Start: "09:00", End: "11:00",
		ExcludeSource: "entry", ExcludeID: entry.ID,
	})
	if err != nil {
		t.Fatalf("check with exclusion: %v", err)
	}
	if conflict != nil {
		t.Errorf("excluded record still conflicts: %v", conflict)
	}
}

func TestAvailableRoomsSkipsOccupiedRooms(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rooms, err := service.AvailableRooms(context.Background(), AvailableRoomsParams{
		Date: "2025-03-10", Start: "09:00", End: "11:00",
	})
	if err != nil {
		t.Fatalf("available rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "room-2" {
		t.Errorf("rooms = %+v, want only room-2", rooms)
	}

	rooms, err = service.AvailableRooms(context.Background(), AvailableRoomsParams{
		Date: "2025-03-10", Start: "10:00", End: "12:00",
	})
	if err != nil {
		t.Fatalf("available rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("after the meeting ends both rooms should be free, got %+v", rooms)
	}
}

func TestListEntriesFiltersAndOrders(t *testing.T) {
	t.Parallel()
	service, _ := newTimetableService(t)

	afternoon := validEntryInput()
	afternoon.Start, afternoon.End = "13:00", "15:00"
	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: afternoon}); err != nil {
		t.Fatalf("afternoon entry: %v", err)
	}
	morning := validEntryInput()
	if _, err := service.CreateEntry(context.Background(), CreateEntryParams{Principal: adminPrincipal, Input: morning}); err != nil {
		t.Fatalf("morning entry: %v", err)
	}

	entries, err := service.ListEntries(context.Background(), ListEntriesParams{Weekday: "monday"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Window.Start > entries[1].Window.Start {
		t.Error("entries not ordered by start time")
	}

	entries, err = service.ListEntries(context.Background(), ListEntriesParams{Weekday: "friday"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("friday: got %d entries, want 0", len(entries))
	}

	if _, err := service.ListEntries(context.Background(), ListEntriesParams{Weekday: "someday"}); err == nil {
		t.Error("malformed weekday accepted")
	}
}
