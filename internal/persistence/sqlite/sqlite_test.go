package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/timetable"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "scheduler.db")
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() {
		_ = pool.Close()
	})

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return pool
}

func seedCatalog(t *testing.T, pool *ConnectionPool) {
	t.Helper()
	ctx := context.Background()
	catalog := NewCatalogRepository(pool)
	now := time.Now().UTC().Truncate(time.Second)

	for _, err := range []error{
		catalog.SaveRoom(ctx, persistence.Room{ID: "room-1", Name: "Lab A", Location: "Building 2", Capacity: 40, CreatedAt: now, UpdatedAt: now}),
		catalog.SaveInstructor(ctx, persistence.Instructor{ID: "instructor-1", Code: "NIP-001", Name: "Dewi Lestari", CreatedAt: now, UpdatedAt: now}),
		catalog.SaveClassSection(ctx, persistence.ClassSection{ID: "section-1", Name: "TI-3A", Program: "Informatics", Semester: 3, CreatedAt: now, UpdatedAt: now}),
		catalog.SaveCourse(ctx, persistence.Course{ID: "course-1", Name: "Databases", Program: "Informatics", Semester: 3, CreatedAt: now, UpdatedAt: now}),
	} {
		if err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
}

func testEntry(id string) persistence.ScheduleEntry {
	now := time.Now().UTC().Truncate(time.Second)
	return persistence.ScheduleEntry{
		ID:           id,
		SectionID:    "section-1",
		CourseID:     "course-1",
		InstructorID: "instructor-1",
		RoomID:       "room-1",
		Weekday:      time.Monday,
		Window: timetable.Interval{
			Start: timetable.MustTimeOfDay(8, 0),
			End:   timetable.MustTimeOfDay(10, 0),
		},
		Status:      timetable.StatusActive,
		ConfirmedBy: "admin-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestEntryRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	seedCatalog(t, pool)
	repo := NewEntryRepository(pool)

	entry := testEntry("entry-1")
	if err := repo.CreateEntry(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateEntry(ctx, entry); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("duplicate create: expected ErrDuplicate, got %v", err)
	}

	loaded, err := repo.GetEntry(ctx, "entry-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Window != entry.Window || loaded.Weekday != time.Monday || loaded.Status != timetable.StatusActive {
		t.Errorf("loaded entry mismatch: %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(entry.CreatedAt) {
		t.Errorf("created_at = %v, want %v", loaded.CreatedAt, entry.CreatedAt)
	}

	loaded.Window.End = timetable.MustTimeOfDay(11, 0)
	loaded.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateEntry(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := repo.GetEntry(ctx, "entry-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated.Window.End != timetable.MustTimeOfDay(11, 0) {
		t.Errorf("end = %s", updated.Window.End)
	}

	weekday := time.Monday
	entries, err := repo.ListEntries(ctx, persistence.EntryFilter{RoomID: "room-1", Weekday: &weekday})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	if err := repo.DeleteEntry(ctx, "entry-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetEntry(ctx, "entry-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("get after delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteEntry(ctx, "entry-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestEntryRepositoryEnforcesConstraints(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	seedCatalog(t, pool)
	repo := NewEntryRepository(pool)

	orphan := testEntry("entry-orphan")
	orphan.RoomID = "room-404"
	if err := repo.CreateEntry(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Errorf("orphan room: expected ErrForeignKeyViolation, got %v", err)
	}

	inverted := testEntry("entry-inverted")
	inverted.Window = timetable.Interval{
		Start: timetable.MustTimeOfDay(10, 0),
		End:   timetable.MustTimeOfDay(8, 0),
	}
	if err := repo.CreateEntry(ctx, inverted); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Errorf("inverted window: expected ErrConstraintViolation, got %v", err)
	}
}

func TestOverrideReplaceAndCascade(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	seedCatalog(t, pool)
	repo := NewEntryRepository(pool)

	if err := repo.CreateEntry(ctx, testEntry("entry-1")); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	date, _ := timetable.ParseDate("2025-03-10")
	now := time.Now().UTC().Truncate(time.Second)
	holiday := persistence.DateOverride{
		EntryID: "entry-1", Date: date, Status: timetable.StatusHoliday,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.PutOverride(ctx, holiday); err != nil {
		t.Fatalf("put holiday: %v", err)
	}

	// Writing again for the same (entry, date) replaces the record.
	window := timetable.Interval{Start: timetable.MustTimeOfDay(13, 0), End: timetable.MustTimeOfDay(15, 0)}
	postponed := holiday
	postponed.Status = timetable.StatusPostponed
	postponed.Window = &window
	if err := repo.PutOverride(ctx, postponed); err != nil {
		t.Fatalf("put postponed: %v", err)
	}

	loaded, err := repo.GetOverride(ctx, "entry-1", date)
	if err != nil {
		t.Fatalf("get override: %v", err)
	}
	if loaded.Status != timetable.StatusPostponed || loaded.Window == nil || *loaded.Window != window {
		t.Errorf("override not replaced: %+v", loaded)
	}

	listed, err := repo.ListOverridesForDate(ctx, date)
	if err != nil {
		t.Fatalf("list overrides: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("got %d overrides, want 1 (replace, not stack)", len(listed))
	}

	if err := repo.DeleteEntry(ctx, "entry-1"); err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	if _, err := repo.GetOverride(ctx, "entry-1", date); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("override survived entry delete: %v", err)
	}
}

func TestOverrideRejectsUnknownEntry(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	seedCatalog(t, pool)
	repo := NewEntryRepository(pool)

	date, _ := timetable.ParseDate("2025-03-10")
	now := time.Now().UTC()
	err := repo.PutOverride(ctx, persistence.DateOverride{
		EntryID: "entry-404", Date: date, Status: timetable.StatusHoliday,
		CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Errorf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestReservationRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	seedCatalog(t, pool)
	repo := NewReservationRepository(pool)

	date, _ := timetable.ParseDate("2025-03-10")
	now := time.Now().UTC().Truncate(time.Second)
	reservation := persistence.Reservation{
		ID:          "reservation-1",
		RoomID:      "room-1",
		RequesterID: "user-1",
		Date:        date,
		Window: timetable.Interval{
			Start: timetable.MustTimeOfDay(13, 0),
			End:   timetable.MustTimeOfDay(15, 0),
		},
		Status:    timetable.ReservationPending,
		Note:      "thesis defence",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateReservation(ctx, reservation); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.GetReservation(ctx, "reservation-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != timetable.ReservationPending || loaded.Date != date || loaded.Note != "thesis defence" {
		t.Errorf("loaded reservation mismatch: %+v", loaded)
	}

	loaded.Status = timetable.ReservationApproved
	if err := repo.UpdateReservation(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	approved := timetable.ReservationApproved
	listed, err := repo.ListReservations(ctx, persistence.ReservationFilter{
		RoomID: "room-1", Date: &date, Status: &approved,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "reservation-1" {
		t.Errorf("listed = %+v", listed)
	}

	pending := timetable.ReservationPending
	listed, err = repo.ListReservations(ctx, persistence.ReservationFilter{Status: &pending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("pending list = %+v, want empty", listed)
	}

	if err := repo.DeleteReservation(ctx, "reservation-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetReservation(ctx, "reservation-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("get after delete: expected ErrNotFound, got %v", err)
	}
}

func TestCatalogRepositoryUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	catalog := NewCatalogRepository(pool)
	now := time.Now().UTC().Truncate(time.Second)

	room := persistence.Room{ID: "room-1", Name: "Lab A", Capacity: 40, CreatedAt: now, UpdatedAt: now}
	if err := catalog.SaveRoom(ctx, room); err != nil {
		t.Fatalf("save: %v", err)
	}
	room.Name = "Lab A (renovated)"
	room.UpdatedAt = now.Add(time.Minute)
	if err := catalog.SaveRoom(ctx, room); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	loaded, err := catalog.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Name != "Lab A (renovated)" {
		t.Errorf("name = %q", loaded.Name)
	}

	rooms, err := catalog.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 1 {
		t.Errorf("got %d rooms, want 1 after upsert", len(rooms))
	}

	if err := catalog.DeleteRoom(ctx, "room-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := catalog.GetRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("get after delete: expected ErrNotFound, got %v", err)
	}
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	catalog := NewCatalogRepository(pool)

	errBoom := errors.New("boom")
	err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rooms (id, name, location, capacity, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			"room-tx", "Lab TX", "", 10, now, now,
		); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected the callback error back, got %v", err)
	}

	if _, err := catalog.GetRoom(ctx, "room-tx"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("insert survived rollback: %v", err)
	}
}

func TestDeleteEntryRemovesOverridesInSameTransaction(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	seedCatalog(t, pool)
	repo := NewEntryRepository(pool)

	if err := repo.CreateEntry(ctx, testEntry("entry-1")); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	date, _ := timetable.ParseDate("2025-03-10")
	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.PutOverride(ctx, persistence.DateOverride{
		EntryID: "entry-1", Date: date, Status: timetable.StatusHoliday,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put override: %v", err)
	}

	if err := repo.DeleteEntry(ctx, "entry-1"); err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	overrides, err := repo.ListOverridesForDate(ctx, date)
	if err != nil {
		t.Fatalf("list overrides: %v", err)
	}
	if len(overrides) != 0 {
		t.Errorf("overrides survived entry delete: %+v", overrides)
	}

	if err := repo.DeleteEntry(ctx, "entry-404"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("deleting unknown entry: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReferencedRoomFailsWithForeignKey(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	seedCatalog(t, pool)
	entries := NewEntryRepository(pool)
	catalog := NewCatalogRepository(pool)

	if err := entries.CreateEntry(ctx, testEntry("entry-1")); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if err := catalog.DeleteRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Errorf("expected ErrForeignKeyViolation, got %v", err)
	}
}
