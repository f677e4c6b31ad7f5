package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/persistence/memory"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/testfixtures"
	"github.com/example/campus-scheduler/internal/timetable"
)

func TestResourceGuardSerializesSameKey(t *testing.T) {
	t.Parallel()

	guard := newResourceGuard()
	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := guard.acquire(guardKey("room", "room-1"), guardKey("instructor", "instructor-1"))
			counter++
			release()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if len(guard.slots) != 0 {
		t.Errorf("slots leaked after release: %d", len(guard.slots))
	}
}

func TestResourceGuardHandlesDuplicateAndEmptyKeys(t *testing.T) {
	t.Parallel()

	guard := newResourceGuard()
	release := guard.acquire("", guardKey("room", "room-1"), guardKey("room", "room-1"))
	release()

	if len(guard.slots) != 0 {
		t.Errorf("slots leaked: %d", len(guard.slots))
	}
}

func TestResourceGuardIndependentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	guard := newResourceGuard()
	releaseA := guard.acquire(guardKey("room", "room-1"))

	done := make(chan struct{})
	go func() {
		releaseB := guard.acquire(guardKey("room", "room-2"))
		releaseB()
		close(done)
	}()

	<-done
	releaseA()
}

// stallingEntryRepo parks CreateEntry between the conflict check and the
// write so a concurrent approval can be observed against the held locks.
type stallingEntryRepo struct {
	*memory.Store
	entered chan struct{}
	proceed chan struct{}
}

func (r *stallingEntryRepo) CreateEntry(ctx context.Context, entry persistence.ScheduleEntry) error {
	close(r.entered)
	<-r.proceed
	return r.Store.CreateEntry(ctx, entry)
}

func TestEntryWriteAndApprovalContendOnSameRoom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	testfixtures.SeedCatalog(t, store)
	entries := &stallingEntryRepo{
		Store:   store,
		entered: make(chan struct{}),
		proceed: make(chan struct{}),
	}
	resolver := scheduler.NewResolver(store, store)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())

	timetableSvc := NewTimetableService(
		entries, store, store, resolver,
		nil, nil,
		testfixtures.NewIDGenerator("entry").NextFunc(),
		clock.NowFunc(),
	)
	reservationSvc := NewReservationService(
		store, store, resolver,
		nil,
		testfixtures.NewIDGenerator("reservation").NextFunc(),
		clock.NowFunc(),
	)

	// Pending reservations are invisible to the conflict check, so the entry
	// write below sails past it before stalling in front of the store.
	pending, err := reservationSvc.CreateReservation(ctx, CreateReservationParams{
		Principal: plainPrincipal,
		Input:     ReservationInput{RoomID: "room-1", Date: "2025-03-10", Start: "09:00", End: "11:00"},
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	createDone := make(chan error, 1)
	go func() {
		_, err := timetableSvc.CreateEntry(ctx, CreateEntryParams{Principal: adminPrincipal, Input: validEntryInput()})
		createDone <- err
	}()
	<-entries.entered

	approveDone := make(chan error, 1)
	go func() {
		_, err := reservationSvc.ApproveReservation(ctx, ReservationDecisionParams{
			Principal: adminPrincipal, ReservationID: pending.ID,
		})
		approveDone <- err
	}()

	// The approval must wait for the stalled entry write: both touch room-1.
	select {
	case err := <-approveDone:
		t.Fatalf("approval completed while an entry write held the room: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(entries.proceed)
	if err := <-createDone; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	err = <-approveDone
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("approval after the entry committed: expected ConflictError, got %v", err)
	}

	stored, err := store.GetReservation(ctx, pending.ID)
	if err != nil {
		t.Fatalf("get reservation: %v", err)
	}
	if stored.Status != timetable.ReservationPending {
		t.Errorf("reservation status = %s, want pending after refused approval", stored.Status)
	}
}
