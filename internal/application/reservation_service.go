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

// ReservationService orchestrates the request/approve lifecycle for ad hoc
// room reservations. Only approved reservations occupy anything; pending ones
// are invisible to the resolver.
type ReservationService struct {
	reservations persistence.ReservationRepository
	catalog      persistence.CatalogRepository
	detector     *scheduler.Detector
	guard        *resourceGuard
	logger       *slog.Logger
	idGenerator  func() string
	now          func() time.Time
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(
	reservations persistence.ReservationRepository,
	catalog persistence.CatalogRepository,
	resolver *scheduler.Resolver,
	logger *slog.Logger,
	idGenerator func() string,
	now func() time.Time,
) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		catalog:      catalog,
		detector:     scheduler.NewDetector(resolver),
		guard:        bookingGuard,
		logger:       defaultLogger(logger),
		idGenerator:  idGenerator,
		now:          now,
	}
}

// CreateReservation validates and persists a new pending reservation. The
// requested window is conflict-checked up front so obviously doomed requests
// never reach an administrator, but the real gate is re-run at approval time.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (persistence.Reservation, error) {
	if s == nil || s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("ReservationService is not configured")
	}
	if params.Principal.UserID == "" {
		return persistence.Reservation{}, ErrForbidden
	}

	input := params.Input
	date, window, vErr := parseReservationInput(input)
	refErrs, err := s.ensureReservationRefsExist(ctx, input)
	if err != nil {
		return persistence.Reservation{}, err
	}
	vErr.merge(refErrs)
	if vErr.HasErrors() {
		return persistence.Reservation{}, vErr
	}

	if err := s.checkReservationConflicts(ctx, input, date, window, nil); err != nil {
		return persistence.Reservation{}, err
	}

	createdAt := s.now()
	reservation := persistence.Reservation{
		ID:           s.idGenerator(),
		RoomID:       input.RoomID,
		InstructorID: input.InstructorID,
		SectionID:    input.SectionID,
		CourseID:     input.CourseID,
		RequesterID:  params.Principal.UserID,
		Date:         date,
		Window:       window,
		Status:       timetable.ReservationPending,
		Note:         strings.TrimSpace(input.Note),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if err := s.reservations.CreateReservation(ctx, reservation); err != nil {
		return persistence.Reservation{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "reservation", "create", "reservation_id", reservation.ID).
		InfoContext(ctx, "reservation requested", "room_id", reservation.RoomID, "date", date.String())
	return reservation, nil
}

// ApproveReservation moves a pending reservation to approved. The conflict
// check and the status write happen under the resource guard, so two
// overlapping requests can never both be approved.
func (s *ReservationService) ApproveReservation(ctx context.Context, params ReservationDecisionParams) (persistence.Reservation, error) {
	if s == nil || s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("ReservationService is not configured")
	}
	if !params.Principal.IsAdmin {
		return persistence.Reservation{}, ErrForbidden
	}

	reservation, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return persistence.Reservation{}, mapRepoError(err)
	}
	if reservation.Status != timetable.ReservationPending {
		return persistence.Reservation{}, fmt.Errorf("%w: reservation is %s", ErrInvalidState, reservation.Status)
	}

	release := s.guard.acquire(reservationGuardKeys(reservation)...)
	defer release()

	exclude := &scheduler.OccupancyRef{Source: scheduler.SourceReservation, ID: reservation.ID}
	if err := s.checkReservationConflicts(ctx, ReservationInput{
		RoomID:       reservation.RoomID,
		InstructorID: reservation.InstructorID,
		SectionID:    reservation.SectionID,
	}, reservation.Date, reservation.Window, exclude); err != nil {
		return persistence.Reservation{}, err
	}

	reservation.Status = timetable.ReservationApproved
	reservation.UpdatedAt = s.now()
	if err := s.reservations.UpdateReservation(ctx, reservation); err != nil {
		return persistence.Reservation{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "reservation", "approve", "reservation_id", reservation.ID).
		InfoContext(ctx, "reservation approved", "approver_id", params.Principal.UserID)
	return reservation, nil
}

// RejectReservation moves a pending reservation to its terminal rejected state.
func (s *ReservationService) RejectReservation(ctx context.Context, params ReservationDecisionParams) (persistence.Reservation, error) {
	if s == nil || s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("ReservationService is not configured")
	}
	if !params.Principal.IsAdmin {
		return persistence.Reservation{}, ErrForbidden
	}

	reservation, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return persistence.Reservation{}, mapRepoError(err)
	}
	if reservation.Status != timetable.ReservationPending {
		return persistence.Reservation{}, fmt.Errorf("%w: reservation is %s", ErrInvalidState, reservation.Status)
	}

	reservation.Status = timetable.ReservationRejected
	reservation.UpdatedAt = s.now()
	if err := s.reservations.UpdateReservation(ctx, reservation); err != nil {
		return persistence.Reservation{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "reservation", "reject", "reservation_id", reservation.ID).
		InfoContext(ctx, "reservation rejected", "approver_id", params.Principal.UserID)
	return reservation, nil
}

// DeleteReservation removes a reservation. Requesters may withdraw their own
// reservation while it is still pending; administrators may delete any.
func (s *ReservationService) DeleteReservation(ctx context.Context, principal Principal, reservationID string) error {
	if s == nil || s.reservations == nil {
		return fmt.Errorf("ReservationService is not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return mapRepoError(err)
	}
	if !principal.IsAdmin {
		if reservation.RequesterID != principal.UserID {
			return ErrForbidden
		}
		if reservation.Status != timetable.ReservationPending {
			return fmt.Errorf("%w: only pending reservations can be withdrawn", ErrInvalidState)
		}
	}

	if err := s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		return mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "reservation", "delete", "reservation_id", reservationID).
		InfoContext(ctx, "reservation deleted")
	return nil
}

// ListReservations enumerates reservations matching the filter, ordered by
// date then start time.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) ([]persistence.Reservation, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("ReservationService is not configured")
	}

	vErr := &ValidationError{}
	filter := persistence.ReservationFilter{
		RoomID:      params.RoomID,
		RequesterID: params.RequesterID,
	}
	if strings.TrimSpace(params.Date) != "" {
		date, err := timetable.ParseDate(params.Date)
		if err != nil {
			vErr.add("date", "must be a date in YYYY-MM-DD form")
		} else {
			filter.Date = &date
		}
	}
	if strings.TrimSpace(params.Status) != "" {
		status, err := timetable.ParseReservationStatus(params.Status)
		if err != nil {
			vErr.add("status", "must be one of pending, approved, rejected")
		} else {
			filter.Status = &status
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	reservations, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}

	sort.SliceStable(reservations, func(i, j int) bool {
		if reservations[i].Date != reservations[j].Date {
			return reservations[i].Date.String() < reservations[j].Date.String()
		}
		if reservations[i].Window.Start != reservations[j].Window.Start {
			return reservations[i].Window.Start < reservations[j].Window.Start
		}
		return reservations[i].ID < reservations[j].ID
	})
	return reservations, nil
}

// checkReservationConflicts probes the room always, and the instructor and
// section dimensions when the reservation names them.
func (s *ReservationService) checkReservationConflicts(ctx context.Context, input ReservationInput, date timetable.Date, window timetable.Interval, exclude *scheduler.OccupancyRef) error {
	checks := []struct {
		kind       scheduler.ResourceKind
		resourceID string
	}{
		{scheduler.KindRoom, input.RoomID},
		{scheduler.KindInstructor, input.InstructorID},
		{scheduler.KindSection, input.SectionID},
	}
	for _, check := range checks {
		if check.resourceID == "" {
			continue
		}
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

// ensureReservationRefsExist reports unknown catalog references as field
// errors for the caller to fold into the validation result. Blank optional
// references are skipped; a blank room is the required-field check's problem.
func (s *ReservationService) ensureReservationRefsExist(ctx context.Context, input ReservationInput) (*ValidationError, error) {
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

func parseReservationInput(input ReservationInput) (timetable.Date, timetable.Interval, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}

	date, err := timetable.ParseDate(input.Date)
	if err != nil {
		vErr.add("date", "must be a date in YYYY-MM-DD form")
	}
	window, _ := parseWindow(input.Start, input.End, vErr)

	return date, window, vErr
}

func reservationGuardKeys(reservation persistence.Reservation) []string {
	keys := []string{guardKey(string(scheduler.KindRoom), reservation.RoomID)}
	if reservation.InstructorID != "" {
		keys = append(keys, guardKey(string(scheduler.KindInstructor), reservation.InstructorID))
	}
	if reservation.SectionID != "" {
		keys = append(keys, guardKey(string(scheduler.KindSection), reservation.SectionID))
	}
	return keys
}
