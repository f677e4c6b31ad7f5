package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// CatalogService manages the reference data the timetable validates against:
// rooms, instructors, class sections and courses. Reads are open to every
// principal; writes are restricted to administrators.
type CatalogService struct {
	catalog     persistence.CatalogRepository
	logger      *slog.Logger
	idGenerator func() string
	now         func() time.Time
}

// NewCatalogService wires dependencies for catalog operations.
func NewCatalogService(catalog persistence.CatalogRepository, logger *slog.Logger, idGenerator func() string, now func() time.Time) *CatalogService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CatalogService{
		catalog:     catalog,
		logger:      defaultLogger(logger),
		idGenerator: idGenerator,
		now:         now,
	}
}

func (s *CatalogService) ready() error {
	if s == nil || s.catalog == nil {
		return fmt.Errorf("CatalogService is not configured")
	}
	return nil
}

func requireAdmin(principal Principal) error {
	if !principal.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// CreateRoom validates and persists a new room.
func (s *CatalogService) CreateRoom(ctx context.Context, principal Principal, input RoomInput) (persistence.Room, error) {
	if err := s.ready(); err != nil {
		return persistence.Room{}, err
	}
	if err := requireAdmin(principal); err != nil {
		return persistence.Room{}, err
	}
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		return persistence.Room{}, vErr
	}

	now := s.now()
	room := persistence.Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Location:  strings.TrimSpace(input.Location),
		Capacity:  input.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.SaveRoom(ctx, room); err != nil {
		return persistence.Room{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "catalog", "create_room", "room_id", room.ID).
		InfoContext(ctx, "room created")
	return room, nil
}

// UpdateRoom replaces an existing room's attributes.
func (s *CatalogService) UpdateRoom(ctx context.Context, principal Principal, roomID string, input RoomInput) (persistence.Room, error) {
	if err := s.ready(); err != nil {
		return persistence.Room{}, err
	}
	if err := requireAdmin(principal); err != nil {
		return persistence.Room{}, err
	}

	existing, err := s.catalog.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		return persistence.Room{}, vErr
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Location = strings.TrimSpace(input.Location)
	existing.Capacity = input.Capacity
	existing.UpdatedAt = s.now()
	if err := s.catalog.SaveRoom(ctx, existing); err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	return existing, nil
}

// DeleteRoom removes a room from the catalog.
func (s *CatalogService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := requireAdmin(principal); err != nil {
		return err
	}
	if err := s.catalog.DeleteRoom(ctx, roomID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// GetRoom looks up one room.
func (s *CatalogService) GetRoom(ctx context.Context, roomID string) (persistence.Room, error) {
	if err := s.ready(); err != nil {
		return persistence.Room{}, err
	}
	room, err := s.catalog.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	return room, nil
}

// ListRooms enumerates the room catalog.
func (s *CatalogService) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return rooms, nil
}

// CreateInstructor validates and persists a new instructor.
func (s *CatalogService) CreateInstructor(ctx context.Context, principal Principal, input InstructorInput) (persistence.Instructor, error) {
	if err := s.ready(); err != nil {
		return persistence.Instructor{}, err
	}
	if err := requireAdmin(principal); err != nil {
		return persistence.Instructor{}, err
	}
	if vErr := validateInstructorInput(input); vErr.HasErrors() {
		return persistence.Instructor{}, vErr
	}

	now := s.now()
	instructor := persistence.Instructor{
		ID:        s.idGenerator(),
		Code:      strings.TrimSpace(input.Code),
		Name:      strings.TrimSpace(input.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.SaveInstructor(ctx, instructor); err != nil {
		return persistence.Instructor{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "catalog", "create_instructor", "instructor_id", instructor.ID).
		InfoContext(ctx, "instructor created")
	return instructor, nil
}

// UpdateInstructor replaces an existing instructor's attributes.
func (s *CatalogService) UpdateInstructor(ctx context.Context, principal Principal, instructorID string, input InstructorInput) (persistence.Instructor, error) {
	if err := s.ready(); err != nil {
		return persistence.Instructor{}, err
	}
	if err := requireAdmin(principal); err != nil {
		return persistence.Instructor{}, err
	}

	existing, err := s.catalog.GetInstructor(ctx, instructorID)
	if err != nil {
		return persistence.Instructor{}, mapRepoError(err)
	}
	if vErr := validateInstructorInput(input); vErr.HasErrors() {
		return persistence.Instructor{}, vErr
	}

	existing.Code = strings.TrimSpace(input.Code)
	existing.Name = strings.TrimSpace(input.Name)
	existing.UpdatedAt = s.now()
	if err := s.catalog.SaveInstructor(ctx, existing); err != nil {
		return persistence.Instructor{}, mapRepoError(err)
	}
	return existing, nil
}

// DeleteInstructor removes an instructor from the catalog.
func (s *CatalogService) DeleteInstructor(ctx context.Context, principal Principal, instructorID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := requireAdmin(principal); err != nil {
		return err
	}
	if err := s.catalog.DeleteInstructor(ctx, instructorID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// GetInstructor looks up one instructor.
func (s *CatalogService) GetInstructor(ctx context.Context, instructorID string) (persistence.Instructor, error) {
	if err := s.ready(); err != nil {
		return persistence.Instructor{}, err
	}
	instructor, err := s.catalog.GetInstructor(ctx, instructorID)
	if err != nil {
		return persistence.Instructor{}, mapRepoError(err)
	}
	return instructor, nil
}

// ListInstructors enumerates the instructor catalog.
func (s *CatalogService) ListInstructors(ctx context.Context) ([]persistence.Instructor, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	instructors, err := s.catalog.ListInstructors(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return instructors, nil
}

// CreateClassSection validates and persists a new class section.
func (s *CatalogService) CreateClassSection(ctx context.Context, principal Principal, input ClassSectionInput) (persistence.ClassSection, error) {
	if err := s.ready(); err != nil {
		return persistence.ClassSection{}, err
	}
	if err := requireAdmin(principal); err != nil {
		return persistence.ClassSection{}, err
	}
	if vErr := validateClassSectionInput(input); vErr.HasErrors() {
		return persistence.ClassSection{}, vErr
	}

	now := s.now()
	section := persistence.ClassSection{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Program:   strings.TrimSpace(input.Program),
		Semester:  input.Semester,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.SaveClassSection(ctx, section); err != nil {
		return persistence.ClassSection{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "catalog", "create_class_section", "section_id", section.ID).
		InfoContext(ctx, "class section created")
	return section, nil
}

// UpdateClassSection replaces an existing class section's attributes.
func (s *CatalogService) UpdateClassSection(ctx context.Context, principal Principal, sectionID string, input ClassSectionInput) (persistence.ClassSection, error) {
	if err := s.ready(); err != nil {
		return persistence.ClassSection{}, err
	}
	if err := requireAdmin(principal); err != nil {
		return persistence.ClassSection{}, err
	}

	existing, err := s.catalog.GetClassSection(ctx, sectionID)
	if err != nil {
		return persistence.ClassSection{}, mapRepoError(err)
	}
	if vErr := validateClassSectionInput(input); vErr.HasErrors() {
		return persistence.ClassSection{}, vErr
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Program = strings.TrimSpace(input.Program)
	existing.Semester = input.Semester
	existing.UpdatedAt = s.now()
	if err := s.catalog.SaveClassSection(ctx, existing); err != nil {
		return persistence.ClassSection{}, mapRepoError(err)
	}
	return existing, nil
}

// DeleteClassSection removes a class section from the catalog.
func (s *CatalogService) DeleteClassSection(ctx context.Context, principal Principal, sectionID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := requireAdmin(principal); err != nil {
		return err
	}
	if err := s.catalog.DeleteClassSection(ctx, sectionID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// GetClassSection looks up one class section.
func (s *CatalogService) GetClassSection(ctx context.Context, sectionID string) (persistence.ClassSection, error) {
	if err := s.ready(); err != nil {
		return persistence.ClassSection{}, err
	}
	section, err := s.catalog.GetClassSection(ctx, sectionID)
	if err != nil {
		return persistence.ClassSection{}, mapRepoError(err)
	}
	return section, nil
}

// ListClassSections enumerates the class-section catalog.
func (s *CatalogService) ListClassSections(ctx context.Context) ([]persistence.ClassSection, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	sections, err := s.catalog.ListClassSections(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return sections, nil
}

// CreateCourse validates and persists a new course.
func (s *CatalogService) CreateCourse(ctx context.Context, principal Principal, input CourseInput) (persistence.Course, error) {
	if err := s.ready(); err != nil {
		return persistence.Course{}, err
	}
	if err := requireAdmin(principal); err != nil {
		return persistence.Course{}, err
	}
	if vErr := validateCourseInput(input); vErr.HasErrors() {
		return persistence.Course{}, vErr
	}

	now := s.now()
	course := persistence.Course{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Program:   strings.TrimSpace(input.Program),
		Semester:  input.Semester,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.SaveCourse(ctx, course); err != nil {
		return persistence.Course{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "catalog", "create_course", "course_id", course.ID).
		InfoContext(ctx, "course created")
	return course, nil
}

// UpdateCourse replaces an existing course's attributes.
func (s *CatalogService) UpdateCourse(ctx context.Context, principal Principal, courseID string, input CourseInput) (persistence.Course, error) {
	if err := s.ready(); err != nil {
		return persistence.Course{}, err
	}
	if err := requireAdmin(principal); err != nil {
		return persistence.Course{}, err
	}

	existing, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return persistence.Course{}, mapRepoError(err)
	}
	if vErr := validateCourseInput(input); vErr.HasErrors() {
		return persistence.Course{}, vErr
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Program = strings.TrimSpace(input.Program)
	existing.Semester = input.Semester
	existing.UpdatedAt = s.now()
	if err := s.catalog.SaveCourse(ctx, existing); err != nil {
		return persistence.Course{}, mapRepoError(err)
	}
	return existing, nil
}

// DeleteCourse removes a course from the catalog.
func (s *CatalogService) DeleteCourse(ctx context.Context, principal Principal, courseID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := requireAdmin(principal); err != nil {
		return err
	}
	if err := s.catalog.DeleteCourse(ctx, courseID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// GetCourse looks up one course.
func (s *CatalogService) GetCourse(ctx context.Context, courseID string) (persistence.Course, error) {
	if err := s.ready(); err != nil {
		return persistence.Course{}, err
	}
	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return persistence.Course{}, mapRepoError(err)
	}
	return course, nil
}

// ListCourses enumerates the course catalog.
func (s *CatalogService) ListCourses(ctx context.Context) ([]persistence.Course, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return courses, nil
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity < 0 {
		vErr.add("capacity", "capacity cannot be negative")
	}
	return vErr
}

func validateInstructorInput(input InstructorInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Code) == "" {
		vErr.add("code", "code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	return vErr
}

func validateClassSectionInput(input ClassSectionInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Semester < 0 {
		vErr.add("semester", "semester cannot be negative")
	}
	return vErr
}

func validateCourseInput(input CourseInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Semester < 0 {
		vErr.add("semester", "semester cannot be negative")
	}
	return vErr
}
