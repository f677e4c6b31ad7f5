package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
)

type catalogService interface {
	CreateRoom(ctx context.Context, principal application.Principal, input application.RoomInput) (persistence.Room, error)
	UpdateRoom(ctx context.Context, principal application.Principal, roomID string, input application.RoomInput) (persistence.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	GetRoom(ctx context.Context, roomID string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)

	CreateInstructor(ctx context.Context, principal application.Principal, input application.InstructorInput) (persistence.Instructor, error)
	UpdateInstructor(ctx context.Context, principal application.Principal, instructorID string, input application.InstructorInput) (persistence.Instructor, error)
	DeleteInstructor(ctx context.Context, principal application.Principal, instructorID string) error
	GetInstructor(ctx context.Context, instructorID string) (persistence.Instructor, error)
	ListInstructors(ctx context.Context) ([]persistence.Instructor, error)

	CreateClassSection(ctx context.Context, principal application.Principal, input application.ClassSectionInput) (persistence.ClassSection, error)
	UpdateClassSection(ctx context.Context, principal application.Principal, sectionID string, input application.ClassSectionInput) (persistence.ClassSection, error)
	DeleteClassSection(ctx context.Context, principal application.Principal, sectionID string) error
	GetClassSection(ctx context.Context, sectionID string) (persistence.ClassSection, error)
	ListClassSections(ctx context.Context) ([]persistence.ClassSection, error)

	CreateCourse(ctx context.Context, principal application.Principal, input application.CourseInput) (persistence.Course, error)
	UpdateCourse(ctx context.Context, principal application.Principal, courseID string, input application.CourseInput) (persistence.Course, error)
	DeleteCourse(ctx context.Context, principal application.Principal, courseID string) error
	GetCourse(ctx context.Context, courseID string) (persistence.Course, error)
	ListCourses(ctx context.Context) ([]persistence.Course, error)
}

// CatalogHandler serves the admin maintained resource catalogs: rooms,
// instructors, class sections and courses.
type CatalogHandler struct {
	service   catalogService
	responder responder
}

func NewCatalogHandler(service catalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, responder: newResponder(logger)}
}

func (h *CatalogHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *CatalogHandler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := CatalogIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCatalogID)
		return "", false
	}
	return id, true
}

func (h *CatalogHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *CatalogHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	room, err := h.service.GetRoom(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *CatalogHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	room, err := h.service.CreateRoom(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *CatalogHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	room, err := h.service.UpdateRoom(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *CatalogHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteRoom(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) ListInstructors(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	instructors, err := h.service.ListInstructors(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listInstructorsResponse{Instructors: toInstructorDTOs(instructors)})
}

func (h *CatalogHandler) GetInstructor(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	instructor, err := h.service.GetInstructor(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, instructorResponse{Instructor: toInstructorDTO(instructor)})
}

func (h *CatalogHandler) CreateInstructor(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req instructorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	instructor, err := h.service.CreateInstructor(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, instructorResponse{Instructor: toInstructorDTO(instructor)})
}

func (h *CatalogHandler) UpdateInstructor(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req instructorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	instructor, err := h.service.UpdateInstructor(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, instructorResponse{Instructor: toInstructorDTO(instructor)})
}

func (h *CatalogHandler) DeleteInstructor(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteInstructor(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) ListClassSections(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sections, err := h.service.ListClassSections(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listClassSectionsResponse{ClassSections: toClassSectionDTOs(sections)})
}

func (h *CatalogHandler) GetClassSection(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	section, err := h.service.GetClassSection(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, classSectionResponse{ClassSection: toClassSectionDTO(section)})
}

func (h *CatalogHandler) CreateClassSection(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req classSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	section, err := h.service.CreateClassSection(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, classSectionResponse{ClassSection: toClassSectionDTO(section)})
}

func (h *CatalogHandler) UpdateClassSection(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req classSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	section, err := h.service.UpdateClassSection(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, classSectionResponse{ClassSection: toClassSectionDTO(section)})
}

func (h *CatalogHandler) DeleteClassSection(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteClassSection(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCoursesResponse{Courses: toCourseDTOs(courses)})
}

func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	course, err := h.service.GetCourse(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, courseResponse{Course: toCourseDTO(course)})
}

func (h *CatalogHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	course, err := h.service.CreateCourse(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, courseResponse{Course: toCourseDTO(course)})
}

func (h *CatalogHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	course, err := h.service.UpdateCourse(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, courseResponse{Course: toCourseDTO(course)})
}

func (h *CatalogHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteCourse(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type roomRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:     strings.TrimSpace(r.Name),
		Location: strings.TrimSpace(r.Location),
		Capacity: r.Capacity,
	}
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Capacity  int    `json:"capacity"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toRoomDTO(room persistence.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Location:  room.Location,
		Capacity:  room.Capacity,
		CreatedAt: room.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRoomDTOs(rooms []persistence.Room) []roomDTO {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

type instructorRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (r instructorRequest) toInput() application.InstructorInput {
	return application.InstructorInput{
		Code: strings.TrimSpace(r.Code),
		Name: strings.TrimSpace(r.Name),
	}
}

type instructorResponse struct {
	Instructor instructorDTO `json:"instructor"`
}

type listInstructorsResponse struct {
	Instructors []instructorDTO `json:"instructors"`
}

type instructorDTO struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toInstructorDTO(instructor persistence.Instructor) instructorDTO {
	return instructorDTO{
		ID:        instructor.ID,
		Code:      instructor.Code,
		Name:      instructor.Name,
		CreatedAt: instructor.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: instructor.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toInstructorDTOs(instructors []persistence.Instructor) []instructorDTO {
	if len(instructors) == 0 {
		return nil
	}
	out := make([]instructorDTO, 0, len(instructors))
	for _, instructor := range instructors {
		out = append(out, toInstructorDTO(instructor))
	}
	return out
}

type classSectionRequest struct {
	Name     string `json:"name"`
	Program  string `json:"program"`
	Semester int    `json:"semester"`
}

func (r classSectionRequest) toInput() application.ClassSectionInput {
	return application.ClassSectionInput{
		Name:     strings.TrimSpace(r.Name),
		Program:  strings.TrimSpace(r.Program),
		Semester: r.Semester,
	}
}

type classSectionResponse struct {
	ClassSection classSectionDTO `json:"class_section"`
}

type listClassSectionsResponse struct {
	ClassSections []classSectionDTO `json:"class_sections"`
}

type classSectionDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Program   string `json:"program,omitempty"`
	Semester  int    `json:"semester"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toClassSectionDTO(section persistence.ClassSection) classSectionDTO {
	return classSectionDTO{
		ID:        section.ID,
		Name:      section.Name,
		Program:   section.Program,
		Semester:  section.Semester,
		CreatedAt: section.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: section.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toClassSectionDTOs(sections []persistence.ClassSection) []classSectionDTO {
	if len(sections) == 0 {
		return nil
	}
	out := make([]classSectionDTO, 0, len(sections))
	for _, section := range sections {
		out = append(out, toClassSectionDTO(section))
	}
	return out
}

type courseRequest struct {
	Name     string `json:"name"`
	Program  string `json:"program"`
	Semester int    `json:"semester"`
}

func (r courseRequest) toInput() application.CourseInput {
	return application.CourseInput{
		Name:     strings.TrimSpace(r.Name),
		Program:  strings.TrimSpace(r.Program),
		Semester: r.Semester,
	}
}

type courseResponse struct {
	Course courseDTO `json:"course"`
}

type listCoursesResponse struct {
	Courses []courseDTO `json:"courses"`
}

type courseDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Program   string `json:"program,omitempty"`
	Semester  int    `json:"semester"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toCourseDTO(course persistence.Course) courseDTO {
	return courseDTO{
		ID:        course.ID,
		Name:      course.Name,
		Program:   course.Program,
		Semester:  course.Semester,
		CreatedAt: course.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: course.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toCourseDTOs(courses []persistence.Course) []courseDTO {
	if len(courses) == 0 {
		return nil
	}
	out := make([]courseDTO, 0, len(courses))
	for _, course := range courses {
		out = append(out, toCourseDTO(course))
	}
	return out
}
