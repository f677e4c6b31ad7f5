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

type timetableService interface {
	CreateEntry(ctx context.Context, params application.CreateEntryParams) (persistence.ScheduleEntry, error)
	UpdateEntry(ctx context.Context, params application.UpdateEntryParams) (persistence.ScheduleEntry, error)
	DeleteEntry(ctx context.Context, principal application.Principal, entryID string) error
	ListEntries(ctx context.Context, params application.ListEntriesParams) ([]persistence.ScheduleEntry, error)
	SetOverride(ctx context.Context, params application.SetOverrideParams) (persistence.DateOverride, error)
	ClearOverride(ctx context.Context, params application.ClearOverrideParams) error
}

// TimetableHandler serves the recurring timetable and its dated exceptions.
type TimetableHandler struct {
	service   timetableService
	responder responder
	logger    *slog.Logger
}

func NewTimetableHandler(service timetableService, logger *slog.Logger) *TimetableHandler {
	return &TimetableHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *TimetableHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "TimetableHandler", operation, attrs...)
}

func (h *TimetableHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	entries, err := h.service.ListEntries(r.Context(), application.ListEntriesParams{
		SectionID:    strings.TrimSpace(query.Get("section_id")),
		RoomID:       strings.TrimSpace(query.Get("room_id")),
		InstructorID: strings.TrimSpace(query.Get("instructor_id")),
		Weekday:      strings.TrimSpace(query.Get("weekday")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEntriesResponse{Entries: toEntryDTOs(entries)})
}

func (h *TimetableHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	entry, err := h.service.CreateEntry(r.Context(), application.CreateEntryParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "create", "entry_id", entry.ID).InfoContext(r.Context(), "schedule entry created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, entryResponse{Entry: toEntryDTO(entry)})
}

func (h *TimetableHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	entry, err := h.service.UpdateEntry(r.Context(), application.UpdateEntryParams{
		Principal: principal,
		EntryID:   entryID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryResponse{Entry: toEntryDTO(entry)})
}

func (h *TimetableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEntry(r.Context(), principal, entryID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "delete", "entry_id", entryID).InfoContext(r.Context(), "schedule entry deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// SetOverride records a dated exception for the entry in the path. Posting a
// second exception for the same date replaces the first.
func (h *TimetableHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	override, err := h.service.SetOverride(r.Context(), application.SetOverrideParams{
		Principal: principal,
		EntryID:   entryID,
		Input: application.OverrideInput{
			Date:   strings.TrimSpace(req.Date),
			Status: strings.TrimSpace(req.Status),
			Start:  strings.TrimSpace(req.Start),
			End:    strings.TrimSpace(req.End),
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "set_override", "entry_id", entryID, "date", override.Date.String()).
		InfoContext(r.Context(), "date override recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overrideResponse{Override: toOverrideDTO(override)})
}

func (h *TimetableHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOverrideDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	err := h.service.ClearOverride(r.Context(), application.ClearOverrideParams{
		Principal: principal,
		EntryID:   entryID,
		Date:      date,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type entryRequest struct {
	SectionID    string `json:"section_id"`
	CourseID     string `json:"course_id"`
	InstructorID string `json:"instructor_id"`
	RoomID       string `json:"room_id"`
	Weekday      string `json:"weekday"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Status       string `json:"status"`
}

func (r entryRequest) toInput() application.EntryInput {
	return application.EntryInput{
		SectionID:    strings.TrimSpace(r.SectionID),
		CourseID:     strings.TrimSpace(r.CourseID),
		InstructorID: strings.TrimSpace(r.InstructorID),
		RoomID:       strings.TrimSpace(r.RoomID),
		Weekday:      strings.TrimSpace(r.Weekday),
		Start:        strings.TrimSpace(r.Start),
		End:          strings.TrimSpace(r.End),
		Status:       strings.TrimSpace(r.Status),
	}
}

type overrideRequest struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

type entryResponse struct {
	Entry entryDTO `json:"entry"`
}

type listEntriesResponse struct {
	Entries []entryDTO `json:"entries"`
}

type entryDTO struct {
	ID           string `json:"id"`
	SectionID    string `json:"section_id"`
	CourseID     string `json:"course_id"`
	InstructorID string `json:"instructor_id"`
	RoomID       string `json:"room_id"`
	Weekday      string `json:"weekday"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Status       string `json:"status"`
	ConfirmedBy  string `json:"confirmed_by,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toEntryDTO(entry persistence.ScheduleEntry) entryDTO {
	return entryDTO{
		ID:           entry.ID,
		SectionID:    entry.SectionID,
		CourseID:     entry.CourseID,
		InstructorID: entry.InstructorID,
		RoomID:       entry.RoomID,
		Weekday:      strings.ToLower(entry.Weekday.String()),
		Start:        entry.Window.Start.String(),
		End:          entry.Window.End.String(),
		Status:       string(entry.Status),
		ConfirmedBy:  entry.ConfirmedBy,
		CreatedAt:    entry.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    entry.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toEntryDTOs(entries []persistence.ScheduleEntry) []entryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryDTO(entry))
	}
	return out
}

type overrideResponse struct {
	Override overrideDTO `json:"override"`
}

type overrideDTO struct {
	EntryID string `json:"entry_id"`
	Date    string `json:"date"`
	Status  string `json:"status"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

func toOverrideDTO(override persistence.DateOverride) overrideDTO {
	dto := overrideDTO{
		EntryID: override.EntryID,
		Date:    override.Date.String(),
		Status:  string(override.Status),
	}
	if override.Window != nil {
		dto.Start = override.Window.Start.String()
		dto.End = override.Window.End.String()
	}
	return dto
}
