package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type scheduleService interface {
	ResolveSchedule(ctx context.Context, params application.ResolveScheduleParams) ([]scheduler.Occupancy, error)
	CheckConflict(ctx context.Context, params application.CheckConflictParams) (*application.ConflictError, error)
	AvailableRooms(ctx context.Context, params application.AvailableRoomsParams) ([]persistence.Room, error)
}

// ScheduleHandler serves effective-schedule projections and what-if probes.
type ScheduleHandler struct {
	service   scheduleService
	responder responder
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

// Resolve projects the occupancy in force for one resource on one date.
func (h *ScheduleHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	occupancies, err := h.service.ResolveSchedule(r.Context(), application.ResolveScheduleParams{
		Kind:       strings.TrimSpace(query.Get("kind")),
		ResourceID: strings.TrimSpace(query.Get("resource_id")),
		Date:       strings.TrimSpace(query.Get("date")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resolveResponse{Occupancies: toOccupancyDTOs(occupancies)})
}

// CheckConflict answers a what-if probe without persisting anything. A clash
// still answers 200; the response body carries the verdict.
func (h *ScheduleHandler) CheckConflict(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req checkConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	conflict, err := h.service.CheckConflict(r.Context(), application.CheckConflictParams{
		Kind:          strings.TrimSpace(req.Kind),
		ResourceID:    strings.TrimSpace(req.ResourceID),
		Date:          strings.TrimSpace(req.Date),
		Start:         strings.TrimSpace(req.Start),
		End:           strings.TrimSpace(req.End),
		ExcludeSource: strings.TrimSpace(req.ExcludeSource),
		ExcludeID:     strings.TrimSpace(req.ExcludeID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := checkConflictResponse{Available: conflict == nil}
	if conflict != nil {
		response.Conflict = toConflictDTO(conflict)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// AvailableRooms lists the rooms free for a window on a date.
func (h *ScheduleHandler) AvailableRooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	rooms, err := h.service.AvailableRooms(r.Context(), application.AvailableRoomsParams{
		Date:  strings.TrimSpace(query.Get("date")),
		Start: strings.TrimSpace(query.Get("start")),
		End:   strings.TrimSpace(query.Get("end")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

type resolveResponse struct {
	Occupancies []occupancyDTO `json:"occupancies"`
}

type occupancyDTO struct {
	Source string `json:"source"`
	ID     string `json:"id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

func toOccupancyDTOs(occupancies []scheduler.Occupancy) []occupancyDTO {
	if len(occupancies) == 0 {
		return nil
	}
	out := make([]occupancyDTO, 0, len(occupancies))
	for _, occupancy := range occupancies {
		out = append(out, occupancyDTO{
			Source: string(occupancy.Ref.Source),
			ID:     occupancy.Ref.ID,
			Start:  occupancy.Interval.Start.String(),
			End:    occupancy.Interval.End.String(),
		})
	}
	return out
}

type checkConflictRequest struct {
	Kind          string `json:"kind"`
	ResourceID    string `json:"resource_id"`
	Date          string `json:"date"`
	Start         string `json:"start"`
	End           string `json:"end"`
	ExcludeSource string `json:"exclude_source,omitempty"`
	ExcludeID     string `json:"exclude_id,omitempty"`
}

type checkConflictResponse struct {
	Available bool         `json:"available"`
	Conflict  *conflictDTO `json:"conflict,omitempty"`
}
