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

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (persistence.Reservation, error)
	ApproveReservation(ctx context.Context, params application.ReservationDecisionParams) (persistence.Reservation, error)
	RejectReservation(ctx context.Context, params application.ReservationDecisionParams) (persistence.Reservation, error)
	DeleteReservation(ctx context.Context, principal application.Principal, reservationID string) error
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]persistence.Reservation, error)
}

// ReservationHandler serves one-off room reservation requests and their
// approval lifecycle.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	reservations, err := h.service.ListReservations(r.Context(), application.ListReservationsParams{
		RoomID:      strings.TrimSpace(query.Get("room_id")),
		RequesterID: strings.TrimSpace(query.Get("requester_id")),
		Date:        strings.TrimSpace(query.Get("date")),
		Status:      strings.TrimSpace(query.Get("status")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input: application.ReservationInput{
			RoomID:       strings.TrimSpace(req.RoomID),
			InstructorID: strings.TrimSpace(req.InstructorID),
			SectionID:    strings.TrimSpace(req.SectionID),
			CourseID:     strings.TrimSpace(req.CourseID),
			Date:         strings.TrimSpace(req.Date),
			Start:        strings.TrimSpace(req.Start),
			End:          strings.TrimSpace(req.End),
			Note:         strings.TrimSpace(req.Note),
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "create", "reservation_id", reservation.ID).InfoContext(r.Context(), "reservation requested")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve")
}

func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject")
}

func (h *ReservationHandler) decide(w http.ResponseWriter, r *http.Request, decision string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := application.ReservationDecisionParams{Principal: principal, ReservationID: reservationID}

	var reservation persistence.Reservation
	var err error
	if decision == "approve" {
		reservation, err = h.service.ApproveReservation(r.Context(), params)
	} else {
		reservation, err = h.service.RejectReservation(r.Context(), params)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), decision, "reservation_id", reservationID).InfoContext(r.Context(), "reservation decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteReservation(r.Context(), principal, reservationID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type reservationRequest struct {
	RoomID       string `json:"room_id"`
	InstructorID string `json:"instructor_id,omitempty"`
	SectionID    string `json:"section_id,omitempty"`
	CourseID     string `json:"course_id,omitempty"`
	Date         string `json:"date"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Note         string `json:"note,omitempty"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID           string `json:"id"`
	RoomID       string `json:"room_id"`
	InstructorID string `json:"instructor_id,omitempty"`
	SectionID    string `json:"section_id,omitempty"`
	CourseID     string `json:"course_id,omitempty"`
	RequesterID  string `json:"requester_id"`
	Date         string `json:"date"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Status       string `json:"status"`
	Note         string `json:"note,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toReservationDTO(reservation persistence.Reservation) reservationDTO {
	return reservationDTO{
		ID:           reservation.ID,
		RoomID:       reservation.RoomID,
		InstructorID: reservation.InstructorID,
		SectionID:    reservation.SectionID,
		CourseID:     reservation.CourseID,
		RequesterID:  reservation.RequesterID,
		Date:         reservation.Date.String(),
		Start:        reservation.Window.Start.String(),
		End:          reservation.Window.End.String(),
		Status:       string(reservation.Status),
		Note:         reservation.Note,
		CreatedAt:    reservation.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    reservation.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toReservationDTOs(reservations []persistence.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}
