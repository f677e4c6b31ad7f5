package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-scheduler/internal/application"
)

var (
	errBadRequestBody       = errors.New("Format permintaan tidak valid.")
	errInvalidEntryID       = errors.New("ID jadwal tidak valid.")
	errInvalidReservationID = errors.New("ID reservasi tidak valid.")
	errInvalidCatalogID     = errors.New("ID data tidak valid.")
	errInvalidOverrideDate  = errors.New("Tanggal pengecualian tidak valid.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	kind := application.ErrorKind(err)
	if kind == "unexpected" {
		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "kind", kind, "error", err)
	} else {
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "kind", kind, "error", err)
	}

	switch {
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "Anda tidak memiliki izin untuk melakukan operasi ini.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "Sumber daya yang diminta tidak ditemukan."})
	case errors.Is(err, application.ErrInvalidState):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_STATE",
			Message:   "Operasi tidak dapat dilakukan pada status saat ini.",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "Data dengan ID tersebut sudah ada.",
		})
	default:
		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "SCHEDULE_CONFLICT",
				Message:   localizeConflict(cErr),
				Conflict:  toConflictDTO(cErr),
			})
			return
		}

		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "Data yang dikirim tidak valid.",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Terjadi kesalahan pada server."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Permintaan tidak dapat diproses."
	case http.StatusForbidden:
		return "Anda tidak memiliki izin untuk melakukan operasi ini."
	case http.StatusNotFound:
		return "Sumber daya yang diminta tidak ditemukan."
	case http.StatusConflict:
		return "Permintaan bertentangan dengan keadaan jadwal saat ini."
	case http.StatusUnprocessableEntity:
		return "Data yang dikirim tidak valid."
	default:
		return "Terjadi kesalahan pada server."
	}
}

func localizeConflict(cErr *application.ConflictError) string {
	dimension := "sumber daya"
	switch cErr.Dimension {
	case "room":
		dimension = "ruangan"
	case "instructor":
		dimension = "dosen"
	case "class_section":
		dimension = "kelas"
	}
	return fmt.Sprintf("Jadwal bentrok: %s %s sudah terpakai pada %s pukul %s-%s.",
		dimension, cErr.ResourceID, cErr.Date, cErr.Window.Start, cErr.Window.End)
}

type conflictDTO struct {
	Dimension  string `json:"dimension"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	WithSource string `json:"with_source"`
	WithID     string `json:"with_id"`
}

func toConflictDTO(cErr *application.ConflictError) *conflictDTO {
	if cErr == nil {
		return nil
	}
	return &conflictDTO{
		Dimension:  string(cErr.Dimension),
		ResourceID: cErr.ResourceID,
		Date:       cErr.Date.String(),
		Start:      cErr.Window.Start.String(),
		End:        cErr.Window.End.String(),
		WithSource: string(cErr.With.Source),
		WithID:     cErr.With.ID,
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "Nama wajib diisi."
	case "code is required":
		return "Kode wajib diisi."
	case "capacity cannot be negative":
		return "Kapasitas tidak boleh negatif."
	case "semester cannot be negative":
		return "Semester tidak boleh negatif."
	case "must be a weekday name such as monday":
		return "Hari harus berupa nama hari dalam bahasa Inggris, misalnya monday."
	case "must be a date in YYYY-MM-DD form":
		return "Tanggal harus dalam format YYYY-MM-DD."
	case "does not fall on the entry's weekday":
		return "Tanggal tidak jatuh pada hari jadwal tersebut."
	case "must be a time in HH:MM form":
		return "Waktu harus dalam format HH:MM."
	case "start must be before end":
		return "Waktu mulai harus sebelum waktu selesai."
	case "must be one of active, holiday, postponed":
		return "Status harus salah satu dari active, holiday, atau postponed."
	case "must be one of pending, approved, rejected":
		return "Status harus salah satu dari pending, approved, atau rejected."
	case "replacement window is only meaningful for a postponed status":
		return "Jam pengganti hanya berlaku untuk status postponed."
	case "must be one of room, instructor, class_section":
		return "Jenis sumber daya harus room, instructor, atau class_section."
	case "must be entry or reservation":
		return "Sumber pengecualian harus entry atau reservation."
	case "resource is required":
		return "ID sumber daya wajib diisi."
	case "room is required":
		return "Ruangan wajib diisi."
	case "instructor is required":
		return "Dosen wajib diisi."
	case "section is required":
		return "Kelas wajib diisi."
	case "course is required":
		return "Mata kuliah wajib diisi."
	case "room does not exist":
		return "Ruangan yang dimaksud tidak ditemukan."
	case "instructor does not exist":
		return "Dosen yang dimaksud tidak ditemukan."
	case "class section does not exist":
		return "Kelas yang dimaksud tidak ditemukan."
	case "course does not exist":
		return "Mata kuliah yang dimaksud tidak ditemukan."
	case "related records are missing":
		return "Data terkait tidak ditemukan."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *conflictDTO      `json:"conflict,omitempty"`
}
