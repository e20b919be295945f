package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docspot/docspot-api/internal/appointments"
	"github.com/docspot/docspot-api/internal/doctors"
	"github.com/docspot/docspot-api/internal/patients"
	"github.com/docspot/docspot-api/internal/session"
	"github.com/docspot/docspot-api/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Book handles POST /appointments requests
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// Patients book for themselves; admins may book on a patient's behalf.
	if sess.Role != session.RoleAdmin {
		req.PatientID = sess.UserID
	}

	rec, err := h.svc.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rec)
}

// Cancel handles POST /appointments/{appointmentID}/cancel requests
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

// Complete handles POST /appointments/{appointmentID}/complete requests
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Complete)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, session.Session, string) (appointments.Record, error)) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")
	if appointmentID == "" {
		http.Error(w, "missing appointment id", http.StatusBadRequest)
		return
	}

	rec, err := fn(r.Context(), sess, appointmentID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// List handles GET /appointments requests, returning the caller's records
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	recs, err := h.svc.ListForUser(r.Context(), sess)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"appointments": recs,
		"count":        len(recs),
	})
}

// Overview handles GET /admin/appointments requests
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Overview(r.Context())
	if err != nil {
		h.logger.Error("failed to build appointment overview", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"appointments": recs,
		"count":        len(recs),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTimeRequired),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrSlotElapsed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrNotBooked),
		errors.Is(err, ErrAlreadyCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrAppointmentNotFound),
		errors.Is(err, doctors.ErrNotFound),
		errors.Is(err, patients.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("appointment transition failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
