package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docspot/docspot-api/pkg/logging"
)

// Handler handles HTTP requests for the patients collection
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new patients handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

func sanitize(pat *Patient) *Patient {
	out := *pat
	out.Password = ""
	return &out
}

// Register handles POST /patients requests. This is the public signup
// endpoint.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var pat Patient
	if err := json.NewDecoder(r.Body).Decode(&pat); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	pat.Appointments = nil

	if existing, err := h.repo.FindByUsername(r.Context(), pat.Username); err == nil && existing != nil {
		http.Error(w, "username already taken", http.StatusConflict)
		return
	}

	created, err := h.repo.Create(r.Context(), &pat)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("patient registered", "id", created.ID, "username", created.Username)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sanitize(created))
}

// List handles GET /patients requests, for the admin dashboard
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	pats, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}

	out := make([]*Patient, 0, len(pats))
	for _, pat := range pats {
		out = append(out, sanitize(pat))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"patients": out,
		"count":    len(out),
	})
}

// Get handles GET /patients/{patientID} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	pat, version, err := h.repo.Get(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag(version))
	json.NewEncoder(w).Encode(sanitize(pat))
}

// Update handles PUT /patients/{patientID} requests. The appointments list
// is server managed and survives the replace; an If-Match header makes the
// write conditional on the version it names.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "patientID")

	var next Patient
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	current, version, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	expected := version
	if match := r.Header.Get("If-Match"); match != "" {
		expected, err = parseETag(match)
		if err != nil {
			http.Error(w, "invalid If-Match header", http.StatusBadRequest)
			return
		}
	}

	next.ID = id
	next.Appointments = current.Appointments
	if strings.TrimSpace(next.Password) == "" {
		next.Password = current.Password
	}
	if err := next.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	newVersion, err := h.repo.Replace(r.Context(), &next, expected)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag(newVersion))
	json.NewEncoder(w).Encode(sanitize(&next))
}

// Delete handles DELETE /patients/{patientID} requests
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "patientID")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("patient deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "patient not found", http.StatusNotFound)
	case errors.Is(err, ErrVersionConflict):
		http.Error(w, "document changed since it was read", http.StatusPreconditionFailed)
	case errors.Is(err, ErrMissingName),
		errors.Is(err, ErrMissingUsername),
		errors.Is(err, ErrMissingPassword):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("patients request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

func parseETag(tag string) (int64, error) {
	return strconv.ParseInt(strings.Trim(tag, `"`), 10, 64)
}
