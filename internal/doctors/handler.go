package doctors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docspot/docspot-api/internal/appointments"
	"github.com/docspot/docspot-api/pkg/logging"
)

// Handler handles HTTP requests for the doctors collection
type Handler struct {
	repo   Repository
	logger *logging.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewHandler creates a new doctors handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

// sanitize strips the password before a document leaves the API.
func sanitize(doc *Doctor) *Doctor {
	out := *doc
	out.Password = ""
	return &out
}

// List handles GET /doctors requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Specialization: r.URL.Query().Get("specialization"),
		AvailableOnly:  r.URL.Query().Get("available") == "true",
	}

	docs, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}

	out := make([]*Doctor, 0, len(docs))
	for _, doc := range docs {
		out = append(out, sanitize(doc))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doctors": out,
		"count":   len(out),
	})
}

// Get handles GET /doctors/{doctorID} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, version, err := h.repo.Get(r.Context(), chi.URLParam(r, "doctorID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag(version))
	json.NewEncoder(w).Encode(sanitize(doc))
}

// Create handles POST /doctors requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var doc Doctor
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Server-managed fields never come from the request.
	doc.Appointments = nil
	doc.TotalPatient = 0
	if doc.Availability == nil {
		doc.Availability = AutoAvailability()
	}

	created, err := h.repo.Create(r.Context(), &doc)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("doctor created", "id", created.ID, "name", created.DoctorName)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sanitize(created))
}

// Update handles PUT /doctors/{doctorID} requests. The appointments list,
// the slot calendar and the patient counter are server managed and survive
// the replace regardless of what the client sent. An If-Match header makes
// the write conditional on the version it names.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")

	var next Doctor
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
	next.Availability = current.Availability
	next.TotalPatient = current.TotalPatient
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

// SetStatus handles PATCH /doctors/{doctorID}/status requests
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")

	var req struct {
		IsAvailableStatus bool `json:"isAvailableStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.mutate(r, id, func(doc *Doctor) error {
		doc.IsAvailableStatus = req.IsAvailableStatus
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitize(doc))
}

// Delete handles DELETE /doctors/{doctorID} requests
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("doctor deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// SetAvailabilityRequest selects the weekly calendar shape.
type SetAvailabilityRequest struct {
	Mode  string   `json:"mode"`
	Days  []string `json:"days,omitempty"`
	Times []string `json:"times,omitempty"`
}

// SetAvailability handles PUT /doctors/{doctorID}/availability requests.
// Booked slots in the current calendar survive the overwrite.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")

	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Mode != ModeAuto && req.Mode != ModeManual {
		http.Error(w, "mode must be \"auto\" or \"manual\"", http.StatusBadRequest)
		return
	}

	doc, err := h.mutate(r, id, func(doc *Doctor) error {
		// Built inside the loop: ApplyAvailability mutates the calendar it is
		// given, so a retry must start from a fresh one.
		next := AutoAvailability()
		if req.Mode == ModeManual {
			var err error
			next, err = ManualAvailability(req.Days, req.Times)
			if err != nil {
				return err
			}
		}
		doc.ApplyAvailability(next)
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("availability updated", "id", id, "mode", req.Mode)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc.Availability)
}

// Slots handles GET /doctors/{doctorID}/slots requests. With a date query
// parameter it returns the open slots for that day; without one it returns
// the seven days starting today.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	doc, _, err := h.repo.Get(r.Context(), chi.URLParam(r, "doctorID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if date := r.URL.Query().Get("date"); date != "" {
		day, err := appointments.ParseDate(date)
		if err != nil {
			http.Error(w, "date must look like \"7 September 2026\"", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(doc.SlotsForDate(day, h.now()))
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"days": doc.WeekSlots(h.now())})
}

// mutate is a read-modify-write loop over one document, retrying when a
// concurrent writer bumps the version between the read and the replace.
func (h *Handler) mutate(r *http.Request, id string, fn func(*Doctor) error) (*Doctor, error) {
	for attempt := 0; attempt < 3; attempt++ {
		doc, version, err := h.repo.Get(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		_, err = h.repo.Replace(r.Context(), doc, version)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, ErrVersionConflict
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "doctor not found", http.StatusNotFound)
	case errors.Is(err, ErrVersionConflict):
		http.Error(w, "document changed since it was read", http.StatusPreconditionFailed)
	case errors.Is(err, ErrMissingName),
		errors.Is(err, ErrMissingLoginIdentity),
		errors.Is(err, ErrUnknownWeekday),
		errors.Is(err, ErrUnknownSlotTime),
		errors.Is(err, ErrEmptyAvailability):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("doctors request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

func parseETag(tag string) (int64, error) {
	return strconv.ParseInt(strings.Trim(tag, `"`), 10, 64)
}
