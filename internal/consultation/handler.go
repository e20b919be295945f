package consultation

import (
	"encoding/json"
	"net/http"
)

// Handler handles consultation room lookups
type Handler struct{}

// NewHandler creates a new consultation handler
func NewHandler() *Handler {
	return &Handler{}
}

// Symptoms handles GET /consultation/symptoms?speciality= requests
func (h *Handler) Symptoms(w http.ResponseWriter, r *http.Request) {
	speciality := r.URL.Query().Get("speciality")
	if speciality == "" {
		http.Error(w, "missing speciality parameter", http.StatusBadRequest)
		return
	}

	symptoms := Symptoms(speciality)
	if symptoms == nil {
		symptoms = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"speciality": speciality,
		"symptoms":   symptoms,
	})
}

// Diagnosis handles GET /consultation/diagnosis?symptom= requests
func (h *Handler) Diagnosis(w http.ResponseWriter, r *http.Request) {
	symptom := r.URL.Query().Get("symptom")
	if symptom == "" {
		http.Error(w, "missing symptom parameter", http.StatusBadRequest)
		return
	}

	d, ok := Diagnose(symptom)
	if !ok {
		http.Error(w, "unknown symptom", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
}
