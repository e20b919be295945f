package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/docspot/docspot-api/internal/doctors"
	"github.com/docspot/docspot-api/internal/patients"
)

// MemoryTransitionStore serializes transitions over in-memory repositories.
// A single mutex makes every transition a single-writer commit point, which
// is what closes the check-then-write race between concurrent bookings.
type MemoryTransitionStore struct {
	mu       sync.Mutex
	doctors  doctors.Repository
	patients patients.Repository
}

func NewMemoryTransitionStore(docRepo doctors.Repository, patRepo patients.Repository) *MemoryTransitionStore {
	return &MemoryTransitionStore{doctors: docRepo, patients: patRepo}
}

func (s *MemoryTransitionStore) Transition(ctx context.Context, doctorID, patientID string, fn func(*doctors.Doctor, *patients.Patient) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, docVersion, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("load doctor: %w", err)
	}
	pat, patVersion, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return fmt.Errorf("load patient: %w", err)
	}

	// Work on copies so a failed callback leaves the store untouched.
	docCopy, err := cloneJSON(doc)
	if err != nil {
		return err
	}
	patCopy, err := cloneJSON(pat)
	if err != nil {
		return err
	}

	if err := fn(docCopy, patCopy); err != nil {
		return err
	}

	if _, err := s.doctors.Replace(ctx, docCopy, docVersion); err != nil {
		return fmt.Errorf("store doctor: %w", err)
	}
	if _, err := s.patients.Replace(ctx, patCopy, patVersion); err != nil {
		return fmt.Errorf("store patient: %w", err)
	}
	return nil
}

func cloneJSON[T any](v *T) (*T, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	return out, nil
}
