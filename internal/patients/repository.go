package patients

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Repository defines the interface for the patients document collection.
// Replace takes the version stamp the caller read; 0 skips the optimistic
// check and replaces unconditionally.
type Repository interface {
	Create(ctx context.Context, doc *Patient) (*Patient, error)
	Get(ctx context.Context, id string) (*Patient, int64, error)
	List(ctx context.Context) ([]*Patient, error)
	FindByUsername(ctx context.Context, username string) (*Patient, error)
	Replace(ctx context.Context, doc *Patient, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps the collection in process memory, for tests and
// for running without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	docs     map[string]*Patient
	versions map[string]int64
	order    []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		docs:     make(map[string]*Patient),
		versions: make(map[string]int64),
	}
}

func clonePatient(doc *Patient) *Patient {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	var out Patient
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}

// Create stores a new patient document, assigning an id when absent.
func (r *InMemoryRepository) Create(ctx context.Context, doc *Patient) (*Patient, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	stored := clonePatient(doc)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.mu.Lock()
	r.docs[stored.ID] = stored
	r.versions[stored.ID] = 1
	r.order = append(r.order, stored.ID)
	r.mu.Unlock()
	return clonePatient(stored), nil
}

// Get retrieves a patient document and its current version.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Patient, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, 0, ErrNotFound
	}
	return clonePatient(doc), r.versions[id], nil
}

// List returns every patient in insertion order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Patient, 0, len(r.order))
	for _, id := range r.order {
		if doc, ok := r.docs[id]; ok {
			out = append(out, clonePatient(doc))
		}
	}
	return out, nil
}

// FindByUsername returns the patient with the given login username. An empty
// username never matches.
func (r *InMemoryRepository) FindByUsername(ctx context.Context, username string) (*Patient, error) {
	if username == "" {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if doc, ok := r.docs[id]; ok && doc.Username == username {
			return clonePatient(doc), nil
		}
	}
	return nil, ErrNotFound
}

// Replace swaps in the full document. A non-zero expectedVersion must match
// the stored version or ErrVersionConflict is returned.
func (r *InMemoryRepository) Replace(ctx context.Context, doc *Patient, expectedVersion int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return 0, ErrNotFound
	}
	if expectedVersion != 0 && r.versions[doc.ID] != expectedVersion {
		return 0, ErrVersionConflict
	}
	r.docs[doc.ID] = clonePatient(doc)
	r.versions[doc.ID]++
	return r.versions[doc.ID], nil
}

// Delete removes the document.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	delete(r.versions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
