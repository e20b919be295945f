package doctors

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// ListFilter narrows doctor listings.
type ListFilter struct {
	Specialization string
	// AvailableOnly keeps doctors whose isAvailableStatus is true.
	AvailableOnly bool
}

// Repository defines the interface for the doctors document collection.
// Replace takes the version stamp the caller read; passing 0 skips the
// optimistic check and replaces unconditionally.
type Repository interface {
	Create(ctx context.Context, doc *Doctor) (*Doctor, error)
	Get(ctx context.Context, id string) (*Doctor, int64, error)
	List(ctx context.Context, filter ListFilter) ([]*Doctor, error)
	FindByUsername(ctx context.Context, username string) (*Doctor, error)
	Replace(ctx context.Context, doc *Doctor, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps the collection in process memory, for tests and
// for running without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	docs     map[string]*Doctor
	versions map[string]int64
	order    []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		docs:     make(map[string]*Doctor),
		versions: make(map[string]int64),
	}
}

func cloneDoctor(doc *Doctor) *Doctor {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	var out Doctor
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}

// Create stores a new doctor document, assigning an id when absent.
func (r *InMemoryRepository) Create(ctx context.Context, doc *Doctor) (*Doctor, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	stored := cloneDoctor(doc)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.mu.Lock()
	r.docs[stored.ID] = stored
	r.versions[stored.ID] = 1
	r.order = append(r.order, stored.ID)
	r.mu.Unlock()
	return cloneDoctor(stored), nil
}

// Get retrieves a doctor document and its current version.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Doctor, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, 0, ErrNotFound
	}
	return cloneDoctor(doc), r.versions[id], nil
}

// List returns matching doctors in insertion order.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Doctor, 0, len(r.order))
	for _, id := range r.order {
		doc, ok := r.docs[id]
		if !ok {
			continue
		}
		if filter.Specialization != "" && doc.Specialization != filter.Specialization {
			continue
		}
		if filter.AvailableOnly && !doc.IsAvailableStatus {
			continue
		}
		out = append(out, cloneDoctor(doc))
	}
	return out, nil
}

// FindByUsername returns the doctor with the given login username. An empty
// username never matches: doctors created without credentials have none.
func (r *InMemoryRepository) FindByUsername(ctx context.Context, username string) (*Doctor, error) {
	if username == "" {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if doc, ok := r.docs[id]; ok && doc.Username == username {
			return cloneDoctor(doc), nil
		}
	}
	return nil, ErrNotFound
}

// Replace swaps in the full document. A non-zero expectedVersion must match
// the stored version or ErrVersionConflict is returned.
func (r *InMemoryRepository) Replace(ctx context.Context, doc *Doctor, expectedVersion int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return 0, ErrNotFound
	}
	if expectedVersion != 0 && r.versions[doc.ID] != expectedVersion {
		return 0, ErrVersionConflict
	}
	r.docs[doc.ID] = cloneDoctor(doc)
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
