package booking

import (
	"context"

	"github.com/docspot/docspot-api/internal/doctors"
	"github.com/docspot/docspot-api/internal/patients"
)

// TransitionStore applies a mutation to a doctor and a patient document as a
// single atomic unit. The callback sees the current state of both documents
// and may modify them in place; the store persists both or neither.
type TransitionStore interface {
	Transition(ctx context.Context, doctorID, patientID string, fn func(*doctors.Doctor, *patients.Patient) error) error
}
