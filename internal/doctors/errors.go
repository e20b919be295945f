package doctors

import "errors"

var (
	// ErrMissingName is returned when the doctor name is empty
	ErrMissingName = errors.New("doctor name is required")

	// ErrMissingLoginIdentity is returned when neither email nor username is set
	ErrMissingLoginIdentity = errors.New("either email or username is required")

	// ErrNotFound is returned when a doctor document does not exist
	ErrNotFound = errors.New("doctor not found")

	// ErrVersionConflict is returned when a replace carries a stale version stamp
	ErrVersionConflict = errors.New("doctor document was modified concurrently")

	// ErrUnknownWeekday is returned when availability names a day outside Sunday..Saturday
	ErrUnknownWeekday = errors.New("unknown weekday name")

	// ErrUnknownSlotTime is returned when availability names a time outside the slot catalog
	ErrUnknownSlotTime = errors.New("time is not in the slot catalog")

	// ErrEmptyAvailability is returned when a manual availability update selects nothing
	ErrEmptyAvailability = errors.New("select at least one weekday and one slot")
)
