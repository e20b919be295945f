package patients

import "errors"

var (
	// ErrMissingName is returned when the first name is empty
	ErrMissingName = errors.New("first name is required")

	// ErrMissingUsername is returned when the login username is empty
	ErrMissingUsername = errors.New("username is required")

	// ErrMissingPassword is returned when the password is empty
	ErrMissingPassword = errors.New("password is required")

	// ErrNotFound is returned when a patient document does not exist
	ErrNotFound = errors.New("patient not found")

	// ErrVersionConflict is returned when a replace carries a stale version stamp
	ErrVersionConflict = errors.New("patient document was modified concurrently")
)
