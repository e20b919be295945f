package booking

import "errors"

var (
	// ErrTimeRequired is returned when booking without a selected time slot
	ErrTimeRequired = errors.New("please select a time slot before booking")

	// ErrInvalidDate is returned when the appointment date does not parse
	ErrInvalidDate = errors.New("appointment date must look like \"7 September 2026\"")

	// ErrSlotUnavailable is returned when the requested slot is missing or already booked
	ErrSlotUnavailable = errors.New("slot is no longer available")

	// ErrSlotElapsed is returned when the requested slot time has already passed
	ErrSlotElapsed = errors.New("slot time has already passed")

	// ErrAppointmentNotFound is returned when no record matches the appointment id
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrNotBooked is returned when cancelling or completing a non-Booked appointment
	ErrNotBooked = errors.New("appointment is not in Booked state")

	// ErrAlreadyCompleted is returned when completing an appointment twice
	ErrAlreadyCompleted = errors.New("appointment is already completed")
)
