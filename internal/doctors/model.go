package doctors

import (
	"strings"

	"github.com/docspot/docspot-api/internal/appointments"
)

// SlotStatus marks whether a calendar slot can be booked.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotBooked    SlotStatus = "Booked"
)

// Slot is one bookable time unit on one weekday of a doctor's calendar.
type Slot struct {
	Time   string     `json:"time"`
	Status SlotStatus `json:"status"`
}

// AvailabilityMode selects how the weekly calendar was populated.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// Availability is the per-doctor weekly slot calendar: weekday name
// ("Monday" .. "Sunday") to an ordered slot list.
type Availability struct {
	Mode          string            `json:"mode"`
	AvailableDays map[string][]Slot `json:"availableDays"`
}

// Doctor is the full doctor document, stored and replaced as a unit.
// Appointments holds the doctor-side denormalized copies.
type Doctor struct {
	ID                string                `json:"id"`
	DoctorName        string                `json:"doctorName"`
	DOB               string                `json:"dob,omitempty"`
	Gender            string                `json:"gender,omitempty"`
	ContactNumber     string                `json:"contactNumber,omitempty"`
	Email             string                `json:"email,omitempty"`
	City              string                `json:"city,omitempty"`
	State             string                `json:"state,omitempty"`
	ZipCode           string                `json:"zipCode,omitempty"`
	CurrentAddress    string                `json:"currentAddress,omitempty"`
	PermanentAddress  string                `json:"permanentAddress,omitempty"`
	Username          string                `json:"username,omitempty"`
	Password          string                `json:"password,omitempty"`
	SelectedImage     string                `json:"selectedImage,omitempty"`
	Specialization    string                `json:"specialization,omitempty"`
	Experience        string                `json:"experience,omitempty"`
	LicenseNo         string                `json:"licenseNo,omitempty"`
	ConsultationFees  string                `json:"consultationFees,omitempty"`
	Degree            string                `json:"degree,omitempty"`
	HospitalName      string                `json:"hospitalName,omitempty"`
	IsAvailableStatus bool                  `json:"isAvailableStatus"`
	TotalPatient      int                   `json:"totalPatient"`
	Availability      *Availability         `json:"availability,omitempty"`
	Appointments      []appointments.Record `json:"appointments,omitempty"`
}

// Validate checks the fields required to create a doctor document.
func (d *Doctor) Validate() error {
	if strings.TrimSpace(d.DoctorName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(d.Email) == "" && strings.TrimSpace(d.Username) == "" {
		return ErrMissingLoginIdentity
	}
	return nil
}

// FindAppointment returns the doctor-side record with the given id, or nil.
func (d *Doctor) FindAppointment(appointmentID string) *appointments.Record {
	for i := range d.Appointments {
		if d.Appointments[i].AppointmentID == appointmentID {
			return &d.Appointments[i]
		}
	}
	return nil
}

// FindSlot returns the slot for (weekday, time), or nil when the weekday
// bucket or the time is missing from the calendar.
func (d *Doctor) FindSlot(weekday, slotTime string) *Slot {
	if d.Availability == nil {
		return nil
	}
	day, ok := d.Availability.AvailableDays[weekday]
	if !ok {
		return nil
	}
	for i := range day {
		if day[i].Time == slotTime {
			return &day[i]
		}
	}
	return nil
}
