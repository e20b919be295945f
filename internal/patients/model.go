package patients

import (
	"strings"

	"github.com/docspot/docspot-api/internal/appointments"
)

// Patient is the full patient document, stored and replaced as a unit.
// Appointments holds the patient-side denormalized copies.
type Patient struct {
	ID                   string                `json:"id"`
	FirstName            string                `json:"firstName"`
	LastName             string                `json:"lastName"`
	DOB                  string                `json:"dob,omitempty"`
	Gender               string                `json:"gender,omitempty"`
	ContactNumber        string                `json:"contactNumber,omitempty"`
	Email                string                `json:"email,omitempty"`
	City                 string                `json:"city,omitempty"`
	State                string                `json:"state,omitempty"`
	ZipCode              string                `json:"zipCode,omitempty"`
	EmergencyContact     string                `json:"emergencyContact,omitempty"`
	CurrentAddress       string                `json:"currentAddress,omitempty"`
	PermanentAddress     string                `json:"permanentAddress,omitempty"`
	IsPermanentSame      bool                  `json:"isPermanentSame,omitempty"`
	Weight               string                `json:"weight,omitempty"`
	Height               string                `json:"height,omitempty"`
	Allergies            string                `json:"allergies,omitempty"`
	AllergiesDescription string                `json:"allergiesDescription,omitempty"`
	BloodGroup           string                `json:"bloodGroup,omitempty"`
	Username             string                `json:"username,omitempty"`
	Password             string                `json:"password,omitempty"`
	AgreeToTerms         bool                  `json:"agreeToTerms,omitempty"`
	SelectedImage        string                `json:"selectedImage,omitempty"`
	IsAvailableStatus    bool                  `json:"isAvailableStatus"`
	Appointments         []appointments.Record `json:"appointments,omitempty"`
}

// FullName joins the name parts the way appointment snapshots record them.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Validate checks the fields required to create a patient document.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(p.Username) == "" {
		return ErrMissingUsername
	}
	if strings.TrimSpace(p.Password) == "" {
		return ErrMissingPassword
	}
	return nil
}

// FindAppointment returns the patient-side record with the given id, or nil.
func (p *Patient) FindAppointment(appointmentID string) *appointments.Record {
	for i := range p.Appointments {
		if p.Appointments[i].AppointmentID == appointmentID {
			return &p.Appointments[i]
		}
	}
	return nil
}
