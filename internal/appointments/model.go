package appointments

import (
	"time"
)

// Status is the lifecycle state of an appointment record.
type Status string

const (
	StatusBooked    Status = "Booked"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Layouts for the calendar date and clock time strings stored on records
// and slots ("5 August 2026", "10:00 AM").
const (
	DateLayout = "2 January 2006"
	TimeLayout = "3:04 PM"
)

// Date pairs the calendar date string with the weekday name shown alongside
// it. The weekday recomputed from Date is authoritative when the two disagree.
type Date struct {
	Date string `json:"date"`
	Day  string `json:"day"`
}

// NewDate builds a Date for the given moment.
func NewDate(t time.Time) Date {
	return Date{
		Date: t.Format(DateLayout),
		Day:  t.Weekday().String(),
	}
}

// Record is one logical appointment. It is stored denormalized: one copy
// under the patient document and one under the doctor document, correlated
// by AppointmentID. The snapshot fields describe the counterparty as it
// looked at booking time and are never refreshed; each copy fills only its
// own side's snapshot.
type Record struct {
	AppointmentID     string `json:"appointmentId"`
	DoctorID          string `json:"doctorId"`
	PatientID         string `json:"patientId"`
	AppointmentDate   Date   `json:"appointmentDate"`
	AppointmentTime   string `json:"appointmentTime"`
	AppointmentStatus Status `json:"appointmentStatus"`

	// Doctor snapshot, present on the patient-side copy.
	DoctorName       string `json:"doctorName,omitempty"`
	DoctorProfile    string `json:"doctorProfile,omitempty"`
	DoctorSpeciality string `json:"doctorSpeciality,omitempty"`
	DoctorExperience string `json:"doctorExperience,omitempty"`
	DoctorDegree     string `json:"doctorDegree,omitempty"`
	HospitalName     string `json:"hospitalName,omitempty"`

	// Patient snapshot, present on the doctor-side copy.
	PatientName       string `json:"patientName,omitempty"`
	PatientProfile    string `json:"patientProfile,omitempty"`
	PatientHeight     string `json:"patientHeight,omitempty"`
	PatientWeight     string `json:"patientWeight,omitempty"`
	PatientBloodGroup string `json:"patientBloodGroup,omitempty"`
	City              string `json:"city,omitempty"`
	State             string `json:"state,omitempty"`
	CurrentAddress    string `json:"currentAddress,omitempty"`

	// Counterparty contact snapshot, present on both copies.
	ContactNumber string `json:"contactNumber,omitempty"`
	Email         string `json:"email,omitempty"`
}

// ParseDate parses a calendar date string like "5 August 2026".
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, time.Local)
}

// WeekdayOf returns the weekday name computed from the calendar date,
// ignoring any stored day label.
func WeekdayOf(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}

// SlotMoment combines a calendar date and a slot time into one moment,
// for comparing a slot against wall-clock now.
func SlotMoment(date, slotTime string) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+slotTime, time.Local)
}
