package notify

import (
	"context"
	"fmt"

	"github.com/docspot/docspot-api/internal/appointments"
	"github.com/docspot/docspot-api/pkg/logging"
)

// Service sends appointment confirmations to patients. Failures are logged
// and never propagate: a transition must not fail because email did.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// AppointmentBooked confirms a fresh booking to the patient.
func (s *Service) AppointmentBooked(ctx context.Context, patientEmail, patientName string, rec appointments.Record) {
	s.send(ctx, patientEmail, patientName,
		"Your appointment is booked",
		fmt.Sprintf("Your appointment with Dr. %s on %s at %s is confirmed.",
			rec.DoctorName, rec.AppointmentDate.Date, rec.AppointmentTime))
}

// AppointmentCancelled confirms a cancellation to the patient.
func (s *Service) AppointmentCancelled(ctx context.Context, patientEmail, patientName string, rec appointments.Record) {
	s.send(ctx, patientEmail, patientName,
		"Your appointment was cancelled",
		fmt.Sprintf("Your appointment with Dr. %s on %s at %s has been cancelled.",
			rec.DoctorName, rec.AppointmentDate.Date, rec.AppointmentTime))
}

// AppointmentCompleted thanks the patient after a completed consultation.
func (s *Service) AppointmentCompleted(ctx context.Context, patientEmail, patientName string, rec appointments.Record) {
	s.send(ctx, patientEmail, patientName,
		"Thanks for your visit",
		fmt.Sprintf("Your consultation with Dr. %s on %s is complete.",
			rec.DoctorName, rec.AppointmentDate.Date))
}

func (s *Service) send(ctx context.Context, to, toName, subject, body string) {
	if s == nil || s.email == nil || to == "" {
		return
	}
	msg := EmailMessage{To: to, ToName: toName, Subject: subject, Body: body}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notification send failed", "error", err, "to", to, "subject", subject)
	}
}
