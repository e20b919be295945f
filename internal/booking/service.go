package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docspot/docspot-api/internal/appointments"
	"github.com/docspot/docspot-api/internal/doctors"
	"github.com/docspot/docspot-api/internal/observability/metrics"
	"github.com/docspot/docspot-api/internal/patients"
	"github.com/docspot/docspot-api/internal/session"
	"github.com/docspot/docspot-api/pkg/logging"
)

// Notifier receives appointment lifecycle events. notify.Service implements it.
type Notifier interface {
	AppointmentBooked(ctx context.Context, patientEmail, patientName string, rec appointments.Record)
	AppointmentCancelled(ctx context.Context, patientEmail, patientName string, rec appointments.Record)
	AppointmentCompleted(ctx context.Context, patientEmail, patientName string, rec appointments.Record)
}

// Service coordinates appointment state transitions. Every transition that
// touches both a doctor and a patient document goes through the
// TransitionStore so the two copies and the slot calendar move together.
type Service struct {
	store    TransitionStore
	doctors  doctors.Repository
	patients patients.Repository
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewService(store TransitionStore, docRepo doctors.Repository, patRepo patients.Repository, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		doctors:  docRepo,
		patients: patRepo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// BookRequest carries the slot the patient picked.
type BookRequest struct {
	DoctorID        string `json:"doctorId"`
	PatientID       string `json:"patientId"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
}

// Book reserves the requested slot and writes mirrored appointment records
// to both documents. The slot check happens inside the transition, so two
// concurrent bookings of the same slot resolve to exactly one winner.
func (s *Service) Book(ctx context.Context, req BookRequest) (appointments.Record, error) {
	if strings.TrimSpace(req.AppointmentTime) == "" {
		return appointments.Record{}, ErrTimeRequired
	}
	when, err := appointments.ParseDate(req.AppointmentDate)
	if err != nil {
		return appointments.Record{}, ErrInvalidDate
	}
	weekday := when.Weekday().String()
	moment, err := appointments.SlotMoment(req.AppointmentDate, req.AppointmentTime)
	if err != nil {
		return appointments.Record{}, ErrSlotUnavailable
	}
	if !moment.After(s.now()) {
		return appointments.Record{}, ErrSlotElapsed
	}

	var (
		patientRec   appointments.Record
		patientEmail string
		patientName  string
	)
	err = s.store.Transition(ctx, req.DoctorID, req.PatientID, func(doc *doctors.Doctor, pat *patients.Patient) error {
		slot := doc.FindSlot(weekday, req.AppointmentTime)
		if slot == nil {
			return ErrSlotUnavailable
		}
		if slot.Status != doctors.SlotAvailable {
			s.metrics.ObserveSlotConflict()
			return ErrSlotUnavailable
		}
		slot.Status = doctors.SlotBooked

		date := appointments.Date{Date: req.AppointmentDate, Day: weekday}
		base := appointments.Record{
			AppointmentID:     uuid.NewString(),
			DoctorID:          doc.ID,
			PatientID:         pat.ID,
			AppointmentDate:   date,
			AppointmentTime:   req.AppointmentTime,
			AppointmentStatus: appointments.StatusBooked,
		}

		doctorRec := base
		doctorRec.PatientName = pat.FullName()
		doctorRec.PatientProfile = pat.SelectedImage
		doctorRec.PatientHeight = pat.Height
		doctorRec.PatientWeight = pat.Weight
		doctorRec.PatientBloodGroup = pat.BloodGroup
		doctorRec.City = pat.City
		doctorRec.State = pat.State
		doctorRec.CurrentAddress = pat.CurrentAddress
		doctorRec.ContactNumber = pat.ContactNumber
		doctorRec.Email = pat.Email
		doc.Appointments = append(doc.Appointments, doctorRec)

		patientRec = base
		patientRec.DoctorName = doc.DoctorName
		patientRec.DoctorProfile = doc.SelectedImage
		patientRec.DoctorSpeciality = doc.Specialization
		patientRec.DoctorExperience = doc.Experience
		patientRec.DoctorDegree = doc.Degree
		patientRec.HospitalName = doc.HospitalName
		patientRec.ContactNumber = doc.ContactNumber
		patientRec.Email = doc.Email
		pat.Appointments = append(pat.Appointments, patientRec)

		patientEmail = pat.Email
		patientName = pat.FullName()
		return nil
	})
	if err != nil {
		s.metrics.ObserveTransition("book", "error")
		return appointments.Record{}, err
	}
	s.metrics.ObserveTransition("book", "ok")
	s.logger.Info("appointment booked",
		"appointment_id", patientRec.AppointmentID,
		"doctor_id", req.DoctorID,
		"patient_id", req.PatientID,
		"date", req.AppointmentDate,
		"time", req.AppointmentTime)
	if s.notifier != nil {
		s.notifier.AppointmentBooked(ctx, patientEmail, patientName, patientRec)
	}
	return patientRec, nil
}

// Cancel marks both copies Cancelled and releases the calendar slot. The
// weekday for the slot lookup is recomputed from the stored date, not read
// from the stored day label.
func (s *Service) Cancel(ctx context.Context, sess session.Session, appointmentID string) (appointments.Record, error) {
	doctorID, patientID, err := s.locate(ctx, sess, appointmentID)
	if err != nil {
		return appointments.Record{}, err
	}

	var (
		result       appointments.Record
		patientEmail string
		patientName  string
	)
	err = s.store.Transition(ctx, doctorID, patientID, func(doc *doctors.Doctor, pat *patients.Patient) error {
		docRec := doc.FindAppointment(appointmentID)
		if docRec == nil {
			return ErrAppointmentNotFound
		}
		if docRec.AppointmentStatus != appointments.StatusBooked {
			return ErrNotBooked
		}
		docRec.AppointmentStatus = appointments.StatusCancelled
		if patRec := pat.FindAppointment(appointmentID); patRec != nil {
			patRec.AppointmentStatus = appointments.StatusCancelled
			result = *patRec
		} else {
			result = *docRec
		}

		weekday, wdErr := appointments.WeekdayOf(docRec.AppointmentDate.Date)
		if wdErr != nil {
			weekday = docRec.AppointmentDate.Day
		}
		if slot := doc.FindSlot(weekday, docRec.AppointmentTime); slot != nil && slot.Status == doctors.SlotBooked {
			slot.Status = doctors.SlotAvailable
		}

		patientEmail = pat.Email
		patientName = pat.FullName()
		return nil
	})
	if err != nil {
		s.metrics.ObserveTransition("cancel", "error")
		return appointments.Record{}, err
	}
	s.metrics.ObserveTransition("cancel", "ok")
	s.logger.Info("appointment cancelled", "appointment_id", appointmentID, "doctor_id", doctorID, "patient_id", patientID)
	if s.notifier != nil {
		s.notifier.AppointmentCancelled(ctx, patientEmail, patientName, result)
	}
	return result, nil
}

// Complete marks both copies Completed, frees the slot, and increments the
// doctor's patient counter. Completing an already completed appointment fails
// without a second increment.
func (s *Service) Complete(ctx context.Context, sess session.Session, appointmentID string) (appointments.Record, error) {
	doctorID, patientID, err := s.locate(ctx, sess, appointmentID)
	if err != nil {
		return appointments.Record{}, err
	}

	var (
		result       appointments.Record
		notifyRec    appointments.Record
		patientEmail string
		patientName  string
	)
	err = s.store.Transition(ctx, doctorID, patientID, func(doc *doctors.Doctor, pat *patients.Patient) error {
		docRec := doc.FindAppointment(appointmentID)
		if docRec == nil {
			return ErrAppointmentNotFound
		}
		if docRec.AppointmentStatus == appointments.StatusCompleted {
			return ErrAlreadyCompleted
		}
		if docRec.AppointmentStatus != appointments.StatusBooked {
			return ErrNotBooked
		}
		docRec.AppointmentStatus = appointments.StatusCompleted
		result = *docRec
		notifyRec = result
		if patRec := pat.FindAppointment(appointmentID); patRec != nil {
			patRec.AppointmentStatus = appointments.StatusCompleted
			// The patient-side copy carries the doctor snapshot the email needs.
			notifyRec = *patRec
		}
		doc.TotalPatient++

		weekday, wdErr := appointments.WeekdayOf(docRec.AppointmentDate.Date)
		if wdErr != nil {
			weekday = docRec.AppointmentDate.Day
		}
		if slot := doc.FindSlot(weekday, docRec.AppointmentTime); slot != nil && slot.Status == doctors.SlotBooked {
			slot.Status = doctors.SlotAvailable
		}

		patientEmail = pat.Email
		patientName = pat.FullName()
		return nil
	})
	if err != nil {
		s.metrics.ObserveTransition("complete", "error")
		return appointments.Record{}, err
	}
	s.metrics.ObserveTransition("complete", "ok")
	s.logger.Info("appointment completed", "appointment_id", appointmentID, "doctor_id", doctorID, "patient_id", patientID)
	if s.notifier != nil {
		s.notifier.AppointmentCompleted(ctx, patientEmail, patientName, notifyRec)
	}
	return result, nil
}

// ListForUser returns the caller's own copies of their appointment records.
func (s *Service) ListForUser(ctx context.Context, sess session.Session) ([]appointments.Record, error) {
	switch sess.Role {
	case session.RoleDoctor:
		doc, _, err := s.doctors.Get(ctx, sess.UserID)
		if err != nil {
			return nil, err
		}
		return doc.Appointments, nil
	default:
		pat, _, err := s.patients.Get(ctx, sess.UserID)
		if err != nil {
			return nil, err
		}
		return pat.Appointments, nil
	}
}

// Overview returns the doctor-side records across all doctors, for the
// admin dashboard.
func (s *Service) Overview(ctx context.Context) ([]appointments.Record, error) {
	docs, err := s.doctors.List(ctx, doctors.ListFilter{})
	if err != nil {
		return nil, err
	}
	var all []appointments.Record
	for _, doc := range docs {
		all = append(all, doc.Appointments...)
	}
	return all, nil
}

// locate resolves an appointment id to the (doctorID, patientID) pair whose
// documents hold its copies, scoped to what the session is allowed to see.
func (s *Service) locate(ctx context.Context, sess session.Session, appointmentID string) (string, string, error) {
	switch sess.Role {
	case session.RoleDoctor:
		doc, _, err := s.doctors.Get(ctx, sess.UserID)
		if err != nil {
			return "", "", err
		}
		rec := doc.FindAppointment(appointmentID)
		if rec == nil {
			return "", "", ErrAppointmentNotFound
		}
		return doc.ID, rec.PatientID, nil
	case session.RoleAdmin:
		docs, err := s.doctors.List(ctx, doctors.ListFilter{})
		if err != nil {
			return "", "", err
		}
		for _, doc := range docs {
			if rec := doc.FindAppointment(appointmentID); rec != nil {
				return doc.ID, rec.PatientID, nil
			}
		}
		return "", "", ErrAppointmentNotFound
	default:
		pat, _, err := s.patients.Get(ctx, sess.UserID)
		if err != nil {
			return "", "", err
		}
		rec := pat.FindAppointment(appointmentID)
		if rec == nil {
			return "", "", ErrAppointmentNotFound
		}
		return rec.DoctorID, pat.ID, nil
	}
}
