package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docspot/docspot-api/internal/appointments"
	"github.com/docspot/docspot-api/internal/doctors"
	"github.com/docspot/docspot-api/internal/observability/metrics"
	"github.com/docspot/docspot-api/internal/patients"
	"github.com/docspot/docspot-api/internal/session"
)

type recordingNotifier struct {
	mu        sync.Mutex
	booked    []appointments.Record
	cancelled []appointments.Record
	completed []appointments.Record
}

func (n *recordingNotifier) AppointmentBooked(_ context.Context, _, _ string, rec appointments.Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, rec)
}

func (n *recordingNotifier) AppointmentCancelled(_ context.Context, _, _ string, rec appointments.Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, rec)
}

func (n *recordingNotifier) AppointmentCompleted(_ context.Context, _, _ string, rec appointments.Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, rec)
}

type fixture struct {
	svc      *Service
	doctors  *doctors.InMemoryRepository
	patients *patients.InMemoryRepository
	notifier *recordingNotifier
	doctor   *doctors.Doctor
	patient  *patients.Patient
}

// Tuesday, 1 September 2026, 09:00 local.
var testNow = time.Date(2026, time.September, 1, 9, 0, 0, 0, time.Local)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docRepo := doctors.NewInMemoryRepository()
	patRepo := patients.NewInMemoryRepository()

	doc, err := docRepo.Create(context.Background(), &doctors.Doctor{
		DoctorName:     "Dr. Asha Rao",
		Email:          "asha@example.com",
		Specialization: "Cardiologist",
		Experience:     "12 years",
		Degree:         "MD",
		HospitalName:   "City Hospital",
		Availability:   doctors.AutoAvailability(),
	})
	if err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	pat, err := patRepo.Create(context.Background(), &patients.Patient{
		FirstName: "Ravi",
		LastName:  "Kumar",
		Email:     "ravi@example.com",
		Username:  "ravi",
		Password:  "secret",
		Height:    "175",
		Weight:    "70",
	})
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	notifier := &recordingNotifier{}
	svc := NewService(
		NewMemoryTransitionStore(docRepo, patRepo),
		docRepo, patRepo,
		notifier,
		metrics.NewBookingMetrics(prometheus.NewRegistry()),
		nil,
	)
	svc.now = func() time.Time { return testNow }
	return &fixture{svc: svc, doctors: docRepo, patients: patRepo, notifier: notifier, doctor: doc, patient: pat}
}

func (f *fixture) book(t *testing.T, date, slotTime string) appointments.Record {
	t.Helper()
	rec, err := f.svc.Book(context.Background(), BookRequest{
		DoctorID:        f.doctor.ID,
		PatientID:       f.patient.ID,
		AppointmentDate: date,
		AppointmentTime: slotTime,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	return rec
}

func patientSession(f *fixture) session.Session {
	return session.Session{UserID: f.patient.ID, Role: session.RolePatient}
}

func doctorSession(f *fixture) session.Session {
	return session.Session{UserID: f.doctor.ID, Role: session.RoleDoctor}
}

func TestBookMirrorsRecordAndReservesSlot(t *testing.T) {
	f := newFixture(t)

	rec := f.book(t, "7 September 2026", "10:00 AM")
	if rec.AppointmentID == "" {
		t.Fatal("expected an appointment id")
	}
	if rec.AppointmentStatus != appointments.StatusBooked {
		t.Errorf("status = %q, want Booked", rec.AppointmentStatus)
	}
	if rec.DoctorName != "Dr. Asha Rao" || rec.DoctorSpeciality != "Cardiologist" {
		t.Errorf("missing doctor snapshot on patient copy: %+v", rec)
	}
	if rec.AppointmentDate.Day != "Monday" {
		t.Errorf("day = %q, want Monday", rec.AppointmentDate.Day)
	}

	doc, _, err := f.doctors.Get(context.Background(), f.doctor.ID)
	if err != nil {
		t.Fatalf("Get doctor: %v", err)
	}
	docRec := doc.FindAppointment(rec.AppointmentID)
	if docRec == nil {
		t.Fatal("doctor copy missing")
	}
	if docRec.PatientName != "Ravi Kumar" {
		t.Errorf("doctor copy patient name = %q", docRec.PatientName)
	}
	if docRec.DoctorID != doc.ID || docRec.PatientID != f.patient.ID {
		t.Errorf("doctor copy ids = %q/%q", docRec.DoctorID, docRec.PatientID)
	}
	slot := doc.FindSlot("Monday", "10:00 AM")
	if slot == nil || slot.Status != doctors.SlotBooked {
		t.Errorf("slot after booking = %+v, want Booked", slot)
	}

	pat, _, err := f.patients.Get(context.Background(), f.patient.ID)
	if err != nil {
		t.Fatalf("Get patient: %v", err)
	}
	if pat.FindAppointment(rec.AppointmentID) == nil {
		t.Fatal("patient copy missing")
	}
	if len(f.notifier.booked) != 1 {
		t.Errorf("booked notifications = %d, want 1", len(f.notifier.booked))
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		date    string
		time    string
		wantErr error
	}{
		{"missing time", "7 September 2026", "", ErrTimeRequired},
		{"bad date", "2026-09-07", "10:00 AM", ErrInvalidDate},
		{"elapsed slot", "1 September 2026", "9:00 AM", ErrSlotElapsed},
		{"time not in calendar", "7 September 2026", "4:00 PM", ErrSlotUnavailable},
		{"weekday not in calendar", "6 September 2026", "10:00 AM", ErrSlotUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Book(context.Background(), BookRequest{
				DoctorID:        f.doctor.ID,
				PatientID:       f.patient.ID,
				AppointmentDate: tc.date,
				AppointmentTime: tc.time,
			})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Book = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestBookSameSlotTwice(t *testing.T) {
	f := newFixture(t)
	f.book(t, "7 September 2026", "10:00 AM")

	_, err := f.svc.Book(context.Background(), BookRequest{
		DoctorID:        f.doctor.ID,
		PatientID:       f.patient.ID,
		AppointmentDate: "7 September 2026",
		AppointmentTime: "10:00 AM",
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("second Book = %v, want ErrSlotUnavailable", err)
	}
}

func TestBookConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	// A second patient racing for the same slot.
	other, err := f.patients.Create(context.Background(), &patients.Patient{
		FirstName: "Meena",
		LastName:  "Iyer",
		Username:  "meena",
		Password:  "secret",
	})
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, patientID := range []string{f.patient.ID, other.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), BookRequest{
				DoctorID:        f.doctor.ID,
				PatientID:       id,
				AppointmentDate: "7 September 2026",
				AppointmentTime: "11:00 AM",
			})
			results <- err
		}(patientID)
	}
	wg.Wait()
	close(results)

	var ok, conflict int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSlotUnavailable):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("got %d successes and %d conflicts, want exactly one of each", ok, conflict)
	}

	doc, _, err := f.doctors.Get(context.Background(), f.doctor.ID)
	if err != nil {
		t.Fatalf("Get doctor: %v", err)
	}
	if len(doc.Appointments) != 1 {
		t.Errorf("doctor has %d records, want 1", len(doc.Appointments))
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	f := newFixture(t)
	rec := f.book(t, "7 September 2026", "10:00 AM")

	cancelled, err := f.svc.Cancel(context.Background(), patientSession(f), rec.AppointmentID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.AppointmentStatus != appointments.StatusCancelled {
		t.Errorf("status = %q, want Cancelled", cancelled.AppointmentStatus)
	}

	doc, _, _ := f.doctors.Get(context.Background(), f.doctor.ID)
	if got := doc.FindAppointment(rec.AppointmentID).AppointmentStatus; got != appointments.StatusCancelled {
		t.Errorf("doctor copy status = %q, want Cancelled", got)
	}
	slot := doc.FindSlot("Monday", "10:00 AM")
	if slot == nil || slot.Status != doctors.SlotAvailable {
		t.Errorf("slot after cancel = %+v, want Available", slot)
	}
	if len(f.notifier.cancelled) != 1 {
		t.Errorf("cancelled notifications = %d, want 1", len(f.notifier.cancelled))
	}

	// And the slot is bookable again.
	f.book(t, "7 September 2026", "10:00 AM")
}

func TestCancelRecomputesWeekdayFromDate(t *testing.T) {
	f := newFixture(t)
	rec := f.book(t, "7 September 2026", "10:00 AM")

	// Corrupt the stored day label on the doctor copy. Cancel must still
	// free the Monday slot because the weekday comes from the date.
	doc, version, _ := f.doctors.Get(context.Background(), f.doctor.ID)
	doc.FindAppointment(rec.AppointmentID).AppointmentDate.Day = "Friday"
	if _, err := f.doctors.Replace(context.Background(), doc, version); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), patientSession(f), rec.AppointmentID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	doc, _, _ = f.doctors.Get(context.Background(), f.doctor.ID)
	if slot := doc.FindSlot("Monday", "10:00 AM"); slot == nil || slot.Status != doctors.SlotAvailable {
		t.Errorf("Monday slot = %+v, want Available", slot)
	}
}

func TestCancelNonBooked(t *testing.T) {
	f := newFixture(t)
	rec := f.book(t, "7 September 2026", "10:00 AM")

	if _, err := f.svc.Cancel(context.Background(), patientSession(f), rec.AppointmentID); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), patientSession(f), rec.AppointmentID); !errors.Is(err, ErrNotBooked) {
		t.Fatalf("second Cancel = %v, want ErrNotBooked", err)
	}
	if _, err := f.svc.Cancel(context.Background(), patientSession(f), "no-such-id"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("Cancel unknown id = %v, want ErrAppointmentNotFound", err)
	}
}

func TestCompleteIncrementsCounterOnce(t *testing.T) {
	f := newFixture(t)
	rec := f.book(t, "7 September 2026", "10:00 AM")

	completed, err := f.svc.Complete(context.Background(), doctorSession(f), rec.AppointmentID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.AppointmentStatus != appointments.StatusCompleted {
		t.Errorf("status = %q, want Completed", completed.AppointmentStatus)
	}

	doc, _, _ := f.doctors.Get(context.Background(), f.doctor.ID)
	if doc.TotalPatient != 1 {
		t.Fatalf("totalPatient = %d, want 1", doc.TotalPatient)
	}
	if slot := doc.FindSlot("Monday", "10:00 AM"); slot == nil || slot.Status != doctors.SlotAvailable {
		t.Errorf("slot after complete = %+v, want Available", slot)
	}
	pat, _, _ := f.patients.Get(context.Background(), f.patient.ID)
	if got := pat.FindAppointment(rec.AppointmentID).AppointmentStatus; got != appointments.StatusCompleted {
		t.Errorf("patient copy status = %q, want Completed", got)
	}

	if _, err := f.svc.Complete(context.Background(), doctorSession(f), rec.AppointmentID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("second Complete = %v, want ErrAlreadyCompleted", err)
	}
	doc, _, _ = f.doctors.Get(context.Background(), f.doctor.ID)
	if doc.TotalPatient != 1 {
		t.Fatalf("totalPatient after repeat = %d, want 1", doc.TotalPatient)
	}
}

func TestCompleteCancelledAppointment(t *testing.T) {
	f := newFixture(t)
	rec := f.book(t, "7 September 2026", "10:00 AM")

	if _, err := f.svc.Cancel(context.Background(), patientSession(f), rec.AppointmentID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.svc.Complete(context.Background(), doctorSession(f), rec.AppointmentID); !errors.Is(err, ErrNotBooked) {
		t.Fatalf("Complete cancelled = %v, want ErrNotBooked", err)
	}
}

func TestListForUserAndOverview(t *testing.T) {
	f := newFixture(t)
	rec := f.book(t, "7 September 2026", "10:00 AM")

	mine, err := f.svc.ListForUser(context.Background(), patientSession(f))
	if err != nil {
		t.Fatalf("ListForUser patient: %v", err)
	}
	if len(mine) != 1 || mine[0].AppointmentID != rec.AppointmentID {
		t.Errorf("patient list = %+v", mine)
	}
	if mine[0].DoctorName == "" {
		t.Error("patient copy missing doctor snapshot")
	}

	theirs, err := f.svc.ListForUser(context.Background(), doctorSession(f))
	if err != nil {
		t.Fatalf("ListForUser doctor: %v", err)
	}
	if len(theirs) != 1 || theirs[0].PatientName == "" {
		t.Errorf("doctor list = %+v", theirs)
	}

	all, err := f.svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("overview = %d records, want 1", len(all))
	}

	// Admin can cancel by id without owning either document.
	adminSess := session.Session{UserID: "admin", Role: session.RoleAdmin}
	if _, err := f.svc.Cancel(context.Background(), adminSess, rec.AppointmentID); err != nil {
		t.Fatalf("admin Cancel: %v", err)
	}
}
