package doctors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docspot/docspot-api/internal/appointments"
)

func newHandlerFixture(t *testing.T) (*chi.Mux, *InMemoryRepository, *Doctor) {
	t.Helper()
	repo := NewInMemoryRepository()
	doc, err := repo.Create(context.Background(), &Doctor{
		DoctorName:     "Dr. Asha Rao",
		Email:          "asha@example.com",
		Password:       "secret",
		Specialization: "Cardiologist",
		Availability:   AutoAvailability(),
	})
	if err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	h := NewHandler(repo, nil)
	h.now = func() time.Time {
		// Tuesday, 1 September 2026, 09:00 local.
		return time.Date(2026, time.September, 1, 9, 0, 0, 0, time.Local)
	}

	r := chi.NewRouter()
	r.Get("/doctors", h.List)
	r.Post("/doctors", h.Create)
	r.Get("/doctors/{doctorID}", h.Get)
	r.Put("/doctors/{doctorID}", h.Update)
	r.Delete("/doctors/{doctorID}", h.Delete)
	r.Patch("/doctors/{doctorID}/status", h.SetStatus)
	r.Put("/doctors/{doctorID}/availability", h.SetAvailability)
	r.Get("/doctors/{doctorID}/slots", h.Slots)
	return r, repo, doc
}

func TestListDoctorsFilters(t *testing.T) {
	router, repo, _ := newHandlerFixture(t)
	if _, err := repo.Create(context.Background(), &Doctor{
		DoctorName:        "Dr. Vikram Shah",
		Email:             "vikram@example.com",
		Specialization:    "Dermatologist",
		IsAvailableStatus: true,
	}); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"all", "", 2},
		{"by specialization", "?specialization=Dermatologist", 1},
		{"available only", "?available=true", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/doctors"+tc.query, nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			var resp struct {
				Doctors []*Doctor `json:"doctors"`
				Count   int       `json:"count"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Count != tc.want {
				t.Errorf("count = %d, want %d", resp.Count, tc.want)
			}
			for _, doc := range resp.Doctors {
				if doc.Password != "" {
					t.Error("password leaked in listing")
				}
			}
		})
	}
}

func TestGetDoctorSetsETag(t *testing.T) {
	router, _, doc := newHandlerFixture(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/doctors/"+doc.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("ETag"); got != `"1"` {
		t.Errorf("ETag = %q, want %q", got, `"1"`)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/doctors/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestUpdateDoctorPreservesServerFields(t *testing.T) {
	router, repo, doc := newHandlerFixture(t)

	// Simulate a booking between the client's read and its write.
	stored, version, _ := repo.Get(context.Background(), doc.ID)
	stored.TotalPatient = 4
	stored.FindSlot("Monday", "10:00 AM").Status = SlotBooked
	if _, err := repo.Replace(context.Background(), stored, version); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	body := `{"doctorName":"Dr. Asha Rao","email":"asha@example.com","totalPatient":0,"availability":null,"city":"Pune"}`
	req := httptest.NewRequest(http.MethodPut, "/doctors/"+doc.ID, strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	after, _, _ := repo.Get(context.Background(), doc.ID)
	if after.City != "Pune" {
		t.Errorf("city = %q, want Pune", after.City)
	}
	if after.TotalPatient != 4 {
		t.Errorf("totalPatient = %d, want 4 (server managed)", after.TotalPatient)
	}
	if slot := after.FindSlot("Monday", "10:00 AM"); slot == nil || slot.Status != SlotBooked {
		t.Errorf("booked slot lost in replace: %+v", slot)
	}
	if after.Password != "secret" {
		t.Errorf("password = %q, want preserved", after.Password)
	}
}

func TestUpdateDoctorIfMatch(t *testing.T) {
	router, _, doc := newHandlerFixture(t)

	body := `{"doctorName":"Dr. Asha Rao","email":"asha@example.com"}`
	req := httptest.NewRequest(http.MethodPut, "/doctors/"+doc.ID, strings.NewReader(body))
	req.Header.Set("If-Match", `"9"`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusPreconditionFailed {
		t.Fatalf("stale If-Match status = %d, want 412", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/doctors/"+doc.ID, strings.NewReader(body))
	req.Header.Set("If-Match", `"1"`)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("matching If-Match status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("ETag"); got != `"2"` {
		t.Errorf("ETag after update = %q, want %q", got, `"2"`)
	}
}

func TestSetStatusToggle(t *testing.T) {
	router, repo, doc := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPatch, "/doctors/"+doc.ID+"/status", strings.NewReader(`{"isAvailableStatus":true}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	after, _, _ := repo.Get(context.Background(), doc.ID)
	if !after.IsAvailableStatus {
		t.Error("isAvailableStatus not set")
	}
}

func TestSetAvailability(t *testing.T) {
	router, repo, doc := newHandlerFixture(t)

	// A booked Monday slot must survive a manual overwrite that drops Monday.
	stored, version, _ := repo.Get(context.Background(), doc.ID)
	stored.FindSlot("Monday", "10:00 AM").Status = SlotBooked
	stored.Appointments = append(stored.Appointments, appointments.Record{
		AppointmentID:     "appt-1",
		AppointmentStatus: appointments.StatusBooked,
		AppointmentDate:   appointments.Date{Date: "7 September 2026", Day: "Monday"},
		AppointmentTime:   "10:00 AM",
	})
	if _, err := repo.Replace(context.Background(), stored, version); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	body := `{"mode":"manual","days":["Friday"],"times":["9:00 AM","9:30 AM"]}`
	req := httptest.NewRequest(http.MethodPut, "/doctors/"+doc.ID+"/availability", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	after, _, _ := repo.Get(context.Background(), doc.ID)
	if len(after.Availability.AvailableDays["Friday"]) != 2 {
		t.Errorf("Friday slots = %d, want 2", len(after.Availability.AvailableDays["Friday"]))
	}
	if slot := after.FindSlot("Monday", "10:00 AM"); slot == nil || slot.Status != SlotBooked {
		t.Errorf("booked Monday slot lost: %+v", slot)
	}

	req = httptest.NewRequest(http.MethodPut, "/doctors/"+doc.ID+"/availability", strings.NewReader(`{"mode":"manual","days":["Funday"],"times":["9:00 AM"]}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad weekday status = %d, want 400", rr.Code)
	}
}

// replaceHook wraps a repository to run a function before the first Replace,
// standing in for a writer that slips in between the read and the write.
type replaceHook struct {
	Repository
	before func()
	fired  bool
}

func (r *replaceHook) Replace(ctx context.Context, doc *Doctor, expectedVersion int64) (int64, error) {
	if !r.fired && r.before != nil {
		r.fired = true
		r.before()
	}
	return r.Repository.Replace(ctx, doc, expectedVersion)
}

func TestSetAvailabilityRetryAfterConcurrentCancel(t *testing.T) {
	repo := NewInMemoryRepository()
	doc, err := repo.Create(context.Background(), &Doctor{
		DoctorName:   "Dr. Asha Rao",
		Email:        "asha@example.com",
		Availability: AutoAvailability(),
		Appointments: []appointments.Record{{
			AppointmentID:     "appt-1",
			AppointmentStatus: appointments.StatusBooked,
			AppointmentDate:   appointments.Date{Date: "7 September 2026", Day: "Monday"},
			AppointmentTime:   "10:00 AM",
		}},
	})
	if err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	seeded, version, _ := repo.Get(context.Background(), doc.ID)
	seeded.FindSlot("Monday", "10:00 AM").Status = SlotBooked
	if _, err := repo.Replace(context.Background(), seeded, version); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	// A cancel lands between the handler's read and its write, forcing a
	// version-conflict retry against a document whose appointment is no
	// longer booked.
	hooked := &replaceHook{Repository: repo}
	hooked.before = func() {
		cur, v, err := repo.Get(context.Background(), doc.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		cur.Appointments[0].AppointmentStatus = appointments.StatusCancelled
		cur.FindSlot("Monday", "10:00 AM").Status = SlotAvailable
		if _, err := repo.Replace(context.Background(), cur, v); err != nil {
			t.Fatalf("interleaved Replace: %v", err)
		}
	}

	h := NewHandler(hooked, nil)
	r := chi.NewRouter()
	r.Put("/doctors/{doctorID}/availability", h.SetAvailability)

	req := httptest.NewRequest(http.MethodPut, "/doctors/"+doc.ID+"/availability", strings.NewReader(`{"mode":"auto"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !hooked.fired {
		t.Fatal("interleaved cancel never ran")
	}

	// The retried overwrite saw the cancelled appointment, so no slot may
	// remain booked.
	after, _, _ := repo.Get(context.Background(), doc.ID)
	if slot := after.FindSlot("Monday", "10:00 AM"); slot == nil || slot.Status != SlotAvailable {
		t.Errorf("Monday 10:00 AM slot = %+v, want Available", slot)
	}
	for day, slots := range after.Availability.AvailableDays {
		for _, slot := range slots {
			if slot.Status == SlotBooked {
				t.Errorf("%s %s is booked with no booked appointment", day, slot.Time)
			}
		}
	}
}

func TestSlotsEndpoint(t *testing.T) {
	router, _, doc := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+doc.ID+"/slots?date=7%20September%202026", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var day DaySlots
	if err := json.NewDecoder(rr.Body).Decode(&day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if day.Day != "Monday" || len(day.Slots) != len(SlotCatalog) {
		t.Errorf("day = %+v", day)
	}

	// Week view without a date.
	req = httptest.NewRequest(http.MethodGet, "/doctors/"+doc.ID+"/slots", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("week status = %d", rr.Code)
	}
	var week struct {
		Days []DaySlots `json:"days"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&week); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(week.Days) == 0 {
		t.Error("expected weekday entries in week view")
	}

	req = httptest.NewRequest(http.MethodGet, "/doctors/"+doc.ID+"/slots?date=2026-09-07", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rr.Code)
	}
}

func TestCreateAndDeleteDoctor(t *testing.T) {
	router, repo, _ := newHandlerFixture(t)

	body := `{"doctorName":"Dr. Nisha Verma","email":"nisha@example.com","specialization":"Neurologist"}`
	req := httptest.NewRequest(http.MethodPost, "/doctors", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created Doctor
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
	if created.Availability == nil {
		t.Error("expected a default calendar")
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/doctors/"+created.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	if _, _, err := repo.Get(context.Background(), created.ID); err != ErrNotFound {
		t.Errorf("after delete Get = %v, want ErrNotFound", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/doctors", strings.NewReader(`{"email":"x@example.com"}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid create status = %d, want 400", rr.Code)
	}
}
