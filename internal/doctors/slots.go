package doctors

import (
	"time"

	"github.com/docspot/docspot-api/internal/appointments"
)

// Weekdays in calendar order, the only valid availableDays keys.
var Weekdays = []string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

// SlotCatalog is the fixed list of bookable times, in day order. Every
// calendar slot carries one of these times.
var SlotCatalog = []string{
	"9:00 AM",
	"9:30 AM",
	"10:00 AM",
	"10:30 AM",
	"11:00 AM",
	"11:30 AM",
	"12:00 PM",
	"5:00 PM",
	"5:30 PM",
	"6:00 PM",
	"6:30 PM",
	"7:00 PM",
	"7:30 PM",
	"8:00 PM",
	"8:30 PM",
	"9:00 PM",
}

var weekdaySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Weekdays))
	for _, d := range Weekdays {
		m[d] = struct{}{}
	}
	return m
}()

var catalogSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(SlotCatalog))
	for _, t := range SlotCatalog {
		m[t] = struct{}{}
	}
	return m
}()

// AutoAvailability builds the auto-mode calendar: Monday through Friday,
// the full slot catalog, everything Available.
func AutoAvailability() *Availability {
	days := make(map[string][]Slot, 5)
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"} {
		days[day] = freshSlots(SlotCatalog)
	}
	return &Availability{Mode: ModeAuto, AvailableDays: days}
}

// ManualAvailability builds a manual-mode calendar from selected weekdays
// and times, validating both against the catalog.
func ManualAvailability(days []string, times []string) (*Availability, error) {
	if len(days) == 0 || len(times) == 0 {
		return nil, ErrEmptyAvailability
	}
	ordered := make([]string, 0, len(times))
	chosen := make(map[string]struct{}, len(times))
	for _, t := range times {
		if _, ok := catalogSet[t]; !ok {
			return nil, ErrUnknownSlotTime
		}
		chosen[t] = struct{}{}
	}
	// Keep catalog order regardless of selection order.
	for _, t := range SlotCatalog {
		if _, ok := chosen[t]; ok {
			ordered = append(ordered, t)
		}
	}
	available := make(map[string][]Slot, len(days))
	for _, day := range days {
		if _, ok := weekdaySet[day]; !ok {
			return nil, ErrUnknownWeekday
		}
		available[day] = freshSlots(ordered)
	}
	return &Availability{Mode: ModeManual, AvailableDays: available}, nil
}

func freshSlots(times []string) []Slot {
	slots := make([]Slot, len(times))
	for i, t := range times {
		slots[i] = Slot{Time: t, Status: SlotAvailable}
	}
	return slots
}

// ApplyAvailability replaces the doctor's calendar with next, then restores
// every slot still referenced by a Booked appointment so resetting the
// calendar cannot silently un-book outstanding appointments. Restored slots
// are appended in catalog position when the new selection dropped them.
func (d *Doctor) ApplyAvailability(next *Availability) {
	for i := range d.Appointments {
		rec := &d.Appointments[i]
		if rec.AppointmentStatus != appointments.StatusBooked {
			continue
		}
		weekday, err := appointments.WeekdayOf(rec.AppointmentDate.Date)
		if err != nil {
			// Unparseable stored date; fall back to the stored day label.
			weekday = rec.AppointmentDate.Day
		}
		day := next.AvailableDays[weekday]
		found := false
		for j := range day {
			if day[j].Time == rec.AppointmentTime {
				day[j].Status = SlotBooked
				found = true
				break
			}
		}
		if !found {
			day = insertInCatalogOrder(day, Slot{Time: rec.AppointmentTime, Status: SlotBooked})
		}
		next.AvailableDays[weekday] = day
	}
	d.Availability = next
}

func insertInCatalogOrder(day []Slot, slot Slot) []Slot {
	pos := catalogIndex(slot.Time)
	for i := range day {
		if catalogIndex(day[i].Time) > pos {
			day = append(day[:i], append([]Slot{slot}, day[i:]...)...)
			return day
		}
	}
	return append(day, slot)
}

func catalogIndex(t string) int {
	for i, c := range SlotCatalog {
		if c == t {
			return i
		}
	}
	return len(SlotCatalog)
}

// DaySlots is the bookable view of one calendar day.
type DaySlots struct {
	Date  string   `json:"date"`
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

// SlotsForDate lists the times a patient can still book on the given date:
// Available slots in that date's weekday bucket, minus times at or before
// now when the date is today.
func (d *Doctor) SlotsForDate(date time.Time, now time.Time) DaySlots {
	out := DaySlots{
		Date:  date.Format(appointments.DateLayout),
		Day:   date.Weekday().String(),
		Slots: []string{},
	}
	if d.Availability == nil {
		return out
	}
	today := now.Year() == date.Year() && now.YearDay() == date.YearDay()
	for _, slot := range d.Availability.AvailableDays[out.Day] {
		if slot.Status != SlotAvailable {
			continue
		}
		if today {
			moment, err := appointments.SlotMoment(out.Date, slot.Time)
			if err != nil || !moment.After(now) {
				continue
			}
		}
		out.Slots = append(out.Slots, slot.Time)
	}
	return out
}

// WeekSlots returns the booking-page week view: the next seven days
// starting at now, each with its still-bookable times. Days whose weekday
// has no calendar bucket are omitted.
func (d *Doctor) WeekSlots(now time.Time) []DaySlots {
	if d.Availability == nil {
		return []DaySlots{}
	}
	week := make([]DaySlots, 0, 7)
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, i)
		if _, ok := d.Availability.AvailableDays[date.Weekday().String()]; !ok {
			continue
		}
		week = append(week, d.SlotsForDate(date, now))
	}
	return week
}
