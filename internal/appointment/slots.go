package appointment

import (
	"fmt"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

// AvailableTimeSlots splits the doctor's working hours on date into
// fixed-length slots and marks each one free or booked. A day the doctor
// does not work yields no slots. Hours that fail to parse fall back to the
// clinic defaults. Slots are recomputed on every call.
func (m *Manager) AvailableTimeSlots(doctorID int64, date time.Time) ([]TimeSlot, error) {
	doc, err := m.doctors.Get(doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor %d: %w", doctorID, err)
	}

	if !calendar.WorksOn(doc.AvailableDays, date.Weekday()) {
		return []TimeSlot{}, nil
	}

	open, err := calendar.ParseWorkingHour(doc.StartTime)
	if err != nil {
		open = m.opts.DayStart
	}
	closing, err := calendar.ParseWorkingHour(doc.EndTime)
	if err != nil {
		closing = m.opts.DayEnd
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var slots []TimeSlot
	for cur := open; cur.Before(closing); {
		end := cur.Add(m.opts.SlotLength)
		if end.After(closing) {
			break
		}
		slots = append(slots, TimeSlot{
			Start:     cur,
			End:       end,
			Available: !m.hasConflict(doctorID, date, cur, end, 0),
		})
		cur = end
	}
	if slots == nil {
		slots = []TimeSlot{}
	}
	return slots, nil
}
