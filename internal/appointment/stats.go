package appointment

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

// DailyStatistics counts the day's appointments, in total and per status.
// Every status key is present even when its count is zero.
func (m *Manager) DailyStatistics(date time.Time) map[string]int {
	stats := map[string]int{"total": 0}
	for _, s := range Statuses {
		stats[string(s)] = 0
	}
	for _, a := range m.ByDate(date) {
		stats["total"]++
		stats[string(a.Status)]++
	}
	return stats
}

// History returns appointments dated within [from, to], in start order.
func (m *Manager) History(from, to time.Time) []Appointment {
	from, to = calendar.DateOf(from), calendar.DateOf(to)
	out := m.filter(func(a *Appointment) bool {
		return !a.Date.Before(from) && !a.Date.After(to)
	})
	sortByStart(out)
	return out
}

func (m *Manager) CompletedAppointments() []Appointment {
	return m.ByStatus(StatusCompleted)
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appointments)
}

func (m *Manager) TodayCount() int {
	return len(m.ByDate(m.opts.Now()))
}
