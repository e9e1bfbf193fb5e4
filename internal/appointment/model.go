package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

func ParseStatus(s string) (Status, error) {
	v := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == v {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Active statuses hold their slot; only they take part in conflict checks
// and only they belong in a processing queue.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Terminal statuses have no forward transition.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Appointment refers to its patient and doctor by id. The records are
// resolved from the registries at read time, see Manager.Detail.
type Appointment struct {
	ID        int64
	PatientID int64
	DoctorID  int64
	Date      time.Time
	Start     calendar.TimeOfDay
	End       calendar.TimeOfDay
	Reason    string
	Status    Status
	Notes     string
	CreatedAt time.Time
}

// StartsAt is the appointment's start as an instant, used for ordering.
func (a Appointment) StartsAt() time.Time {
	return calendar.At(a.Date, a.Start)
}

func (a Appointment) EndsAt() time.Time {
	return calendar.At(a.Date, a.End)
}

func (a Appointment) overlaps(doctorID int64, date time.Time, start, end calendar.TimeOfDay) bool {
	return a.Status.Active() &&
		a.DoctorID == doctorID &&
		calendar.SameDay(a.Date, date) &&
		calendar.Overlaps(start, end, a.Start, a.End)
}

// restore copies the mutable fields of prev onto a. Identity, references and
// CreatedAt are left alone.
func (a *Appointment) restore(prev Appointment) {
	a.Date = prev.Date
	a.Start = prev.Start
	a.End = prev.End
	a.Reason = prev.Reason
	a.Status = prev.Status
	a.Notes = prev.Notes
}

// Detail is an appointment with its patient and doctor resolved. Either
// record is nil when it has since been deleted from its registry.
type Detail struct {
	Appointment
	Patient *registry.Patient
	Doctor  *registry.Doctor
	WalkIn  bool
}

type ScheduleRequest struct {
	PatientID int64
	DoctorID  int64
	Date      time.Time
	Start     calendar.TimeOfDay
	End       calendar.TimeOfDay
	Reason    string
	WalkIn    bool
}

// UpdateRequest changes only the non-nil fields. The appointment is moved
// only when Date, Start and End are all set.
type UpdateRequest struct {
	Date   *time.Time
	Start  *calendar.TimeOfDay
	End    *calendar.TimeOfDay
	Reason *string
	Notes  *string
}

func (r UpdateRequest) reschedules() bool {
	return r.Date != nil && r.Start != nil && r.End != nil
}

// TimeSlot is one bookable window in a doctor's working day.
type TimeSlot struct {
	Start     calendar.TimeOfDay
	End       calendar.TimeOfDay
	Available bool
}

func (s TimeSlot) String() string {
	state := "Booked"
	if s.Available {
		state = "Available"
	}
	return fmt.Sprintf("%s - %s (%s)", s.Start, s.End, state)
}
