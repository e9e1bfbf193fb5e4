package appointment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/ids"
)

const (
	DefaultSlotLength = 30 * time.Minute
)

var (
	DefaultDayStart = calendar.NewTimeOfDay(8, 0)
	DefaultDayEnd   = calendar.NewTimeOfDay(17, 0)
)

type Options struct {
	// SlotLength is the width of each generated time slot. It is cut to
	// whole minutes; anything shorter than a minute means the default.
	SlotLength time.Duration
	// DayStart and DayEnd replace a doctor's working hours when they
	// cannot be parsed.
	DayStart calendar.TimeOfDay
	DayEnd   calendar.TimeOfDay
	Sink     EventSink
	Logger   *logrus.Logger
	Now      func() time.Time
}

// Manager is the scheduling engine for one clinic session. It owns the
// appointment index, the regular and walk-in queues and the undo log, and
// guards all of them with a single mutex so compound operations such as
// check-then-insert are atomic.
type Manager struct {
	mu           sync.Mutex
	seq          ids.Sequence
	appointments map[int64]*Appointment
	queue        fifo
	walkIns      fifo
	walkInIDs    map[int64]struct{}
	history      undoLog

	patients PatientDirectory
	doctors  DoctorDirectory
	opts     Options
	log      *logrus.Entry
}

func NewManager(patients PatientDirectory, doctors DoctorDirectory, opts Options) *Manager {
	opts.SlotLength = opts.SlotLength.Truncate(time.Minute)
	if opts.SlotLength <= 0 {
		opts.SlotLength = DefaultSlotLength
	}
	if opts.DayStart == 0 && opts.DayEnd == 0 {
		opts.DayStart, opts.DayEnd = DefaultDayStart, DefaultDayEnd
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		appointments: make(map[int64]*Appointment),
		walkInIDs:    make(map[int64]struct{}),
		patients:     patients,
		doctors:      doctors,
		opts:         opts,
		log:          opts.Logger.WithField("component", "appointment"),
	}
}

// Schedule books a new appointment. Walk-ins skip the regular queue and go
// straight onto the walk-in queue.
func (m *Manager) Schedule(ctx context.Context, req ScheduleRequest) (Appointment, error) {
	m.mu.Lock()
	appt, err := m.schedule(req)
	m.mu.Unlock()
	if err != nil {
		return Appointment{}, err
	}

	m.emit(ctx, EventAppointmentScheduled, appt, map[string]any{
		"patient_id": appt.PatientID,
		"date":       calendar.FormatDate(appt.Date),
		"start":      appt.Start.String(),
		"end":        appt.End.String(),
		"walk_in":    req.WalkIn,
	})
	return appt, nil
}

func (m *Manager) schedule(req ScheduleRequest) (Appointment, error) {
	if _, err := m.patients.Get(req.PatientID); err != nil {
		return Appointment{}, fmt.Errorf("load patient %d: %w", req.PatientID, err)
	}
	if _, err := m.doctors.Get(req.DoctorID); err != nil {
		return Appointment{}, fmt.Errorf("load doctor %d: %w", req.DoctorID, err)
	}
	if !req.Start.Before(req.End) {
		return Appointment{}, ErrInvalidInterval
	}

	date := calendar.DateOf(req.Date)
	if m.hasConflict(req.DoctorID, date, req.Start, req.End, 0) {
		return Appointment{}, ErrSlotConflict
	}

	appt := &Appointment{
		ID:        m.seq.Next(),
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Start:     req.Start,
		End:       req.End,
		Reason:    req.Reason,
		Status:    StatusScheduled,
		CreatedAt: m.opts.Now(),
	}
	m.appointments[appt.ID] = appt

	if req.WalkIn {
		m.walkInIDs[appt.ID] = struct{}{}
		m.walkIns.enqueue(appt.ID)
	} else {
		m.queue.enqueue(appt.ID)
	}

	m.history.push(ActionAdd, appt.ID, nil)
	return *appt, nil
}

// HasConflict reports whether the doctor already holds an active
// appointment overlapping [start, end) on date. It does not change state.
func (m *Manager) HasConflict(doctorID int64, date time.Time, start, end calendar.TimeOfDay) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasConflict(doctorID, date, start, end, 0)
}

// hasConflict scans the index; exclude names an appointment to skip, or 0.
func (m *Manager) hasConflict(doctorID int64, date time.Time, start, end calendar.TimeOfDay, exclude int64) bool {
	for id, a := range m.appointments {
		if id == exclude {
			continue
		}
		if a.overlaps(doctorID, date, start, end) {
			return true
		}
	}
	return false
}

func (m *Manager) Get(id int64) (Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	return *a, nil
}

// Detail resolves the appointment's patient and doctor from the registries
// as they are now.
func (m *Manager) Detail(id int64) (Detail, error) {
	m.mu.Lock()
	a, ok := m.appointments[id]
	var d Detail
	if ok {
		d.Appointment = *a
		_, d.WalkIn = m.walkInIDs[id]
	}
	m.mu.Unlock()

	if !ok {
		return Detail{}, ErrAppointmentNotFound
	}
	if p, err := m.patients.Get(d.PatientID); err == nil {
		d.Patient = &p
	}
	if doc, err := m.doctors.Get(d.DoctorID); err == nil {
		d.Doctor = &doc
	}
	return d, nil
}

// All returns every indexed appointment ordered by id.
func (m *Manager) All() []Appointment {
	return m.filter(func(*Appointment) bool { return true })
}

func (m *Manager) ByStatus(status Status) []Appointment {
	return m.filter(func(a *Appointment) bool { return a.Status == status })
}

func (m *Manager) ByPatient(patientID int64) []Appointment {
	return m.filter(func(a *Appointment) bool { return a.PatientID == patientID })
}

func (m *Manager) ByDoctor(doctorID int64) []Appointment {
	return m.filter(func(a *Appointment) bool { return a.DoctorID == doctorID })
}

// ByDate returns the day's appointments in start-time order.
func (m *Manager) ByDate(date time.Time) []Appointment {
	out := m.filter(func(a *Appointment) bool { return calendar.SameDay(a.Date, date) })
	sortByStart(out)
	return out
}

func (m *Manager) filter(keep func(*Appointment) bool) []Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortByStart(as []Appointment) {
	sort.SliceStable(as, func(i, j int) bool {
		return as[i].StartsAt().Before(as[j].StartsAt())
	})
}

// Update edits an appointment. A move is conflict-checked against the rest
// of the doctor's schedule and rejects the whole update when it collides.
func (m *Manager) Update(ctx context.Context, id int64, req UpdateRequest) (Appointment, error) {
	m.mu.Lock()
	appt, err := m.update(id, req)
	m.mu.Unlock()
	if err != nil {
		return Appointment{}, err
	}

	m.emit(ctx, EventAppointmentUpdated, appt, map[string]any{
		"date":  calendar.FormatDate(appt.Date),
		"start": appt.Start.String(),
		"end":   appt.End.String(),
	})
	return appt, nil
}

func (m *Manager) update(id int64, req UpdateRequest) (Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	before := snapshot(a)

	if req.reschedules() {
		if !req.Start.Before(*req.End) {
			return Appointment{}, ErrInvalidInterval
		}
		date := calendar.DateOf(*req.Date)
		if m.hasConflict(a.DoctorID, date, *req.Start, *req.End, a.ID) {
			return Appointment{}, ErrSlotConflict
		}
		a.Date = date
		a.Start = *req.Start
		a.End = *req.End
	}
	if req.Reason != nil {
		a.Reason = *req.Reason
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}

	m.history.push(ActionUpdate, a.ID, before)
	return *a, nil
}

// Confirm moves a scheduled appointment to confirmed.
func (m *Manager) Confirm(ctx context.Context, id int64) (Appointment, error) {
	return m.advance(ctx, id, StatusScheduled, StatusConfirmed, ActionUpdate, EventAppointmentConfirmed)
}

// MarkInProgress moves a confirmed appointment to in progress.
func (m *Manager) MarkInProgress(ctx context.Context, id int64) (Appointment, error) {
	return m.advance(ctx, id, StatusConfirmed, StatusInProgress, ActionUpdate, EventAppointmentStarted)
}

// MarkCompleted moves an in-progress appointment to completed.
func (m *Manager) MarkCompleted(ctx context.Context, id int64) (Appointment, error) {
	return m.advance(ctx, id, StatusInProgress, StatusCompleted, ActionComplete, EventAppointmentCompleted)
}

func (m *Manager) advance(ctx context.Context, id int64, from, to Status, action ActionType, event string) (Appointment, error) {
	m.mu.Lock()
	a, ok := m.appointments[id]
	if !ok {
		m.mu.Unlock()
		return Appointment{}, ErrAppointmentNotFound
	}
	if a.Status != from {
		current := a.Status
		m.mu.Unlock()
		return Appointment{}, fmt.Errorf("%w: %s to %s requires %s", ErrInvalidStatusTransition, current, to, from)
	}

	before := snapshot(a)
	a.Status = to
	m.history.push(action, a.ID, before)
	appt := *a
	m.mu.Unlock()

	m.emit(ctx, event, appt, map[string]any{"from": from})
	return appt, nil
}

// Cancel cancels the appointment whatever its status and takes it out of
// the regular queue. The record stays in the index.
func (m *Manager) Cancel(ctx context.Context, id int64) (Appointment, error) {
	return m.close(ctx, id, StatusCancelled, nil, ActionCancel, EventAppointmentCancelled)
}

// MarkNoShow records that the patient never arrived, whatever the status.
func (m *Manager) MarkNoShow(ctx context.Context, id int64) (Appointment, error) {
	return m.close(ctx, id, StatusNoShow, nil, ActionUpdate, EventAppointmentNoShow)
}

// Complete finishes an appointment from any status, optionally replacing
// its notes. MarkCompleted is the guarded variant.
func (m *Manager) Complete(ctx context.Context, id int64, notes *string) (Appointment, error) {
	return m.close(ctx, id, StatusCompleted, notes, ActionComplete, EventAppointmentCompleted)
}

func (m *Manager) close(ctx context.Context, id int64, to Status, notes *string, action ActionType, event string) (Appointment, error) {
	m.mu.Lock()
	a, ok := m.appointments[id]
	if !ok {
		m.mu.Unlock()
		return Appointment{}, ErrAppointmentNotFound
	}
	from := m.closeLocked(a, to, notes, action)
	appt := *a
	m.mu.Unlock()

	m.emit(ctx, event, appt, map[string]any{"from": from})
	return appt, nil
}

func (m *Manager) closeLocked(a *Appointment, to Status, notes *string, action ActionType) Status {
	before := snapshot(a)
	a.Status = to
	if notes != nil {
		a.Notes = *notes
	}
	m.queue.remove(a.ID)
	m.history.push(action, a.ID, before)
	return before.Status
}

// Delete removes the appointment from the index and both queues. Unlike
// Cancel nothing of it remains, apart from the undo log entry.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	a, ok := m.appointments[id]
	if !ok {
		m.mu.Unlock()
		return ErrAppointmentNotFound
	}
	before := snapshot(a)
	delete(m.appointments, id)
	m.queue.remove(id)
	m.walkIns.remove(id)
	m.history.push(ActionDelete, id, before)
	m.mu.Unlock()

	m.emit(ctx, EventAppointmentDeleted, *before, nil)
	return nil
}

// Undo reverses the most recent action. Each call consumes one log entry.
func (m *Manager) Undo(ctx context.Context) (Action, error) {
	m.mu.Lock()
	action, ok := m.history.pop()
	if !ok {
		m.mu.Unlock()
		return Action{}, ErrNothingToUndo
	}
	restored := m.revert(action)
	m.mu.Unlock()

	m.emit(ctx, EventActionUndone, restored, map[string]any{"action": action.Type})
	return action, nil
}

func (m *Manager) revert(action Action) Appointment {
	id := action.AppointmentID

	switch action.Type {
	case ActionAdd:
		var gone Appointment
		if a, ok := m.appointments[id]; ok {
			gone = *a
		}
		delete(m.appointments, id)
		delete(m.walkInIDs, id)
		m.queue.remove(id)
		m.walkIns.remove(id)
		return gone

	case ActionUpdate, ActionCancel, ActionComplete:
		a, ok := m.appointments[id]
		if !ok || action.Before == nil {
			m.log.WithFields(logrus.Fields{
				"appointment_id": id,
				"action":         action.Type,
			}).Warn("undo target no longer indexed")
			return Appointment{ID: id}
		}
		a.restore(*action.Before)
		m.requeue(a)
		return *a

	case ActionDelete:
		if action.Before == nil {
			return Appointment{ID: id}
		}
		a := snapshot(action.Before)
		m.appointments[id] = a
		m.requeue(a)
		return *a
	}

	return Appointment{ID: id}
}

// requeue puts an active appointment back at the end of the regular
// queue unless it is already there. Walk-ins are not special-cased.
func (m *Manager) requeue(a *Appointment) {
	if !a.Status.Active() || m.queue.contains(a.ID) {
		return
	}
	m.queue.enqueue(a.ID)
}

func (m *Manager) CanUndo() bool {
	return m.UndoDepth() > 0
}

func (m *Manager) UndoDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.len()
}

// MarkOverdueNoShows moves every active appointment whose end passed more
// than grace before now to no-show, and returns how many it moved.
func (m *Manager) MarkOverdueNoShows(ctx context.Context, now time.Time, grace time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now = calendar.Wall(now)

	m.mu.Lock()
	var overdue []*Appointment
	for _, a := range m.appointments {
		if a.Status.Active() && a.EndsAt().Add(grace).Before(now) {
			overdue = append(overdue, a)
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].ID < overdue[j].ID })

	moved := make([]Appointment, 0, len(overdue))
	for _, a := range overdue {
		m.closeLocked(a, StatusNoShow, nil, ActionUpdate)
		moved = append(moved, *a)
	}
	m.mu.Unlock()

	for _, appt := range moved {
		m.emit(ctx, EventAppointmentNoShow, appt, map[string]any{"reason": "overdue"})
	}
	return len(moved), nil
}

func (m *Manager) emit(ctx context.Context, eventType string, appt Appointment, payload map[string]any) {
	ev := Event{
		Type:          eventType,
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		Status:        appt.Status,
		Payload:       payload,
		CreatedAt:     m.opts.Now(),
	}
	if err := m.opts.Sink.Record(ctx, ev); err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{
			"event":          eventType,
			"appointment_id": appt.ID,
		}).Warn("failed to record appointment event")
	}
}
