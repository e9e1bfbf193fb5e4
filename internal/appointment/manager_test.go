package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

// monday is a Monday.
var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	mgr      *Manager
	patients *registry.Patients
	doctors  *registry.Doctors
	sink     *recordingSink
	lee      registry.Doctor
	p1, p2   registry.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patients := registry.NewPatients()
	doctors := registry.NewDoctors()

	lee, err := doctors.Add(registry.NewDoctor{
		Name:           "Sarah Lee",
		Specialization: "Cardiologist",
		PhoneNumber:    "1112223333",
		AvailableDays:  []string{"Monday", "Wednesday", "Friday"},
		StartTime:      "09:00",
		EndTime:        "17:00",
	})
	require.NoError(t, err)

	p1, err := patients.Add(registry.NewPatient{Name: "John Doe", Gender: "Male", DateOfBirth: time.Date(1992, 12, 14, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	p2, err := patients.Add(registry.NewPatient{Name: "Jane Smith", Gender: "Female", DateOfBirth: time.Date(1985, 5, 20, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	sink := &recordingSink{}
	mgr := NewManager(patients, doctors, Options{
		Sink:   sink,
		Logger: logger,
		Now:    func() time.Time { return monday.Add(8 * time.Hour) },
	})

	return &fixture{mgr: mgr, patients: patients, doctors: doctors, sink: sink, lee: lee, p1: p1, p2: p2}
}

func at(h, m int) calendar.TimeOfDay { return calendar.NewTimeOfDay(h, m) }

func (f *fixture) book(t *testing.T, patient registry.Patient, date time.Time, start, end calendar.TimeOfDay, walkIn bool) Appointment {
	t.Helper()
	appt, err := f.mgr.Schedule(context.Background(), ScheduleRequest{
		PatientID: patient.ID,
		DoctorID:  f.lee.ID,
		Date:      date,
		Start:     start,
		End:       end,
		Reason:    "checkup",
		WalkIn:    walkIn,
	})
	require.NoError(t, err)
	return appt
}

func idsOf(as []Appointment) []int64 {
	out := make([]int64, 0, len(as))
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}

func TestScheduleDrLeeScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.mgr.Schedule(ctx, ScheduleRequest{
		PatientID: f.p1.ID, DoctorID: f.lee.ID, Date: monday,
		Start: at(9, 0), End: at(10, 0), Reason: "checkup",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, StatusScheduled, first.Status)
	assert.Equal(t, "", first.Notes)
	assert.Equal(t, monday.Add(8*time.Hour), first.CreatedAt)

	_, err = f.mgr.Schedule(ctx, ScheduleRequest{
		PatientID: f.p2.ID, DoctorID: f.lee.ID, Date: monday,
		Start: at(9, 30), End: at(10, 30), Reason: "follow-up",
	})
	assert.ErrorIs(t, err, ErrSlotConflict)

	slots, err := f.mgr.AvailableTimeSlots(f.lee.ID, monday)
	require.NoError(t, err)
	require.Len(t, slots, 16)
	assert.Equal(t, TimeSlot{Start: at(9, 0), End: at(9, 30), Available: false}, slots[0])
	assert.Equal(t, TimeSlot{Start: at(9, 30), End: at(10, 0), Available: false}, slots[1])
	assert.Equal(t, TimeSlot{Start: at(10, 0), End: at(10, 30), Available: true}, slots[2])
	assert.Equal(t, at(17, 0), slots[15].End)
}

func TestScheduleTouchingIntervalsDoNotConflict(t *testing.T) {
	f := newFixture(t)
	f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	f.book(t, f.p2, monday, at(10, 0), at(11, 0), false)
	f.book(t, f.p2, monday, at(8, 0), at(9, 0), false)
	assert.Equal(t, 3, f.mgr.Count())
}

func TestScheduleOverlapVariants(t *testing.T) {
	f := newFixture(t)
	f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)

	for _, iv := range [][2]calendar.TimeOfDay{
		{at(9, 0), at(10, 0)},
		{at(8, 30), at(9, 1)},
		{at(9, 59), at(11, 0)},
		{at(8, 0), at(12, 0)},
		{at(9, 15), at(9, 45)},
	} {
		assert.True(t, f.mgr.HasConflict(f.lee.ID, monday, iv[0], iv[1]), "%s-%s", iv[0], iv[1])
		_, err := f.mgr.Schedule(context.Background(), ScheduleRequest{
			PatientID: f.p2.ID, DoctorID: f.lee.ID, Date: monday, Start: iv[0], End: iv[1],
		})
		assert.ErrorIs(t, err, ErrSlotConflict)
	}

	// Different day or different doctor is free.
	assert.False(t, f.mgr.HasConflict(f.lee.ID, monday.AddDate(0, 0, 2), at(9, 0), at(10, 0)))
	assert.False(t, f.mgr.HasConflict(f.lee.ID+1, monday, at(9, 0), at(10, 0)))
}

func TestScheduleIgnoresInactiveAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	_, err := f.mgr.Cancel(ctx, a.ID)
	require.NoError(t, err)

	b := f.book(t, f.p2, monday, at(9, 0), at(10, 0), false)
	_, err = f.mgr.Confirm(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, f.mgr.HasConflict(f.lee.ID, monday, at(9, 0), at(10, 0)), "confirmed still holds the slot")

	_, err = f.mgr.MarkInProgress(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, f.mgr.HasConflict(f.lee.ID, monday, at(9, 0), at(10, 0)), "in progress releases the slot")
}

func TestScheduleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mgr.Schedule(ctx, ScheduleRequest{PatientID: 99, DoctorID: f.lee.ID, Date: monday, Start: at(9, 0), End: at(10, 0)})
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = f.mgr.Schedule(ctx, ScheduleRequest{PatientID: f.p1.ID, DoctorID: 99, Date: monday, Start: at(9, 0), End: at(10, 0)})
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = f.mgr.Schedule(ctx, ScheduleRequest{PatientID: f.p1.ID, DoctorID: f.lee.ID, Date: monday, Start: at(10, 0), End: at(10, 0)})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	assert.Equal(t, 0, f.mgr.Count())
	assert.Equal(t, 0, f.mgr.UndoDepth())
	assert.Empty(t, f.sink.types())
}

func TestScheduleQueuesRegularAndWalkIn(t *testing.T) {
	f := newFixture(t)

	regular := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	assert.Equal(t, 1, f.mgr.QueueSize())
	assert.Equal(t, 0, f.mgr.WalkInQueueSize())
	assert.False(t, f.mgr.IsWalkIn(regular.ID))

	walkIn := f.book(t, f.p2, monday, at(10, 0), at(10, 30), true)
	assert.Equal(t, 1, f.mgr.QueueSize(), "regular queue unchanged by a walk-in")
	assert.Equal(t, 1, f.mgr.WalkInQueueSize())
	assert.True(t, f.mgr.IsWalkIn(walkIn.ID))

	assert.Equal(t, []int64{regular.ID}, idsOf(f.mgr.ViewQueue()))
	assert.Equal(t, []int64{walkIn.ID}, idsOf(f.mgr.ViewWalkInQueue()))
	assert.Equal(t, []int64{regular.ID}, idsOf(f.mgr.Regular()))
	assert.Equal(t, []int64{regular.ID, walkIn.ID}, idsOf(f.mgr.All()))
}

func TestReads(t *testing.T) {
	f := newFixture(t)
	wednesday := monday.AddDate(0, 0, 2)

	late := f.book(t, f.p1, monday, at(15, 0), at(16, 0), false)
	early := f.book(t, f.p2, monday, at(9, 0), at(9, 30), false)
	other := f.book(t, f.p1, wednesday, at(9, 0), at(9, 30), false)

	got, err := f.mgr.Get(late.ID)
	require.NoError(t, err)
	assert.Equal(t, late, got)

	_, err = f.mgr.Get(42)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	assert.Equal(t, []int64{early.ID, late.ID}, idsOf(f.mgr.ByDate(monday)))
	assert.Equal(t, []int64{late.ID, other.ID}, idsOf(f.mgr.ByPatient(f.p1.ID)))
	assert.Len(t, f.mgr.ByDoctor(f.lee.ID), 3)
	assert.Len(t, f.mgr.ByStatus(StatusScheduled), 3)
	assert.Empty(t, f.mgr.ByStatus(StatusCompleted))
	assert.Equal(t, []int64{early.ID, late.ID, other.ID}, idsOf(f.mgr.History(monday, wednesday)))
	assert.Equal(t, []int64{early.ID, late.ID}, idsOf(f.mgr.History(monday, monday)))
	assert.Equal(t, 2, f.mgr.TodayCount())
}

func TestReadsReturnCopies(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)

	all := f.mgr.All()
	all[0].Status = StatusCompleted
	all[0].Reason = "tampered"

	got, err := f.mgr.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.Equal(t, "checkup", got.Reason)
}

func TestDetailResolvesAtReadTime(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), true)

	newName := "Johnny Doe"
	_, err := f.patients.Update(f.p1.ID, registry.PatientUpdate{Name: &newName})
	require.NoError(t, err)

	d, err := f.mgr.Detail(a.ID)
	require.NoError(t, err)
	require.NotNil(t, d.Patient)
	require.NotNil(t, d.Doctor)
	assert.Equal(t, "Johnny Doe", d.Patient.Name)
	assert.Equal(t, "Sarah Lee", d.Doctor.Name)
	assert.True(t, d.WalkIn)

	require.NoError(t, f.patients.Delete(f.p1.ID))
	d, err = f.mgr.Detail(a.ID)
	require.NoError(t, err)
	assert.Nil(t, d.Patient, "deleting a patient does not cascade")
	assert.Equal(t, f.p1.ID, d.PatientID)

	_, err = f.mgr.Detail(77)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)

	_, err := f.mgr.MarkInProgress(ctx, a.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	got, _ := f.mgr.Get(a.ID)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.Equal(t, 1, f.mgr.UndoDepth(), "failed transition logs nothing")

	_, err = f.mgr.MarkCompleted(ctx, a.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	confirmed, err := f.mgr.Confirm(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	_, err = f.mgr.Confirm(ctx, a.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	started, err := f.mgr.MarkInProgress(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)

	done, err := f.mgr.MarkCompleted(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, []int64{a.ID}, idsOf(f.mgr.CompletedAppointments()))

	assert.Equal(t, 4, f.mgr.UndoDepth())
	assert.Equal(t, []string{
		EventAppointmentScheduled,
		EventAppointmentConfirmed,
		EventAppointmentStarted,
		EventAppointmentCompleted,
	}, f.sink.types())

	for _, fn := range []func(context.Context, int64) (Appointment, error){
		f.mgr.Confirm, f.mgr.MarkInProgress, f.mgr.MarkCompleted, f.mgr.Cancel, f.mgr.MarkNoShow,
	} {
		_, err := fn(ctx, 404)
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	}
}

func TestCancelAndNoShowFromAnyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	b := f.book(t, f.p2, monday, at(10, 0), at(11, 0), true)
	require.Equal(t, 1, f.mgr.QueueSize())

	cancelled, err := f.mgr.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, f.mgr.QueueSize())

	// Still indexed, unlike Delete.
	_, err = f.mgr.Get(a.ID)
	assert.NoError(t, err)

	// Even a terminal appointment can be re-terminated.
	noShow, err := f.mgr.MarkNoShow(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, noShow.Status)

	_, err = f.mgr.MarkNoShow(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, idsOf(f.mgr.ViewWalkInQueue()), "only the regular queue is cleared")
}

func TestCompleteForcesCompletionWithNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)

	notes := "prescribed rest"
	done, err := f.mgr.Complete(ctx, a.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, "prescribed rest", done.Notes)
	assert.Equal(t, 0, f.mgr.QueueSize())

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	got, _ := f.mgr.Get(a.ID)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.Equal(t, "", got.Notes)
	assert.Equal(t, 1, f.mgr.QueueSize())
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	f.book(t, f.p2, monday, at(11, 0), at(12, 0), false)

	reason := "annual physical"
	updated, err := f.mgr.Update(ctx, a.ID, UpdateRequest{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, "annual physical", updated.Reason)
	assert.Equal(t, at(9, 0), updated.Start)

	// Sliding within its own slot does not collide with itself.
	date, start, end := monday, at(9, 30), at(10, 30)
	moved, err := f.mgr.Update(ctx, a.ID, UpdateRequest{Date: &date, Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, at(9, 30), moved.Start)

	start, end = at(10, 30), at(11, 30)
	_, err = f.mgr.Update(ctx, a.ID, UpdateRequest{Date: &date, Start: &start, End: &end, Reason: &reason})
	assert.ErrorIs(t, err, ErrSlotConflict)

	start, end = at(12, 0), at(11, 0)
	_, err = f.mgr.Update(ctx, a.ID, UpdateRequest{Date: &date, Start: &start, End: &end})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	// Partial triple leaves the time alone.
	_, err = f.mgr.Update(ctx, a.ID, UpdateRequest{Start: &start})
	require.NoError(t, err)
	got, _ := f.mgr.Get(a.ID)
	assert.Equal(t, at(9, 30), got.Start)

	_, err = f.mgr.Update(ctx, 404, UpdateRequest{Reason: &reason})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestUndoAddRemovesAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	action, err := f.mgr.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionAdd, action.Type)
	assert.Equal(t, a.ID, action.AppointmentID)
	assert.Empty(t, f.mgr.All())
	assert.Equal(t, 0, f.mgr.QueueSize())
	assert.False(t, f.mgr.CanUndo())

	_, err = f.mgr.Undo(ctx)
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Empty(t, f.mgr.All())

	// The slot is free again and ids keep increasing.
	b := f.book(t, f.p2, monday, at(9, 0), at(10, 0), false)
	assert.Equal(t, int64(2), b.ID)
}

func TestUndoAddOfWalkIn(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), true)

	_, err := f.mgr.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, f.mgr.WalkInQueueSize())
	assert.False(t, f.mgr.IsWalkIn(a.ID))
}

func TestUpdateUndoRestoresEveryField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	notes := "bring lab results"
	_, err := f.mgr.Update(ctx, a.ID, UpdateRequest{Notes: &notes})
	require.NoError(t, err)
	_, err = f.mgr.Confirm(ctx, a.ID)
	require.NoError(t, err)
	before, _ := f.mgr.Get(a.ID)

	date := monday.AddDate(0, 0, 2)
	start, end := at(14, 0), at(14, 45)
	reason, newNotes := "moved", "rescheduled by phone"
	_, err = f.mgr.Update(ctx, a.ID, UpdateRequest{Date: &date, Start: &start, End: &end, Reason: &reason, Notes: &newNotes})
	require.NoError(t, err)

	action, err := f.mgr.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, action.Type)

	after, _ := f.mgr.Get(a.ID)
	assert.Equal(t, before, after)
	assert.True(t, f.mgr.HasConflict(f.lee.ID, monday, at(9, 0), at(10, 0)))
	assert.False(t, f.mgr.HasConflict(f.lee.ID, date, start, end))
}

func TestUndoCancelRequeues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	b := f.book(t, f.p2, monday, at(10, 0), at(11, 0), false)
	_, err := f.mgr.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, idsOf(f.mgr.ViewQueue()))

	action, err := f.mgr.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionCancel, action.Type)

	got, _ := f.mgr.Get(a.ID)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.Equal(t, []int64{b.ID, a.ID}, idsOf(f.mgr.ViewQueue()), "restored entries rejoin at the back")
}

func TestUndoNeverRestoresOverARebookedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	_, err := f.mgr.Cancel(ctx, a.ID)
	require.NoError(t, err)
	b := f.book(t, f.p2, monday, at(9, 30), at(10, 30), false)

	action, err := f.mgr.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionAdd, action.Type)
	assert.Equal(t, b.ID, action.AppointmentID, "the rebooking is undone first")
	got, _ := f.mgr.Get(a.ID)
	assert.Equal(t, StatusCancelled, got.Status)

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	got, _ = f.mgr.Get(a.ID)
	assert.Equal(t, StatusScheduled, got.Status)
	_, err = f.mgr.Get(b.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.Len(t, f.mgr.ByDate(monday), 1)
}

func TestUndoProcessedWalkInRejoinsRegularQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), true)
	started, err := f.mgr.ProcessNextWalkIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, idsOf(f.mgr.ViewQueue()))
	assert.Equal(t, 0, f.mgr.WalkInQueueSize())
	assert.True(t, f.mgr.IsWalkIn(a.ID), "marker survives the undo")
}

func TestUndoCancelOfWalkInRestoresToRegularQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), true)
	_, err := f.mgr.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.mgr.QueueSize())
	assert.Equal(t, 1, f.mgr.WalkInQueueSize())

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	got, _ := f.mgr.Get(a.ID)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.Equal(t, []int64{a.ID}, idsOf(f.mgr.ViewQueue()))
	assert.Equal(t, []int64{a.ID}, idsOf(f.mgr.ViewWalkInQueue()))

	// A second undo finds it already in the regular queue.
	_, err = f.mgr.Confirm(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.mgr.QueueSize())
}

func TestDeleteAndUndo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	_, err := f.mgr.Confirm(ctx, a.ID)
	require.NoError(t, err)
	before, _ := f.mgr.Get(a.ID)

	require.NoError(t, f.mgr.Delete(ctx, a.ID))
	_, err = f.mgr.Get(a.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.Equal(t, 0, f.mgr.QueueSize())
	assert.False(t, f.mgr.HasConflict(f.lee.ID, monday, at(9, 0), at(10, 0)))

	assert.ErrorIs(t, f.mgr.Delete(ctx, a.ID), ErrAppointmentNotFound)

	action, err := f.mgr.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, action.Type)

	restored, err := f.mgr.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, before, restored)
	assert.Equal(t, StatusConfirmed, restored.Status)
	assert.Equal(t, []int64{a.ID}, idsOf(f.mgr.ViewQueue()))
}

func TestDeleteUndoOfTerminalDoesNotRequeue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	_, err := f.mgr.Cancel(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.mgr.Delete(ctx, a.ID))

	_, err = f.mgr.Undo(ctx)
	require.NoError(t, err)
	got, err := f.mgr.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 0, f.mgr.QueueSize())
}

func TestUndoWalksBackInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	_, err := f.mgr.Confirm(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.mgr.MarkInProgress(ctx, a.ID)
	require.NoError(t, err)

	var undone []ActionType
	for f.mgr.CanUndo() {
		action, err := f.mgr.Undo(ctx)
		require.NoError(t, err)
		undone = append(undone, action.Type)
		if action.Type != ActionAdd {
			got, _ := f.mgr.Get(a.ID)
			assert.Equal(t, action.Before.Status, got.Status)
		}
	}
	assert.Equal(t, []ActionType{ActionUpdate, ActionUpdate, ActionAdd}, undone)
	assert.Equal(t, 0, f.mgr.Count())
}

func TestProcessNextInQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mgr.ProcessNextInQueue(ctx)
	assert.ErrorIs(t, err, ErrQueueEmpty)

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	b := f.book(t, f.p2, monday, at(10, 0), at(11, 0), false)

	first, err := f.mgr.ProcessNextInQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, first.ID)
	assert.Equal(t, StatusInProgress, first.Status)
	assert.Equal(t, []int64{b.ID}, idsOf(f.mgr.ViewQueue()))
	assert.Equal(t, 3, f.mgr.UndoDepth())
}

func TestProcessNextDropsStaleHead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	b := f.book(t, f.p2, monday, at(10, 0), at(11, 0), false)

	// Simulate divergence between queue and index.
	f.mgr.mu.Lock()
	delete(f.mgr.appointments, a.ID)
	f.mgr.mu.Unlock()
	depth := f.mgr.UndoDepth()

	_, err := f.mgr.ProcessNextInQueue(ctx)
	assert.ErrorIs(t, err, ErrQueueEmpty, "stale head looks like an empty queue")
	assert.Equal(t, depth, f.mgr.UndoDepth())
	assert.Equal(t, 1, f.mgr.QueueSize(), "only one entry consumed")

	next, err := f.mgr.ProcessNextInQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, next.ID)
}

func TestWalkInQueueOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	require.Equal(t, 1, f.mgr.QueueSize())

	_, err := f.mgr.AddToWalkInQueue(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.mgr.QueueSize())
	assert.Equal(t, 1, f.mgr.WalkInQueueSize())
	assert.True(t, f.mgr.IsWalkIn(a.ID))
	assert.Equal(t, 1, f.mgr.UndoDepth(), "queue moves are not undoable")

	_, err = f.mgr.AddToWalkInQueue(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.mgr.WalkInQueueSize(), "no duplicate entries")

	_, err = f.mgr.AddToWalkInQueue(ctx, 404)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	require.NoError(t, f.mgr.RemoveFromWalkInQueue(ctx, a.ID))
	assert.Equal(t, 0, f.mgr.WalkInQueueSize())
	assert.ErrorIs(t, f.mgr.RemoveFromWalkInQueue(ctx, a.ID), ErrNotQueued)

	_, err = f.mgr.ProcessNextWalkIn(ctx)
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestAvailableTimeSlots(t *testing.T) {
	f := newFixture(t)

	slots, err := f.mgr.AvailableTimeSlots(f.lee.ID, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, slots, "Lee does not work Tuesdays")

	_, err = f.mgr.AvailableTimeSlots(404, monday)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	odd, err := f.doctors.Add(registry.NewDoctor{
		Name: "Michael Kim", AvailableDays: []string{"MONDAY"}, StartTime: "1:00 PM", EndTime: "2:45 PM",
	})
	require.NoError(t, err)
	slots, err = f.mgr.AvailableTimeSlots(odd.ID, monday)
	require.NoError(t, err)
	require.Len(t, slots, 3, "trailing partial slot is discarded")
	assert.Equal(t, at(13, 0), slots[0].Start)
	assert.Equal(t, at(14, 30), slots[2].End)

	again, err := f.mgr.AvailableTimeSlots(odd.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, slots, again)
}

func TestSlotLengthIsWholeMinutes(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct {
		length time.Duration
		slots  int
	}{
		{30 * time.Second, 16},
		{0, 16},
		{90 * time.Second, 480},
		{45*time.Minute + 20*time.Second, 10},
	} {
		mgr := NewManager(f.patients, f.doctors, Options{SlotLength: tc.length})

		done := make(chan []TimeSlot, 1)
		go func() {
			slots, err := mgr.AvailableTimeSlots(f.lee.ID, monday)
			assert.NoError(t, err)
			done <- slots
		}()

		select {
		case slots := <-done:
			assert.Len(t, slots, tc.slots, "slot length %s", tc.length)
		case <-time.After(2 * time.Second):
			t.Fatalf("slot generation with length %s did not finish", tc.length)
		}
		assert.Zero(t, mgr.Count())
	}
}

func TestAvailableTimeSlotsFallbackHours(t *testing.T) {
	patients := registry.NewPatients()
	doctors := &stubDoctors{doc: registry.Doctor{
		ID: 7, AvailableDays: []string{"monday"}, StartTime: "whenever", EndTime: "",
	}}
	logger, _ := test.NewNullLogger()
	mgr := NewManager(patients, doctors, Options{Logger: logger, SlotLength: time.Hour})

	slots, err := mgr.AvailableTimeSlots(7, monday)
	require.NoError(t, err)
	require.Len(t, slots, 9)
	assert.Equal(t, DefaultDayStart, slots[0].Start)
	assert.Equal(t, DefaultDayEnd, slots[8].End)
}

type stubDoctors struct{ doc registry.Doctor }

func (s *stubDoctors) Get(id int64) (registry.Doctor, error) {
	if id != s.doc.ID {
		return registry.Doctor{}, registry.ErrDoctorNotFound
	}
	return s.doc, nil
}

func TestDailyStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	f.book(t, f.p2, monday, at(10, 0), at(11, 0), false)
	f.book(t, f.p2, monday.AddDate(0, 0, 2), at(10, 0), at(11, 0), false)
	_, err := f.mgr.Cancel(ctx, a.ID)
	require.NoError(t, err)

	stats := f.mgr.DailyStatistics(monday)
	assert.Equal(t, 2, stats["total"])
	assert.Equal(t, 1, stats["scheduled"])
	assert.Equal(t, 1, stats["cancelled"])
	assert.Equal(t, 0, stats["no_show"])
	assert.Len(t, stats, len(Statuses)+1)
}

func TestMarkOverdueNoShows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	recent := f.book(t, f.p2, monday, at(10, 0), at(11, 0), false)
	seen := f.book(t, f.p1, monday, at(11, 0), at(11, 30), false)
	_, err := f.mgr.Confirm(ctx, seen.ID)
	require.NoError(t, err)
	_, err = f.mgr.MarkInProgress(ctx, seen.ID)
	require.NoError(t, err)

	now := monday.Add(11*time.Hour + 10*time.Minute)
	n, err := f.mgr.MarkOverdueNoShows(ctx, now, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := f.mgr.Get(past.ID)
	assert.Equal(t, StatusNoShow, got.Status)
	got, _ = f.mgr.Get(recent.ID)
	assert.Equal(t, StatusScheduled, got.Status, "within grace period")
	got, _ = f.mgr.Get(seen.ID)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.Equal(t, []int64{recent.ID, seen.ID}, idsOf(f.mgr.ViewQueue()), "started appointments stay queued until processed")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.mgr.MarkOverdueNoShows(cancelled, now, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSinkFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	logger, hook := test.NewNullLogger()
	f.mgr.log = logger.WithField("component", "appointment")
	f.sink.err = errors.New("journal down")

	a := f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	assert.Equal(t, int64(1), a.ID)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, EventAppointmentScheduled, hook.LastEntry().Data["event"])
}

func TestManagersDoNotShareIDs(t *testing.T) {
	f := newFixture(t)
	g := newFixture(t)
	f.book(t, f.p1, monday, at(9, 0), at(10, 0), false)
	f.book(t, f.p1, monday, at(10, 0), at(11, 0), false)

	b := g.book(t, g.p1, monday, at(9, 0), at(10, 0), false)
	assert.Equal(t, int64(1), b.ID)
}

func TestConcurrentSchedulingKeepsScheduleConflictFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	booked := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.mgr.Schedule(ctx, ScheduleRequest{
				PatientID: f.p1.ID, DoctorID: f.lee.ID, Date: monday, Start: at(9, 0), End: at(10, 0),
			})
			if err == nil {
				mu.Lock()
				booked++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, booked)
	assert.Equal(t, 1, f.mgr.Count())
}
