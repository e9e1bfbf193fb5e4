package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	EventAppointmentScheduled = "APPOINTMENT_SCHEDULED"
	EventAppointmentUpdated   = "APPOINTMENT_UPDATED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentStarted   = "APPOINTMENT_STARTED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentNoShow    = "APPOINTMENT_NO_SHOW"
	EventAppointmentDeleted   = "APPOINTMENT_DELETED"
	EventWalkInQueued         = "WALK_IN_QUEUED"
	EventWalkInRemoved        = "WALK_IN_REMOVED"
	EventActionUndone         = "ACTION_UNDONE"
)

// Event describes one committed change to the schedule. Events are emitted
// after the change is applied and never feed back into engine state.
type Event struct {
	Type          string
	AppointmentID int64
	DoctorID      int64
	Status        Status
	Payload       map[string]any
	CreatedAt     time.Time
}

// EventSink receives engine events. A failing sink never fails the
// operation that produced the event.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}

// LogSink writes events to a logrus logger.
type LogSink struct {
	Logger *logrus.Logger
}

func (s LogSink) Record(_ context.Context, ev Event) error {
	s.Logger.WithFields(logrus.Fields{
		"component":      "appointment",
		"event":          ev.Type,
		"appointment_id": ev.AppointmentID,
		"doctor_id":      ev.DoctorID,
		"status":         ev.Status,
		"payload":        ev.Payload,
	}).Info("appointment event")
	return nil
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []EventSink

func (m MultiSink) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopSink struct{}

func (nopSink) Record(context.Context, Event) error { return nil }
