package appointment

import (
	"errors"

	"github.com/hackgods/clinic-scheduling/internal/registry"
)

var (
	ErrPatientNotFound         = registry.ErrPatientNotFound
	ErrDoctorNotFound          = registry.ErrDoctorNotFound
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrSlotConflict            = errors.New("doctor already has an appointment in this time range")
	ErrInvalidInterval         = errors.New("end time must be after start time")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrNothingToUndo           = errors.New("nothing to undo")
	ErrQueueEmpty              = errors.New("queue is empty")
	ErrNotQueued               = errors.New("appointment is not in the queue")
)

// PatientDirectory is the read side of the patient registry the engine
// validates against. It never writes to it.
type PatientDirectory interface {
	Get(id int64) (registry.Patient, error)
}

// DoctorDirectory is the read side of the doctor registry.
type DoctorDirectory interface {
	Get(id int64) (registry.Doctor, error)
}
