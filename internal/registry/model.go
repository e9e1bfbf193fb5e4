package registry

import (
	"errors"
	"time"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrInvalidPatient  = errors.New("invalid patient")
	ErrInvalidDoctor   = errors.New("invalid doctor")
)

type Patient struct {
	ID          int64
	Name        string
	DateOfBirth time.Time
	Gender      string
	PhoneNumber string
	Email       *string
	Address     string
	BloodType   *string
	Allergies   *string
}

// Age is whole years between the date of birth and now. It is never stored.
func (p Patient) Age(now time.Time) int {
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

type Doctor struct {
	ID             int64
	Name           string
	Specialization string
	PhoneNumber    string
	Email          *string
	AvailableDays  []string
	StartTime      string
	EndTime        string
	Available      bool
}

// NewPatient carries the fields needed to register a patient.
type NewPatient struct {
	Name        string
	DateOfBirth time.Time
	Gender      string
	PhoneNumber string
	Email       *string
	Address     string
	BloodType   *string
	Allergies   *string
}

// PatientUpdate changes only the non-nil fields.
type PatientUpdate struct {
	Name        *string
	DateOfBirth *time.Time
	Gender      *string
	PhoneNumber *string
	Email       *string
	Address     *string
	BloodType   *string
	Allergies   *string
}

type NewDoctor struct {
	Name           string
	Specialization string
	PhoneNumber    string
	Email          *string
	AvailableDays  []string
	StartTime      string
	EndTime        string
}

// DoctorUpdate changes only the non-nil fields.
type DoctorUpdate struct {
	Name           *string
	Specialization *string
	PhoneNumber    *string
	Email          *string
	AvailableDays  []string
	StartTime      *string
	EndTime        *string
}

func (d Doctor) clone() Doctor {
	d.AvailableDays = append([]string{}, d.AvailableDays...)
	d.Email = cloneString(d.Email)
	return d
}

func (p Patient) clone() Patient {
	p.Email = cloneString(p.Email)
	p.BloodType = cloneString(p.BloodType)
	p.Allergies = cloneString(p.Allergies)
	return p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
