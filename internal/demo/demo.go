// Package demo fills a fresh clinic with data for local runs: a fixed set of
// patients, doctors and same-day appointments, plus randomized records.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

type Summary struct {
	Patients     int
	Doctors      int
	Appointments int
}

func strPtr(s string) *string { return &s }

var clinicPatients = []registry.NewPatient{
	{
		Name:        "John Doe",
		DateOfBirth: time.Date(1992, 12, 14, 0, 0, 0, 0, time.UTC),
		Gender:      "Male",
		PhoneNumber: "1234567890",
		Email:       strPtr("john.doe@example.com"),
		Address:     "123 Main St",
		BloodType:   strPtr("O+"),
		Allergies:   strPtr("None"),
	},
	{
		Name:        "Jane Smith",
		DateOfBirth: time.Date(1985, 5, 20, 0, 0, 0, 0, time.UTC),
		Gender:      "Female",
		PhoneNumber: "0987654321",
		Email:       strPtr("jane.smith@example.com"),
		Address:     "456 Oak Ave",
		BloodType:   strPtr("A+"),
		Allergies:   strPtr("Penicillin"),
	},
	{
		Name:        "Bob Johnson",
		DateOfBirth: time.Date(1978, 8, 15, 0, 0, 0, 0, time.UTC),
		Gender:      "Male",
		PhoneNumber: "5551234567",
		Email:       strPtr("bob.j@example.com"),
		Address:     "789 Pine Rd",
		BloodType:   strPtr("B+"),
		Allergies:   strPtr("None"),
	},
}

var clinicDoctors = []registry.NewDoctor{
	{
		Name:           "Sarah Lee",
		Specialization: "Cardiologist",
		PhoneNumber:    "1112223333",
		Email:          strPtr("dr.lee@clinic.com"),
		AvailableDays:  []string{"Monday", "Wednesday", "Friday"},
		StartTime:      "09:00",
		EndTime:        "17:00",
	},
	{
		Name:           "Michael Kim",
		Specialization: "Dermatologist",
		PhoneNumber:    "4445556666",
		Email:          strPtr("dr.kim@clinic.com"),
		AvailableDays:  []string{"Tuesday", "Thursday", "Saturday"},
		StartTime:      "10:00",
		EndTime:        "18:00",
	},
	{
		Name:           "Emily Chen",
		Specialization: "Pediatrician",
		PhoneNumber:    "7778889999",
		Email:          strPtr("dr.chen@clinic.com"),
		AvailableDays:  []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		StartTime:      "08:00",
		EndTime:        "16:00",
	},
}

// clinicVisits pairs the i-th clinic patient with the i-th clinic doctor.
var clinicVisits = []struct {
	start, end calendar.TimeOfDay
	reason     string
}{
	{calendar.NewTimeOfDay(9, 0), calendar.NewTimeOfDay(10, 0), "Regular checkup"},
	{calendar.NewTimeOfDay(10, 30), calendar.NewTimeOfDay(11, 30), "Skin consultation"},
	{calendar.NewTimeOfDay(14, 0), calendar.NewTimeOfDay(15, 0), "Follow-up visit"},
}

// LoadClinic registers the fixed demo patients and doctors and books one
// appointment per pair on day. Appointments are booked whether or not the
// doctor works that weekday.
func LoadClinic(ctx context.Context, patients *registry.Patients, doctors *registry.Doctors, mgr *appointment.Manager, day time.Time) (Summary, error) {
	var sum Summary

	for i, np := range clinicPatients {
		p, err := patients.Add(np)
		if err != nil {
			return sum, fmt.Errorf("add demo patient %s: %w", np.Name, err)
		}
		sum.Patients++

		d, err := doctors.Add(clinicDoctors[i])
		if err != nil {
			return sum, fmt.Errorf("add demo doctor %s: %w", clinicDoctors[i].Name, err)
		}
		sum.Doctors++

		visit := clinicVisits[i]
		_, err = mgr.Schedule(ctx, appointment.ScheduleRequest{
			PatientID: p.ID,
			DoctorID:  d.ID,
			Date:      day,
			Start:     visit.start,
			End:       visit.end,
			Reason:    visit.reason,
		})
		if err != nil {
			return sum, fmt.Errorf("book demo visit for %s: %w", np.Name, err)
		}
		sum.Appointments++
	}

	return sum, nil
}
