package demo

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/clinic-scheduling/internal/registry"
)

var specializations = []string{
	"Cardiologist",
	"Dermatologist",
	"General Practitioner",
	"Orthopedist",
	"Endocrinologist",
	"Neurologist",
	"Pediatrician",
	"Psychiatrist",
	"Ophthalmologist",
	"ENT Specialist",
}

var (
	weekdays   = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	bloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	allergies  = []string{"None", "None", "None", "Penicillin", "Peanuts", "Latex", "Pollen", "Sulfa"}
	genders    = []string{"Male", "Female", "Other"}
)

// Reasons are plausible visit reasons for generated appointments.
var Reasons = []string{
	"Regular checkup",
	"Follow-up visit",
	"Skin consultation",
	"Blood pressure review",
	"Vaccination",
	"Lab results",
	"Persistent cough",
	"Back pain",
}

// FakePatient returns a valid, randomized patient.
func FakePatient(f *gofakeit.Faker) registry.NewPatient {
	now := time.Now()
	first, last := f.FirstName(), f.LastName()
	email := fmt.Sprintf("%s.%s@example.com", lettersOnly(first), lettersOnly(last))
	blood := f.RandomString(bloodTypes)
	allergy := f.RandomString(allergies)

	return registry.NewPatient{
		Name:        first + " " + last,
		DateOfBirth: f.DateRange(now.AddDate(-90, 0, 0), now.AddDate(-1, 0, 0)).UTC().Truncate(24 * time.Hour),
		Gender:      f.RandomString(genders),
		PhoneNumber: digits(f, 10),
		Email:       &email,
		Address:     f.Street(),
		BloodType:   &blood,
		Allergies:   &allergy,
	}
}

// FakeDoctor returns a valid, randomized doctor working three to five days
// a week with a shift of six to nine hours starting between 07:00 and 10:00.
func FakeDoctor(f *gofakeit.Faker) registry.NewDoctor {
	days := append([]string{}, weekdays...)
	f.ShuffleStrings(days)
	days = days[:f.Number(3, 5)]

	startHour := f.Number(7, 10)
	endHour := startHour + f.Number(6, 9)
	email := fmt.Sprintf("dr.%s@clinic.com", lettersOnly(f.LastName()))

	return registry.NewDoctor{
		Name:           f.Name(),
		Specialization: f.RandomString(specializations),
		PhoneNumber:    digits(f, 10),
		Email:          &email,
		AvailableDays:  days,
		StartTime:      fmt.Sprintf("%02d:00", startHour),
		EndTime:        fmt.Sprintf("%02d:00", endHour),
	}
}

// Populate adds n fake patients and n fake doctors.
func Populate(f *gofakeit.Faker, patients *registry.Patients, doctors *registry.Doctors, n int) (Summary, error) {
	var sum Summary
	for i := 0; i < n; i++ {
		if _, err := patients.Add(FakePatient(f)); err != nil {
			return sum, fmt.Errorf("add fake patient: %w", err)
		}
		sum.Patients++
		if _, err := doctors.Add(FakeDoctor(f)); err != nil {
			return sum, fmt.Errorf("add fake doctor: %w", err)
		}
		sum.Doctors++
	}
	return sum, nil
}

func digits(f *gofakeit.Faker, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + f.Number(0, 9)))
	}
	return b.String()
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "doctor"
	}
	return b.String()
}
