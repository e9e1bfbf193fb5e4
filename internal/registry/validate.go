package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// NormalizeGender maps free text onto Male, Female or Other.
func NormalizeGender(g string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "male":
		return "Male", true
	case "female":
		return "Female", true
	case "other":
		return "Other", true
	}
	return "", false
}

func NormalizeBloodType(b string) string {
	return strings.ToUpper(strings.TrimSpace(b))
}

func ValidPhone(p string) bool {
	return phonePattern.MatchString(p)
}

func ValidEmail(e string) bool {
	return emailPattern.MatchString(e)
}

func invalidPatient(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPatient, fmt.Sprintf(format, args...))
}

func invalidDoctor(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDoctor, fmt.Sprintf(format, args...))
}

func checkPatientFields(name, gender, phone string, email *string) error {
	if strings.TrimSpace(name) == "" {
		return invalidPatient("name is required")
	}
	if _, ok := NormalizeGender(gender); !ok {
		return invalidPatient("gender %q must be Male, Female or Other", gender)
	}
	if phone != "" && !ValidPhone(phone) {
		return invalidPatient("phone number %q must be 10-15 digits", phone)
	}
	if email != nil && *email != "" && !ValidEmail(*email) {
		return invalidPatient("email %q is malformed", *email)
	}
	return nil
}

func checkDoctorFields(name, phone string, email *string, start, end string) error {
	if strings.TrimSpace(name) == "" {
		return invalidDoctor("name is required")
	}
	if phone != "" && !ValidPhone(phone) {
		return invalidDoctor("phone number %q must be 10-15 digits", phone)
	}
	if email != nil && *email != "" && !ValidEmail(*email) {
		return invalidDoctor("email %q is malformed", *email)
	}
	s, err := calendar.ParseWorkingHour(start)
	if err != nil {
		return invalidDoctor("start time: %v", err)
	}
	e, err := calendar.ParseWorkingHour(end)
	if err != nil {
		return invalidDoctor("end time: %v", err)
	}
	if !s.Before(e) {
		return invalidDoctor("working hours %s-%s are empty", start, end)
	}
	return nil
}
