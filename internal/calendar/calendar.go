// Package calendar holds the date and time-of-day values the clinic works in.
// Dates are civil dates pinned to midnight UTC; times of day are minutes
// since midnight, so interval arithmetic never crosses a time zone.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	ClockLayout   = "15:04"
	Clock12Layout = "3:04 PM"
)

var ErrInvalidTime = errors.New("invalid time of day")

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay accepts only the 24-hour HH:mm form used by API input.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// ParseWorkingHour accepts 24-hour "13:00" first and falls back to the
// 12-hour "1:00 PM" form doctors' hours are sometimes stored in.
func ParseWorkingHour(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}
	if tod, err := ParseTimeOfDay(s); err == nil {
		return tod, nil
	}
	t, err := time.Parse(Clock12Layout, strings.ToUpper(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

func (t TimeOfDay) Before(u TimeOfDay) bool { return t < u }
func (t TimeOfDay) After(u TimeOfDay) bool  { return t > u }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseDate parses yyyy-MM-dd into a midnight UTC date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// At combines a date and a time of day into one instant (UTC).
func At(date time.Time, t TimeOfDay) time.Time {
	return DateOf(date).Add(time.Duration(t) * time.Minute)
}

// Wall re-expresses t's local wall-clock reading in UTC, so it can be
// compared with instants built by At.
func Wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// Overlaps reports whether [s1,e1) and [s2,e2) share any minute.
// Touching intervals do not overlap.
func Overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}

// WorksOn reports whether weekday appears in days, ignoring case.
func WorksOn(days []string, weekday time.Weekday) bool {
	for _, d := range days {
		if strings.EqualFold(strings.TrimSpace(d), weekday.String()) {
			return true
		}
	}
	return false
}
