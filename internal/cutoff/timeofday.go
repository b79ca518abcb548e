package cutoff

import (
	"fmt"
	"time"
)

// TimeOfDay is a minute-granular wall-clock time (HH:MM). Cut-off and
// ordering-window comparisons ignore seconds entirely, so this type never
// carries them.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Parse parses "HH:MM" into a TimeOfDay.
func Parse(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// MustParse is Parse for trusted compile-time constants; it panics on error.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.minutes() < other.minutes()
}

// minuteOf truncates a timestamp to its minute-of-day, zeroing seconds
// and sub-second components for cut-off comparison.
func minuteOf(now time.Time) int {
	return now.Hour()*60 + now.Minute()
}

// DateOf strips the clock from a timestamp, keeping the calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
