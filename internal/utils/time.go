package utils

import (
	"fmt"
	"iter"
	"regexp"
	"time"

	"github.com/julianstephens/dailytrack/internal/constants"
)

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// DateKey formats t as YYYY-MM-DD using its own wall clock, never converting to UTC.
func DateKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Midday returns the calendar day of t at local noon.
func Midday(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), constants.MiddayHour, 0, 0, 0, t.Location())
}

// IsDateKey reports whether s has the YYYY-MM-DD shape.
func IsDateKey(s string) bool {
	return dateKeyPattern.MatchString(s)
}

// ParseDateKey parses a YYYY-MM-DD key as midday in loc.
// ok is false for malformed input, including impossible dates like 2024-02-30.
func ParseDateKey(s string, loc *time.Location) (time.Time, bool) {
	if !IsDateKey(s) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(constants.DateFormat, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return Midday(t), true
}

// NormalizeDateKey accepts a date key or a datetime string that begins with one
// and returns the date key.
func NormalizeDateKey(s string) (string, bool) {
	if len(s) < len(constants.DateFormat) {
		return "", false
	}
	key := s[:len(constants.DateFormat)]
	if len(s) > len(key) && s[len(key)] != 'T' && s[len(key)] != ' ' {
		return "", false
	}
	if _, ok := ParseDateKey(key, time.UTC); !ok {
		return "", false
	}
	return key, true
}

// MondayIndex returns the weekday of t with Monday as 0 and Sunday as 6.
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekStartTime returns the Monday on or before t, at local midday.
func WeekStartTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()-MondayIndex(t), constants.MiddayHour, 0, 0, 0, t.Location())
}

// WeekStart returns the date key of the Monday on or before t.
func WeekStart(t time.Time) string {
	return DateKey(WeekStartTime(t))
}

// WeekRange returns the Monday and Sunday date keys of the week containing t.
func WeekRange(t time.Time) (string, string) {
	monday := WeekStartTime(t)
	return DateKey(monday), DateKey(monday.AddDate(0, 0, 6))
}

// DaysInRange yields each calendar day from start to end inclusive, at local midday.
// The sequence is empty when end is before start.
func DaysInRange(start, end time.Time) iter.Seq[time.Time] {
	first, last := Midday(start), Midday(end.In(start.Location()))
	return func(yield func(time.Time) bool) {
		for d := first; !d.After(last); d = time.Date(d.Year(), d.Month(), d.Day()+1, constants.MiddayHour, 0, 0, 0, d.Location()) {
			if !yield(d) {
				return
			}
		}
	}
}
