package utils

import (
	"slices"
	"time"
)

var (
	weekdayAbbr = [7]string{"M", "T", "W", "T", "F", "S", "S"}
	weekdayFull = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	allWeekdays = []int{0, 1, 2, 3, 4, 5, 6}
)

// DayInfo describes one scheduled day of a Monday-based week.
type DayInfo struct {
	Date     time.Time
	DateKey  string
	Abbr     string
	Full     string
	DayIndex int // 0=Mon .. 6=Sun
}

// AllWeekdays returns a fresh slice of every Monday-based weekday index.
func AllWeekdays() []int {
	return slices.Clone(allWeekdays)
}

// NormalizeWeekdays returns the sorted unique subset of input within 0..6.
// It never returns an empty slice; an empty or fully invalid input means every day.
func NormalizeWeekdays(input []int) []int {
	out := make([]int, 0, len(input))
	for _, d := range input {
		if d >= 0 && d <= 6 {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return AllWeekdays()
	}
	return out
}

// IsScheduledOn reports whether date falls on one of the weekdays.
func IsScheduledOn(weekdays []int, date time.Time) bool {
	return slices.Contains(NormalizeWeekdays(weekdays), MondayIndex(date))
}

// ScheduledDaysInWeek returns the scheduled days of the week containing ref,
// Monday first.
func ScheduledDaysInWeek(ref time.Time, weekdays []int) []DayInfo {
	monday := WeekStartTime(ref)
	days := NormalizeWeekdays(weekdays)
	out := make([]DayInfo, 0, len(days))
	for _, idx := range days {
		date := time.Date(monday.Year(), monday.Month(), monday.Day()+idx, monday.Hour(), 0, 0, 0, monday.Location())
		out = append(out, DayInfo{
			Date:     date,
			DateKey:  DateKey(date),
			Abbr:     weekdayAbbr[idx],
			Full:     weekdayFull[idx],
			DayIndex: idx,
		})
	}
	return out
}

// WeeklyCompletionCount counts completions inside the week containing now
// whose weekday is scheduled. Malformed keys are skipped.
func WeeklyCompletionCount(completions []string, weekdays []int, now time.Time) int {
	monday, sunday := WeekRange(now)
	scheduled := NormalizeWeekdays(weekdays)
	count := 0
	for _, key := range completions {
		if key < monday || key > sunday {
			continue
		}
		d, ok := ParseDateKey(key, now.Location())
		if !ok {
			continue
		}
		if slices.Contains(scheduled, MondayIndex(d)) {
			count++
		}
	}
	return count
}
