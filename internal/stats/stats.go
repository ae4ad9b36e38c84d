// Package stats derives streak and consistency figures from habit completions.
// Only active habits count. All days are local calendar days of now.
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/utils"
)

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Streaks counts days with at least one completion across active habits.
type Streaks struct {
	// Current runs back from today and is zero when today has no completion.
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Consistency compares the trailing seven days with the seven before them.
type Consistency struct {
	ThisWeekRate     int   `json:"this_week_rate"` // percent of habit-days completed
	LastWeekRate     int   `json:"last_week_rate"`
	Trend            Trend `json:"trend"`
	TrendValue       int   `json:"trend_value"` // absolute difference in points
	PerfectDays      int   `json:"perfect_days"`
	TotalCompletions int   `json:"total_completions"`
}

func activeOnly(habits []models.Habit) []models.Habit {
	return slices.DeleteFunc(slices.Clone(habits), func(h models.Habit) bool { return !h.Active })
}

// completionDays returns the set of valid date keys completed by any active habit.
func completionDays(habits []models.Habit) map[string]int {
	days := map[string]int{}
	for _, h := range habits {
		for _, key := range h.Completions {
			if utils.IsDateKey(key) {
				days[key]++
			}
		}
	}
	return days
}

func ComputeStreaks(habits []models.Habit, now time.Time) Streaks {
	days := completionDays(activeOnly(habits))
	if len(days) == 0 {
		return Streaks{}
	}

	var s Streaks
	for d := utils.Midday(now); days[utils.DateKey(d)] > 0; d = d.AddDate(0, 0, -1) {
		s.Current++
	}

	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	run := 0
	var prev time.Time
	for i, key := range keys {
		d, _ := utils.ParseDateKey(key, now.Location())
		if i > 0 && utils.DateKey(prev.AddDate(0, 0, 1)) == key {
			run++
		} else {
			run = 1
		}
		s.Longest = max(s.Longest, run)
		prev = d
	}
	s.Longest = max(s.Longest, s.Current)
	return s
}

func ComputeConsistency(habits []models.Habit, now time.Time) Consistency {
	active := activeOnly(habits)
	if len(active) == 0 {
		return Consistency{Trend: TrendNeutral}
	}
	today := utils.Midday(now)
	thisWeek := window(today.AddDate(0, 0, -6), today)
	lastWeek := window(today.AddDate(0, 0, -13), today.AddDate(0, 0, -7))

	var c Consistency
	thisCount, lastCount := 0, 0
	for _, h := range active {
		for _, key := range h.Completions {
			if thisWeek[key] {
				thisCount++
			}
			if lastWeek[key] {
				lastCount++
			}
		}
		c.TotalCompletions += len(h.Completions)
	}

	byDay := completionDays(active)
	for key := range thisWeek {
		if byDay[key] == len(active) {
			c.PerfectDays++
		}
	}

	possible := float64(len(active) * 7)
	c.ThisWeekRate = int(math.Round(float64(thisCount) / possible * 100))
	c.LastWeekRate = int(math.Round(float64(lastCount) / possible * 100))
	diff := c.ThisWeekRate - c.LastWeekRate
	switch {
	case diff > 0:
		c.Trend = TrendUp
	case diff < 0:
		c.Trend = TrendDown
	default:
		c.Trend = TrendNeutral
	}
	c.TrendValue = max(diff, -diff)
	return c
}

func window(start, end time.Time) map[string]bool {
	keys := map[string]bool{}
	for d := range utils.DaysInRange(start, end) {
		keys[utils.DateKey(d)] = true
	}
	return keys
}
