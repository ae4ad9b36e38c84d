package storage

import (
	"slices"
	"time"

	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/utils"
)

// RepairHabit recomputes the derived weekly fields of h for the week containing now.
// Completions are reduced to a sorted set of valid date keys. It reports
// whether anything changed.
func RepairHabit(h models.Habit, now time.Time) (models.Habit, bool) {
	out := h.Clone()
	changed := false

	if completions := completionSet(h.Completions); !slices.Equal(completions, h.Completions) {
		out.Completions = completions
		changed = true
	}

	weekdays := utils.NormalizeWeekdays(h.ScheduledWeekdays)
	if !slices.Equal(weekdays, h.ScheduledWeekdays) {
		out.ScheduledWeekdays = weekdays
		changed = true
	}

	if ws := utils.WeekStart(now); h.WeekStartDate != ws {
		out.WeekStartDate = ws
		changed = true
	}

	if count := utils.WeeklyCompletionCount(out.Completions, weekdays, now); h.WeeklyCompletionCount != count {
		out.WeeklyCompletionCount = count
		changed = true
	}

	if h.CompletionMode == "" {
		out.CompletionMode = models.CompletionFlexible
		changed = true
	}

	if out.Completions == nil {
		out.Completions = []string{}
	}

	return out, changed
}

func completionSet(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if utils.IsDateKey(k) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ToggleCompletion flips dateKey in the completion set and refreshes the weekly fields.
func ToggleCompletion(h models.Habit, dateKey string, now time.Time) models.Habit {
	out := h.Clone()
	if slices.Contains(out.Completions, dateKey) {
		out.Completions = slices.DeleteFunc(out.Completions, func(k string) bool { return k == dateKey })
	} else {
		out.Completions = append(out.Completions, dateKey)
	}
	out, _ = RepairHabit(out, now)
	return out
}
