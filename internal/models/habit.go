package models

import (
	"slices"
	"strings"
	"time"
)

type TimeframePreset string

const (
	TimeframeWeek   TimeframePreset = "week"
	TimeframeMonth  TimeframePreset = "month"
	TimeframeYear   TimeframePreset = "year"
	TimeframeCustom TimeframePreset = "custom"
)

// CompletionMode controls which days of the week a habit may be toggled for.
type CompletionMode string

const (
	// CompletionStrict only allows toggling today.
	CompletionStrict CompletionMode = "strict"
	// CompletionFlexible allows toggling any day of the current week.
	CompletionFlexible CompletionMode = "flexible"
)

type TargetTimeframe struct {
	Preset     TimeframePreset `json:"preset" validate:"required,oneof=week month year custom"`
	CustomDays *int            `json:"custom_days,omitempty" validate:"omitempty,gte=1,lte=3660"`
}

// Habit is a recurring action tracked per calendar day.
//
// WeekStartDate and WeeklyCompletionCount are a cache derived from Completions
// and ScheduledWeekdays; storage.RepairHabit recomputes them.
type Habit struct {
	ID                    string          `json:"id"`
	UserID                string          `json:"user_id,omitempty"`
	OwnerEmail            string          `json:"owner_email,omitempty"`
	Title                 string          `json:"title"`
	CreatedAt             time.Time       `json:"created_at"`
	Active                bool            `json:"active"`
	TargetTimeframe       TargetTimeframe `json:"target_timeframe"`
	Completions           []string        `json:"completions"`         // YYYY-MM-DD keys, unique
	WeekStartDate         string          `json:"week_start_date"`     // Monday of the tracked week
	WeeklyCompletionCount int             `json:"weekly_completion_count"`
	ScheduledWeekdays     []int           `json:"scheduled_weekdays"` // 0=Mon .. 6=Sun
	CompletionMode        CompletionMode  `json:"completion_mode"`
}

// HasCompletion reports whether the habit was completed on the given date key.
func (h Habit) HasCompletion(dateKey string) bool {
	return slices.Contains(h.Completions, dateKey)
}

// Clone returns a copy that shares no slices with h.
func (h Habit) Clone() Habit {
	c := h
	c.Completions = slices.Clone(h.Completions)
	c.ScheduledWeekdays = slices.Clone(h.ScheduledWeekdays)
	if h.TargetTimeframe.CustomDays != nil {
		days := *h.TargetTimeframe.CustomDays
		c.TargetTimeframe.CustomDays = &days
	}
	return c
}

// CreateHabitInput describes a new habit. New habits start active with no completions.
type CreateHabitInput struct {
	Title             string `validate:"required,max=200"`
	TargetTimeframe   TargetTimeframe
	ScheduledWeekdays []int
	CompletionMode    CompletionMode `validate:"omitempty,oneof=strict flexible"`
}

// Validate trims the title and checks the input.
func (in *CreateHabitInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.CompletionMode == "" {
		in.CompletionMode = CompletionFlexible
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	return validateTimeframe(in.TargetTimeframe)
}

// UpdateHabitInput is a partial update; nil fields are left unchanged.
type UpdateHabitInput struct {
	Title             *string `validate:"omitempty,max=200"`
	Active            *bool
	TargetTimeframe   *TargetTimeframe
	ScheduledWeekdays []int
	CompletionMode    *CompletionMode `validate:"omitempty,oneof=strict flexible"`
}

func (in *UpdateHabitInput) Validate() error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return blankTitle()
		}
		in.Title = &title
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.TargetTimeframe != nil {
		return validateTimeframe(*in.TargetTimeframe)
	}
	return nil
}

// Apply copies the set fields of in onto h.
func (in UpdateHabitInput) Apply(h *Habit) {
	if in.Title != nil {
		h.Title = *in.Title
	}
	if in.Active != nil {
		h.Active = *in.Active
	}
	if in.TargetTimeframe != nil {
		h.TargetTimeframe = *in.TargetTimeframe
	}
	if in.ScheduledWeekdays != nil {
		h.ScheduledWeekdays = slices.Clone(in.ScheduledWeekdays)
	}
	if in.CompletionMode != nil {
		h.CompletionMode = *in.CompletionMode
	}
}
