package models

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities high first; an unset priority sorts last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Event is a dated or undated item owning zero or more EventTasks.
type Event struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	OwnerEmail string    `json:"owner_email,omitempty"`
	Title      string    `json:"title"`
	DueAt      *string   `json:"due_at"` // date-only or datetime, nil when undated
	Priority   Priority  `json:"priority"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EventTask is a subtask of exactly one Event. Order is dense and zero-based per event.
type EventTask struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	OwnerEmail string    `json:"owner_email,omitempty"`
	EventID    string    `json:"event_id"`
	Title      string    `json:"title"`
	Done       bool      `json:"done"`
	Priority   Priority  `json:"priority,omitempty"` // empty when unset
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Order      int       `json:"order"`
}

type CreateEventInput struct {
	Title    string `validate:"required,max=200"`
	DueAt    *string
	Priority Priority `validate:"required,oneof=high medium low"`
	Notes    string   `validate:"max=10000"`
}

func (in *CreateEventInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	return ValidateDueAt(in.DueAt)
}

// UpdateEventInput is a partial update. ClearDueAt removes the due date.
type UpdateEventInput struct {
	Title      *string `validate:"omitempty,max=200"`
	DueAt      *string
	ClearDueAt bool
	Priority   *Priority `validate:"omitempty,oneof=high medium low"`
	Notes      *string   `validate:"omitempty,max=10000"`
}

func (in *UpdateEventInput) Validate() error {
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
	return ValidateDueAt(in.DueAt)
}

func (in UpdateEventInput) Apply(e *Event) {
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.ClearDueAt {
		e.DueAt = nil
	} else if in.DueAt != nil {
		due := *in.DueAt
		e.DueAt = &due
	}
	if in.Priority != nil {
		e.Priority = *in.Priority
	}
	if in.Notes != nil {
		e.Notes = *in.Notes
	}
}

type CreateTaskInput struct {
	EventID  string `validate:"required"`
	Title    string `validate:"required,max=200"`
	Done     bool
	Priority Priority `validate:"omitempty,oneof=high medium low"`
}

func (in *CreateTaskInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	return validateStruct(in)
}

// UpdateTaskInput is a partial update; a pointer to an empty Priority clears it.
// The parent event cannot be changed.
type UpdateTaskInput struct {
	Title    *string `validate:"omitempty,max=200"`
	Done     *bool
	Priority *Priority `validate:"omitempty,oneof=high medium low"`
}

func (in *UpdateTaskInput) Validate() error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return blankTitle()
		}
		in.Title = &title
	}
	if in.Priority != nil && *in.Priority == "" {
		// clearing is allowed; skip the oneof check
		clone := *in
		clone.Priority = nil
		return validateStruct(&clone)
	}
	return validateStruct(in)
}

func (in UpdateTaskInput) Apply(t *EventTask) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Done != nil {
		t.Done = *in.Done
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
}
