package models

import (
	"strings"
	"time"
)

type ActivityAction string

const (
	ActionHabitCreated     ActivityAction = "habit_created"
	ActionHabitDeleted     ActivityAction = "habit_deleted"
	ActionHabitCompleted   ActivityAction = "habit_completed"
	ActionHabitUncompleted ActivityAction = "habit_uncompleted"
	ActionEventCreated     ActivityAction = "event_created"
	ActionEventDeleted     ActivityAction = "event_deleted"
	ActionEventUpdated     ActivityAction = "event_updated"
	ActionTaskCreated      ActivityAction = "task_created"
	ActionTaskDeleted      ActivityAction = "task_deleted"
	ActionTaskCompleted    ActivityAction = "task_completed"
	ActionTaskUncompleted  ActivityAction = "task_uncompleted"
)

// AllActions lists every action kind in declaration order.
var AllActions = []ActivityAction{
	ActionHabitCreated, ActionHabitDeleted, ActionHabitCompleted, ActionHabitUncompleted,
	ActionEventCreated, ActionEventDeleted, ActionEventUpdated,
	ActionTaskCreated, ActionTaskDeleted, ActionTaskCompleted, ActionTaskUncompleted,
}

type EntityType string

const (
	EntityHabit EntityType = "habit"
	EntityEvent EntityType = "event"
	EntityTask  EntityType = "task"
)

// Entity returns the entity kind encoded in the action prefix.
func (a ActivityAction) Entity() EntityType {
	prefix, _, _ := strings.Cut(string(a), "_")
	return EntityType(prefix)
}

func (a ActivityAction) IsCreate() bool { return strings.HasSuffix(string(a), "_created") }
func (a ActivityAction) IsDelete() bool { return strings.HasSuffix(string(a), "_deleted") }

func (a ActivityAction) Valid() bool {
	for _, known := range AllActions {
		if a == known {
			return true
		}
	}
	return false
}

// ActivityLog is a single-use record of one mutation. Undo or dismiss deletes it.
type ActivityLog struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id,omitempty"`
	OwnerEmail  string         `json:"owner_email,omitempty"`
	Action      ActivityAction `json:"action"`
	EntityType  EntityType     `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	EntityTitle string         `json:"entity_title"`
	Timestamp   time.Time      `json:"timestamp"`
	Snapshot    string         `json:"snapshot,omitempty"` // JSON, required when CanUndo
	CanUndo     bool           `json:"can_undo"`
}
