package tasks

import (
	"github.com/julianstephens/dailytrack/internal/cli"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
)

type TaskCmd struct {
	Add     TaskAddCmd     `cmd:"" help:"Add a task to an event."`
	List    TaskListCmd    `cmd:"" help:"List an event's tasks."`
	Edit    TaskEditCmd    `cmd:"" help:"Edit a task."`
	Done    TaskDoneCmd    `cmd:"" help:"Mark a task done, or not done with --undo."`
	Delete  TaskDeleteCmd  `cmd:"" help:"Delete a task (undoable)."`
	Reorder TaskReorderCmd `cmd:"" help:"Set the manual order of an event's tasks."`
}

// parsePriority accepts high, medium, low, or none to clear.
func parsePriority(s string) (models.Priority, error) {
	switch models.Priority(s) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return models.Priority(s), nil
	case "", "none":
		return "", nil
	}
	return "", apperrors.Validation("invalid priority %q: must be high, medium, low or none", s)
}
