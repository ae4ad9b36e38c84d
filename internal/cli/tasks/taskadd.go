package tasks

import (
	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/models"
)

type TaskAddCmd struct {
	Event    string `arg:"" help:"Event ID (or unique prefix)."`
	Title    string `arg:"" help:"Task title."`
	Priority string `short:"p" help:"Priority (high, medium, low). Unset by default."`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	event, err := ctx.ResolveEvent(c.Event)
	if err != nil {
		return err
	}
	priority, err := parsePriority(c.Priority)
	if err != nil {
		return err
	}

	task, err := ctx.State.CreateTask(ctx.Context(), models.CreateTaskInput{
		EventID:  event.ID,
		Title:    c.Title,
		Priority: priority,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added task to %s: %s (%s, #%d)\n", event.Title, task.Title, cli.ShortID(task.ID), task.Order+1)
	return nil
}
