package tasks

import (
	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/models"
)

type TaskEditCmd struct {
	ID       string  `arg:"" help:"Task ID (or unique prefix)."`
	Title    *string `help:"New title."`
	Priority *string `short:"p" help:"New priority (high, medium, low, none)."`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID)
	if err != nil {
		return err
	}

	input := models.UpdateTaskInput{Title: c.Title}
	if c.Priority != nil {
		p, err := parsePriority(*c.Priority)
		if err != nil {
			return err
		}
		input.Priority = &p
	}

	updated, err := ctx.State.UpdateTask(ctx.Context(), task.ID, input)
	if err != nil {
		return err
	}
	ctx.Printf("Updated task: %s\n", updated.Title)
	return nil
}

type TaskDoneCmd struct {
	ID   string `arg:"" help:"Task ID (or unique prefix)."`
	Undo bool   `help:"Mark the task as not done."`
}

func (c *TaskDoneCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID)
	if err != nil {
		return err
	}
	done := !c.Undo
	if task.Done == done {
		ctx.Printf("%s %s is already %s\n", cli.Check(done), task.Title, doneWord(done))
		return nil
	}

	updated, err := ctx.State.UpdateTask(ctx.Context(), task.ID, models.UpdateTaskInput{Done: &done})
	if err != nil {
		return err
	}
	ctx.Printf("%s %s marked %s\n", cli.Check(updated.Done), updated.Title, doneWord(updated.Done))
	return nil
}

func doneWord(done bool) string {
	if done {
		return "done"
	}
	return "not done"
}
