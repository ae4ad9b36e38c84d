package tasks

import (
	"fmt"

	"github.com/julianstephens/dailytrack/internal/cli"
)

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task ID (or unique prefix)."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID)
	if err != nil {
		return err
	}
	ok, err := ctx.Confirm(fmt.Sprintf("Delete task %q?", task.Title))
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Cancelled.")
		return nil
	}

	if err := ctx.State.DeleteTask(ctx.Context(), task.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted task: %s (undo with 'activity undo')\n", task.Title)
	return nil
}
