package tasks

import (
	"errors"
	"strings"

	"github.com/julianstephens/dailytrack/internal/cli"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
)

type TaskReorderCmd struct {
	Event string   `arg:"" help:"Event ID (or unique prefix)."`
	IDs   []string `arg:"" help:"Every task ID of the event (or unique prefixes) in the new order."`
}

func (c *TaskReorderCmd) Validate() error {
	if len(c.IDs) == 0 {
		return errors.New("at least one task id is required")
	}
	return nil
}

func (c *TaskReorderCmd) Run(ctx *cli.Context) error {
	event, err := ctx.ResolveEvent(c.Event)
	if err != nil {
		return err
	}
	if err := ctx.State.LoadTasks(ctx.Context(), event.ID); err != nil {
		return err
	}
	tasks := ctx.State.Tasks(event.ID)
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	if len(c.IDs) != len(ids) {
		return apperrors.Validation("expected all %d task ids of %s, got %d", len(ids), event.Title, len(c.IDs))
	}
	ordered := make([]string, 0, len(c.IDs))
	seen := map[string]bool{}
	for _, input := range c.IDs {
		id, err := cli.ResolveID("task", ids, input)
		if err != nil {
			return err
		}
		if seen[id] {
			return apperrors.Validation("task %s listed twice", cli.ShortID(id))
		}
		seen[id] = true
		ordered = append(ordered, id)
	}

	if err := ctx.State.ReorderTasks(ctx.Context(), event.ID, ordered); err != nil {
		return err
	}

	titles := make([]string, 0, len(ordered))
	for _, t := range ctx.State.Tasks(event.ID) {
		titles = append(titles, t.Title)
	}
	ctx.Printf("Reordered %s: %s\n", event.Title, strings.Join(titles, ", "))
	return nil
}
