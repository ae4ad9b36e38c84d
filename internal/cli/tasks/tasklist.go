package tasks

import (
	"fmt"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/state"
)

type TaskListCmd struct {
	Event string `arg:"" help:"Event ID (or unique prefix)."`
	Sort  string `help:"Sort mode." enum:"custom,date-added-asc,date-added-desc,priority" default:"custom"`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	event, err := ctx.ResolveEvent(c.Event)
	if err != nil {
		return err
	}
	if err := ctx.State.LoadTasks(ctx.Context(), event.ID); err != nil {
		return err
	}
	if c.Sort != "" {
		ctx.State.SetTaskSortMode(state.TaskSortMode(c.Sort))
	}

	tasks := ctx.State.SortedTasks(event.ID)
	ctx.Println(cli.Title(event.Title))
	if len(tasks) == 0 {
		ctx.Println("No tasks found.")
		return nil
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.Order+1),
			cli.ShortID(t.ID),
			cli.Check(t.Done),
			t.Title,
			cli.PriorityLabel(t.Priority),
		})
	}
	ctx.Println(cli.Table([]string{"#", "ID", "", "Task", "Priority"}, rows))
	return nil
}
