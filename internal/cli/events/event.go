package events

import (
	"fmt"
	"strings"

	"github.com/julianstephens/dailytrack/internal/cli"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/state"
)

type EventCmd struct {
	Add    EventAddCmd    `cmd:"" help:"Add a new event."`
	List   EventListCmd   `cmd:"" help:"List events."`
	Edit   EventEditCmd   `cmd:"" help:"Edit an event."`
	Delete EventDeleteCmd `cmd:"" help:"Delete an event and its tasks (undoable)."`
}

func parsePriority(s string) (models.Priority, error) {
	p := models.Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return p, nil
	}
	return "", apperrors.Validation("invalid priority %q: must be high, medium or low", s)
}

func dueLabel(e models.Event) string {
	if e.DueAt == nil || *e.DueAt == "" {
		return cli.Muted("-")
	}
	return *e.DueAt
}

type EventAddCmd struct {
	Title    string `arg:"" help:"Event title."`
	Due      string `help:"Due date (YYYY-MM-DD) or datetime (YYYY-MM-DDTHH:MM)."`
	Priority string `help:"Priority." enum:"high,medium,low" default:"medium"`
	Notes    string `help:"Free-text notes."`
}

func (c *EventAddCmd) Run(ctx *cli.Context) error {
	input := models.CreateEventInput{
		Title:    c.Title,
		Priority: models.Priority(c.Priority),
		Notes:    c.Notes,
	}
	if c.Due != "" {
		due := c.Due
		input.DueAt = &due
	}

	event, err := ctx.State.CreateEvent(ctx.Context(), input)
	if err != nil {
		return err
	}
	ctx.Printf("Added event: %s (%s)\n", event.Title, cli.ShortID(event.ID))
	return nil
}

type EventListCmd struct {
	Sort     string `help:"Sort order." enum:"due-date,created,priority" default:"due-date"`
	Priority string `help:"Only show events with this priority (high, medium, low)."`
}

func (c *EventListCmd) Run(ctx *cli.Context) error {
	if err := ctx.State.LoadEvents(ctx.Context()); err != nil {
		return err
	}

	filter := state.EventFilter{}
	if c.Priority != "" {
		p, err := parsePriority(c.Priority)
		if err != nil {
			return err
		}
		filter.Priority = p
	}
	sortBy := state.EventSort(c.Sort)
	if sortBy == "" {
		sortBy = state.EventSortDueDate
	}

	events := ctx.State.Events(filter, sortBy)
	if len(events) == 0 {
		ctx.Println("No events found.")
		return nil
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		if err := ctx.State.LoadTasks(ctx.Context(), e.ID); err != nil {
			return err
		}
		tasks := ctx.State.Tasks(e.ID)
		done := 0
		for _, t := range tasks {
			if t.Done {
				done++
			}
		}
		rows = append(rows, []string{
			cli.ShortID(e.ID),
			e.Title,
			dueLabel(e),
			cli.PriorityLabel(e.Priority),
			fmt.Sprintf("%d/%d", done, len(tasks)),
		})
	}
	ctx.Println(cli.Table([]string{"ID", "Event", "Due", "Priority", "Tasks"}, rows))
	return nil
}

type EventEditCmd struct {
	ID       string  `arg:"" help:"Event ID (or unique prefix)."`
	Title    *string `help:"New title."`
	Due      *string `help:"New due date or datetime."`
	ClearDue bool    `help:"Remove the due date."`
	Priority *string `help:"New priority (high, medium, low)."`
	Notes    *string `help:"New notes."`
}

func (c *EventEditCmd) Run(ctx *cli.Context) error {
	event, err := ctx.ResolveEvent(c.ID)
	if err != nil {
		return err
	}
	if c.ClearDue && c.Due != nil {
		return apperrors.Validation("--due and --clear-due are mutually exclusive")
	}

	input := models.UpdateEventInput{
		Title:      c.Title,
		DueAt:      c.Due,
		ClearDueAt: c.ClearDue,
		Notes:      c.Notes,
	}
	if c.Priority != nil {
		p, err := parsePriority(*c.Priority)
		if err != nil {
			return err
		}
		input.Priority = &p
	}

	updated, err := ctx.State.UpdateEvent(ctx.Context(), event.ID, input)
	if err != nil {
		return err
	}
	ctx.Printf("Updated event: %s\n", updated.Title)
	return nil
}

type EventDeleteCmd struct {
	ID string `arg:"" help:"Event ID (or unique prefix)."`
}

func (c *EventDeleteCmd) Run(ctx *cli.Context) error {
	event, err := ctx.ResolveEvent(c.ID)
	if err != nil {
		return err
	}
	if err := ctx.State.LoadTasks(ctx.Context(), event.ID); err != nil {
		return err
	}

	prompt := fmt.Sprintf("Delete event %q?", event.Title)
	if n := len(ctx.State.Tasks(event.ID)); n > 0 {
		prompt = fmt.Sprintf("Delete event %q and its %d task(s)?", event.Title, n)
	}
	ok, err := ctx.Confirm(prompt)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Cancelled.")
		return nil
	}

	if err := ctx.State.DeleteEvent(ctx.Context(), event.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted event: %s (undo with 'activity undo')\n", event.Title)
	return nil
}
