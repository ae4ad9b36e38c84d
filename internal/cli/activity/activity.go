package activity

import (
	"fmt"
	"strings"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/models"
)

type ActivityCmd struct {
	List    ActivityListCmd    `cmd:"" help:"Show recent activity." default:"1"`
	Undo    ActivityUndoCmd    `cmd:"" help:"Undo an activity entry (the latest undoable one by default)."`
	Dismiss ActivityDismissCmd `cmd:"" help:"Remove an activity entry without undoing it."`
	Prune   ActivityPruneCmd   `cmd:"" help:"Delete activity older than the retention window."`
}

func describe(l models.ActivityLog) string {
	verb := strings.ReplaceAll(string(l.Action), "_", " ")
	return fmt.Sprintf("%s %q", verb, l.EntityTitle)
}

func resolveLog(ctx *cli.Context, input string) (models.ActivityLog, error) {
	if err := ctx.State.LoadActivityLogs(ctx.Context()); err != nil {
		return models.ActivityLog{}, err
	}
	logs := ctx.State.ActivityLogs()
	ids := make([]string, len(logs))
	for i, l := range logs {
		ids[i] = l.ID
	}
	id, err := cli.ResolveID("activity log", ids, input)
	if err != nil {
		return models.ActivityLog{}, err
	}
	for _, l := range logs {
		if l.ID == id {
			return l, nil
		}
	}
	return models.ActivityLog{}, fmt.Errorf("activity log %s disappeared from cache", id)
}

type ActivityListCmd struct {
	Limit int `short:"n" help:"Maximum entries to show." default:"20"`
}

func (c *ActivityListCmd) Run(ctx *cli.Context) error {
	if err := ctx.State.LoadActivityLogs(ctx.Context()); err != nil {
		return err
	}
	logs := ctx.State.ActivityLogs()
	if c.Limit > 0 && len(logs) > c.Limit {
		logs = logs[:c.Limit]
	}
	if len(logs) == 0 {
		ctx.Println("No recent activity.")
		return nil
	}

	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		undo := ""
		if l.CanUndo {
			undo = cli.Success("undoable")
		}
		rows = append(rows, []string{
			cli.ShortID(l.ID),
			l.Timestamp.Local().Format("Jan 02 15:04"),
			describe(l),
			undo,
		})
	}
	ctx.Println(cli.Table([]string{"ID", "When", "Activity", ""}, rows))
	return nil
}

type ActivityUndoCmd struct {
	ID string `arg:"" optional:"" help:"Activity ID (or unique prefix)."`
}

func (c *ActivityUndoCmd) Run(ctx *cli.Context) error {
	var entry models.ActivityLog
	if c.ID == "" {
		if err := ctx.State.LoadActivityLogs(ctx.Context()); err != nil {
			return err
		}
		found := false
		for _, l := range ctx.State.ActivityLogs() {
			if l.CanUndo {
				entry, found = l, true
				break
			}
		}
		if !found {
			ctx.Println("Nothing to undo.")
			return nil
		}
	} else {
		l, err := resolveLog(ctx, c.ID)
		if err != nil {
			return err
		}
		entry = l
	}

	if !entry.CanUndo {
		ctx.Printf("%s cannot be undone.\n", describe(entry))
		return nil
	}
	ok, err := ctx.State.Undo(ctx.Context(), entry.ID)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Nothing to undo.")
		return nil
	}
	ctx.Printf("Undid: %s\n", describe(entry))
	return nil
}

type ActivityDismissCmd struct {
	ID string `arg:"" help:"Activity ID (or unique prefix)."`
}

func (c *ActivityDismissCmd) Run(ctx *cli.Context) error {
	entry, err := resolveLog(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := ctx.State.Dismiss(ctx.Context(), entry.ID); err != nil {
		return err
	}
	ctx.Printf("Dismissed: %s\n", describe(entry))
	return nil
}

type ActivityPruneCmd struct {
	Days int `help:"Retention window in days. Defaults to activity.retention_days."`
}

func (c *ActivityPruneCmd) Run(ctx *cli.Context) error {
	days := c.Days
	if days <= 0 && ctx.Config != nil {
		days = ctx.Config.RetentionDays
	}
	if days <= 0 {
		days = constants.ActivityRetentionDays
	}

	n, err := ctx.State.Prune(ctx.Context(), days)
	if err != nil {
		return err
	}
	ctx.Printf("Pruned %d activity entr%s older than %d days.\n", n, plural(n), days)
	return nil
}

func plural(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
