package habits

import (
	"fmt"
	"strings"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit."`
	Toggle HabitToggleCmd `cmd:"" help:"Mark or unmark a habit for a day."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit (undoable from the activity log)."`
	Week   HabitWeekCmd   `cmd:"" help:"Show this week's schedule and completions."`
}

func parseTimeframe(preset string, customDays int) (models.TargetTimeframe, error) {
	tf := models.TargetTimeframe{Preset: models.TimeframePreset(strings.ToLower(preset))}
	if tf.Preset == "" {
		tf.Preset = models.TimeframeWeek
	}
	if tf.Preset == models.TimeframeCustom {
		if customDays < 1 {
			return tf, fmt.Errorf("--custom-days is required with the custom timeframe")
		}
		days := customDays
		tf.CustomDays = &days
	}
	return tf, nil
}

type HabitAddCmd struct {
	Title      string `arg:"" help:"Habit title."`
	Days       string `help:"Scheduled weekdays (e.g. mon,wed,fri, weekdays, 0-6 with 0=Mon). Defaults to every day."`
	Mode       string `help:"Completion mode: strict (today only) or flexible (any day this week)." enum:"strict,flexible" default:"flexible"`
	Timeframe  string `help:"Target timeframe." enum:"week,month,year,custom" default:"week"`
	CustomDays int    `help:"Length of a custom timeframe in days."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	weekdays, err := cli.ParseWeekdays(c.Days)
	if err != nil {
		return err
	}
	tf, err := parseTimeframe(c.Timeframe, c.CustomDays)
	if err != nil {
		return err
	}

	habit, err := ctx.State.CreateHabit(ctx.Context(), models.CreateHabitInput{
		Title:             c.Title,
		TargetTimeframe:   tf,
		ScheduledWeekdays: weekdays,
		CompletionMode:    models.CompletionMode(c.Mode),
	})
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s (%s, %s)\n", habit.Title, cli.ShortID(habit.ID), cli.FormatWeekdays(habit.ScheduledWeekdays))
	return nil
}

type HabitListCmd struct {
	All bool `help:"Include inactive habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	if err := ctx.State.LoadHabits(ctx.Context()); err != nil {
		return err
	}

	habits := ctx.State.ActiveHabits()
	if c.All {
		habits = ctx.State.Habits()
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	now := ctx.Today()
	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		scheduled := len(utils.ScheduledDaysInWeek(now, h.ScheduledWeekdays))
		status := ""
		if !h.Active {
			status = cli.Muted("inactive")
		}
		rows = append(rows, []string{
			cli.ShortID(h.ID),
			h.Title,
			cli.FormatWeekdays(h.ScheduledWeekdays),
			string(h.CompletionMode),
			fmt.Sprintf("%d/%d", h.WeeklyCompletionCount, scheduled),
			cli.Check(h.HasCompletion(utils.DateKey(now))),
			status,
		})
	}
	ctx.Println(cli.Table([]string{"ID", "Habit", "Schedule", "Mode", "Week", "Today", ""}, rows))
	return nil
}

type HabitEditCmd struct {
	ID         string  `arg:"" help:"Habit ID (or unique prefix)."`
	Title      *string `help:"New title."`
	Days       *string `help:"New scheduled weekdays."`
	Mode       *string `help:"Completion mode: strict or flexible."`
	Active     *bool   `help:"Mark the habit active or inactive."`
	Timeframe  *string `help:"Target timeframe: week, month, year or custom."`
	CustomDays int     `help:"Length of a custom timeframe in days."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.ID)
	if err != nil {
		return err
	}

	input := models.UpdateHabitInput{
		Title:  c.Title,
		Active: c.Active,
	}
	if c.Days != nil {
		weekdays, err := cli.ParseWeekdays(*c.Days)
		if err != nil {
			return err
		}
		input.ScheduledWeekdays = weekdays
	}
	if c.Mode != nil {
		mode := models.CompletionMode(*c.Mode)
		input.CompletionMode = &mode
	}
	if c.Timeframe != nil {
		tf, err := parseTimeframe(*c.Timeframe, c.CustomDays)
		if err != nil {
			return err
		}
		input.TargetTimeframe = &tf
	}

	updated, err := ctx.State.UpdateHabit(ctx.Context(), habit.ID, input)
	if err != nil {
		return err
	}
	ctx.Printf("Updated habit: %s\n", updated.Title)
	return nil
}

type HabitToggleCmd struct {
	ID   string `arg:"" help:"Habit ID (or unique prefix)."`
	Date string `arg:"" optional:"" help:"Day to toggle: YYYY-MM-DD, today or yesterday." default:"today"`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.ID)
	if err != nil {
		return err
	}
	key, err := cli.ParseDay(c.Date, ctx.Today())
	if err != nil {
		return err
	}

	updated, err := ctx.State.ToggleHabit(ctx.Context(), habit.ID, key)
	if err != nil {
		return err
	}
	if updated.HasCompletion(key) {
		ctx.Printf("%s %s marked done for %s\n", cli.Check(true), updated.Title, key)
	} else {
		ctx.Printf("%s %s unmarked for %s\n", cli.Check(false), updated.Title, key)
	}
	return nil
}

type HabitDeleteCmd struct {
	ID string `arg:"" help:"Habit ID (or unique prefix)."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.ID)
	if err != nil {
		return err
	}
	ok, err := ctx.Confirm(fmt.Sprintf("Delete habit %q?", habit.Title))
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Cancelled.")
		return nil
	}

	if err := ctx.State.DeleteHabit(ctx.Context(), habit.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s (undo with 'activity undo')\n", habit.Title)
	return nil
}

type HabitWeekCmd struct {
	ID string `arg:"" optional:"" help:"Habit ID (or unique prefix). Defaults to every active habit."`
}

func (c *HabitWeekCmd) Run(ctx *cli.Context) error {
	var habits []models.Habit
	if c.ID != "" {
		habit, err := ctx.ResolveHabit(c.ID)
		if err != nil {
			return err
		}
		habits = []models.Habit{habit}
	} else {
		if err := ctx.State.LoadHabits(ctx.Context()); err != nil {
			return err
		}
		habits = ctx.State.ActiveHabits()
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	now := ctx.Today()
	monday, sunday := utils.WeekRange(now)
	ctx.Println(cli.Title(fmt.Sprintf("Week of %s to %s", monday, sunday)))

	headers := []string{"Habit"}
	for _, d := range utils.ScheduledDaysInWeek(now, nil) {
		headers = append(headers, d.Abbr)
	}
	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		row := []string{h.Title}
		for _, d := range utils.ScheduledDaysInWeek(now, nil) {
			row = append(row, weekCell(h, d))
		}
		rows = append(rows, row)
	}
	ctx.Println(cli.Table(headers, rows))
	return nil
}

func weekCell(h models.Habit, d utils.DayInfo) string {
	if !utils.IsScheduledOn(h.ScheduledWeekdays, d.Date) {
		return " "
	}
	return cli.Check(h.HasCompletion(d.DateKey))
}
