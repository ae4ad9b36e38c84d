package habits

import (
	"fmt"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/stats"
)

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	if err := ctx.State.LoadHabits(ctx.Context()); err != nil {
		return err
	}
	habits := ctx.State.ActiveHabits()
	if len(habits) == 0 {
		ctx.Println("No active habits yet.")
		return nil
	}

	now := ctx.Today()
	streaks := stats.ComputeStreaks(habits, now)
	cons := stats.ComputeConsistency(habits, now)

	ctx.Println(cli.Title("Streaks"))
	ctx.Printf("  Current: %d day(s)\n", streaks.Current)
	ctx.Printf("  Longest: %d day(s)\n", streaks.Longest)
	ctx.Println()
	ctx.Println(cli.Title("Last 7 days"))
	ctx.Printf("  Completion rate: %d%% (previous 7 days: %d%%)\n", cons.ThisWeekRate, cons.LastWeekRate)
	ctx.Printf("  Trend:           %s\n", trendLabel(cons))
	ctx.Printf("  Perfect days:    %d\n", cons.PerfectDays)
	ctx.Printf("  Completions:     %d\n", cons.TotalCompletions)
	return nil
}

func trendLabel(c stats.Consistency) string {
	switch c.Trend {
	case stats.TrendUp:
		return cli.Success(fmt.Sprintf("up %d pts", c.TrendValue))
	case stats.TrendDown:
		return cli.Danger(fmt.Sprintf("down %d pts", c.TrendValue))
	default:
		return cli.Muted("steady")
	}
}
