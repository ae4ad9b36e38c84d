package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/keyring"
	"github.com/julianstephens/dailytrack/internal/migration"
	"github.com/julianstephens/dailytrack/internal/utils"
)

// migrator is implemented by both backends.
type migrator interface {
	MigrationStatus() (migration.Status, error)
}

type DoctorCmd struct{}

type check struct {
	name string
	// needsDB checks are skipped when the database is unreachable.
	needsDB bool
	// warnOnly failures do not fail the run.
	warnOnly bool
	run      func(ctx *cli.Context) error
}

var doctorChecks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Habit integrity", needsDB: true, run: checkHabitsIntegrity},
	{name: "Task order", needsDB: true, run: checkTaskOrder},
	{name: "Activity log", needsDB: true, run: checkActivityLog},
	{name: "Activity retention", needsDB: true, warnOnly: true, run: checkActivityRetention},
	{name: "Clock/timezone", run: checkConfiguredClock},
	{name: "OS keyring", warnOnly: true, run: checkKeyring},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK (%s backend)\n", ctx.Repo.Name())
	}

	for _, c := range doctorChecks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if ctx.Repo == nil {
		return errors.New("no storage backend configured")
	}
	if err := ctx.Repo.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Repo.ListEvents(ctx.Context()); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func migrationStatus(ctx *cli.Context) (migration.Status, error) {
	m, ok := ctx.Repo.(migrator)
	if !ok {
		return migration.Status{}, fmt.Errorf("%s backend does not report schema status", ctx.Repo.Name())
	}
	return m.MigrationStatus()
}

func checkSchemaVersion(ctx *cli.Context) error {
	st, err := migrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if st.Current > st.Latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", st.Current, st.Latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	st, err := migrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if len(st.Pending) > 0 {
		return fmt.Errorf("database is at version %d but latest is %d; run '%s migrate'", st.Current, st.Latest, constants.AppName)
	}
	return nil
}

func checkHabitsIntegrity(ctx *cli.Context) error {
	habits, err := ctx.Repo.ListHabits(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}
	now := ctx.Today()
	for _, h := range habits {
		seen := map[string]bool{}
		for _, key := range h.Completions {
			if !utils.IsDateKey(key) {
				return fmt.Errorf("habit %q has malformed completion %q", h.Title, key)
			}
			if seen[key] {
				return fmt.Errorf("habit %q has duplicate completion %s", h.Title, key)
			}
			seen[key] = true
		}
		if want := utils.WeeklyCompletionCount(h.Completions, h.ScheduledWeekdays, now); h.WeeklyCompletionCount != want {
			return fmt.Errorf("habit %q weekly count is %d, expected %d", h.Title, h.WeeklyCompletionCount, want)
		}
	}
	return nil
}

func checkTaskOrder(ctx *cli.Context) error {
	events, err := ctx.Repo.ListEvents(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	for _, e := range events {
		tasks, err := ctx.Repo.ListTasksForEvent(ctx.Context(), e.ID)
		if err != nil {
			return fmt.Errorf("failed to list tasks of %q: %w", e.Title, err)
		}
		for i, t := range tasks {
			if t.Order != i {
				return fmt.Errorf("event %q has non-contiguous task order (task %q at %d, expected %d); run 'task reorder'", e.Title, t.Title, t.Order, i)
			}
		}
	}
	return nil
}

func checkActivityLog(ctx *cli.Context) error {
	logs, err := ctx.Repo.ListActivityLogs(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list activity: %w", err)
	}
	for _, l := range logs {
		if !l.Action.Valid() {
			return fmt.Errorf("entry %s has unknown action %q", l.ID, l.Action)
		}
		if l.CanUndo && l.Snapshot == "" {
			return fmt.Errorf("entry %s is undoable but has no snapshot", l.ID)
		}
	}
	return nil
}

func checkActivityRetention(ctx *cli.Context) error {
	days := constants.ActivityRetentionDays
	if ctx.Config != nil && ctx.Config.RetentionDays > 0 {
		days = ctx.Config.RetentionDays
	}
	logs, err := ctx.Repo.ListActivityLogs(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list activity: %w", err)
	}
	cutoff := ctx.Today().AddDate(0, 0, -days)
	stale := 0
	for _, l := range logs {
		if l.Timestamp.Before(cutoff) {
			stale++
		}
	}
	if stale > 0 {
		return fmt.Errorf("%d entries are older than %d days; run 'activity prune'", stale, days)
	}
	return nil
}

func checkConfiguredClock(ctx *cli.Context) error {
	tz := ""
	if ctx.Config != nil {
		tz = ctx.Config.Timezone
	}
	now, err := utils.NowInTimezone(tz)
	if err != nil {
		return err
	}
	return checkClockTimezone(now)
}

func checkClockTimezone(now time.Time) error {
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if now.Location() == nil || now.Location().String() == "" {
		return errors.New("local timezone is not set")
	}
	return nil
}

func checkKeyring(*cli.Context) error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available; remote credentials and sign-in need it")
	}
	return nil
}
