package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/maintenance"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage/sqlite"
)

type SyncCmd struct {
	All      SyncAllCmd      `cmd:"" default:"1" help:"Run every pending sync routine."`
	Migrate  SyncMigrateCmd  `cmd:"" help:"Copy this device's local data into an empty remote store."`
	Backfill SyncBackfillCmd `cmd:"" help:"Fill the owner email on remote rows created before it was tracked."`
}

type SyncAllCmd struct{}

func (c *SyncAllCmd) Run(ctx *cli.Context) error { return runSync(ctx, true, true) }

type SyncMigrateCmd struct{}

func (c *SyncMigrateCmd) Run(ctx *cli.Context) error { return runSync(ctx, true, false) }

type SyncBackfillCmd struct{}

func (c *SyncBackfillCmd) Run(ctx *cli.Context) error { return runSync(ctx, false, true) }

func runSync(ctx *cli.Context, migrate, backfill bool) error {
	remote, ok := ctx.Repo.(maintenance.RemoteTarget)
	if !ok || ctx.Repo.Name() != constants.RemoteBackendName {
		return fmt.Errorf("sync requires the %s backend, run '%s config set backend %s'",
			constants.RemoteBackendName, constants.AppName, constants.RemoteBackendName)
	}
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	if ctx.Config == nil {
		return fmt.Errorf("no configuration loaded")
	}

	if _, err := os.Stat(ctx.Config.LocalPath); os.IsNotExist(err) {
		ctx.Printf("No local database at %s, nothing to sync.\n", ctx.Config.LocalPath)
		return nil
	}
	local := sqlite.NewStore(ctx.Config.LocalPath, sqlite.WithClock(ctx.Now))
	if err := local.Load(); err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	defer func() { cli.LogUnlessNil("failed to close local database", local.Close()) }()

	if migrate {
		report, err := maintenance.MigrateLocalToRemote(ctx.Context(), local, remote, local, user)
		if err != nil {
			return err
		}
		printMigration(ctx, report)
	}
	if backfill {
		report, err := maintenance.BackfillOwnerEmail(ctx.Context(), remote, local, user)
		if err != nil {
			return err
		}
		printBackfill(ctx, report)
	}
	return nil
}

// syncAfterLogin runs the sync routines for a new session and reports
// failures without failing the login.
func syncAfterLogin(ctx *cli.Context, user models.User) {
	if ctx.Repo == nil || ctx.Repo.Name() != constants.RemoteBackendName {
		return
	}
	if err := ctx.Repo.Load(); err != nil {
		cli.LogUnlessNil("failed to open remote backend after login", err)
		ctx.Printf("Run '%s sync' once the remote database is reachable.\n", constants.AppName)
		return
	}
	if err := runSync(ctx, true, true); err != nil {
		cli.LogUnlessNil("sync after login failed", err)
		ctx.Printf("Sync failed for %s: %v\n", user.Email, err)
	}
}

func printMigration(ctx *cli.Context, r maintenance.MigrationReport) {
	if r.Skipped {
		ctx.Printf("Migration skipped: %s\n", r.Reason)
		return
	}
	if r.Total() == 0 {
		ctx.Println("Migration complete: local store is empty.")
		return
	}
	if r.Resumed {
		ctx.Println("Resumed an interrupted migration.")
	}
	ctx.Printf("Migrated %d habit(s), %d event(s), %d task(s) and %d activity entr%s in %d batch(es).\n",
		r.Habits, r.Events, r.Tasks, r.Logs, plural(r.Logs, "y", "ies"), r.Batches)
}

func printBackfill(ctx *cli.Context, r maintenance.BackfillReport) {
	if r.Skipped {
		ctx.Printf("Backfill skipped: %s\n", r.Reason)
		return
	}
	ctx.Printf("Backfilled owner email on %d row(s).\n", r.Counts.Total())
	if !r.Complete {
		ctx.Printf("Some rows remain, run '%s sync backfill' again.\n", constants.AppName)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
