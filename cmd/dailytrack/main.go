package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/dailytrack/internal/auth"
	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/cli/activity"
	"github.com/julianstephens/dailytrack/internal/cli/events"
	"github.com/julianstephens/dailytrack/internal/cli/habits"
	"github.com/julianstephens/dailytrack/internal/cli/settings"
	"github.com/julianstephens/dailytrack/internal/cli/system"
	"github.com/julianstephens/dailytrack/internal/cli/tasks"
	"github.com/julianstephens/dailytrack/internal/config"
	"github.com/julianstephens/dailytrack/internal/constants"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" placeholder:"FILE"`
	Backend string `help:"Override the configured storage backend (local or remote)." placeholder:"NAME"`
	Debug   bool   `help:"Write debug output to the log file and stderr."`
	Yes     bool   `short:"y" help:"Answer yes to every confirmation prompt."`

	Init     system.InitCmd       `cmd:"" help:"Initialize dailytrack storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Habit    habits.HabitCmd      `cmd:"" help:"Manage habits and their completions."`
	Stats    habits.StatsCmd      `cmd:"" help:"Show streaks and consistency for a habit."`
	Event    events.EventCmd      `cmd:"" help:"Manage events."`
	Task     tasks.TaskCmd        `cmd:"" help:"Manage the tasks of an event."`
	Activity activity.ActivityCmd `cmd:"" help:"Review and undo recent changes."`
	Profile  settings.ProfileCmd  `cmd:"" help:"Show or update the remote user profile."`
	Settings settings.ConfigCmd   `cmd:"" name:"config" help:"Show or change settings."`
	Auth     system.AuthCmd       `cmd:"" help:"Sign in to the remote backend."`
	Keyring  system.KeyringCmd    `cmd:"" help:"Manage credentials in the OS keyring."`
	Sync     system.SyncCmd       `cmd:"" help:"Copy local data into the remote backend."`
}

// Commands that never touch the database, or open it themselves.
var (
	noBackend = map[string]bool{"config": true, "keyring": true, "auth": true}
	noLoad    = map[string]bool{"init": true, "doctor": true, "config": true, "keyring": true, "auth": true}
)

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Track habits, events and their tasks from the terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	command := strings.Fields(kctx.Command())[0]

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.Backend != "" {
		cfg.Backend = CLI.Backend
		if err := cfg.Validate(); err != nil {
			apperrors.Fatal(err)
		}
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug || cfg.Debug, ConfigDir: cfg.Dir()}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []cli.Option{cli.WithYes(CLI.Yes)}
	appCtx, err := cli.Open(cfg, auth.Keyring{}, opts...)
	if err != nil {
		if !noBackend[command] {
			apperrors.Fatal(err)
		}
		logger.Debug("Running without a storage backend", "command", command, "error", err)
		opts = append(opts, cli.WithConfig(cfg), cli.WithSession(auth.Keyring{}))
		appCtx = cli.New(nil, opts...)
	}
	appCtx.Ctx = sigCtx

	if !noLoad[command] {
		if err := appCtx.Repo.Load(); err != nil {
			cli.LogUnlessNil("failed to close storage", appCtx.Close())
			apperrors.Fatal(err)
		}
	}

	err = kctx.Run(appCtx)
	cli.LogUnlessNil("failed to close storage", appCtx.Close())
	apperrors.Fatal(err)
	_ = logger.Close()
}
