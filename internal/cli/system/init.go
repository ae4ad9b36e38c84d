package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/maintenance"
	"github.com/julianstephens/dailytrack/internal/storage/sqlite"
)

// pathed is implemented by the local backend.
type pathed interface {
	GetConfigPath() string
}

type InitCmd struct {
	Force  bool   `help:"Delete the existing local database before initializing."`
	Source string `help:"Path of another local database to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Repo.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized %s storage (%s backend)%s\n", constants.AppName, ctx.Repo.Name(), location(ctx))

	if c.Source == "" {
		return nil
	}

	ctx.Printf("Copying data from: %s\n", c.Source)
	if _, err := os.Stat(c.Source); err != nil {
		return fmt.Errorf("cannot read source database: %w", err)
	}
	src := sqlite.NewStore(c.Source, sqlite.WithClock(ctx.Now))
	if err := src.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer func() { cli.LogUnlessNil("failed to close source database", src.Close()) }()

	snapshot, err := maintenance.Snapshot(ctx.Context(), src)
	if err != nil {
		return err
	}
	report, err := maintenance.CopyInto(ctx.Context(), ctx.Repo, snapshot)
	if err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	ctx.Printf("  Habits:   %d\n", report.Habits)
	ctx.Printf("  Events:   %d\n", report.Events)
	ctx.Printf("  Tasks:    %d\n", report.Tasks)
	ctx.Printf("  Activity: %d\n", report.Logs)
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	p, ok := ctx.Repo.(pathed)
	if !ok || ctx.Repo.Name() != constants.LocalBackendName {
		return fmt.Errorf("--force is only supported on the %s backend", constants.LocalBackendName)
	}
	dbPath := absPath(p.GetConfigPath())
	if c.Source != "" && absPath(c.Source) == dbPath {
		return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
	}

	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to access existing database: %w", err)
	}

	ok, err := ctx.Confirm(fmt.Sprintf("Delete the database at %s?", dbPath))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("init cancelled")
	}
	if err := ctx.Repo.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
	}
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}

func location(ctx *cli.Context) string {
	if p, ok := ctx.Repo.(pathed); ok && ctx.Repo.Name() == constants.LocalBackendName {
		return " at: " + p.GetConfigPath()
	}
	return ""
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
