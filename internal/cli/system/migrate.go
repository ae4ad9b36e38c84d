package system

import (
	"fmt"

	"github.com/julianstephens/dailytrack/internal/cli"
)

type MigrateCmd struct {
	Status bool `help:"Only report the schema version and pending migrations."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Repo.(migrator)
	if !ok {
		return fmt.Errorf("the %s backend does not support migrations", ctx.Repo.Name())
	}

	before, err := m.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	ctx.Printf("Schema version: %d (latest %d)\n", before.Current, before.Latest)

	if c.Status {
		for _, p := range before.Pending {
			ctx.Printf("  pending: %03d_%s\n", p.Version, p.Name)
		}
		if len(before.Pending) == 0 {
			ctx.Println("Database is up to date.")
		}
		return nil
	}

	if len(before.Pending) == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
		return nil
	}

	if err := ctx.Repo.Init(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	after, err := m.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	ctx.Printf("Successfully applied %d migration(s). Schema version: %d\n", after.Current-before.Current, after.Current)
	return nil
}
