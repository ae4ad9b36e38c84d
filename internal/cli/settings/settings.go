package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/config"
	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/keyring"
)

type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" help:"Show the effective configuration." default:"1"`
	Set  ConfigSetCmd  `cmd:"" help:"Write a setting to the config file."`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg == nil {
		return errNoConfig
	}

	file := cfg.File
	if file == "" {
		file = cli.Muted("(none, using defaults)")
	}
	dsn := cfg.RemoteDSN
	if dsn == "" {
		dsn = cli.Muted("(keyring or " + constants.RemoteConnectionEnvVar + ")")
	} else {
		dsn = keyring.MaskPassword(dsn)
	}

	ctx.Println(cli.Title("Current Settings:"))
	ctx.Printf("  Config file:     %s\n", file)
	ctx.Printf("  %-16s %s\n", constants.SettingBackend+":", cfg.Backend)
	ctx.Printf("  %-16s %s\n", constants.SettingLocalPath+":", cfg.LocalPath)
	ctx.Printf("  %-16s %s\n", constants.SettingRemoteDSN+":", dsn)
	ctx.Printf("  %-16s %s\n", constants.SettingDebug+":", strconv.FormatBool(cfg.Debug))
	ctx.Printf("  %-16s %d\n", "retention_days:", cfg.RetentionDays)
	tz := cfg.Timezone
	if tz == "" {
		tz = cli.Muted("(system)")
	}
	ctx.Printf("  %-16s %s\n", constants.SettingTimezone+":", tz)
	return nil
}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"Setting key (backend, local.path, remote.dsn, debug, activity.retention_days, timezone)."`
	Value string `arg:"" help:"New value."`
}

func (c *ConfigSetCmd) Run(ctx *cli.Context) error {
	if ctx.Config == nil {
		return errNoConfig
	}
	target := ctx.Config.File
	if target == "" {
		target = filepath.Join(ctx.Config.Dir(), "config.yaml")
	}

	previous, readErr := os.ReadFile(target)
	written, err := config.Set(target, c.Key, c.Value)
	if err != nil {
		return err
	}
	if _, err := config.Load(written); err != nil {
		if readErr == nil {
			cli.LogUnlessNil("failed to restore config file", os.WriteFile(written, previous, 0o600))
		} else {
			cli.LogUnlessNil("failed to remove config file", os.Remove(written))
		}
		return fmt.Errorf("%s not saved: %w", c.Key, err)
	}
	ctx.Printf("Set %s in %s\n", c.Key, written)
	return nil
}
