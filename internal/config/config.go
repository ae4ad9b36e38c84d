// Package config loads dailytrack settings from an optional YAML file and
// DAILYTRACK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/keyring"
	"github.com/julianstephens/dailytrack/internal/storage/postgres"
	"github.com/julianstephens/dailytrack/internal/utils"
)

const (
	envPrefix = "DAILYTRACK"
	fileName  = "config"
	fileType  = "yaml"
)

type Config struct {
	Backend       string
	LocalPath     string
	RemoteDSN     string
	Debug         bool
	RetentionDays int
	// Timezone is an IANA name; empty means the system zone.
	Timezone string

	// File is the config file that was read, empty when none exists.
	File string
	dir  string
}

// Dir is the directory holding the config file, logs and the local database.
func (c *Config) Dir() string {
	return c.dir
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(constants.SettingBackend, constants.DefaultBackendName)
	v.SetDefault(constants.SettingLocalPath, constants.DefaultDBPath)
	v.SetDefault(constants.SettingRemoteDSN, "")
	v.SetDefault(constants.SettingDebug, false)
	v.SetDefault(constants.SettingRetentionDays, constants.ActivityRetentionDays)
	v.SetDefault(constants.SettingTimezone, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, or config.yaml under the default config directory when
// path is empty. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(expanded)
	} else {
		dir, err := ExpandPath(constants.DefaultConfigDir)
		if err != nil {
			return nil, err
		}
		v.SetConfigName(fileName)
		v.SetConfigType(fileType)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	localPath, err := ExpandPath(v.GetString(constants.SettingLocalPath))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Backend:       strings.ToLower(strings.TrimSpace(v.GetString(constants.SettingBackend))),
		LocalPath:     localPath,
		RemoteDSN:     strings.TrimSpace(v.GetString(constants.SettingRemoteDSN)),
		Debug:         v.GetBool(constants.SettingDebug),
		RetentionDays: v.GetInt(constants.SettingRetentionDays),
		Timezone:      strings.TrimSpace(v.GetString(constants.SettingTimezone)),
		File:          v.ConfigFileUsed(),
	}
	if path != "" {
		cfg.dir = filepath.Dir(v.ConfigFileUsed())
	} else {
		cfg.dir, _ = ExpandPath(constants.DefaultConfigDir)
	}
	if _, statErr := os.Stat(cfg.File); statErr != nil {
		cfg.File = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects an unknown backend or timezone, a bad retention window,
// and a remote DSN carrying a password.
func (c *Config) Validate() error {
	switch c.Backend {
	case constants.LocalBackendName, constants.RemoteBackendName:
	default:
		return fmt.Errorf("invalid backend %q: must be %q or %q", c.Backend, constants.LocalBackendName, constants.RemoteBackendName)
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("activity.retention_days must be at least 1, got %d", c.RetentionDays)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q: expected an IANA name such as Europe/Berlin", c.Timezone)
	}
	if c.RemoteDSN != "" {
		if _, err := postgres.ValidateConnString(c.RemoteDSN); err != nil {
			return fmt.Errorf("invalid remote.dsn: %w", err)
		}
	}
	return nil
}

// ResolveDSN returns the remote connection string: the configured value,
// then the OS keyring, then DAILYTRACK_DB_CONNECTION.
func (c *Config) ResolveDSN() (string, error) {
	if c.RemoteDSN != "" {
		return c.RemoteDSN, nil
	}
	connStr, err := keyring.GetConnectionString()
	if err == nil && connStr != "" {
		return connStr, nil
	}
	if env := os.Getenv(constants.RemoteConnectionEnvVar); env != "" {
		return env, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("no remote connection string configured: %w", err)
	}
	return "", fmt.Errorf("no remote connection string configured; set remote.dsn, run 'dailytrack keyring set', or export %s", constants.RemoteConnectionEnvVar)
}

// Set writes one key to the config file, creating it if needed.
func Set(path, key, value string) (string, error) {
	if path == "" {
		dir, err := ExpandPath(constants.DefaultConfigDir)
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, fileName+"."+fileType)
	} else {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", err
		}
		path = expanded
	}
	if !isKnownKey(key) {
		return "", fmt.Errorf("unknown setting %q", key)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("error reading config file: %w", err)
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// Keys lists the settings understood by Load.
func Keys() []string {
	return []string{
		constants.SettingBackend,
		constants.SettingLocalPath,
		constants.SettingRemoteDSN,
		constants.SettingDebug,
		constants.SettingRetentionDays,
		constants.SettingTimezone,
	}
}

func isKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
