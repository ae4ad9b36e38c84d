// Package logger is the process-wide structured logger. Records go to a
// rotating file under the config directory; debug mode mirrors them to stderr.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/dailytrack/internal/constants"
)

var (
	// Logger is nil until Init runs; every helper below is a no-op until then.
	Logger *log.Logger

	file *lumberjack.Logger
)

type Config struct {
	Debug     bool
	ConfigDir string
	// Level overrides the level implied by Debug ("debug", "info", "warn", "error").
	// Empty falls back to DAILYTRACK_LOG_LEVEL.
	Level string
	// Stderr receives the debug mirror. Defaults to os.Stderr.
	Stderr io.Writer
}

func (c Config) level() log.Level {
	name := c.Level
	if name == "" {
		name = os.Getenv(constants.LogLevelEnvVar)
	}
	if lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name))); err == nil && name != "" {
		return lvl
	}
	if c.Debug {
		return log.DebugLevel
	}
	return log.WarnLevel
}

// Path is the active log file for a config directory.
func Path(configDir string) string {
	return filepath.Join(configDir, constants.LogDirName, constants.AppName+".log")
}

func Init(cfg Config) error {
	logPath := Path(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	Close()

	file = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}

	var w io.Writer = file
	if cfg.Debug {
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		w = io.MultiWriter(stderr, file)
	}

	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           cfg.level(),
		Prefix:          constants.AppName,
	})
	return nil
}

// Close flushes and releases the log file. Logging after Close is a no-op.
func Close() error {
	Logger = nil
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// With returns a child logger carrying keyvals, or nil before Init.
func With(keyvals ...interface{}) *log.Logger {
	if Logger == nil {
		return nil
	}
	return Logger.With(keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
