package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/dailytrack/internal/constants"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantLevel log.Level
	}{
		{name: "normal mode", cfg: Config{}, wantLevel: log.WarnLevel},
		{name: "debug mode", cfg: Config{Debug: true}, wantLevel: log.DebugLevel},
		{name: "explicit level", cfg: Config{Level: "info"}, wantLevel: log.InfoLevel},
		{name: "bad level falls back", cfg: Config{Debug: true, Level: "loud"}, wantLevel: log.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(constants.LogLevelEnvVar, "")
			configDir := filepath.Join(t.TempDir(), "config")
			cfg := tt.cfg
			cfg.ConfigDir = configDir
			cfg.Stderr = &bytes.Buffer{}
			if err := Init(cfg); err != nil {
				t.Fatalf("Init() error: %v", err)
			}
			t.Cleanup(func() { Close() })

			if Logger == nil {
				t.Fatal("Logger is nil after Init")
			}
			if got := Logger.GetLevel(); got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}

			Warn("warn message", "habit", "h1")
			if err := Close(); err != nil {
				t.Fatal(err)
			}
			data, err := os.ReadFile(Path(configDir))
			if err != nil {
				t.Fatalf("log file not written: %v", err)
			}
			if !strings.Contains(string(data), "warn message") {
				t.Errorf("log file = %q", data)
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(constants.LogLevelEnvVar, "error")
	if err := Init(Config{ConfigDir: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Close() })
	if got := Logger.GetLevel(); got != log.ErrorLevel {
		t.Errorf("level = %v, want error", got)
	}
}

func TestDebugMirrorsToStderr(t *testing.T) {
	t.Setenv(constants.LogLevelEnvVar, "")
	var stderr bytes.Buffer
	if err := Init(Config{Debug: true, ConfigDir: t.TempDir(), Stderr: &stderr}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Close() })

	With("backend", "local").Debug("opened store")
	if !strings.Contains(stderr.String(), "opened store") || !strings.Contains(stderr.String(), "backend=local") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Close()

	// must not panic
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	if With("k", "v") != nil {
		t.Error("With() before Init should be nil")
	}
}
