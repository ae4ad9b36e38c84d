// Package lock keeps a second dailytrack process from writing the local
// database at the same time. The lockfile holds "pid|executable".
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

var ErrLocked = errors.New("database is in use by another dailytrack process")

type Lock struct {
	path string
	pid  int
}

// Path returns the lockfile location for a database directory.
func Path(dir string) string {
	return filepath.Join(dir, constants.LockfileName)
}

// Acquire takes the lock in dir. A lockfile left by a process that is gone
// is taken over.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := Path(dir)
	pid := getpidFunc()
	exe := executableName()

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d|%s", pid, exe)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, pid: pid}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		owner, ownerExe, perr := readLockfile(path)
		if perr == nil && owner != pid && isRunning(owner, ownerExe) {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, owner)
		}
		logger.Warn("Removing stale lockfile", "path", path, "pid", owner, "error", perr)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, ErrLocked
}

// Release removes the lockfile if this process still owns it.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	owner, _, err := readLockfile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err == nil && owner != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

func readLockfile(path string) (int, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, "", err
	}
	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	if len(parts) != 2 {
		return 0, "", errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, "", errors.New("invalid process ID in lockfile")
	}
	return pid, parts[1], nil
}

// isRunning reports whether pid is alive and still the same program.
func isRunning(pid int, exe string) bool {
	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return false
	}
	return exe == "" || process.Executable() == exe
}

func executableName() string {
	exe, err := os.Executable()
	if err != nil {
		return constants.AppName
	}
	return filepath.Base(exe)
}
