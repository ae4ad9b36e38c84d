package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/dailytrack/internal/logger"
)

// Sentinel failures surfaced by every Repository implementation.
// Callers match them with errors.Is; concrete errors wrap them with context.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrValidation      = errors.New("validation failed")
	ErrTransientIO     = errors.New("storage unavailable")
	// ErrConflict marks a write whose id belongs to another user. Concurrent
	// edits of the same row are not detected.
	ErrConflict = errors.New("conflicting write")
)

// NotFound reports that the entity of the given kind and id does not exist
// (or is not visible to the current user).
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Validation wraps ErrValidation with a formatted reason.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// TransientIO wraps a driver or network failure for op. Returns nil for a nil err.
func TransientIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransientIO, err)
}

// IsNotFound reports whether err carries ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
