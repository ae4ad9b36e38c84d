package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/dailytrack/internal/constants"
)

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.New().String()
}

// Timestamp normalizes t to the precision and zone the backends persist.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatTimestamp renders t as a fixed-width UTC string that sorts chronologically.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

// ParseTimestamp accepts the fixed-width layout and falls back to RFC3339 for
// values written by other tools.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(constants.TimestampFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// EncodeJSONList stores a slice as a JSON array column. A nil slice encodes as [].
func EncodeJSONList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeJSONList parses a JSON array column. An empty column decodes to nil.
func DecodeJSONList[T any](s string) ([]T, error) {
	if s == "" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}
