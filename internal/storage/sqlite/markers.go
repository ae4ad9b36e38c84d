package sqlite

import (
	"context"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/storage"
)

// HasMarker reports whether the one-shot marker key has been recorded on this device.
func (s *Store) HasMarker(ctx context.Context, key string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM markers WHERE key = ?`, key).Scan(&n); err != nil {
		return false, apperrors.TransientIO("read marker", err)
	}
	return n > 0, nil
}

// SetMarker records key. Setting an existing marker is a no-op.
func (s *Store) SetMarker(ctx context.Context, key string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO markers (key, set_at) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		key, storage.FormatTimestamp(s.now()))
	if err != nil {
		return apperrors.TransientIO("write marker", err)
	}
	return nil
}
