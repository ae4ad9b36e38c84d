package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

const activityColumns = `id, action, entity_type, entity_id, entity_title, timestamp, snapshot, can_undo`

func scanActivity(row rowScanner) (models.ActivityLog, error) {
	var (
		l        models.ActivityLog
		ts       string
		snapshot sql.NullString
		canUndo  int
	)
	if err := row.Scan(&l.ID, &l.Action, &l.EntityType, &l.EntityID, &l.EntityTitle, &ts, &snapshot, &canUndo); err != nil {
		return models.ActivityLog{}, err
	}
	var err error
	if l.Timestamp, err = storage.ParseTimestamp(ts); err != nil {
		return models.ActivityLog{}, fmt.Errorf("activity log %s: %w", l.ID, err)
	}
	l.Snapshot = snapshot.String
	l.CanUndo = canUndo != 0
	return l, nil
}

func (s *Store) queryActivity(ctx context.Context, query string, args ...any) ([]models.ActivityLog, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.TransientIO("list activity logs", err)
	}
	defer rows.Close()

	logs := []models.ActivityLog{}
	for rows.Next() {
		l, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.TransientIO("list activity logs", err)
	}
	return logs, nil
}

func (s *Store) ListActivityLogs(ctx context.Context) ([]models.ActivityLog, error) {
	return s.queryActivity(ctx, `SELECT `+activityColumns+` FROM activity_logs ORDER BY timestamp DESC, id DESC`)
}

func (s *Store) ListRecentActivityLogs(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		return []models.ActivityLog{}, nil
	}
	return s.queryActivity(ctx, `SELECT `+activityColumns+` FROM activity_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
}

func (s *Store) GetActivityLog(ctx context.Context, id string) (models.ActivityLog, error) {
	if err := s.ready(); err != nil {
		return models.ActivityLog{}, err
	}
	l, err := scanActivity(s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activity_logs WHERE id = ?`, id))
	if err != nil {
		return models.ActivityLog{}, scanErr(err, "activity log", id)
	}
	return l, nil
}

func (s *Store) CreateActivityLog(ctx context.Context, entry models.ActivityLog) (models.ActivityLog, error) {
	if err := s.ready(); err != nil {
		return models.ActivityLog{}, err
	}
	if !entry.Action.Valid() {
		return models.ActivityLog{}, apperrors.Validation("unknown activity action %q", entry.Action)
	}
	if entry.CanUndo && entry.Snapshot == "" {
		return models.ActivityLog{}, apperrors.Validation("undoable activity %s requires a snapshot", entry.Action)
	}
	if entry.EntityType == "" {
		entry.EntityType = entry.Action.Entity()
	}
	if entry.ID == "" {
		entry.ID = storage.NewID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	entry.Timestamp = storage.Timestamp(entry.Timestamp)

	var snapshot any
	if entry.Snapshot != "" {
		snapshot = entry.Snapshot
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO activity_logs (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Action), string(entry.EntityType), entry.EntityID, entry.EntityTitle,
		storage.FormatTimestamp(entry.Timestamp), snapshot, boolToInt(entry.CanUndo))
	if err != nil {
		return models.ActivityLog{}, apperrors.TransientIO("write activity log", err)
	}
	return entry, nil
}

func (s *Store) DeleteActivityLog(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE id = ?`, id)
	if err != nil {
		return apperrors.TransientIO("delete activity log", err)
	}
	return affectedOrNotFound(res, "activity log", id)
}

func (s *Store) DeleteActivityLogsOlderThan(ctx context.Context, days int) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if days < 0 {
		return 0, apperrors.Validation("retention days must not be negative")
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE timestamp < ?`, storage.FormatTimestamp(cutoff))
	if err != nil {
		return 0, apperrors.TransientIO("prune activity logs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.TransientIO("prune activity logs", err)
	}
	return n, nil
}
