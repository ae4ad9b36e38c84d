package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

const activityColumns = `id, user_id, owner_email, action, entity_type, entity_id, entity_title, timestamp, snapshot, can_undo`

func scanActivity(row rowScanner) (models.ActivityLog, error) {
	var (
		l                    models.ActivityLog
		ownerEmail, snapshot sql.NullString
	)
	if err := row.Scan(&l.ID, &l.UserID, &ownerEmail, &l.Action, &l.EntityType, &l.EntityID, &l.EntityTitle,
		&l.Timestamp, &snapshot, &l.CanUndo); err != nil {
		return models.ActivityLog{}, err
	}
	l.OwnerEmail = ownerEmail.String
	l.Snapshot = snapshot.String
	l.Timestamp = storage.Timestamp(l.Timestamp)
	return l, nil
}

func (s *Store) queryActivity(ctx context.Context, query string, args ...any) ([]models.ActivityLog, error) {
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
	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	return s.queryActivity(ctx, `SELECT `+activityColumns+` FROM activity_logs
		WHERE user_id = $1 ORDER BY timestamp DESC, id DESC`, u.ID)
}

func (s *Store) ListRecentActivityLogs(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.ActivityLog{}, nil
	}
	return s.queryActivity(ctx, `SELECT `+activityColumns+` FROM activity_logs
		WHERE user_id = $1 ORDER BY timestamp DESC, id DESC LIMIT $2`, u.ID, limit)
}

func (s *Store) GetActivityLog(ctx context.Context, id string) (models.ActivityLog, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.ActivityLog{}, err
	}
	l, err := scanActivity(s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activity_logs
		WHERE user_id = $1 AND id = $2`, u.ID, id))
	if err != nil {
		return models.ActivityLog{}, scanErr(err, "activity log", id)
	}
	return l, nil
}

func insertActivity(ctx context.Context, q querier, u models.User, l models.ActivityLog, onConflict string) (sql.Result, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO activity_logs (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) `+onConflict,
		l.ID, u.ID, nullString(u.Email), string(l.Action), string(l.EntityType), l.EntityID, l.EntityTitle,
		l.Timestamp.UTC(), nullString(l.Snapshot), l.CanUndo)
	if err != nil {
		return nil, apperrors.TransientIO("write activity log", err)
	}
	return res, nil
}

func (s *Store) CreateActivityLog(ctx context.Context, entry models.ActivityLog) (models.ActivityLog, error) {
	u, err := s.currentUser()
	if err != nil {
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
	entry.UserID = u.ID
	entry.OwnerEmail = u.Email

	if _, err := insertActivity(ctx, s.db, u, entry, ""); err != nil {
		return models.ActivityLog{}, err
	}
	return entry, nil
}

func (s *Store) DeleteActivityLog(ctx context.Context, id string) error {
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE user_id = $1 AND id = $2`, u.ID, id)
	if err != nil {
		return apperrors.TransientIO("delete activity log", err)
	}
	return affectedOrNotFound(res, "activity log", id)
}

func (s *Store) DeleteActivityLogsOlderThan(ctx context.Context, days int) (int64, error) {
	u, err := s.currentUser()
	if err != nil {
		return 0, err
	}
	if days < 0 {
		return 0, apperrors.Validation("retention days must not be negative")
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour).UTC()
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE user_id = $1 AND timestamp < $2`, u.ID, cutoff)
	if err != nil {
		return 0, apperrors.TransientIO("prune activity logs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.TransientIO("prune activity logs", err)
	}
	return n, nil
}
