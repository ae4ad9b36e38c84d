package postgres

import (
	"context"
	"database/sql"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/storage"
)

// ownedTables lists every user-scoped table with the column identifying a row.
var ownedTables = []struct{ name, key string }{
	{"habits", "id"},
	{"events", "id"},
	{"event_tasks", "id"},
	{"activity_logs", "id"},
	{"profiles", "user_id"},
}

// CountOwnedRows returns the number of rows the session user owns across all tables.
func (s *Store) CountOwnedRows(ctx context.Context) (int, error) {
	u, err := s.currentUser()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, t := range ownedTables {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.name+` WHERE user_id = $1`, u.ID).Scan(&n); err != nil {
			return 0, apperrors.TransientIO("count "+t.name, err)
		}
		total += n
	}
	return total, nil
}

// ImportBatch writes b in one transaction, keeping the original ids and
// timestamps and stamping the session user. Ids owned by another user are skipped.
func (s *Store) ImportBatch(ctx context.Context, b storage.Batch) error {
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	return s.withTx(ctx, "import batch", func(tx *sql.Tx) error {
		for _, h := range b.Habits {
			if _, err := upsertHabit(ctx, tx, u, h); err != nil {
				return err
			}
		}
		for _, e := range b.Events {
			if _, err := upsertEvent(ctx, tx, u, e); err != nil {
				return err
			}
		}
		for _, t := range b.Tasks {
			if _, err := upsertTask(ctx, tx, u, t); err != nil {
				return err
			}
		}
		for _, l := range b.Logs {
			if l.EntityType == "" {
				l.EntityType = l.Action.Entity()
			}
			l.Timestamp = storage.Timestamp(l.Timestamp)
			if _, err := insertActivity(ctx, tx, u, l, "ON CONFLICT (id) DO NOTHING"); err != nil {
				return err
			}
		}
		return nil
	})
}

// BackfillOwnerEmail fills owner_email on at most limit rows per table where
// it is still unset. Rows that already carry a value are never touched.
func (s *Store) BackfillOwnerEmail(ctx context.Context, email string, limit int) (storage.BackfillCounts, error) {
	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, apperrors.Validation("owner email must not be empty")
	}
	if limit <= 0 {
		return nil, apperrors.Validation("backfill limit must be positive")
	}
	counts := storage.BackfillCounts{}
	err = s.withTx(ctx, "backfill owner email", func(tx *sql.Tx) error {
		for _, t := range ownedTables {
			res, err := tx.ExecContext(ctx, `UPDATE `+t.name+` SET owner_email = $2
				WHERE user_id = $1 AND `+t.key+` IN (
					SELECT `+t.key+` FROM `+t.name+` WHERE user_id = $1 AND owner_email IS NULL LIMIT $3
				)`, u.ID, email, limit)
			if err != nil {
				return apperrors.TransientIO("backfill "+t.name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return apperrors.TransientIO("backfill "+t.name, err)
			}
			counts[t.name] = int(n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
