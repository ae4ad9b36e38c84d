package postgres

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

const taskColumns = `id, user_id, owner_email, event_id, title, done, priority, created_at, updated_at, sort_order`

func scanTask(row rowScanner) (models.EventTask, error) {
	var (
		t                    models.EventTask
		ownerEmail, priority sql.NullString
	)
	if err := row.Scan(&t.ID, &t.UserID, &ownerEmail, &t.EventID, &t.Title, &t.Done, &priority, &t.CreatedAt, &t.UpdatedAt, &t.Order); err != nil {
		return models.EventTask{}, err
	}
	t.OwnerEmail = ownerEmail.String
	t.Priority = models.Priority(priority.String)
	t.CreatedAt = storage.Timestamp(t.CreatedAt)
	t.UpdatedAt = storage.Timestamp(t.UpdatedAt)
	return t, nil
}

func (s *Store) getTask(ctx context.Context, q querier, userID, id string) (models.EventTask, error) {
	t, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM event_tasks WHERE user_id = $1 AND id = $2`, userID, id))
	if err != nil {
		return models.EventTask{}, scanErr(err, "task", id)
	}
	return t, nil
}

func upsertTask(ctx context.Context, q querier, u models.User, t models.EventTask) (sql.Result, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO event_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			owner_email = COALESCE(event_tasks.owner_email, excluded.owner_email),
			event_id = excluded.event_id,
			title = excluded.title,
			done = excluded.done,
			priority = excluded.priority,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sort_order = excluded.sort_order
		WHERE event_tasks.user_id = excluded.user_id`,
		t.ID, u.ID, nullString(u.Email), t.EventID, t.Title, t.Done, nullString(string(t.Priority)),
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(), t.Order)
	if err != nil {
		return nil, apperrors.TransientIO("write task", err)
	}
	return res, nil
}

func (s *Store) ListTasksForEvent(ctx context.Context, eventID string) ([]models.EventTask, error) {
	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM event_tasks
		WHERE user_id = $1 AND event_id = $2 ORDER BY sort_order, created_at, id`, u.ID, eventID)
	if err != nil {
		return nil, apperrors.TransientIO("list tasks", err)
	}
	defer rows.Close()

	tasks := []models.EventTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.TransientIO("list tasks", err)
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (models.EventTask, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.EventTask{}, err
	}
	return s.getTask(ctx, s.db, u.ID, id)
}

func (s *Store) CreateTask(ctx context.Context, input models.CreateTaskInput) (models.EventTask, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.EventTask{}, err
	}
	if err := input.Validate(); err != nil {
		return models.EventTask{}, err
	}
	var out models.EventTask
	err = s.withTx(ctx, "create task", func(tx *sql.Tx) error {
		// Locking the parent event serializes concurrent appends to its task list.
		if err := tx.QueryRowContext(ctx, `SELECT id FROM events WHERE user_id = $1 AND id = $2 FOR UPDATE`,
			u.ID, input.EventID).Scan(new(string)); err != nil {
			return scanErr(err, "event", input.EventID)
		}
		var maxOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM event_tasks WHERE user_id = $1 AND event_id = $2`,
			u.ID, input.EventID).Scan(&maxOrder); err != nil {
			return apperrors.TransientIO("read task order", err)
		}
		order := 0
		if maxOrder.Valid {
			order = int(maxOrder.Int64) + 1
		}
		now := storage.Timestamp(s.now())
		out = models.EventTask{
			ID:         storage.NewID(),
			UserID:     u.ID,
			OwnerEmail: u.Email,
			EventID:    input.EventID,
			Title:      input.Title,
			Done:       input.Done,
			Priority:   input.Priority,
			CreatedAt:  now,
			UpdatedAt:  now,
			Order:      order,
		}
		_, err := upsertTask(ctx, tx, u, out)
		return err
	})
	return out, err
}

func (s *Store) UpdateTask(ctx context.Context, id string, input models.UpdateTaskInput) (models.EventTask, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.EventTask{}, err
	}
	if err := input.Validate(); err != nil {
		return models.EventTask{}, err
	}
	var out models.EventTask
	err = s.withTx(ctx, "update task", func(tx *sql.Tx) error {
		t, err := s.getTask(ctx, tx, u.ID, id)
		if err != nil {
			return err
		}
		input.Apply(&t)
		t.UpdatedAt = storage.Timestamp(s.now())
		out = t
		_, err = upsertTask(ctx, tx, u, t)
		return err
	})
	return out, err
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM event_tasks WHERE user_id = $1 AND id = $2`, u.ID, id)
	if err != nil {
		return apperrors.TransientIO("delete task", err)
	}
	return affectedOrNotFound(res, "task", id)
}

func (s *Store) ReorderTasks(ctx context.Context, eventID string, orderedIDs []string) error {
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	return s.withTx(ctx, "reorder tasks", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE event_tasks SET sort_order = $1 WHERE user_id = $2 AND event_id = $3 AND id = $4`)
		if err != nil {
			return apperrors.TransientIO("reorder tasks", err)
		}
		defer stmt.Close()
		for i, id := range orderedIDs {
			if _, err := stmt.ExecContext(ctx, i, u.ID, eventID, id); err != nil {
				return apperrors.TransientIO("reorder tasks", err)
			}
		}
		return nil
	})
}

func (s *Store) RestoreTask(ctx context.Context, t models.EventTask) (models.EventTask, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.EventTask{}, err
	}
	if t.ID == "" || t.EventID == "" {
		return models.EventTask{}, apperrors.Validation("cannot restore a task without an id and event id")
	}
	t.UserID = u.ID
	res, err := upsertTask(ctx, s.db, u, t)
	if err != nil {
		return models.EventTask{}, err
	}
	if err := restoredOrConflict(res, "task", t.ID); err != nil {
		return models.EventTask{}, err
	}
	return t, nil
}
