package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

const taskColumns = `id, event_id, title, done, priority, created_at, updated_at, sort_order`

func scanTask(row rowScanner) (models.EventTask, error) {
	var (
		t                    models.EventTask
		done                 int
		priority             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&t.ID, &t.EventID, &t.Title, &done, &priority, &createdAt, &updatedAt, &t.Order); err != nil {
		return models.EventTask{}, err
	}
	t.Done = done != 0
	t.Priority = models.Priority(priority.String)
	var err error
	if t.CreatedAt, err = storage.ParseTimestamp(createdAt); err != nil {
		return models.EventTask{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	if t.UpdatedAt, err = storage.ParseTimestamp(updatedAt); err != nil {
		return models.EventTask{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) getTask(ctx context.Context, q querier, id string) (models.EventTask, error) {
	t, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM event_tasks WHERE id = ?`, id))
	if err != nil {
		return models.EventTask{}, scanErr(err, "task", id)
	}
	return t, nil
}

func upsertTask(ctx context.Context, q querier, t models.EventTask) error {
	var priority any
	if t.Priority != "" {
		priority = string(t.Priority)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO event_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_id = excluded.event_id,
			title = excluded.title,
			done = excluded.done,
			priority = excluded.priority,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sort_order = excluded.sort_order`,
		t.ID, t.EventID, t.Title, boolToInt(t.Done), priority,
		storage.FormatTimestamp(t.CreatedAt), storage.FormatTimestamp(t.UpdatedAt), t.Order)
	if err != nil {
		return apperrors.TransientIO("write task", err)
	}
	return nil
}

func listTasks(ctx context.Context, q querier, eventID string) ([]models.EventTask, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+taskColumns+` FROM event_tasks WHERE event_id = ? ORDER BY sort_order, created_at, id`, eventID)
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

func (s *Store) ListTasksForEvent(ctx context.Context, eventID string) ([]models.EventTask, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return listTasks(ctx, s.db, eventID)
}

func (s *Store) GetTask(ctx context.Context, id string) (models.EventTask, error) {
	if err := s.ready(); err != nil {
		return models.EventTask{}, err
	}
	return s.getTask(ctx, s.db, id)
}

// CreateTask assigns max(order)+1 within the event, or 0 for the first task.
func (s *Store) CreateTask(ctx context.Context, input models.CreateTaskInput) (models.EventTask, error) {
	if err := input.Validate(); err != nil {
		return models.EventTask{}, err
	}
	var out models.EventTask
	err := s.withTx(ctx, "create task", func(tx *sql.Tx) error {
		if _, err := s.getEvent(ctx, tx, input.EventID); err != nil {
			return err
		}
		var maxOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM event_tasks WHERE event_id = ?`, input.EventID).Scan(&maxOrder); err != nil {
			return apperrors.TransientIO("read task order", err)
		}
		order := 0
		if maxOrder.Valid {
			order = int(maxOrder.Int64) + 1
		}
		now := storage.Timestamp(s.now())
		out = models.EventTask{
			ID:        storage.NewID(),
			EventID:   input.EventID,
			Title:     input.Title,
			Done:      input.Done,
			Priority:  input.Priority,
			CreatedAt: now,
			UpdatedAt: now,
			Order:     order,
		}
		return upsertTask(ctx, tx, out)
	})
	return out, err
}

func (s *Store) UpdateTask(ctx context.Context, id string, input models.UpdateTaskInput) (models.EventTask, error) {
	if err := input.Validate(); err != nil {
		return models.EventTask{}, err
	}
	var out models.EventTask
	err := s.withTx(ctx, "update task", func(tx *sql.Tx) error {
		t, err := s.getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		input.Apply(&t)
		t.UpdatedAt = storage.Timestamp(s.now())
		out = t
		return upsertTask(ctx, tx, t)
	})
	return out, err
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM event_tasks WHERE id = ?`, id)
	if err != nil {
		return apperrors.TransientIO("delete task", err)
	}
	return affectedOrNotFound(res, "task", id)
}

// ReorderTasks writes order=i for every id in orderedIDs that belongs to eventID.
func (s *Store) ReorderTasks(ctx context.Context, eventID string, orderedIDs []string) error {
	return s.withTx(ctx, "reorder tasks", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE event_tasks SET sort_order = ? WHERE id = ? AND event_id = ?`)
		if err != nil {
			return apperrors.TransientIO("reorder tasks", err)
		}
		defer stmt.Close()
		for i, id := range orderedIDs {
			if _, err := stmt.ExecContext(ctx, i, id, eventID); err != nil {
				return apperrors.TransientIO("reorder tasks", err)
			}
		}
		return nil
	})
}

func (s *Store) RestoreTask(ctx context.Context, t models.EventTask) (models.EventTask, error) {
	if err := s.ready(); err != nil {
		return models.EventTask{}, err
	}
	if t.ID == "" || t.EventID == "" {
		return models.EventTask{}, apperrors.Validation("cannot restore a task without an id and event id")
	}
	if err := upsertTask(ctx, s.db, t); err != nil {
		return models.EventTask{}, err
	}
	return t, nil
}
