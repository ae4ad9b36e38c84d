package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

const eventColumns = `id, title, due_at, priority, notes, created_at, updated_at`

func scanEvent(row rowScanner) (models.Event, error) {
	var (
		e                    models.Event
		dueAt                sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &e.Title, &dueAt, &e.Priority, &e.Notes, &createdAt, &updatedAt); err != nil {
		return models.Event{}, err
	}
	if dueAt.Valid {
		e.DueAt = &dueAt.String
	}
	var err error
	if e.CreatedAt, err = storage.ParseTimestamp(createdAt); err != nil {
		return models.Event{}, fmt.Errorf("event %s: %w", e.ID, err)
	}
	if e.UpdatedAt, err = storage.ParseTimestamp(updatedAt); err != nil {
		return models.Event{}, fmt.Errorf("event %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *Store) getEvent(ctx context.Context, q querier, id string) (models.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return models.Event{}, scanErr(err, "event", id)
	}
	return e, nil
}

func upsertEvent(ctx context.Context, q querier, e models.Event) error {
	var dueAt any
	if e.DueAt != nil {
		dueAt = *e.DueAt
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			due_at = excluded.due_at,
			priority = excluded.priority,
			notes = excluded.notes,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		e.ID, e.Title, dueAt, string(e.Priority), e.Notes,
		storage.FormatTimestamp(e.CreatedAt), storage.FormatTimestamp(e.UpdatedAt))
	if err != nil {
		return apperrors.TransientIO("write event", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at, id`)
	if err != nil {
		return nil, apperrors.TransientIO("list events", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.TransientIO("list events", err)
	}
	return events, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (models.Event, error) {
	if err := s.ready(); err != nil {
		return models.Event{}, err
	}
	return s.getEvent(ctx, s.db, id)
}

func (s *Store) CreateEvent(ctx context.Context, input models.CreateEventInput) (models.Event, error) {
	if err := input.Validate(); err != nil {
		return models.Event{}, err
	}
	if err := s.ready(); err != nil {
		return models.Event{}, err
	}
	now := storage.Timestamp(s.now())
	e := models.Event{
		ID:        storage.NewID(),
		Title:     input.Title,
		DueAt:     input.DueAt,
		Priority:  input.Priority,
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.DueAt != nil && *e.DueAt == "" {
		e.DueAt = nil
	}
	if err := upsertEvent(ctx, s.db, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, input models.UpdateEventInput) (models.Event, error) {
	if err := input.Validate(); err != nil {
		return models.Event{}, err
	}
	var out models.Event
	err := s.withTx(ctx, "update event", func(tx *sql.Tx) error {
		e, err := s.getEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		input.Apply(&e)
		e.UpdatedAt = storage.Timestamp(s.now())
		out = e
		return upsertEvent(ctx, tx, e)
	})
	return out, err
}

// DeleteEvent removes the event and its tasks in one transaction.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete event", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
		if err != nil {
			return apperrors.TransientIO("delete event", err)
		}
		if err := affectedOrNotFound(res, "event", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM event_tasks WHERE event_id = ?`, id); err != nil {
			return apperrors.TransientIO("delete event tasks", err)
		}
		return nil
	})
}

func (s *Store) RestoreEvent(ctx context.Context, e models.Event) (models.Event, error) {
	if err := s.ready(); err != nil {
		return models.Event{}, err
	}
	if e.ID == "" {
		return models.Event{}, apperrors.Validation("cannot restore an event without an id")
	}
	if err := upsertEvent(ctx, s.db, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}
