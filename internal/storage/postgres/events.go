package postgres

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

const eventColumns = `id, user_id, owner_email, title, due_at, priority, notes, created_at, updated_at`

func scanEvent(row rowScanner) (models.Event, error) {
	var (
		e                 models.Event
		ownerEmail, dueAt sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &ownerEmail, &e.Title, &dueAt, &e.Priority, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.Event{}, err
	}
	e.OwnerEmail = ownerEmail.String
	if dueAt.Valid {
		e.DueAt = &dueAt.String
	}
	e.CreatedAt = storage.Timestamp(e.CreatedAt)
	e.UpdatedAt = storage.Timestamp(e.UpdatedAt)
	return e, nil
}

func (s *Store) getEvent(ctx context.Context, q querier, userID, id string) (models.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE user_id = $1 AND id = $2`, userID, id))
	if err != nil {
		return models.Event{}, scanErr(err, "event", id)
	}
	return e, nil
}

func upsertEvent(ctx context.Context, q querier, u models.User, e models.Event) (sql.Result, error) {
	var dueAt any
	if e.DueAt != nil && *e.DueAt != "" {
		dueAt = *e.DueAt
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			owner_email = COALESCE(events.owner_email, excluded.owner_email),
			title = excluded.title,
			due_at = excluded.due_at,
			priority = excluded.priority,
			notes = excluded.notes,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
		WHERE events.user_id = excluded.user_id`,
		e.ID, u.ID, nullString(u.Email), e.Title, dueAt, string(e.Priority), e.Notes, e.CreatedAt.UTC(), e.UpdatedAt.UTC())
	if err != nil {
		return nil, apperrors.TransientIO("write event", err)
	}
	return res, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE user_id = $1 ORDER BY created_at, id`, u.ID)
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
	u, err := s.currentUser()
	if err != nil {
		return models.Event{}, err
	}
	return s.getEvent(ctx, s.db, u.ID, id)
}

func (s *Store) CreateEvent(ctx context.Context, input models.CreateEventInput) (models.Event, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.Event{}, err
	}
	if err := input.Validate(); err != nil {
		return models.Event{}, err
	}
	now := storage.Timestamp(s.now())
	e := models.Event{
		ID:         storage.NewID(),
		UserID:     u.ID,
		OwnerEmail: u.Email,
		Title:      input.Title,
		DueAt:      input.DueAt,
		Priority:   input.Priority,
		Notes:      input.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if e.DueAt != nil && *e.DueAt == "" {
		e.DueAt = nil
	}
	if _, err := upsertEvent(ctx, s.db, u, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, input models.UpdateEventInput) (models.Event, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.Event{}, err
	}
	if err := input.Validate(); err != nil {
		return models.Event{}, err
	}
	var out models.Event
	err = s.withTx(ctx, "update event", func(tx *sql.Tx) error {
		e, err := s.getEvent(ctx, tx, u.ID, id)
		if err != nil {
			return err
		}
		input.Apply(&e)
		e.UpdatedAt = storage.Timestamp(s.now())
		out = e
		_, err = upsertEvent(ctx, tx, u, e)
		return err
	})
	return out, err
}

// DeleteEvent removes the event and its tasks together.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	return s.withTx(ctx, "delete event", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE user_id = $1 AND id = $2`, u.ID, id)
		if err != nil {
			return apperrors.TransientIO("delete event", err)
		}
		if err := affectedOrNotFound(res, "event", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM event_tasks WHERE user_id = $1 AND event_id = $2`, u.ID, id); err != nil {
			return apperrors.TransientIO("delete event tasks", err)
		}
		return nil
	})
}

func (s *Store) RestoreEvent(ctx context.Context, e models.Event) (models.Event, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.Event{}, err
	}
	if e.ID == "" {
		return models.Event{}, apperrors.Validation("cannot restore an event without an id")
	}
	e.UserID = u.ID
	res, err := upsertEvent(ctx, s.db, u, e)
	if err != nil {
		return models.Event{}, err
	}
	if err := restoredOrConflict(res, "event", e.ID); err != nil {
		return models.Event{}, err
	}
	return e, nil
}
