package postgres

import (
	"context"
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
	"github.com/julianstephens/dailytrack/internal/utils"
)

const habitColumns = `id, user_id, owner_email, title, created_at, active, timeframe_preset, timeframe_custom_days,
	completions, week_start_date, weekly_completion_count, scheduled_weekdays, completion_mode`

func scanHabit(row rowScanner) (h models.Habit, missing bool, err error) {
	var (
		ownerEmail, weekStart   sql.NullString
		customDays, weeklyCount sql.NullInt64
		completions             pq.StringArray
		weekdays                pq.Int64Array
	)
	if err = row.Scan(&h.ID, &h.UserID, &ownerEmail, &h.Title, &h.CreatedAt, &h.Active, &h.TargetTimeframe.Preset,
		&customDays, &completions, &weekStart, &weeklyCount, &weekdays, &h.CompletionMode); err != nil {
		return models.Habit{}, false, err
	}
	h.CreatedAt = storage.Timestamp(h.CreatedAt)
	h.OwnerEmail = ownerEmail.String
	if customDays.Valid {
		days := int(customDays.Int64)
		h.TargetTimeframe.CustomDays = &days
	}
	h.Completions = []string(completions)
	if h.Completions == nil {
		h.Completions = []string{}
	}
	missing = !weekStart.Valid || !weeklyCount.Valid || weekdays == nil
	h.WeekStartDate = weekStart.String
	h.WeeklyCompletionCount = int(weeklyCount.Int64)
	for _, d := range weekdays {
		h.ScheduledWeekdays = append(h.ScheduledWeekdays, int(d))
	}
	return h, missing, nil
}

func weekdayArray(days []int) pq.Int64Array {
	out := make(pq.Int64Array, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func (s *Store) getHabit(ctx context.Context, q querier, userID, id string, forUpdate bool) (models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	h, _, err := scanHabit(q.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		return models.Habit{}, scanErr(err, "habit", id)
	}
	return h, nil
}

// upsertHabit stamps the owner and writes h. A conflicting id owned by another
// user is left untouched and reports zero rows.
func upsertHabit(ctx context.Context, q querier, u models.User, h models.Habit) (sql.Result, error) {
	var customDays any
	if h.TargetTimeframe.CustomDays != nil {
		customDays = *h.TargetTimeframe.CustomDays
	}
	completions := h.Completions
	if completions == nil {
		completions = []string{}
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			owner_email = COALESCE(habits.owner_email, excluded.owner_email),
			title = excluded.title,
			created_at = excluded.created_at,
			active = excluded.active,
			timeframe_preset = excluded.timeframe_preset,
			timeframe_custom_days = excluded.timeframe_custom_days,
			completions = excluded.completions,
			week_start_date = excluded.week_start_date,
			weekly_completion_count = excluded.weekly_completion_count,
			scheduled_weekdays = excluded.scheduled_weekdays,
			completion_mode = excluded.completion_mode
		WHERE habits.user_id = excluded.user_id`,
		h.ID, u.ID, nullString(u.Email), h.Title, h.CreatedAt.UTC(), h.Active, string(h.TargetTimeframe.Preset), customDays,
		pq.StringArray(completions), h.WeekStartDate, h.WeeklyCompletionCount, weekdayArray(h.ScheduledWeekdays),
		string(h.CompletionMode))
	if err != nil {
		return nil, apperrors.TransientIO("write habit", err)
	}
	return res, nil
}

func (s *Store) RepairHabits(ctx context.Context) (int, error) {
	u, err := s.currentUser()
	if err != nil {
		return 0, err
	}
	repaired := 0
	err = s.withTx(ctx, "repair habits", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id = $1 FOR UPDATE`, u.ID)
		if err != nil {
			return apperrors.TransientIO("list habits", err)
		}
		var stale []models.Habit
		for rows.Next() {
			h, missing, err := scanHabit(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan habit: %w", err)
			}
			if fixed, changed := storage.RepairHabit(h, s.now()); changed || missing {
				stale = append(stale, fixed)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return apperrors.TransientIO("list habits", err)
		}
		rows.Close()

		for _, h := range stale {
			if _, err := upsertHabit(ctx, tx, u, h); err != nil {
				return err
			}
		}
		repaired = len(stale)
		return nil
	})
	return repaired, err
}

func (s *Store) ListHabits(ctx context.Context) ([]models.Habit, error) {
	u, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	if _, err := s.RepairHabits(ctx); err != nil {
		return nil, fmt.Errorf("failed to repair habits: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id = $1 ORDER BY created_at, id`, u.ID)
	if err != nil {
		return nil, apperrors.TransientIO("list habits", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, _, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.TransientIO("list habits", err)
	}
	return habits, nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.Habit{}, err
	}
	return s.getHabit(ctx, s.db, u.ID, id, false)
}

func (s *Store) CreateHabit(ctx context.Context, input models.CreateHabitInput) (models.Habit, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.Habit{}, err
	}
	if err := input.Validate(); err != nil {
		return models.Habit{}, err
	}
	now := s.now()
	h, _ := storage.RepairHabit(models.Habit{
		ID:                storage.NewID(),
		UserID:            u.ID,
		OwnerEmail:        u.Email,
		Title:             input.Title,
		CreatedAt:         storage.Timestamp(now),
		Active:            true,
		TargetTimeframe:   input.TargetTimeframe,
		Completions:       []string{},
		ScheduledWeekdays: utils.NormalizeWeekdays(input.ScheduledWeekdays),
		CompletionMode:    input.CompletionMode,
	}, now)
	if _, err := upsertHabit(ctx, s.db, u, h); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) UpdateHabit(ctx context.Context, id string, input models.UpdateHabitInput) (models.Habit, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.Habit{}, err
	}
	if err := input.Validate(); err != nil {
		return models.Habit{}, err
	}
	var out models.Habit
	err = s.withTx(ctx, "update habit", func(tx *sql.Tx) error {
		h, err := s.getHabit(ctx, tx, u.ID, id, true)
		if err != nil {
			return err
		}
		input.Apply(&h)
		out, _ = storage.RepairHabit(h, s.now())
		_, err = upsertHabit(ctx, tx, u, out)
		return err
	})
	return out, err
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE user_id = $1 AND id = $2`, u.ID, id)
	if err != nil {
		return apperrors.TransientIO("delete habit", err)
	}
	return affectedOrNotFound(res, "habit", id)
}

// ToggleHabitCompletion locks the row for the read-modify-write so concurrent
// toggles from several devices serialize.
func (s *Store) ToggleHabitCompletion(ctx context.Context, id, dateKey string) (models.Habit, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.Habit{}, err
	}
	key, ok := utils.NormalizeDateKey(dateKey)
	if !ok {
		return models.Habit{}, apperrors.Validation("invalid date %q", dateKey)
	}
	var out models.Habit
	err = s.withTx(ctx, "toggle habit", func(tx *sql.Tx) error {
		h, err := s.getHabit(ctx, tx, u.ID, id, true)
		if err != nil {
			return err
		}
		out = storage.ToggleCompletion(h, key, s.now())
		_, err = upsertHabit(ctx, tx, u, out)
		return err
	})
	return out, err
}

func (s *Store) RestoreHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.Habit{}, err
	}
	if h.ID == "" {
		return models.Habit{}, apperrors.Validation("cannot restore a habit without an id")
	}
	restored, _ := storage.RepairHabit(h, s.now())
	restored.UserID = u.ID
	if restored.OwnerEmail == "" {
		restored.OwnerEmail = u.Email
	}
	res, err := upsertHabit(ctx, s.db, u, restored)
	if err != nil {
		return models.Habit{}, err
	}
	if err := restoredOrConflict(res, "habit", h.ID); err != nil {
		return models.Habit{}, err
	}
	return restored, nil
}
