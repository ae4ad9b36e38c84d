package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
	"github.com/julianstephens/dailytrack/internal/utils"
)

const habitColumns = `id, title, created_at, active, timeframe_preset, timeframe_custom_days, completions,
	week_start_date, weekly_completion_count, scheduled_weekdays, completion_mode`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanHabit reads one habit row. missing reports whether any week-tracking column was NULL.
func scanHabit(row rowScanner) (h models.Habit, missing bool, err error) {
	var (
		createdAt, completions, mode string
		active                       int
		customDays, weeklyCount      sql.NullInt64
		weekStart, weekdays          sql.NullString
	)
	if err = row.Scan(&h.ID, &h.Title, &createdAt, &active, &h.TargetTimeframe.Preset, &customDays,
		&completions, &weekStart, &weeklyCount, &weekdays, &mode); err != nil {
		return models.Habit{}, false, err
	}

	if h.CreatedAt, err = storage.ParseTimestamp(createdAt); err != nil {
		return models.Habit{}, false, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	h.Active = active != 0
	h.CompletionMode = models.CompletionMode(mode)
	if customDays.Valid {
		days := int(customDays.Int64)
		h.TargetTimeframe.CustomDays = &days
	}
	if h.Completions, err = storage.DecodeJSONList[string](completions); err != nil {
		return models.Habit{}, false, fmt.Errorf("habit %s completions: %w", h.ID, err)
	}
	if h.Completions == nil {
		h.Completions = []string{}
	}

	missing = !weekStart.Valid || !weeklyCount.Valid || !weekdays.Valid
	h.WeekStartDate = weekStart.String
	h.WeeklyCompletionCount = int(weeklyCount.Int64)
	if weekdays.Valid {
		if h.ScheduledWeekdays, err = storage.DecodeJSONList[int](weekdays.String); err != nil {
			// A corrupt schedule is rebuilt by the repair pass.
			h.ScheduledWeekdays, missing = nil, true
		}
	}
	return h, missing, nil
}

func (s *Store) getHabit(ctx context.Context, q querier, id string) (models.Habit, error) {
	row := q.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, _, err := scanHabit(row)
	if err != nil {
		return models.Habit{}, scanErr(err, "habit", id)
	}
	return h, nil
}

// upsertHabit writes every column of h. Restore and update share it.
func upsertHabit(ctx context.Context, q querier, h models.Habit) error {
	completions, err := storage.EncodeJSONList(h.Completions)
	if err != nil {
		return err
	}
	weekdays, err := storage.EncodeJSONList(h.ScheduledWeekdays)
	if err != nil {
		return err
	}
	var customDays any
	if h.TargetTimeframe.CustomDays != nil {
		customDays = *h.TargetTimeframe.CustomDays
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			created_at = excluded.created_at,
			active = excluded.active,
			timeframe_preset = excluded.timeframe_preset,
			timeframe_custom_days = excluded.timeframe_custom_days,
			completions = excluded.completions,
			week_start_date = excluded.week_start_date,
			weekly_completion_count = excluded.weekly_completion_count,
			scheduled_weekdays = excluded.scheduled_weekdays,
			completion_mode = excluded.completion_mode`,
		h.ID, h.Title, storage.FormatTimestamp(h.CreatedAt), boolToInt(h.Active),
		string(h.TargetTimeframe.Preset), customDays, completions,
		h.WeekStartDate, h.WeeklyCompletionCount, weekdays, string(h.CompletionMode))
	if err != nil {
		return apperrors.TransientIO("write habit", err)
	}
	return nil
}

// RepairHabits fills or refreshes the weekly tracking fields of every stale row in one transaction.
func (s *Store) RepairHabits(ctx context.Context) (int, error) {
	repaired := 0
	err := s.withTx(ctx, "repair habits", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits`)
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
			fixed, changed := storage.RepairHabit(h, s.now())
			if changed || missing {
				stale = append(stale, fixed)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return apperrors.TransientIO("list habits", err)
		}
		rows.Close()

		for _, h := range stale {
			if err := upsertHabit(ctx, tx, h); err != nil {
				return err
			}
		}
		repaired = len(stale)
		return nil
	})
	return repaired, err
}

func (s *Store) ListHabits(ctx context.Context) ([]models.Habit, error) {
	if _, err := s.RepairHabits(ctx); err != nil {
		return nil, fmt.Errorf("failed to repair habits: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY created_at, id`)
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
	if err := s.ready(); err != nil {
		return models.Habit{}, err
	}
	return s.getHabit(ctx, s.db, id)
}

func (s *Store) CreateHabit(ctx context.Context, input models.CreateHabitInput) (models.Habit, error) {
	if err := input.Validate(); err != nil {
		return models.Habit{}, err
	}
	if err := s.ready(); err != nil {
		return models.Habit{}, err
	}
	now := s.now()
	h, _ := storage.RepairHabit(models.Habit{
		ID:                storage.NewID(),
		Title:             input.Title,
		CreatedAt:         storage.Timestamp(now),
		Active:            true,
		TargetTimeframe:   input.TargetTimeframe,
		Completions:       []string{},
		ScheduledWeekdays: utils.NormalizeWeekdays(input.ScheduledWeekdays),
		CompletionMode:    input.CompletionMode,
	}, now)
	if err := upsertHabit(ctx, s.db, h); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) UpdateHabit(ctx context.Context, id string, input models.UpdateHabitInput) (models.Habit, error) {
	if err := input.Validate(); err != nil {
		return models.Habit{}, err
	}
	var out models.Habit
	err := s.withTx(ctx, "update habit", func(tx *sql.Tx) error {
		h, err := s.getHabit(ctx, tx, id)
		if err != nil {
			return err
		}
		input.Apply(&h)
		out, _ = storage.RepairHabit(h, s.now())
		return upsertHabit(ctx, tx, out)
	})
	return out, err
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return apperrors.TransientIO("delete habit", err)
	}
	return affectedOrNotFound(res, "habit", id)
}

// ToggleHabitCompletion runs its read-modify-write in one transaction so two
// concurrent toggles cannot lose an update.
func (s *Store) ToggleHabitCompletion(ctx context.Context, id, dateKey string) (models.Habit, error) {
	key, ok := utils.NormalizeDateKey(dateKey)
	if !ok {
		return models.Habit{}, apperrors.Validation("invalid date %q", dateKey)
	}
	var out models.Habit
	err := s.withTx(ctx, "toggle habit", func(tx *sql.Tx) error {
		h, err := s.getHabit(ctx, tx, id)
		if err != nil {
			return err
		}
		out = storage.ToggleCompletion(h, key, s.now())
		return upsertHabit(ctx, tx, out)
	})
	return out, err
}

func (s *Store) RestoreHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	if err := s.ready(); err != nil {
		return models.Habit{}, err
	}
	if h.ID == "" {
		return models.Habit{}, apperrors.Validation("cannot restore a habit without an id")
	}
	restored, _ := storage.RepairHabit(h, s.now())
	if err := upsertHabit(ctx, s.db, restored); err != nil {
		return models.Habit{}, err
	}
	return restored, nil
}
