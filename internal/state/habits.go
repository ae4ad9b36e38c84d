package state

import (
	"context"
	"time"

	"github.com/julianstephens/dailytrack/internal/activity"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/utils"
)

func (s *Store) LoadHabits(ctx context.Context) error {
	habits, err := s.repo.ListHabits(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.habits = habits
	s.mu.Unlock()
	return nil
}

func (s *Store) CreateHabit(ctx context.Context, input models.CreateHabitInput) (models.Habit, error) {
	h, err := s.repo.CreateHabit(ctx, input)
	if err != nil {
		return models.Habit{}, err
	}
	s.mu.Lock()
	s.habits = append(s.habits, h)
	s.mu.Unlock()

	s.record(ctx, models.ActionHabitCreated, h.ID, h.Title, h, true)
	return h, nil
}

// UpdateHabit edits title, schedule or mode. Edits are not logged.
func (s *Store) UpdateHabit(ctx context.Context, id string, input models.UpdateHabitInput) (models.Habit, error) {
	h, err := s.repo.UpdateHabit(ctx, id, input)
	if err != nil {
		return models.Habit{}, err
	}
	s.mu.Lock()
	s.habits = replaceByID(s.habits, id, habitID, h)
	s.mu.Unlock()
	return h, nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	before, err := s.repo.GetHabit(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteHabit(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.habits = removeByID(s.habits, id, habitID)
	s.mu.Unlock()

	s.record(ctx, models.ActionHabitDeleted, id, before.Title, before, true)
	return nil
}

// ToggleHabit flips the completion for date, which may be a date key or a
// datetime. Strict habits accept only today; flexible ones any day of the
// current week.
func (s *Store) ToggleHabit(ctx context.Context, id, date string) (models.Habit, error) {
	key, ok := utils.NormalizeDateKey(date)
	if !ok {
		return models.Habit{}, apperrors.Validation("invalid date %q", date)
	}
	before, err := s.repo.GetHabit(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}
	if err := checkToggleWindow(before, key, s.now()); err != nil {
		return models.Habit{}, err
	}

	h, err := s.repo.ToggleHabitCompletion(ctx, id, key)
	if err != nil {
		return models.Habit{}, err
	}
	s.mu.Lock()
	s.habits = replaceByID(s.habits, id, habitID, h)
	s.mu.Unlock()

	action := models.ActionHabitCompleted
	if !h.HasCompletion(key) {
		action = models.ActionHabitUncompleted
	}
	s.record(ctx, action, id, h.Title, activity.ToggleSnapshot{Date: key}, false)
	return h, nil
}

func checkToggleWindow(h models.Habit, key string, now time.Time) error {
	if h.CompletionMode == models.CompletionStrict {
		if today := utils.DateKey(now); key != today {
			return apperrors.Validation("habit %q is strict and only accepts today (%s)", h.Title, today)
		}
		return nil
	}
	monday, sunday := utils.WeekRange(now)
	if key < monday || key > sunday {
		return apperrors.Validation("habit %q accepts days from %s to %s", h.Title, monday, sunday)
	}
	return nil
}
