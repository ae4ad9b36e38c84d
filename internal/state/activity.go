package state

import (
	"context"

	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/models"
)

// LoadActivityLogs caches the most recent entries, newest first.
func (s *Store) LoadActivityLogs(ctx context.Context) error {
	logs, err := s.repo.ListRecentActivityLogs(ctx, constants.RecentActivityLimit)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.logs = logs
	s.mu.Unlock()
	return nil
}

// Undo reverses the entry and applies the outcome to the cache. It reports
// whether anything was reversed.
func (s *Store) Undo(ctx context.Context, id string) (bool, error) {
	rev, err := s.undo.Undo(ctx, id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !rev.Applied {
		return false, nil
	}
	s.logs = removeByID(s.logs, id, logID)

	if rev.RestoredHabit != nil {
		s.habits = replaceByID(s.habits, rev.RestoredHabit.ID, habitID, *rev.RestoredHabit)
	}
	if rev.RestoredEvent != nil {
		s.events = replaceByID(s.events, rev.RestoredEvent.ID, eventID, *rev.RestoredEvent)
		s.tasks[rev.RestoredEvent.ID] = append([]models.EventTask(nil), rev.RestoredTasks...)
	} else {
		for _, t := range rev.RestoredTasks {
			s.tasks[t.EventID] = replaceByID(s.tasks[t.EventID], t.ID, taskID, t)
		}
	}
	if rev.RemovedHabitID != "" {
		s.habits = removeByID(s.habits, rev.RemovedHabitID, habitID)
	}
	if rev.RemovedEventID != "" {
		s.events = removeByID(s.events, rev.RemovedEventID, eventID)
		delete(s.tasks, rev.RemovedEventID)
	}
	if rev.RemovedTaskID != "" {
		if cached, ok := s.tasks[rev.RemovedTaskEventID]; ok {
			s.tasks[rev.RemovedTaskEventID] = removeByID(cached, rev.RemovedTaskID, taskID)
		}
	}
	return true, nil
}

func (s *Store) Dismiss(ctx context.Context, id string) error {
	if err := s.undo.Dismiss(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.logs = removeByID(s.logs, id, logID)
	s.mu.Unlock()
	return nil
}

// Prune deletes entries past the retention window and refreshes the cache.
func (s *Store) Prune(ctx context.Context, days int) (int64, error) {
	n, err := s.undo.Prune(ctx, days)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := s.LoadActivityLogs(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}
