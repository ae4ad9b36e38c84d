package state

import (
	"context"

	"github.com/julianstephens/dailytrack/internal/models"
)

func (s *Store) LoadTasks(ctx context.Context, eventID string) error {
	tasks, err := s.repo.ListTasksForEvent(ctx, eventID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tasks[eventID] = tasks
	s.mu.Unlock()
	return nil
}

func (s *Store) CreateTask(ctx context.Context, input models.CreateTaskInput) (models.EventTask, error) {
	t, err := s.repo.CreateTask(ctx, input)
	if err != nil {
		return models.EventTask{}, err
	}
	s.mu.Lock()
	s.tasks[t.EventID] = append(s.tasks[t.EventID], t)
	s.mu.Unlock()

	s.record(ctx, models.ActionTaskCreated, t.ID, t.Title, t, true)
	return t, nil
}

// UpdateTask applies input and logs a completion change when done flips.
func (s *Store) UpdateTask(ctx context.Context, id string, input models.UpdateTaskInput) (models.EventTask, error) {
	before, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return models.EventTask{}, err
	}
	t, err := s.repo.UpdateTask(ctx, id, input)
	if err != nil {
		return models.EventTask{}, err
	}
	s.mu.Lock()
	if cached, ok := s.tasks[t.EventID]; ok {
		s.tasks[t.EventID] = replaceByID(cached, id, taskID, t)
	}
	s.mu.Unlock()

	if input.Done != nil && *input.Done != before.Done {
		action := models.ActionTaskCompleted
		if !t.Done {
			action = models.ActionTaskUncompleted
		}
		s.record(ctx, action, id, t.Title, nil, false)
	}
	return t, nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	before, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	if cached, ok := s.tasks[before.EventID]; ok {
		s.tasks[before.EventID] = removeByID(cached, id, taskID)
	}
	s.mu.Unlock()

	s.record(ctx, models.ActionTaskDeleted, id, before.Title, before, true)
	return nil
}

// ReorderTasks persists the new order and reloads the event's tasks.
// Reorders are not logged.
func (s *Store) ReorderTasks(ctx context.Context, eventID string, orderedIDs []string) error {
	if err := s.repo.ReorderTasks(ctx, eventID, orderedIDs); err != nil {
		return err
	}
	return s.LoadTasks(ctx, eventID)
}
