package state

import (
	"context"

	"github.com/julianstephens/dailytrack/internal/activity"
	"github.com/julianstephens/dailytrack/internal/models"
)

func (s *Store) LoadEvents(ctx context.Context) error {
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, input models.CreateEventInput) (models.Event, error) {
	e, err := s.repo.CreateEvent(ctx, input)
	if err != nil {
		return models.Event{}, err
	}
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()

	s.record(ctx, models.ActionEventCreated, e.ID, e.Title, e, true)
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, input models.UpdateEventInput) (models.Event, error) {
	e, err := s.repo.UpdateEvent(ctx, id, input)
	if err != nil {
		return models.Event{}, err
	}
	s.mu.Lock()
	s.events = replaceByID(s.events, id, eventID, e)
	s.mu.Unlock()

	s.record(ctx, models.ActionEventUpdated, id, e.Title, nil, false)
	return e, nil
}

// DeleteEvent removes the event with its tasks. The log snapshot carries both.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	before, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	tasks, err := s.repo.ListTasksForEvent(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.events = removeByID(s.events, id, eventID)
	delete(s.tasks, id)
	s.mu.Unlock()

	s.record(ctx, models.ActionEventDeleted, id, before.Title, activity.EventSnapshot{Event: before, Tasks: tasks}, true)
	return nil
}
