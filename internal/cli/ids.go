package cli

import (
	"slices"
	"strings"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/state"
)

const shortIDLen = 8

// ShortID trims an id for display.
func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// ResolveID matches input against ids exactly or by unique prefix.
func ResolveID(kind string, ids []string, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", apperrors.Validation("%s id is required", kind)
	}
	var match string
	for _, id := range ids {
		if id == input {
			return id, nil
		}
		if strings.HasPrefix(id, input) {
			if match != "" {
				return "", apperrors.Validation("%s id %q is ambiguous", kind, input)
			}
			match = id
		}
	}
	if match == "" {
		return "", apperrors.NotFound(kind, input)
	}
	return match, nil
}

// ResolveHabit loads habits and returns the one matching input.
func (c *Context) ResolveHabit(input string) (models.Habit, error) {
	if err := c.State.LoadHabits(c.Context()); err != nil {
		return models.Habit{}, err
	}
	habits := c.State.Habits()
	id, err := ResolveID("habit", collectIDs(habits, func(h models.Habit) string { return h.ID }), input)
	if err != nil {
		return models.Habit{}, err
	}
	i := slices.IndexFunc(habits, func(h models.Habit) bool { return h.ID == id })
	return habits[i], nil
}

// ResolveEvent loads events and returns the one matching input.
func (c *Context) ResolveEvent(input string) (models.Event, error) {
	if err := c.State.LoadEvents(c.Context()); err != nil {
		return models.Event{}, err
	}
	events := c.State.Events(state.EventFilter{}, state.EventSortCreated)
	id, err := ResolveID("event", collectIDs(events, func(e models.Event) string { return e.ID }), input)
	if err != nil {
		return models.Event{}, err
	}
	i := slices.IndexFunc(events, func(e models.Event) bool { return e.ID == id })
	return events[i], nil
}

// ResolveTask searches the tasks of every event for input.
func (c *Context) ResolveTask(input string) (models.EventTask, error) {
	if err := c.State.LoadEvents(c.Context()); err != nil {
		return models.EventTask{}, err
	}
	var tasks []models.EventTask
	for _, e := range c.State.Events(state.EventFilter{}, state.EventSortCreated) {
		if err := c.State.LoadTasks(c.Context(), e.ID); err != nil {
			return models.EventTask{}, err
		}
		tasks = append(tasks, c.State.Tasks(e.ID)...)
	}
	id, err := ResolveID("task", collectIDs(tasks, func(t models.EventTask) string { return t.ID }), input)
	if err != nil {
		return models.EventTask{}, err
	}
	i := slices.IndexFunc(tasks, func(t models.EventTask) bool { return t.ID == id })
	return tasks[i], nil
}

func collectIDs[T any](items []T, idOf func(T) string) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = idOf(item)
	}
	return ids
}
