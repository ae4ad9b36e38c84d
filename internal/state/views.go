package state

import (
	"cmp"
	"slices"
	"time"

	"github.com/julianstephens/dailytrack/internal/models"
)

type TaskSortMode string

const (
	TaskSortCustom        TaskSortMode = "custom"
	TaskSortDateAddedAsc  TaskSortMode = "date-added-asc"
	TaskSortDateAddedDesc TaskSortMode = "date-added-desc"
	TaskSortPriority      TaskSortMode = "priority"
)

// TaskSortModes lists the accepted modes in display order.
var TaskSortModes = []TaskSortMode{TaskSortCustom, TaskSortDateAddedAsc, TaskSortDateAddedDesc, TaskSortPriority}

type EventSort string

const (
	EventSortDueDate  EventSort = "due-date"
	EventSortCreated  EventSort = "created"
	EventSortPriority EventSort = "priority"
)

// EventFilter narrows Events. A zero value keeps everything.
type EventFilter struct {
	Priority models.Priority
}

func (s *Store) Habits() []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Habit, len(s.habits))
	for i, h := range s.habits {
		out[i] = h.Clone()
	}
	return out
}

func (s *Store) ActiveHabits() []models.Habit {
	return slices.DeleteFunc(s.Habits(), func(h models.Habit) bool { return !h.Active })
}

// Events returns cached events filtered and sorted. Undated events sort last
// by due date; ties keep creation order.
func (s *Store) Events(filter EventFilter, sortBy EventSort) []models.Event {
	s.mu.RLock()
	events := slices.Clone(s.events)
	s.mu.RUnlock()

	if filter.Priority != "" {
		events = slices.DeleteFunc(events, func(e models.Event) bool { return e.Priority != filter.Priority })
	}
	byCreated := func(a, b models.Event) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	}
	switch sortBy {
	case EventSortDueDate:
		loc := s.now().Location()
		slices.SortStableFunc(events, func(a, b models.Event) int {
			ad, aok := dueTime(a, loc)
			bd, bok := dueTime(b, loc)
			switch {
			case aok && bok:
				return cmp.Or(ad.Compare(bd), byCreated(a, b))
			case aok:
				return -1
			case bok:
				return 1
			}
			return byCreated(a, b)
		})
	case EventSortPriority:
		slices.SortStableFunc(events, func(a, b models.Event) int {
			return cmp.Or(cmp.Compare(a.Priority.Rank(), b.Priority.Rank()), byCreated(a, b))
		})
	default:
		slices.SortStableFunc(events, byCreated)
	}
	return events
}

// dueTime reads due dates without an offset as wall time in loc.
func dueTime(e models.Event, loc *time.Location) (time.Time, bool) {
	if e.DueAt == nil || *e.DueAt == "" {
		return time.Time{}, false
	}
	return models.ParseDueAt(*e.DueAt, loc)
}

// Tasks returns the cached tasks of an event in stored order.
func (s *Store) Tasks(eventID string) []models.EventTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks[eventID])
}

func (s *Store) SetTaskSortMode(mode TaskSortMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskSort = mode
}

func (s *Store) TaskSortMode() TaskSortMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskSort
}

// SortedTasks returns the event's cached tasks in the current sort mode.
func (s *Store) SortedTasks(eventID string) []models.EventTask {
	tasks := s.Tasks(eventID)
	switch s.TaskSortMode() {
	case TaskSortCustom:
		slices.SortStableFunc(tasks, func(a, b models.EventTask) int { return cmp.Compare(a.Order, b.Order) })
	case TaskSortDateAddedAsc:
		slices.SortStableFunc(tasks, func(a, b models.EventTask) int { return a.CreatedAt.Compare(b.CreatedAt) })
	case TaskSortDateAddedDesc:
		slices.SortStableFunc(tasks, func(a, b models.EventTask) int { return b.CreatedAt.Compare(a.CreatedAt) })
	case TaskSortPriority:
		slices.SortStableFunc(tasks, func(a, b models.EventTask) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		})
	}
	return tasks
}

func (s *Store) ActivityLogs() []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logs)
}
