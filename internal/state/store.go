// Package state composes repository calls with the activity log and keeps an
// in-memory cache of what the caller last loaded.
//
// The cache mutex is never held across a repository call. A failed mutation
// leaves the cache untouched.
package state

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/dailytrack/internal/activity"
	"github.com/julianstephens/dailytrack/internal/logger"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

type Store struct {
	repo storage.Repository
	undo *activity.Engine
	now  storage.Clock

	mu       sync.RWMutex
	habits   []models.Habit
	events   []models.Event
	tasks    map[string][]models.EventTask
	logs     []models.ActivityLog
	taskSort TaskSortMode
}

type Option func(*Store)

func WithClock(clock storage.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

func New(repo storage.Repository, opts ...Option) *Store {
	s := &Store{
		repo:     repo,
		undo:     activity.NewEngine(repo),
		now:      time.Now,
		tasks:    map[string][]models.EventTask{},
		taskSort: TaskSortCustom,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the backend the store writes through.
func (s *Store) Repository() storage.Repository { return s.repo }

// record appends a log entry after a successful mutation. A failure here is
// logged and swallowed; the primary mutation stands.
func (s *Store) record(ctx context.Context, action models.ActivityAction, entityID, title string, snapshot any, canUndo bool) {
	entry, err := activity.NewEntry(action, entityID, title, snapshot, canUndo, s.now())
	if err == nil {
		entry, err = s.repo.CreateActivityLog(ctx, entry)
	}
	if err != nil {
		logger.Error("Failed to record activity", "action", action, "entity", entityID, "error", err)
		return
	}
	s.mu.Lock()
	s.logs = append([]models.ActivityLog{entry}, s.logs...)
	s.mu.Unlock()
}

func replaceByID[T any](items []T, id string, idOf func(T) string, v T) []T {
	for i := range items {
		if idOf(items[i]) == id {
			items[i] = v
			return items
		}
	}
	return append(items, v)
}

func removeByID[T any](items []T, id string, idOf func(T) string) []T {
	return slices.DeleteFunc(items, func(v T) bool { return idOf(v) == id })
}

func habitID(h models.Habit) string { return h.ID }
func eventID(e models.Event) string { return e.ID }
func taskID(t models.EventTask) string { return t.ID }
func logID(l models.ActivityLog) string { return l.ID }
