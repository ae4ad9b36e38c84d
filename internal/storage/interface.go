package storage

import (
	"context"
	"time"

	"github.com/julianstephens/dailytrack/internal/models"
)

// Clock returns the current wall-clock time. Backends take one so tests can pin "today".
type Clock func() time.Time

type HabitRepository interface {
	ListHabits(ctx context.Context) ([]models.Habit, error)
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	CreateHabit(ctx context.Context, input models.CreateHabitInput) (models.Habit, error)
	UpdateHabit(ctx context.Context, id string, input models.UpdateHabitInput) (models.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	// ToggleHabitCompletion adds dateKey to the completion set if absent, removes it
	// otherwise, and returns the full updated habit.
	ToggleHabitCompletion(ctx context.Context, id, dateKey string) (models.Habit, error)
	// RestoreHabit upserts h as-is, keeping its id. Only undo uses it.
	RestoreHabit(ctx context.Context, h models.Habit) (models.Habit, error)
	// RepairHabits recomputes stale or missing weekly tracking fields in place and
	// returns how many rows changed. ListHabits runs it first.
	RepairHabits(ctx context.Context) (int, error)
}

type EventRepository interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (models.Event, error)
	CreateEvent(ctx context.Context, input models.CreateEventInput) (models.Event, error)
	UpdateEvent(ctx context.Context, id string, input models.UpdateEventInput) (models.Event, error)
	// DeleteEvent removes the event and all of its tasks.
	DeleteEvent(ctx context.Context, id string) error
	RestoreEvent(ctx context.Context, e models.Event) (models.Event, error)
}

type TaskRepository interface {
	// ListTasksForEvent returns the event's tasks ordered by their order field.
	ListTasksForEvent(ctx context.Context, eventID string) ([]models.EventTask, error)
	GetTask(ctx context.Context, id string) (models.EventTask, error)
	// CreateTask appends the task after the event's current last task.
	CreateTask(ctx context.Context, input models.CreateTaskInput) (models.EventTask, error)
	UpdateTask(ctx context.Context, id string, input models.UpdateTaskInput) (models.EventTask, error)
	DeleteTask(ctx context.Context, id string) error
	// ReorderTasks sets order=i for orderedIDs[i]. Ids not belonging to the event are ignored.
	ReorderTasks(ctx context.Context, eventID string, orderedIDs []string) error
	RestoreTask(ctx context.Context, t models.EventTask) (models.EventTask, error)
}

type ActivityRepository interface {
	// ListActivityLogs returns every entry, newest first.
	ListActivityLogs(ctx context.Context) ([]models.ActivityLog, error)
	ListRecentActivityLogs(ctx context.Context, limit int) ([]models.ActivityLog, error)
	GetActivityLog(ctx context.Context, id string) (models.ActivityLog, error)
	CreateActivityLog(ctx context.Context, entry models.ActivityLog) (models.ActivityLog, error)
	DeleteActivityLog(ctx context.Context, id string) error
	// DeleteActivityLogsOlderThan removes entries older than days and returns the count.
	DeleteActivityLogsOlderThan(ctx context.Context, days int) (int64, error)
}

// Repository is the single persistence boundary. Data methods are scoped to the
// current user; the local backend has exactly one.
type Repository interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	HabitRepository
	EventRepository
	TaskRepository
	ActivityRepository

	// Name identifies the backend ("local" or "remote").
	Name() string
}

// ProfileRepository is implemented only by the remote backend.
type ProfileRepository interface {
	GetProfile(ctx context.Context) (models.UserProfile, error)
	UpsertProfile(ctx context.Context, input models.ProfileInput) (models.UserProfile, error)
}
