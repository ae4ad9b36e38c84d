// Package activity builds activity log entries and reverses them on undo.
//
// Entries are single use. Undo and dismiss both delete the entry; undo first
// replays its snapshot through the repository and keeps the entry if that fails.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/dailytrack/internal/constants"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/logger"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

// EventSnapshot is the payload of an event_deleted entry. Both parts are
// restored together.
type EventSnapshot struct {
	Event models.Event       `json:"event"`
	Tasks []models.EventTask `json:"tasks"`
}

// ToggleSnapshot is the informational payload of a habit toggle.
type ToggleSnapshot struct {
	Date string `json:"date"`
}

// NewEntry builds a log row. A nil snapshot is stored as empty; an undoable
// entry without one is rejected.
func NewEntry(action models.ActivityAction, entityID, entityTitle string, snapshot any, canUndo bool, now time.Time) (models.ActivityLog, error) {
	if !action.Valid() {
		return models.ActivityLog{}, apperrors.Validation("unknown activity action %q", action)
	}
	entry := models.ActivityLog{
		ID:          storage.NewID(),
		Action:      action,
		EntityType:  action.Entity(),
		EntityID:    entityID,
		EntityTitle: entityTitle,
		Timestamp:   storage.Timestamp(now),
		CanUndo:     canUndo,
	}
	if snapshot != nil {
		data, err := json.Marshal(snapshot)
		if err != nil {
			return models.ActivityLog{}, fmt.Errorf("failed to encode %s snapshot: %w", action, err)
		}
		entry.Snapshot = string(data)
	}
	if canUndo && entry.Snapshot == "" {
		return models.ActivityLog{}, apperrors.Validation("undoable activity %s requires a snapshot", action)
	}
	return entry, nil
}

// Repository is what undo needs from storage.
type Repository interface {
	storage.HabitRepository
	storage.EventRepository
	storage.TaskRepository
	storage.ActivityRepository
}

// Reversal describes what an undo changed so a cache can follow.
// Applied is false when the entry was missing or not undoable.
type Reversal struct {
	LogID   string
	Action  models.ActivityAction
	Applied bool

	RestoredHabit *models.Habit
	RestoredEvent *models.Event
	RestoredTasks []models.EventTask

	RemovedHabitID string
	RemovedEventID string
	RemovedTaskID  string
	// RemovedTaskEventID is the parent of RemovedTaskID.
	RemovedTaskEventID string
}

type Engine struct {
	repo Repository
}

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// Undo reverses the entry with the given id and then deletes it.
func (e *Engine) Undo(ctx context.Context, id string) (Reversal, error) {
	entry, err := e.repo.GetActivityLog(ctx, id)
	if apperrors.IsNotFound(err) {
		return Reversal{LogID: id}, nil
	}
	if err != nil {
		return Reversal{}, err
	}
	rev := Reversal{LogID: id, Action: entry.Action}
	if !entry.CanUndo || entry.Snapshot == "" {
		return rev, nil
	}

	if err := e.reverse(ctx, entry, &rev); err != nil {
		return Reversal{}, fmt.Errorf("failed to undo %s: %w", entry.Action, err)
	}
	if err := e.repo.DeleteActivityLog(ctx, id); err != nil && !apperrors.IsNotFound(err) {
		return Reversal{}, err
	}
	rev.Applied = true
	logger.Debug("Undid activity", "action", entry.Action, "entity", entry.EntityID)
	return rev, nil
}

func (e *Engine) reverse(ctx context.Context, entry models.ActivityLog, rev *Reversal) error {
	switch entry.Action {
	case models.ActionHabitDeleted:
		var h models.Habit
		if err := decode(entry, &h); err != nil {
			return err
		}
		restored, err := e.repo.RestoreHabit(ctx, h)
		if err != nil {
			return err
		}
		rev.RestoredHabit = &restored

	case models.ActionEventDeleted:
		var snap EventSnapshot
		if err := decode(entry, &snap); err != nil {
			return err
		}
		restored, err := e.repo.RestoreEvent(ctx, snap.Event)
		if err != nil {
			return err
		}
		rev.RestoredEvent = &restored
		for _, t := range snap.Tasks {
			rt, err := e.repo.RestoreTask(ctx, t)
			if err != nil {
				return err
			}
			rev.RestoredTasks = append(rev.RestoredTasks, rt)
		}

	case models.ActionTaskDeleted:
		var t models.EventTask
		if err := decode(entry, &t); err != nil {
			return err
		}
		restored, err := e.repo.RestoreTask(ctx, t)
		if err != nil {
			return err
		}
		rev.RestoredTasks = []models.EventTask{restored}

	// A created entity that is already gone counts as undone.
	case models.ActionHabitCreated:
		var h models.Habit
		if err := decode(entry, &h); err != nil {
			return err
		}
		if err := ignoreNotFound(e.repo.DeleteHabit(ctx, h.ID)); err != nil {
			return err
		}
		rev.RemovedHabitID = h.ID

	case models.ActionEventCreated:
		var ev models.Event
		if err := decode(entry, &ev); err != nil {
			return err
		}
		if err := ignoreNotFound(e.repo.DeleteEvent(ctx, ev.ID)); err != nil {
			return err
		}
		rev.RemovedEventID = ev.ID

	case models.ActionTaskCreated:
		var t models.EventTask
		if err := decode(entry, &t); err != nil {
			return err
		}
		if err := ignoreNotFound(e.repo.DeleteTask(ctx, t.ID)); err != nil {
			return err
		}
		rev.RemovedTaskID = t.ID
		rev.RemovedTaskEventID = t.EventID

	default:
		return apperrors.Validation("activity %s cannot be undone", entry.Action)
	}
	return nil
}

func decode(entry models.ActivityLog, v any) error {
	if err := json.Unmarshal([]byte(entry.Snapshot), v); err != nil {
		return apperrors.Validation("corrupt snapshot on activity %s: %v", entry.ID, err)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if apperrors.IsNotFound(err) {
		return nil
	}
	return err
}

// Dismiss deletes the entry without reversing it. A missing entry is not an error.
func (e *Engine) Dismiss(ctx context.Context, id string) error {
	return ignoreNotFound(e.repo.DeleteActivityLog(ctx, id))
}

// Prune deletes entries older than days and returns how many went.
// Zero or negative days uses the default retention window.
func (e *Engine) Prune(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = constants.ActivityRetentionDays
	}
	n, err := e.repo.DeleteActivityLogsOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("Pruned activity logs", "count", n, "days", days)
	}
	return n, nil
}
