package activity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage/sqlite"
)

var testNow = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

func setupRepo(t *testing.T, now *time.Time) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "dailytrack.db"),
		sqlite.WithClock(func() time.Time { return *now }))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustLog(t *testing.T, repo Repository, action models.ActivityAction, id, title string, snapshot any, canUndo bool) models.ActivityLog {
	t.Helper()
	entry, err := NewEntry(action, id, title, snapshot, canUndo, testNow)
	if err != nil {
		t.Fatalf("NewEntry() error = %v", err)
	}
	entry, err = repo.CreateActivityLog(context.Background(), entry)
	if err != nil {
		t.Fatalf("CreateActivityLog() error = %v", err)
	}
	return entry
}

func TestNewEntry(t *testing.T) {
	tests := []struct {
		name     string
		action   models.ActivityAction
		snapshot any
		canUndo  bool
		wantErr  bool
	}{
		{"undoable with snapshot", models.ActionHabitCreated, models.Habit{ID: "h1"}, true, false},
		{"informational without snapshot", models.ActionEventUpdated, nil, false, false},
		{"undoable without snapshot", models.ActionHabitDeleted, nil, true, true},
		{"unknown action", models.ActivityAction("habit_renamed"), nil, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NewEntry(tt.action, "id", "title", tt.snapshot, tt.canUndo, testNow)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrValidation) {
					t.Errorf("error = %v, want ErrValidation", err)
				}
				return
			}
			if entry.ID == "" || entry.EntityType != tt.action.Entity() || !entry.Timestamp.Equal(testNow) {
				t.Errorf("unexpected entry: %+v", entry)
			}
			if (entry.Snapshot != "") != (tt.snapshot != nil) {
				t.Errorf("Snapshot = %q", entry.Snapshot)
			}
		})
	}
}

func TestUndo_HabitDeleted(t *testing.T) {
	ctx := context.Background()
	now := testNow
	repo := setupRepo(t, &now)
	engine := NewEngine(repo)

	h, err := repo.CreateHabit(ctx, models.CreateHabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	h, err = repo.ToggleHabitCompletion(ctx, h.ID, "2024-03-05")
	if err != nil {
		t.Fatalf("ToggleHabitCompletion() error = %v", err)
	}
	if err := repo.DeleteHabit(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}
	entry := mustLog(t, repo, models.ActionHabitDeleted, h.ID, h.Title, h, true)

	rev, err := engine.Undo(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !rev.Applied || rev.RestoredHabit == nil || rev.RestoredHabit.ID != h.ID {
		t.Fatalf("unexpected reversal: %+v", rev)
	}
	got, err := repo.GetHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}
	if !got.HasCompletion("2024-03-05") {
		t.Errorf("restored habit lost its completions: %v", got.Completions)
	}
	if _, err := repo.GetActivityLog(ctx, entry.ID); !apperrors.IsNotFound(err) {
		t.Errorf("log entry should be consumed, got %v", err)
	}

	// A second undo of the same entry is a no-op.
	rev, err = engine.Undo(ctx, entry.ID)
	if err != nil || rev.Applied {
		t.Errorf("second Undo() = %+v, %v", rev, err)
	}
}

func TestUndo_EventDeletedRestoresTasks(t *testing.T) {
	ctx := context.Background()
	now := testNow
	repo := setupRepo(t, &now)
	engine := NewEngine(repo)

	e, err := repo.CreateEvent(ctx, models.CreateEventInput{Title: "Trip"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	var tasks []models.EventTask
	for _, title := range []string{"Pack", "Book", "Go"} {
		task, err := repo.CreateTask(ctx, models.CreateTaskInput{EventID: e.ID, Title: title})
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		tasks = append(tasks, task)
	}
	if err := repo.DeleteEvent(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	entry := mustLog(t, repo, models.ActionEventDeleted, e.ID, e.Title, EventSnapshot{Event: e, Tasks: tasks}, true)

	rev, err := engine.Undo(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if rev.RestoredEvent == nil || len(rev.RestoredTasks) != 3 {
		t.Fatalf("unexpected reversal: %+v", rev)
	}
	got, err := repo.ListTasksForEvent(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListTasksForEvent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("restored %d tasks, want 3", len(got))
	}
	for i, task := range got {
		if task.ID != tasks[i].ID || task.Order != i {
			t.Errorf("task %d = %s order %d, want %s order %d", i, task.ID, task.Order, tasks[i].ID, i)
		}
	}
}

func TestUndo_Created(t *testing.T) {
	ctx := context.Background()
	now := testNow
	repo := setupRepo(t, &now)
	engine := NewEngine(repo)

	e, err := repo.CreateEvent(ctx, models.CreateEventInput{Title: "Trip"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	task, err := repo.CreateTask(ctx, models.CreateTaskInput{EventID: e.ID, Title: "Pack"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	taskEntry := mustLog(t, repo, models.ActionTaskCreated, task.ID, task.Title, task, true)
	eventEntry := mustLog(t, repo, models.ActionEventCreated, e.ID, e.Title, e, true)

	rev, err := engine.Undo(ctx, taskEntry.ID)
	if err != nil {
		t.Fatalf("Undo(task) error = %v", err)
	}
	if rev.RemovedTaskID != task.ID || rev.RemovedTaskEventID != e.ID {
		t.Errorf("unexpected reversal: %+v", rev)
	}
	if _, err := repo.GetTask(ctx, task.ID); !apperrors.IsNotFound(err) {
		t.Errorf("task should be gone, got %v", err)
	}

	rev, err = engine.Undo(ctx, eventEntry.ID)
	if err != nil {
		t.Fatalf("Undo(event) error = %v", err)
	}
	if rev.RemovedEventID != e.ID {
		t.Errorf("unexpected reversal: %+v", rev)
	}
}

func TestUndo_CreatedAlreadyGone(t *testing.T) {
	ctx := context.Background()
	now := testNow
	repo := setupRepo(t, &now)
	engine := NewEngine(repo)

	h, err := repo.CreateHabit(ctx, models.CreateHabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	entry := mustLog(t, repo, models.ActionHabitCreated, h.ID, h.Title, h, true)
	if err := repo.DeleteHabit(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}

	rev, err := engine.Undo(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !rev.Applied {
		t.Error("undo of a vanished entity should still consume the entry")
	}
	if _, err := repo.GetActivityLog(ctx, entry.ID); !apperrors.IsNotFound(err) {
		t.Errorf("log entry should be consumed, got %v", err)
	}
}

func TestUndo_NotUndoable(t *testing.T) {
	ctx := context.Background()
	now := testNow
	repo := setupRepo(t, &now)
	engine := NewEngine(repo)

	entry := mustLog(t, repo, models.ActionHabitCompleted, "h1", "Read", ToggleSnapshot{Date: "2024-03-06"}, false)
	rev, err := engine.Undo(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if rev.Applied {
		t.Error("informational entry must not be undone")
	}
	if _, err := repo.GetActivityLog(ctx, entry.ID); err != nil {
		t.Errorf("informational entry should remain, got %v", err)
	}

	if rev, err := engine.Undo(ctx, "missing"); err != nil || rev.Applied {
		t.Errorf("Undo(missing) = %+v, %v", rev, err)
	}
}

// failingRestore makes RestoreHabit fail so undo has to keep its entry.
type failingRestore struct {
	*sqlite.Store
}

func (f failingRestore) RestoreHabit(context.Context, models.Habit) (models.Habit, error) {
	return models.Habit{}, apperrors.TransientIO("restore habit", errors.New("disk full"))
}

func TestUndo_FailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	now := testNow
	repo := setupRepo(t, &now)
	engine := NewEngine(failingRestore{repo})

	h := models.Habit{ID: "h1", Title: "Read", Active: true}
	entry := mustLog(t, repo, models.ActionHabitDeleted, h.ID, h.Title, h, true)

	if _, err := engine.Undo(ctx, entry.ID); !errors.Is(err, apperrors.ErrTransientIO) {
		t.Fatalf("Undo() error = %v, want ErrTransientIO", err)
	}
	if _, err := repo.GetActivityLog(ctx, entry.ID); err != nil {
		t.Errorf("entry should survive a failed undo, got %v", err)
	}
}

func TestDismissAndPrune(t *testing.T) {
	ctx := context.Background()
	now := testNow
	repo := setupRepo(t, &now)
	engine := NewEngine(repo)

	h := models.Habit{ID: "h1", Title: "Read"}
	entry := mustLog(t, repo, models.ActionHabitDeleted, h.ID, h.Title, h, true)
	if err := engine.Dismiss(ctx, entry.ID); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	if _, err := repo.GetHabit(ctx, h.ID); !apperrors.IsNotFound(err) {
		t.Errorf("dismiss must not restore anything, got %v", err)
	}
	if err := engine.Dismiss(ctx, entry.ID); err != nil {
		t.Errorf("second Dismiss() error = %v", err)
	}

	// Zero timestamps are stamped with the store clock.
	if _, err := repo.CreateActivityLog(ctx, models.ActivityLog{Action: models.ActionEventUpdated, EntityID: "e1"}); err != nil {
		t.Fatalf("CreateActivityLog() error = %v", err)
	}
	now = testNow.Add(31 * 24 * time.Hour)
	if _, err := repo.CreateActivityLog(ctx, models.ActivityLog{Action: models.ActionEventUpdated, EntityID: "e2"}); err != nil {
		t.Fatalf("CreateActivityLog() error = %v", err)
	}

	n, err := engine.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
}
