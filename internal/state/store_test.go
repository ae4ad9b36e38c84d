package state

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
	"github.com/julianstephens/dailytrack/internal/storage/sqlite"
)

// Wednesday 2024-03-06 09:00 local.
var today = time.Date(2024, 3, 6, 9, 0, 0, 0, time.Local)

func setupStore(t *testing.T) (*Store, *sqlite.Store) {
	t.Helper()
	clock := func() time.Time { return today }
	repo := sqlite.NewStore(filepath.Join(t.TempDir(), "dailytrack.db"), sqlite.WithClock(clock))
	if err := repo.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return New(repo, WithClock(clock)), repo
}

func ptr[T any](v T) *T { return &v }

func latestLog(t *testing.T, s *Store) models.ActivityLog {
	t.Helper()
	logs := s.ActivityLogs()
	if len(logs) == 0 {
		t.Fatal("expected an activity log entry")
	}
	return logs[0]
}

func TestCreateHabitAndUndo(t *testing.T) {
	ctx := context.Background()
	s, repo := setupStore(t)

	h, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	if got := s.Habits(); len(got) != 1 || got[0].ID != h.ID {
		t.Fatalf("Habits() = %+v", got)
	}
	entry := latestLog(t, s)
	if entry.Action != models.ActionHabitCreated || !entry.CanUndo || entry.Snapshot == "" {
		t.Errorf("unexpected log entry: %+v", entry)
	}

	undone, err := s.Undo(ctx, entry.ID)
	if err != nil || !undone {
		t.Fatalf("Undo() = %v, %v", undone, err)
	}
	if len(s.Habits()) != 0 || len(s.ActivityLogs()) != 0 {
		t.Errorf("cache not reconciled: habits=%d logs=%d", len(s.Habits()), len(s.ActivityLogs()))
	}
	if _, err := repo.GetHabit(ctx, h.ID); !apperrors.IsNotFound(err) {
		t.Errorf("habit should be deleted, got %v", err)
	}
}

func TestDeleteHabitAndUndo(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	h, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	if _, err := s.ToggleHabit(ctx, h.ID, "2024-03-06"); err != nil {
		t.Fatalf("ToggleHabit() error = %v", err)
	}
	if err := s.DeleteHabit(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}
	if len(s.Habits()) != 0 {
		t.Fatal("deleted habit still cached")
	}

	entry := latestLog(t, s)
	if entry.Action != models.ActionHabitDeleted {
		t.Fatalf("latest action = %s", entry.Action)
	}
	if _, err := s.Undo(ctx, entry.ID); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	got := s.Habits()
	if len(got) != 1 || !got[0].HasCompletion("2024-03-06") {
		t.Errorf("restored habits = %+v", got)
	}
}

func TestToggleHabitCompletionModes(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	strict, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: "Meditate", CompletionMode: models.CompletionStrict})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	flexible, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: "Run"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}

	tests := []struct {
		name    string
		habit   models.Habit
		date    string
		wantErr bool
	}{
		{"strict today", strict, "2024-03-06", false},
		{"strict today as datetime", strict, "2024-03-06T18:30:00Z", false},
		{"strict yesterday", strict, "2024-03-05", true},
		{"flexible monday", flexible, "2024-03-04", false},
		{"flexible sunday", flexible, "2024-03-10", false},
		{"flexible last week", flexible, "2024-03-03", true},
		{"flexible next week", flexible, "2024-03-11", true},
		{"malformed", flexible, "March 6", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ToggleHabit(ctx, tt.habit.ID, tt.date)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToggleHabit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}

	if _, err := s.ToggleHabit(ctx, "missing", "2024-03-06"); !apperrors.IsNotFound(err) {
		t.Errorf("ToggleHabit(missing) error = %v, want not found", err)
	}
}

func TestToggleHabitLogsCompletion(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	h, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	for _, want := range []models.ActivityAction{models.ActionHabitCompleted, models.ActionHabitUncompleted} {
		if _, err := s.ToggleHabit(ctx, h.ID, "2024-03-06"); err != nil {
			t.Fatalf("ToggleHabit() error = %v", err)
		}
		entry := latestLog(t, s)
		if entry.Action != want || entry.CanUndo {
			t.Errorf("log = %s canUndo=%v, want %s canUndo=false", entry.Action, entry.CanUndo, want)
		}
	}
	if got := s.Habits()[0]; got.HasCompletion("2024-03-06") || got.WeeklyCompletionCount != 0 {
		t.Errorf("double toggle should be a no-op, got %+v", got)
	}
}

func TestUpdateHabitIsNotLogged(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	h, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	before := len(s.ActivityLogs())
	updated, err := s.UpdateHabit(ctx, h.ID, models.UpdateHabitInput{Title: ptr("Read more")})
	if err != nil {
		t.Fatalf("UpdateHabit() error = %v", err)
	}
	if updated.Title != "Read more" || s.Habits()[0].Title != "Read more" {
		t.Errorf("title not updated: %+v", updated)
	}
	if len(s.ActivityLogs()) != before {
		t.Error("habit edits must not be logged")
	}
}

func TestDeleteEventAndUndoRestoresTasks(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	e, err := s.CreateEvent(ctx, models.CreateEventInput{Title: "Trip"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	for _, title := range []string{"Pack", "Book"} {
		if _, err := s.CreateTask(ctx, models.CreateTaskInput{EventID: e.ID, Title: title}); err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
	}
	if err := s.DeleteEvent(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	if len(s.Events(EventFilter{}, EventSortCreated)) != 0 || len(s.Tasks(e.ID)) != 0 {
		t.Fatal("deleted event still cached")
	}

	if _, err := s.Undo(ctx, latestLog(t, s).ID); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if len(s.Events(EventFilter{}, EventSortCreated)) != 1 {
		t.Error("event not restored in cache")
	}
	tasks := s.SortedTasks(e.ID)
	if len(tasks) != 2 || tasks[0].Title != "Pack" || tasks[1].Title != "Book" {
		t.Errorf("restored tasks = %+v", tasks)
	}
}

func TestUpdateTaskLogsOnlyDoneChanges(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	e, err := s.CreateEvent(ctx, models.CreateEventInput{Title: "Trip"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	task, err := s.CreateTask(ctx, models.CreateTaskInput{EventID: e.ID, Title: "Pack"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	count := len(s.ActivityLogs())
	if _, err := s.UpdateTask(ctx, task.ID, models.UpdateTaskInput{Title: ptr("Pack bags")}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if len(s.ActivityLogs()) != count {
		t.Error("title change must not be logged")
	}
	if _, err := s.UpdateTask(ctx, task.ID, models.UpdateTaskInput{Done: ptr(false)}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if len(s.ActivityLogs()) != count {
		t.Error("unchanged done flag must not be logged")
	}
	if _, err := s.UpdateTask(ctx, task.ID, models.UpdateTaskInput{Done: ptr(true)}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if entry := latestLog(t, s); entry.Action != models.ActionTaskCompleted || entry.CanUndo {
		t.Errorf("unexpected entry %+v", entry)
	}
	if got := s.Tasks(e.ID); len(got) != 1 || !got[0].Done || got[0].Title != "Pack bags" {
		t.Errorf("cached task = %+v", got)
	}
}

func TestReorderTasksRefreshesCache(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	e, err := s.CreateEvent(ctx, models.CreateEventInput{Title: "Trip"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	var ids []string
	for _, title := range []string{"A", "B", "C"} {
		task, err := s.CreateTask(ctx, models.CreateTaskInput{EventID: e.ID, Title: title})
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		ids = append(ids, task.ID)
	}
	if err := s.ReorderTasks(ctx, e.ID, []string{ids[2], ids[0], ids[1], "stale-id"}); err != nil {
		t.Fatalf("ReorderTasks() error = %v", err)
	}
	got := s.SortedTasks(e.ID)
	want := []string{"C", "A", "B"}
	for i, task := range got {
		if task.Title != want[i] || task.Order != i {
			t.Errorf("task %d = %s order %d, want %s order %d", i, task.Title, task.Order, want[i], i)
		}
	}
}

// failingLogs fails every activity append.
type failingLogs struct {
	*sqlite.Store
}

func (f failingLogs) CreateActivityLog(context.Context, models.ActivityLog) (models.ActivityLog, error) {
	return models.ActivityLog{}, apperrors.TransientIO("write activity log", errors.New("disk full"))
}

func TestLogFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	_, repo := setupStore(t)
	s := New(failingLogs{repo}, WithClock(func() time.Time { return today }))

	h, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	if len(s.Habits()) != 1 || len(s.ActivityLogs()) != 0 {
		t.Errorf("habits=%d logs=%d, want 1 and 0", len(s.Habits()), len(s.ActivityLogs()))
	}
	if _, err := repo.GetHabit(ctx, h.ID); err != nil {
		t.Errorf("habit should persist despite log failure: %v", err)
	}
}

func TestFailedMutationLeavesCache(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	if _, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: "   "}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("CreateHabit() error = %v, want ErrValidation", err)
	}
	if err := s.DeleteEvent(ctx, "missing"); !apperrors.IsNotFound(err) {
		t.Fatalf("DeleteEvent() error = %v, want not found", err)
	}
	if len(s.Habits()) != 0 || len(s.ActivityLogs()) != 0 {
		t.Error("failed mutations must not touch the cache")
	}
}

func TestEventsView(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &Store{now: time.Now, events: []models.Event{
		{ID: "a", Title: "undated", Priority: models.PriorityLow, CreatedAt: base},
		{ID: "b", Title: "later", Priority: models.PriorityHigh, DueAt: ptr("2024-04-01"), CreatedAt: base.Add(time.Hour)},
		{ID: "c", Title: "sooner", Priority: models.PriorityMedium, DueAt: ptr("2024-03-20T10:00"), CreatedAt: base.Add(2 * time.Hour)},
		{ID: "d", Title: "high undated", Priority: models.PriorityHigh, CreatedAt: base.Add(3 * time.Hour)},
	}}

	ids := func(events []models.Event) []string {
		var out []string
		for _, e := range events {
			out = append(out, e.ID)
		}
		return out
	}
	tests := []struct {
		name   string
		filter EventFilter
		sort   EventSort
		want   []string
	}{
		{"created", EventFilter{}, EventSortCreated, []string{"a", "b", "c", "d"}},
		{"due date", EventFilter{}, EventSortDueDate, []string{"c", "b", "a", "d"}},
		{"priority", EventFilter{}, EventSortPriority, []string{"b", "d", "c", "a"}},
		{"high only", EventFilter{Priority: models.PriorityHigh}, EventSortCreated, []string{"b", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(s.Events(tt.filter, tt.sort))
			if len(got) != len(tt.want) {
				t.Fatalf("Events() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Events() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestEventsDueDateUsesClockLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &Store{
		now: func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, tokyo) },
		events: []models.Event{
			// 05:00 UTC
			{ID: "utc", Title: "with offset", DueAt: ptr("2024-03-05T05:00:00Z"), CreatedAt: base},
			// 10:00 in Tokyo is 01:00 UTC
			{ID: "wall", Title: "wall clock", DueAt: ptr("2024-03-05T10:00"), CreatedAt: base.Add(time.Hour)},
		},
	}

	got := s.Events(EventFilter{}, EventSortDueDate)
	if len(got) != 2 {
		t.Fatalf("Events() returned %d events, want 2", len(got))
	}
	if got[0].ID != "wall" || got[1].ID != "utc" {
		t.Errorf("Events() order = %s, %s; want wall, utc", got[0].ID, got[1].ID)
	}
}

func TestSortedTasksModes(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &Store{tasks: map[string][]models.EventTask{"e1": {
		{ID: "x", Order: 2, Priority: models.PriorityLow, CreatedAt: base},
		{ID: "y", Order: 0, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "z", Order: 1, Priority: models.PriorityHigh, CreatedAt: base.Add(time.Hour)},
	}}}

	tests := []struct {
		mode TaskSortMode
		want string
	}{
		{TaskSortCustom, "yzx"},
		{TaskSortDateAddedAsc, "xzy"},
		{TaskSortDateAddedDesc, "yzx"},
		{TaskSortPriority, "zxy"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			s.SetTaskSortMode(tt.mode)
			got := ""
			for _, task := range s.SortedTasks("e1") {
				got += task.ID
			}
			if got != tt.want {
				t.Errorf("SortedTasks() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := s.CreateEvent(ctx, models.CreateEventInput{Title: "event"}); err != nil {
				t.Errorf("CreateEvent(%d) error = %v", i, err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = s.Events(EventFilter{}, EventSortDueDate)
			_ = s.ActivityLogs()
		}()
	}
	wg.Wait()
	if got := len(s.Events(EventFilter{}, EventSortCreated)); got != 4 {
		t.Errorf("cached %d events, want 4", got)
	}
}

var _ storage.Repository = failingLogs{}
