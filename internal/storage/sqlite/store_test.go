package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Monday 2024-03-04 09:00 UTC.
var week1Monday = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: week1Monday}
	store := NewStore(filepath.Join(t.TempDir(), "dailytrack.db"), WithClock(clock.Now))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, clock
}

func mustCreateHabit(t *testing.T, s *Store, title string, weekdays []int) models.Habit {
	t.Helper()
	h, err := s.CreateHabit(context.Background(), models.CreateHabitInput{
		Title:             title,
		TargetTimeframe:   models.TargetTimeframe{Preset: models.TimeframeWeek},
		ScheduledWeekdays: weekdays,
	})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	return h
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("Load() on a missing database should fail")
	}

	path := filepath.Join(t.TempDir(), "dailytrack.db")
	first := NewStore(path)
	if err := first.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	first.Close()

	second := NewStore(path)
	if err := second.Load(); err != nil {
		t.Fatalf("Load() after Init error = %v", err)
	}
	defer second.Close()
	st, err := second.MigrationStatus()
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if st.Current != st.Latest || len(st.Pending) != 0 {
		t.Errorf("MigrationStatus() = %+v, want up to date", st)
	}
}

func TestHabitCRUD(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	h := mustCreateHabit(t, s, "Read", []int{0, 2, 4})
	if !h.Active || len(h.Completions) != 0 || h.WeekStartDate != "2024-03-04" || h.CompletionMode != models.CompletionFlexible {
		t.Errorf("CreateHabit() = %+v", h)
	}

	got, err := s.GetHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}
	if got.Title != "Read" || !slices.Equal(got.ScheduledWeekdays, []int{0, 2, 4}) || !got.CreatedAt.Equal(h.CreatedAt) {
		t.Errorf("GetHabit() = %+v, want %+v", got, h)
	}

	title := "Read more"
	updated, err := s.UpdateHabit(ctx, h.ID, models.UpdateHabitInput{Title: &title, ScheduledWeekdays: []int{1}})
	if err != nil {
		t.Fatalf("UpdateHabit() error = %v", err)
	}
	if updated.Title != title || !slices.Equal(updated.ScheduledWeekdays, []int{1}) {
		t.Errorf("UpdateHabit() = %+v", updated)
	}

	// Titles are not unique.
	mustCreateHabit(t, s, "Read", nil)
	habits, err := s.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits() error = %v", err)
	}
	if len(habits) != 2 {
		t.Errorf("ListHabits() returned %d habits, want 2", len(habits))
	}

	if err := s.DeleteHabit(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}
	if _, err := s.GetHabit(ctx, h.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetHabit() after delete error = %v, want ErrNotFound", err)
	}
}

func TestHabitNotFoundAndValidation(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateHabit(ctx, models.CreateHabitInput{Title: " ", TargetTimeframe: models.TargetTimeframe{Preset: models.TimeframeWeek}}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("CreateHabit(blank) error = %v, want ErrValidation", err)
	}
	title := "x"
	if _, err := s.UpdateHabit(ctx, "nope", models.UpdateHabitInput{Title: &title}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("UpdateHabit(missing) error = %v", err)
	}
	if err := s.DeleteHabit(ctx, "nope"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("DeleteHabit(missing) error = %v", err)
	}
	if _, err := s.ToggleHabitCompletion(ctx, "nope", "2024-03-04"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("ToggleHabitCompletion(missing) error = %v", err)
	}
	h := mustCreateHabit(t, s, "Read", nil)
	if _, err := s.ToggleHabitCompletion(ctx, h.ID, "monday"); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("ToggleHabitCompletion(bad date) error = %v", err)
	}
}

func TestToggleHabitCompletion(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	h := mustCreateHabit(t, s, "Run", []int{0, 2, 4})

	once, err := s.ToggleHabitCompletion(ctx, h.ID, "2024-03-04T18:00:00.000Z")
	if err != nil {
		t.Fatalf("ToggleHabitCompletion() error = %v", err)
	}
	if !slices.Equal(once.Completions, []string{"2024-03-04"}) || once.WeeklyCompletionCount != 1 {
		t.Errorf("after toggle: completions=%v count=%d", once.Completions, once.WeeklyCompletionCount)
	}

	twice, err := s.ToggleHabitCompletion(ctx, h.ID, "2024-03-04")
	if err != nil {
		t.Fatalf("ToggleHabitCompletion() error = %v", err)
	}
	if len(twice.Completions) != 0 || twice.WeeklyCompletionCount != h.WeeklyCompletionCount || twice.WeekStartDate != h.WeekStartDate {
		t.Errorf("toggle twice = %+v, want original %+v", twice, h)
	}

	stored, err := s.GetHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}
	if len(stored.Completions) != 0 {
		t.Errorf("persisted completions = %v", stored.Completions)
	}
}

func TestConcurrentTogglesDoNotLoseUpdates(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	h := mustCreateHabit(t, s, "Meditate", nil)

	days := []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"}
	var wg sync.WaitGroup
	for _, d := range days {
		wg.Add(1)
		go func(day string) {
			defer wg.Done()
			if _, err := s.ToggleHabitCompletion(ctx, h.ID, day); err != nil {
				t.Errorf("ToggleHabitCompletion(%s) error = %v", day, err)
			}
		}(d)
	}
	wg.Wait()

	got, err := s.GetHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}
	if len(got.Completions) != len(days) || got.WeeklyCompletionCount != len(days) {
		t.Errorf("completions = %v count = %d, want %d of each", got.Completions, got.WeeklyCompletionCount, len(days))
	}
}

func TestHabitWeeklyReset(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()
	h := mustCreateHabit(t, s, "Gym", []int{0, 2, 4})

	for _, d := range []string{"2024-03-04", "2024-03-06"} {
		if _, err := s.ToggleHabitCompletion(ctx, h.ID, d); err != nil {
			t.Fatalf("ToggleHabitCompletion(%s) error = %v", d, err)
		}
	}
	habits, err := s.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits() error = %v", err)
	}
	if habits[0].WeeklyCompletionCount != 2 {
		t.Fatalf("week 1 count = %d, want 2", habits[0].WeeklyCompletionCount)
	}

	clock.Set(week1Monday.AddDate(0, 0, 7))
	habits, err = s.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits() error = %v", err)
	}
	got := habits[0]
	if got.WeekStartDate != "2024-03-11" || got.WeeklyCompletionCount != 0 {
		t.Errorf("week 2 = (%s, %d), want (2024-03-11, 0)", got.WeekStartDate, got.WeeklyCompletionCount)
	}
	if !slices.Equal(got.Completions, []string{"2024-03-04", "2024-03-06"}) {
		t.Errorf("completions = %v, want week 1 entries kept", got.Completions)
	}
}

func TestRepairHabitsMigratesLegacyRows(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	// A row written before the weekly tracking columns existed.
	_, err := s.db.Exec(`INSERT INTO habits (id, title, created_at, active, timeframe_preset, completions)
		VALUES ('legacy', 'Old habit', '2024-01-01T00:00:00.000Z', 1, 'week', '["2024-03-04","2024-02-01"]')`)
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	n, err := s.RepairHabits(ctx)
	if err != nil {
		t.Fatalf("RepairHabits() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RepairHabits() repaired %d, want 1", n)
	}
	h, err := s.GetHabit(ctx, "legacy")
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}
	if h.WeekStartDate != "2024-03-04" || h.WeeklyCompletionCount != 1 || len(h.ScheduledWeekdays) != 7 {
		t.Errorf("repaired habit = %+v", h)
	}
	if len(h.Completions) != 2 {
		t.Errorf("repair must keep completions, got %v", h.Completions)
	}

	if n, err := s.RepairHabits(ctx); err != nil || n != 0 {
		t.Errorf("second RepairHabits() = %d, %v; want 0, nil", n, err)
	}
}

func TestRestoreHabitKeepsID(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	h := mustCreateHabit(t, s, "Journal", []int{1, 3})
	h, err := s.ToggleHabitCompletion(ctx, h.ID, "2024-03-05")
	if err != nil {
		t.Fatalf("ToggleHabitCompletion() error = %v", err)
	}
	if err := s.DeleteHabit(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}

	if _, err := s.RestoreHabit(ctx, h); err != nil {
		t.Fatalf("RestoreHabit() error = %v", err)
	}
	got, err := s.GetHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}
	if got.Title != h.Title || !got.CreatedAt.Equal(h.CreatedAt) || !slices.Equal(got.Completions, h.Completions) ||
		!slices.Equal(got.ScheduledWeekdays, h.ScheduledWeekdays) || got.WeeklyCompletionCount != h.WeeklyCompletionCount {
		t.Errorf("restored = %+v, want %+v", got, h)
	}
}

func TestRestoreHabitCollapsesDuplicateCompletions(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	h := mustCreateHabit(t, s, "Stretch", []int{0, 1, 2, 3, 4, 5, 6})
	if err := s.DeleteHabit(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}
	h.Completions = []string{"2024-03-04", "2024-03-04", "not-a-date"}

	restored, err := s.RestoreHabit(ctx, h)
	if err != nil {
		t.Fatalf("RestoreHabit() error = %v", err)
	}
	if !slices.Equal(restored.Completions, []string{"2024-03-04"}) || restored.WeeklyCompletionCount != 1 {
		t.Fatalf("restored completions = %v (count %d)", restored.Completions, restored.WeeklyCompletionCount)
	}

	off, err := s.ToggleHabitCompletion(ctx, h.ID, "2024-03-04")
	if err != nil {
		t.Fatalf("ToggleHabitCompletion() error = %v", err)
	}
	if off.HasCompletion("2024-03-04") || off.WeeklyCompletionCount != 0 {
		t.Errorf("after toggle: %v (count %d)", off.Completions, off.WeeklyCompletionCount)
	}
	on, err := s.ToggleHabitCompletion(ctx, h.ID, "2024-03-04")
	if err != nil {
		t.Fatalf("ToggleHabitCompletion() error = %v", err)
	}
	if !slices.Equal(on.Completions, restored.Completions) {
		t.Errorf("two toggles gave %v, want %v", on.Completions, restored.Completions)
	}
}
