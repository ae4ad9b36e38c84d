// Package maintenance holds the one-shot routines that move a device's local
// data into the remote backend and fill fields added to the remote schema later.
// Each routine is guarded by a per-user marker on the device, so calling it on
// every start is safe.
package maintenance

import (
	"context"
	"fmt"

	"github.com/julianstephens/dailytrack/internal/constants"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/logger"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

// RemoteTarget is the part of the remote backend the routines write through.
type RemoteTarget interface {
	CountOwnedRows(ctx context.Context) (int, error)
	ImportBatch(ctx context.Context, b storage.Batch) error
	BackfillOwnerEmail(ctx context.Context, email string, limit int) (storage.BackfillCounts, error)
}

// MarkerStore records which routines already completed on this device.
type MarkerStore interface {
	HasMarker(ctx context.Context, key string) (bool, error)
	SetMarker(ctx context.Context, key string) error
}

func MigrationMarker(userID string) string { return constants.MigrationMarkerPrefix + userID }
func BackfillMarker(userID string) string  { return constants.BackfillMarkerPrefix + userID }

// MigrationStartMarker is set before the first batch is imported. It lets a
// run that failed part way resume even though the remote is no longer empty.
func MigrationStartMarker(userID string) string { return constants.MigrationStartPrefix + userID }

type MigrationReport struct {
	// Skipped is set when nothing was copied; Reason says why.
	Skipped bool
	Reason  string
	// Resumed is set when an earlier interrupted run was completed.
	Resumed bool
	Habits  int
	Events  int
	Tasks   int
	Logs    int
	Batches int
}

func (r MigrationReport) Total() int { return r.Habits + r.Events + r.Tasks + r.Logs }

type BackfillReport struct {
	Skipped  bool
	Reason   string
	Counts   storage.BackfillCounts
	Complete bool
}

func requireUser(user models.User) error {
	if user.ID == "" {
		return apperrors.ErrUnauthenticated
	}
	return nil
}

// MigrateLocalToRemote copies the local store into an empty remote store for user.
// When the remote already holds rows for the user nothing is copied and the
// marker is still set, unless those rows come from an interrupted run on this
// device. Imports are upserts, so that run is repeated in full.
func MigrateLocalToRemote(ctx context.Context, local storage.Repository, remote RemoteTarget, markers MarkerStore, user models.User) (MigrationReport, error) {
	if err := requireUser(user); err != nil {
		return MigrationReport{}, err
	}
	key := MigrationMarker(user.ID)
	done, err := markers.HasMarker(ctx, key)
	if err != nil {
		return MigrationReport{}, err
	}
	if done {
		return MigrationReport{Skipped: true, Reason: "already migrated"}, nil
	}

	startKey := MigrationStartMarker(user.ID)
	started, err := markers.HasMarker(ctx, startKey)
	if err != nil {
		return MigrationReport{}, err
	}

	existing, err := remote.CountOwnedRows(ctx)
	if err != nil {
		return MigrationReport{}, fmt.Errorf("failed to count remote rows: %w", err)
	}
	if existing > 0 && !started {
		logger.Info("Remote store already has data, skipping migration", "user", user.ID, "rows", existing)
		if err := markers.SetMarker(ctx, key); err != nil {
			return MigrationReport{}, err
		}
		return MigrationReport{Skipped: true, Reason: fmt.Sprintf("remote already has %d rows", existing)}, nil
	}

	snapshot, err := Snapshot(ctx, local)
	if err != nil {
		return MigrationReport{}, err
	}
	report := MigrationReport{
		Habits:  len(snapshot.Habits),
		Events:  len(snapshot.Events),
		Tasks:   len(snapshot.Tasks),
		Logs:    len(snapshot.Logs),
		Resumed: started,
	}
	if !started && snapshot.Len() > 0 {
		if err := markers.SetMarker(ctx, startKey); err != nil {
			return MigrationReport{}, err
		}
	}
	for _, batch := range Chunk(snapshot, constants.MigrationBatchSize) {
		if err := remote.ImportBatch(ctx, batch); err != nil {
			return MigrationReport{}, fmt.Errorf("failed to import batch %d: %w", report.Batches+1, err)
		}
		report.Batches++
	}
	if report.Total() == 0 {
		report.Reason = "local store is empty"
	}

	if err := markers.SetMarker(ctx, key); err != nil {
		return MigrationReport{}, err
	}
	logger.Info("Migrated local data to remote", "user", user.ID, "rows", report.Total(), "batches", report.Batches, "resumed", report.Resumed)
	return report, nil
}

// Snapshot reads every habit, event and task of local plus its most recent
// activity entries.
func Snapshot(ctx context.Context, local storage.Repository) (storage.Batch, error) {
	var b storage.Batch
	var err error
	if b.Habits, err = local.ListHabits(ctx); err != nil {
		return storage.Batch{}, fmt.Errorf("failed to read local habits: %w", err)
	}
	if b.Events, err = local.ListEvents(ctx); err != nil {
		return storage.Batch{}, fmt.Errorf("failed to read local events: %w", err)
	}
	for _, e := range b.Events {
		tasks, err := local.ListTasksForEvent(ctx, e.ID)
		if err != nil {
			return storage.Batch{}, fmt.Errorf("failed to read tasks for event %s: %w", e.ID, err)
		}
		b.Tasks = append(b.Tasks, tasks...)
	}
	if b.Logs, err = local.ListRecentActivityLogs(ctx, constants.MigrationLogLimit); err != nil {
		return storage.Batch{}, fmt.Errorf("failed to read local activity logs: %w", err)
	}
	return b, nil
}

// Chunk splits b into batches of at most size rows. Habits come first, then
// events, then tasks, so a task is never written before its event.
func Chunk(b storage.Batch, size int) []storage.Batch {
	if size <= 0 {
		size = constants.MigrationBatchSize
	}
	var out []storage.Batch
	var cur storage.Batch
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur)
			cur = storage.Batch{}
		}
	}
	add := func(put func()) {
		put()
		if cur.Len() == size {
			flush()
		}
	}
	for _, h := range b.Habits {
		add(func() { cur.Habits = append(cur.Habits, h) })
	}
	for _, e := range b.Events {
		add(func() { cur.Events = append(cur.Events, e) })
	}
	for _, t := range b.Tasks {
		add(func() { cur.Tasks = append(cur.Tasks, t) })
	}
	for _, l := range b.Logs {
		add(func() { cur.Logs = append(cur.Logs, l) })
	}
	flush()
	return out
}

// BackfillOwnerEmail patches up to one batch of rows per kind that lack the
// owner email. The marker is set once a run finds less than a full batch in
// every kind. Users without an email are skipped.
func BackfillOwnerEmail(ctx context.Context, remote RemoteTarget, markers MarkerStore, user models.User) (BackfillReport, error) {
	if err := requireUser(user); err != nil {
		return BackfillReport{}, err
	}
	if user.Email == "" {
		return BackfillReport{Skipped: true, Reason: "session has no email"}, nil
	}
	key := BackfillMarker(user.ID)
	done, err := markers.HasMarker(ctx, key)
	if err != nil {
		return BackfillReport{}, err
	}
	if done {
		return BackfillReport{Skipped: true, Reason: "already backfilled", Complete: true}, nil
	}

	counts, err := remote.BackfillOwnerEmail(ctx, user.Email, constants.BackfillBatchSize)
	if err != nil {
		return BackfillReport{}, fmt.Errorf("failed to backfill owner email: %w", err)
	}
	report := BackfillReport{Counts: counts, Complete: counts.Max() < constants.BackfillBatchSize}
	if report.Complete {
		if err := markers.SetMarker(ctx, key); err != nil {
			return BackfillReport{}, err
		}
	}
	logger.Info("Backfilled owner email", "user", user.ID, "rows", counts.Total(), "complete", report.Complete)
	return report, nil
}
