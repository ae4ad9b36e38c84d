package maintenance

import (
	"context"
	"fmt"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/storage"
)

// CopyInto writes b into dst through the restore operations, keeping ids,
// timestamps and task order. Activity entries already present are skipped.
func CopyInto(ctx context.Context, dst storage.Repository, b storage.Batch) (MigrationReport, error) {
	var report MigrationReport
	for _, h := range b.Habits {
		if _, err := dst.RestoreHabit(ctx, h); err != nil {
			return report, fmt.Errorf("failed to copy habit %s: %w", h.ID, err)
		}
		report.Habits++
	}
	for _, e := range b.Events {
		if _, err := dst.RestoreEvent(ctx, e); err != nil {
			return report, fmt.Errorf("failed to copy event %s: %w", e.ID, err)
		}
		report.Events++
	}
	for _, t := range b.Tasks {
		if _, err := dst.RestoreTask(ctx, t); err != nil {
			return report, fmt.Errorf("failed to copy task %s: %w", t.ID, err)
		}
		report.Tasks++
	}
	for _, l := range b.Logs {
		_, err := dst.GetActivityLog(ctx, l.ID)
		if err == nil {
			continue
		}
		if !apperrors.IsNotFound(err) {
			return report, err
		}
		if _, err := dst.CreateActivityLog(ctx, l); err != nil {
			return report, fmt.Errorf("failed to copy activity log %s: %w", l.ID, err)
		}
		report.Logs++
	}
	return report, nil
}
