package storage

import "github.com/julianstephens/dailytrack/internal/models"

// Batch is a group of rows the remote import writes in one transaction.
type Batch struct {
	Habits []models.Habit
	Events []models.Event
	Tasks  []models.EventTask
	Logs   []models.ActivityLog
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int {
	return len(b.Habits) + len(b.Events) + len(b.Tasks) + len(b.Logs)
}

// BackfillCounts maps a table name to the rows patched in one backfill run.
type BackfillCounts map[string]int

// Max returns the largest per-table count.
func (c BackfillCounts) Max() int {
	m := 0
	for _, n := range c {
		m = max(m, n)
	}
	return m
}

// Total returns the sum over all tables.
func (c BackfillCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
