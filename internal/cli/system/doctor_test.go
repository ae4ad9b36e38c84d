package system

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage/sqlite"
)

func setupDoctor(t *testing.T) (*cli.Context, string, *bytes.Buffer) {
	t.Helper()
	gokeyring.MockInit()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := newStore(t, dbPath)
	var out bytes.Buffer
	return cli.New(store, cli.WithOutput(&out)), dbPath, &out
}

// rawExec runs a statement on a second connection to the database file.
func rawExec(t *testing.T, dbPath, query string, args ...any) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open %s: %v", dbPath, err)
	}
	defer db.Close()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	ctx, _, out := setupDoctor(t)
	bg := context.Background()
	e, err := ctx.Repo.CreateEvent(bg, models.CreateEventInput{Title: "Trip"})
	if err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"Pack", "Book"} {
		if _, err := ctx.Repo.CreateTask(bg, models.CreateTaskInput{EventID: e.ID, Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("doctor failed on a healthy database: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "All diagnostics passed!") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDoctorCmd_NewerSchema(t *testing.T) {
	ctx, dbPath, out := setupDoctor(t)
	rawExec(t, dbPath, "UPDATE schema_version SET version = 999")

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("doctor should fail on a schema newer than supported")
	}
	if !strings.Contains(out.String(), "❌ Schema version: FAIL") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDoctorCmd_BrokenTaskOrder(t *testing.T) {
	ctx, dbPath, out := setupDoctor(t)
	bg := context.Background()
	e, err := ctx.Repo.CreateEvent(bg, models.CreateEventInput{Title: "Trip"})
	if err != nil {
		t.Fatal(err)
	}
	task, err := ctx.Repo.CreateTask(bg, models.CreateTaskInput{EventID: e.ID, Title: "Pack"})
	if err != nil {
		t.Fatal(err)
	}
	rawExec(t, dbPath, "UPDATE event_tasks SET sort_order = 5 WHERE id = ?", task.ID)

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("doctor should fail on a gap in task order")
	}
	if !strings.Contains(out.String(), "❌ Task order: FAIL") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDoctorCmd_Unreachable(t *testing.T) {
	gokeyring.MockInit()
	var out bytes.Buffer
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "missing.db"))
	ctx := cli.New(store, cli.WithOutput(&out))

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("doctor should fail without a database")
	}
	if !strings.Contains(out.String(), "⊘ Task order: SKIPPED") {
		t.Errorf("database checks should be skipped, output = %q", out.String())
	}
}

func TestMigrations_Incomplete(t *testing.T) {
	ctx, dbPath, out := setupDoctor(t)
	st, err := migrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	rawExec(t, dbPath, "UPDATE schema_version SET version = ?", st.Latest-1)

	if err := checkMigrationsComplete(ctx); err == nil {
		t.Fatal("checkMigrationsComplete should fail with a pending migration")
	}

	if err := (&MigrateCmd{Status: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "pending:") {
		t.Errorf("status output = %q", out.String())
	}

	out.Reset()
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("MigrateCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Successfully applied 1 migration(s).") {
		t.Errorf("migrate output = %q", out.String())
	}
	if err := checkMigrationsComplete(ctx); err != nil {
		t.Errorf("migrations should be complete after migrate: %v", err)
	}
}

func TestCheckClockTimezone(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{name: "current", now: time.Date(2024, 3, 6, 9, 0, 0, 0, time.Local)},
		{name: "epoch", now: time.Unix(0, 0), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := checkClockTimezone(tt.now); (err != nil) != tt.wantErr {
				t.Errorf("checkClockTimezone() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
