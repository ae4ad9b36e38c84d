package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/dailytrack/internal/constants"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/logger"
	"github.com/julianstephens/dailytrack/internal/migration"
	"github.com/julianstephens/dailytrack/internal/storage"
	"github.com/julianstephens/dailytrack/migrations"
)

const dsnPragmas = "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"

// Store is the local single-user backend.
type Store struct {
	path string
	db   *sql.DB
	now  storage.Clock
}

type Option func(*Store)

// WithClock overrides the wall clock used for "today" and timestamps.
func WithClock(clock storage.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path: path,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ storage.Repository = (*Store)(nil)

func (s *Store) Name() string { return constants.LocalBackendName }

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.path+dsnPragmas)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; transactions never wait on a second pooled connection.
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}

	if err := s.open(); err != nil {
		return err
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	st, err := runner.Status()
	if err != nil {
		return err
	}
	if st.Current > st.Latest {
		return runner.ValidateVersion()
	}
	// Additive migrations are safe to apply on open.
	if len(st.Pending) > 0 {
		return s.runMigrations()
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.DriverSQLite)
}

func (s *Store) runMigrations() error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Info(msg, "backend", constants.LocalBackendName)
	})
	return err
}

// MigrationStatus reports the local schema version and pending migrations.
func (s *Store) MigrationStatus() (migration.Status, error) {
	runner, err := s.runner()
	if err != nil {
		return migration.Status{}, err
	}
	return runner.Status()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) ready() error {
	if s.db == nil {
		return apperrors.TransientIO("local store", errors.New("database is not open"))
	}
	return nil
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.TransientIO(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.TransientIO(op, err)
	}
	return nil
}

// scanErr maps a single-row lookup failure onto the error taxonomy.
func scanErr(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(kind, id)
	}
	return apperrors.TransientIO("read "+kind, err)
}

// affectedOrNotFound turns a zero-row write into NotFound.
func affectedOrNotFound(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.TransientIO("write "+kind, err)
	}
	if n == 0 {
		return apperrors.NotFound(kind, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
