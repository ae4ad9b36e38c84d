package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dailytrack/internal/auth"
	"github.com/julianstephens/dailytrack/internal/config"
	"github.com/julianstephens/dailytrack/internal/constants"
	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/lock"
	"github.com/julianstephens/dailytrack/internal/logger"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/state"
	"github.com/julianstephens/dailytrack/internal/storage"
	"github.com/julianstephens/dailytrack/internal/storage/postgres"
	"github.com/julianstephens/dailytrack/internal/storage/sqlite"
	"github.com/julianstephens/dailytrack/internal/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	Ctx     context.Context
	Config  *config.Config
	Repo    storage.Repository
	State   *state.Store
	Session auth.Session
	Out     io.Writer
	Now     storage.Clock

	// Yes skips confirmation prompts.
	Yes bool

	confirm func(title string) (bool, error)
	lock    *lock.Lock
}

type Option func(*Context)

func WithOutput(w io.Writer) Option { return func(c *Context) { c.Out = w } }

func WithSession(s auth.Session) Option { return func(c *Context) { c.Session = s } }

func WithConfig(cfg *config.Config) Option { return func(c *Context) { c.Config = cfg } }

func WithYes(yes bool) Option { return func(c *Context) { c.Yes = yes } }

// WithClock pins "now" for the context and its state store.
func WithClock(clock storage.Clock) Option {
	return func(c *Context) {
		if clock != nil {
			c.Now = clock
		}
	}
}

// WithConfirm replaces the interactive prompt, mostly for tests.
func WithConfirm(fn func(title string) (bool, error)) Option {
	return func(c *Context) { c.confirm = fn }
}

// New wires a command context around an already constructed backend.
func New(repo storage.Repository, opts ...Option) *Context {
	c := &Context{
		Ctx:  context.Background(),
		Repo: repo,
		Out:  os.Stdout,
		Now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if repo != nil {
		c.State = state.New(repo, state.WithClock(c.Now))
	}
	return c
}

// NewBackend builds the Repository selected by cfg.Backend. A nil clock
// means time.Now.
func NewBackend(cfg *config.Config, session auth.Session, clock storage.Clock) (storage.Repository, error) {
	switch cfg.Backend {
	case constants.LocalBackendName:
		return sqlite.NewStore(cfg.LocalPath, sqlite.WithClock(clock)), nil
	case constants.RemoteBackendName:
		connStr, err := cfg.ResolveDSN()
		if err != nil {
			return nil, err
		}
		if _, err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(connStr, session, postgres.WithClock(clock)), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Open selects the backend from cfg and, for the local store, takes the
// process lock next to the database file.
func Open(cfg *config.Config, session auth.Session, opts ...Option) (*Context, error) {
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	clock := func() time.Time { return time.Now().In(loc) }

	repo, err := NewBackend(cfg, session, clock)
	if err != nil {
		return nil, err
	}
	var l *lock.Lock
	if cfg.Backend == constants.LocalBackendName {
		l, err = lock.Acquire(filepath.Dir(cfg.LocalPath))
		if err != nil {
			return nil, err
		}
	}
	opts = append([]Option{WithConfig(cfg), WithSession(session), WithClock(clock)}, opts...)
	c := New(repo, opts...)
	c.lock = l
	return c, nil
}

// Close closes the backend and drops the process lock.
func (c *Context) Close() error {
	var errs []error
	if c.Repo != nil {
		errs = append(errs, c.Repo.Close())
	}
	errs = append(errs, c.lock.Release())
	c.lock = nil
	return errors.Join(errs...)
}

// Context returns the request context, falling back to Background.
func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Today is the current local time according to the context clock.
func (c *Context) Today() time.Time { return c.now() }

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

// Confirm asks a yes/no question unless --yes was given.
func (c *Context) Confirm(title string) (bool, error) {
	if c.Yes {
		return true, nil
	}
	if c.confirm != nil {
		return c.confirm(title)
	}
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return ok, nil
}

// Profiles returns the profile repository; only the remote backend has one.
func (c *Context) Profiles() (storage.ProfileRepository, error) {
	profiles, ok := c.Repo.(storage.ProfileRepository)
	if !ok {
		return nil, fmt.Errorf("profiles are only available on the %s backend", constants.RemoteBackendName)
	}
	return profiles, nil
}

// CurrentUser returns the signed-in user or ErrUnauthenticated.
func (c *Context) CurrentUser() (models.User, error) {
	if c.Session != nil {
		if u := c.Session.CurrentUser(); u != nil && u.ID != "" {
			return *u, nil
		}
	}
	return models.User{}, fmt.Errorf("%w: run '%s auth login' first", apperrors.ErrUnauthenticated, constants.AppName)
}

// LogUnlessNil records a non-fatal command failure.
func LogUnlessNil(msg string, err error) {
	if err != nil {
		logger.Warn(msg, "error", err)
	}
}

// ParseWeekdays parses a comma-separated list of weekday names or
// Monday-based indices (0=Mon .. 6=Sun). An empty string means every day.
func ParseWeekdays(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return utils.AllWeekdays(), nil
	}

	dayMap := map[string]int{
		"mon": 0, "monday": 0,
		"tue": 1, "tuesday": 1,
		"wed": 2, "wednesday": 2,
		"thu": 3, "thursday": 3,
		"fri": 4, "friday": 4,
		"sat": 5, "saturday": 5,
		"sun": 6, "sunday": 6,
	}

	var weekdays []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		switch part {
		case "daily", "all":
			return utils.AllWeekdays(), nil
		case "weekdays":
			weekdays = append(weekdays, 0, 1, 2, 3, 4)
			continue
		case "weekends":
			weekdays = append(weekdays, 5, 6)
			continue
		}
		if wd, ok := dayMap[part]; ok {
			weekdays = append(weekdays, wd)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 6 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		weekdays = append(weekdays, num)
	}
	return utils.NormalizeWeekdays(weekdays), nil
}

// FormatWeekdays renders a schedule for display.
func FormatWeekdays(weekdays []int) string {
	days := utils.NormalizeWeekdays(weekdays)
	if len(days) == 7 {
		return "daily"
	}
	names := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = names[d]
	}
	return strings.Join(parts, ",")
}

// ParseDay resolves "today", "yesterday" or a YYYY-MM-DD key to a date-key.
func ParseDay(s string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return utils.DateKey(now), nil
	case "yesterday":
		return utils.DateKey(now.AddDate(0, 0, -1)), nil
	}
	key, ok := utils.NormalizeDateKey(s)
	if !ok {
		return "", apperrors.Validation("invalid date %q: expected YYYY-MM-DD, today or yesterday", s)
	}
	return key, nil
}
