// Package auth is the boundary between the remote backend and whoever owns the
// sign-in flow. The core only ever asks for the current user.
package auth

import (
	"errors"
	"sync"

	"github.com/julianstephens/dailytrack/internal/keyring"
	"github.com/julianstephens/dailytrack/internal/logger"
	"github.com/julianstephens/dailytrack/internal/models"
)

// Session returns the signed-in user, or nil when there is none.
type Session interface {
	CurrentUser() *models.User
}

// SessionFunc adapts a function to Session.
type SessionFunc func() *models.User

func (f SessionFunc) CurrentUser() *models.User { return f() }

// Static is a fixed session, mostly for tests and one-shot commands.
type Static struct {
	mu   sync.RWMutex
	user *models.User
}

func NewStatic(user *models.User) *Static {
	return &Static{user: user}
}

func (s *Static) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetUser swaps the session user; nil signs out.
func (s *Static) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// Keyring reads the session stored by `auth login` on every call.
type Keyring struct{}

func (Keyring) CurrentUser() *models.User {
	u, err := keyring.GetSession()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Warn("failed to read session from keyring", "error", err)
		}
		return nil
	}
	return &u
}
