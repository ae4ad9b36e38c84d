package auth

import (
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/dailytrack/internal/keyring"
	"github.com/julianstephens/dailytrack/internal/models"
)

func TestStatic(t *testing.T) {
	s := NewStatic(&models.User{ID: "u1"})
	got := s.CurrentUser()
	if got == nil || got.ID != "u1" {
		t.Fatalf("CurrentUser() = %v", got)
	}
	got.ID = "mutated"
	if s.CurrentUser().ID != "u1" {
		t.Error("CurrentUser() should return a copy")
	}
	s.SetUser(nil)
	if s.CurrentUser() != nil {
		t.Error("CurrentUser() after sign-out should be nil")
	}
}

func TestSessionFunc(t *testing.T) {
	var calls int
	s := SessionFunc(func() *models.User {
		calls++
		return nil
	})
	if s.CurrentUser() != nil || calls != 1 {
		t.Errorf("SessionFunc not invoked as expected: calls=%d", calls)
	}
}

func TestKeyringSession(t *testing.T) {
	gokeyring.MockInit()

	var s Session = Keyring{}
	if s.CurrentUser() != nil {
		t.Fatal("expected no session in empty keyring")
	}
	if err := keyring.SetSession(models.User{ID: "u1", Email: "a@b.c"}); err != nil {
		t.Fatalf("SetSession() failed: %v", err)
	}
	u := s.CurrentUser()
	if u == nil || u.ID != "u1" || u.Email != "a@b.c" {
		t.Errorf("CurrentUser() = %+v", u)
	}
}
