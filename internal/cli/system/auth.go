package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/keyring"
	"github.com/julianstephens/dailytrack/internal/models"
)

type AuthCmd struct {
	Login  AuthLoginCmd  `cmd:"" help:"Store a session for the remote backend."`
	Logout AuthLogoutCmd `cmd:"" help:"Remove the stored session."`
	Whoami AuthWhoamiCmd `cmd:"" default:"1" help:"Show the signed-in user."`
}

type AuthLoginCmd struct {
	Email string `arg:"" help:"Account email address."`
	ID    string `help:"Explicit user id. Defaults to an id derived from the email."`
}

// UserIDFor derives a stable id from an email so every device signing in
// with the same address owns the same remote rows.
func UserIDFor(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(email)))).String()
}

func (c *AuthLoginCmd) Run(ctx *cli.Context) error {
	email := strings.TrimSpace(c.Email)
	user := models.User{ID: c.ID, Email: email}
	if user.ID == "" {
		user.ID = UserIDFor(email)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	if err := keyring.SetSession(user); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	ctx.Printf("✓ Signed in as %s (%s)\n", user.Email, cli.ShortID(user.ID))

	syncAfterLogin(ctx, user)
	return nil
}

type AuthLogoutCmd struct{}

func (c *AuthLogoutCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteSession(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			ctx.Println("Not signed in.")
			return nil
		}
		return fmt.Errorf("failed to remove session: %w", err)
	}
	ctx.Println("✓ Signed out")
	return nil
}

type AuthWhoamiCmd struct{}

func (c *AuthWhoamiCmd) Run(ctx *cli.Context) error {
	u, err := keyring.GetSession()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			ctx.Printf("Not signed in. Run '%s auth login <email>'.\n", constants.AppName)
			return nil
		}
		return fmt.Errorf("failed to read session: %w", err)
	}
	ctx.Printf("%s\n", u.Email)
	ctx.Printf("  id: %s\n", u.ID)
	return nil
}
