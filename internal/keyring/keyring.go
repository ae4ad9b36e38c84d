package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/dailytrack/internal/constants"
	"github.com/julianstephens/dailytrack/internal/models"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	v, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func set(user, value string) error {
	if err := keyring.Set(constants.AppName, user, value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func del(user string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// GetConnectionString retrieves the remote database connection string.
// Returns ErrNotFound if none is stored.
func GetConnectionString() (string, error) {
	return get(constants.DefaultKeyringUser)
}

// SetConnectionString stores the remote database connection string.
func SetConnectionString(connStr string) error {
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	return set(constants.DefaultKeyringUser, connStr)
}

// DeleteConnectionString removes the stored connection string.
func DeleteConnectionString() error {
	return del(constants.DefaultKeyringUser)
}

// GetSession returns the signed-in user. Returns ErrNotFound when signed out.
func GetSession() (models.User, error) {
	raw, err := get(constants.SessionKeyringUser)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return models.User{}, fmt.Errorf("corrupt session in keyring: %w", err)
	}
	if u.ID == "" {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

// SetSession records u as the signed-in user.
func SetSession(u models.User) error {
	if u.ID == "" {
		return errors.New("session user id cannot be empty")
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return set(constants.SessionKeyringUser, string(raw))
}

// DeleteSession signs the user out.
func DeleteSession() error {
	return del(constants.SessionKeyringUser)
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// MaskPassword hides the password of a URL or key/value connection string.
func MaskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil || u.User == nil {
			return connStr
		}
		if _, ok := u.User.Password(); !ok {
			return connStr
		}
		u.User = url.UserPassword(u.User.Username(), "****")
		return strings.Replace(u.String(), "%2A%2A%2A%2A", "****", 1)
	}

	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
