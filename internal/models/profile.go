package models

import (
	"strings"
	"time"

	"github.com/julianstephens/dailytrack/internal/constants"
)

// UserProfile holds per-user display preferences. One row per user, remote backend only.
type UserProfile struct {
	UserID       string    `json:"user_id"`
	OwnerEmail   string    `json:"owner_email,omitempty"`
	Username     string    `json:"username"`
	AvatarURL    string    `json:"avatar_url"`
	ThemePrimary string    `json:"theme_primary"`
	ThemeAccent  string    `json:"theme_accent"`
	ThemeMode    string    `json:"theme_mode"`
	TimeFormat   string    `json:"time_format"`
	TimeFont     string    `json:"time_font"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultProfile returns the profile a user has before the first write.
func DefaultProfile(userID string) UserProfile {
	return UserProfile{
		UserID:       userID,
		ThemePrimary: constants.DefaultThemePrimary,
		ThemeAccent:  constants.DefaultThemeAccent,
		ThemeMode:    constants.DefaultThemeMode,
		TimeFormat:   constants.DefaultTimeFormat,
		TimeFont:     constants.DefaultTimeFont,
	}
}

// ProfileInput is a partial profile update.
type ProfileInput struct {
	Username     *string `validate:"omitempty,max=64"`
	AvatarURL    *string `validate:"omitempty,url"`
	ThemePrimary *string `validate:"omitempty,hexcolor"`
	ThemeAccent  *string `validate:"omitempty,hexcolor"`
	ThemeMode    *string `validate:"omitempty,oneof=dark light"`
	TimeFormat   *string `validate:"omitempty,oneof=12h 24h"`
	TimeFont     *string `validate:"omitempty,oneof=system mono serif rounded"`
}

func (in *ProfileInput) Validate() error {
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		in.Username = &name
	}
	return validateStruct(in)
}

func (in ProfileInput) Apply(p *UserProfile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Username, in.Username)
	set(&p.AvatarURL, in.AvatarURL)
	set(&p.ThemePrimary, in.ThemePrimary)
	set(&p.ThemeAccent, in.ThemeAccent)
	set(&p.ThemeMode, in.ThemeMode)
	set(&p.TimeFormat, in.TimeFormat)
	set(&p.TimeFont, in.TimeFont)
}
