package settings

import (
	"errors"

	"github.com/julianstephens/dailytrack/internal/cli"
	"github.com/julianstephens/dailytrack/internal/models"
)

var errNoConfig = errors.New("configuration not loaded")

type ProfileCmd struct {
	Show ProfileShowCmd `cmd:"" help:"Show your profile." default:"1"`
	Set  ProfileSetCmd  `cmd:"" help:"Update profile preferences."`
}

func printProfile(ctx *cli.Context, p models.UserProfile) {
	name := p.Username
	if name == "" {
		name = cli.Muted("(unset)")
	}
	ctx.Println(cli.Title("Profile:"))
	ctx.Printf("  Username:      %s\n", name)
	if p.AvatarURL != "" {
		ctx.Printf("  Avatar:        %s\n", p.AvatarURL)
	}
	ctx.Printf("  Theme:         %s (primary %s, accent %s)\n", p.ThemeMode, p.ThemePrimary, p.ThemeAccent)
	ctx.Printf("  Time format:   %s\n", p.TimeFormat)
	ctx.Printf("  Time font:     %s\n", p.TimeFont)
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	profiles, err := ctx.Profiles()
	if err != nil {
		return err
	}
	p, err := profiles.GetProfile(ctx.Context())
	if err != nil {
		return err
	}
	printProfile(ctx, p)
	return nil
}

type ProfileSetCmd struct {
	Username     *string `help:"Display name."`
	AvatarURL    *string `name:"avatar-url" help:"Avatar image URL."`
	ThemePrimary *string `help:"Primary theme color (#rrggbb)."`
	ThemeAccent  *string `help:"Accent theme color (#rrggbb)."`
	ThemeMode    *string `help:"Theme mode: dark or light."`
	TimeFormat   *string `help:"Clock format: 12h or 24h."`
	TimeFont     *string `help:"Clock font: system, mono, serif or rounded."`
}

func (c *ProfileSetCmd) Run(ctx *cli.Context) error {
	input := models.ProfileInput{
		Username:     c.Username,
		AvatarURL:    c.AvatarURL,
		ThemePrimary: c.ThemePrimary,
		ThemeAccent:  c.ThemeAccent,
		ThemeMode:    c.ThemeMode,
		TimeFormat:   c.TimeFormat,
		TimeFont:     c.TimeFont,
	}
	if input == (models.ProfileInput{}) {
		ctx.Println("No changes specified. Use 'profile show' to view your profile or flags to update it.")
		return nil
	}

	profiles, err := ctx.Profiles()
	if err != nil {
		return err
	}
	p, err := profiles.UpsertProfile(ctx.Context(), input)
	if err != nil {
		return err
	}
	ctx.Println("Profile updated successfully.")
	printProfile(ctx, p)
	return nil
}
