package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
	"github.com/julianstephens/dailytrack/internal/models"
	"github.com/julianstephens/dailytrack/internal/storage"
)

const profileColumns = `user_id, owner_email, username, avatar_url, theme_primary, theme_accent, theme_mode, time_format, time_font, created_at, updated_at`

func scanProfile(row rowScanner) (models.UserProfile, error) {
	var (
		p          models.UserProfile
		ownerEmail sql.NullString
	)
	err := row.Scan(&p.UserID, &ownerEmail, &p.Username, &p.AvatarURL, &p.ThemePrimary, &p.ThemeAccent,
		&p.ThemeMode, &p.TimeFormat, &p.TimeFont, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.UserProfile{}, err
	}
	p.OwnerEmail = ownerEmail.String
	p.CreatedAt = storage.Timestamp(p.CreatedAt)
	p.UpdatedAt = storage.Timestamp(p.UpdatedAt)
	return p, nil
}

func (s *Store) getProfile(ctx context.Context, q querier, u models.User) (models.UserProfile, error) {
	p, err := scanProfile(q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, u.ID))
	if errors.Is(err, sql.ErrNoRows) {
		p = models.DefaultProfile(u.ID)
		p.OwnerEmail = u.Email
		return p, nil
	}
	if err != nil {
		return models.UserProfile{}, apperrors.TransientIO("read profile", err)
	}
	return p, nil
}

// GetProfile returns the stored profile, or the defaults when none was saved yet.
func (s *Store) GetProfile(ctx context.Context) (models.UserProfile, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.UserProfile{}, err
	}
	return s.getProfile(ctx, s.db, u)
}

func (s *Store) UpsertProfile(ctx context.Context, input models.ProfileInput) (models.UserProfile, error) {
	u, err := s.currentUser()
	if err != nil {
		return models.UserProfile{}, err
	}
	if err := input.Validate(); err != nil {
		return models.UserProfile{}, err
	}
	var out models.UserProfile
	err = s.withTx(ctx, "upsert profile", func(tx *sql.Tx) error {
		p, err := s.getProfile(ctx, tx, u)
		if err != nil {
			return err
		}
		now := storage.Timestamp(s.now())
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		input.Apply(&p)
		out = p

		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (`+profileColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (user_id) DO UPDATE SET
				owner_email = COALESCE(profiles.owner_email, excluded.owner_email),
				username = excluded.username,
				avatar_url = excluded.avatar_url,
				theme_primary = excluded.theme_primary,
				theme_accent = excluded.theme_accent,
				theme_mode = excluded.theme_mode,
				time_format = excluded.time_format,
				time_font = excluded.time_font,
				updated_at = excluded.updated_at`,
			u.ID, nullString(u.Email), p.Username, p.AvatarURL, p.ThemePrimary, p.ThemeAccent,
			p.ThemeMode, p.TimeFormat, p.TimeFont, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
		if err != nil {
			return apperrors.TransientIO("upsert profile", err)
		}
		return nil
	})
	return out, err
}
