package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const userColumns = `id, username, first_name, last_name, language_code,
	notifications_enabled, created_at, last_activity_at`

// GetOrCreateUser registers the user on first contact and refreshes the
// profile snapshot and last_activity_at on every later call.
func (s *Storage) GetOrCreateUser(ctx context.Context, p UserProfile) (*User, error) {
	const operation = "storage.GetOrCreateUser"

	now := s.now()
	query := s.db.Rebind(`
		INSERT INTO users (
			id, username, first_name, last_name, language_code,
			notifications_enabled, created_at, last_activity_at
		) VALUES (?, ?, ?, ?, ?, TRUE, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_activity_at = excluded.last_activity_at
		RETURNING ` + userColumns)

	var user User
	err := s.db.GetContext(ctx, &user, query,
		p.ID,
		p.Username,
		p.FirstName,
		p.LastName,
		s.defaultLanguage,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to upsert user: %w", operation, err)
	}

	s.languages.Set(user.ID, user.LanguageCode)
	return &user, nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*User, error) {
	const operation = "storage.GetUser"

	var user User
	if err := s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: user %d: %w", operation, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get user: %w", operation, err)
	}
	return &user, nil
}

// GetUserLanguage returns the cached language, falling back to the database
// and then to the default language for users never seen before.
func (s *Storage) GetUserLanguage(ctx context.Context, id int64) (string, error) {
	const operation = "storage.GetUserLanguage"

	if lang, ok := s.languages.Get(id); ok {
		return lang, nil
	}

	var lang string
	err := s.db.GetContext(ctx, &lang, s.db.Rebind(`SELECT language_code FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.defaultLanguage, nil
		}
		return "", fmt.Errorf("%s: failed to get language: %w", operation, err)
	}

	s.languages.Set(id, lang)
	return lang, nil
}

// SetUserLanguage writes the language through to the database and the cache.
func (s *Storage) SetUserLanguage(ctx context.Context, id int64, code string) error {
	const operation = "storage.SetUserLanguage"

	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE users SET language_code = ?, last_activity_at = ? WHERE id = ?`),
		code, s.now(), id)
	if err != nil {
		return fmt.Errorf("%s: failed to update language: %w", operation, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%s: failed to read affected rows: %w", operation, err)
	} else if n == 0 {
		return fmt.Errorf("%s: user %d: %w", operation, id, ErrNotFound)
	}

	s.languages.Set(id, code)
	s.logger.Debug("User language updated", zap.Int64("user_id", id), zap.String("language", code))
	return nil
}

func (s *Storage) SetUserNotifications(ctx context.Context, id int64, enabled bool) error {
	const operation = "storage.SetUserNotifications"

	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE users SET notifications_enabled = ?, last_activity_at = ? WHERE id = ?`),
		enabled, s.now(), id)
	if err != nil {
		return fmt.Errorf("%s: failed to update notifications: %w", operation, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%s: failed to read affected rows: %w", operation, err)
	} else if n == 0 {
		return fmt.Errorf("%s: user %d: %w", operation, id, ErrNotFound)
	}
	return nil
}
