package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, provider, subject, email, display_name, avatar_url, created_at, last_login_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		avatarURL sql.NullString
		createdAt string
		lastLogin string
	)
	if err := scanner.Scan(&u.ID, &u.Provider, &u.Subject, &u.Email, &u.DisplayName, &avatarURL, &createdAt, &lastLogin); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.LastLoginAt, err = parseTime(lastLogin); err != nil {
		return nil, fmt.Errorf("parse last_login_at: %w", err)
	}
	u.AvatarURL = avatarURL.String
	return &u, nil
}

// UpsertUser inserts user or refreshes the profile of the existing account with
// the same (provider, subject). The existing id and created_at are kept.
func (s *Store) UpsertUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, subject) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			last_login_at = excluded.last_login_at
		RETURNING `+userColumns,
		user.ID,
		user.Provider,
		user.Subject,
		user.Email,
		user.DisplayName,
		nullString(user.AvatarURL),
		formatTime(user.CreatedAt),
		formatTime(user.LastLoginAt),
	)

	stored, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", mapConstraintError(err))
	}
	return stored, nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}
