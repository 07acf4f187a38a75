package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// CreateSession inserts a new session row for session.User.ID.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, NULL)`,
		session.ID,
		session.User.ID,
		formatTime(session.CreatedAt),
		formatTime(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", mapConstraintError(err))
	}
	return nil
}

// GetSession returns the session and its user. Revoked and expired sessions
// are returned too; callers decide with Session.Active.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.created_at, s.expires_at, s.revoked_at,
			u.id, u.provider, u.subject, u.email, u.display_name, u.avatar_url, u.created_at, u.last_login_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`, id)

	var (
		sess      domain.Session
		createdAt string
		expiresAt string
		revokedAt sql.NullString
		avatarURL sql.NullString
		uCreated  string
		uLogin    string
	)
	err := row.Scan(
		&sess.ID, &createdAt, &expiresAt, &revokedAt,
		&sess.User.ID, &sess.User.Provider, &sess.User.Subject, &sess.User.Email,
		&sess.User.DisplayName, &avatarURL, &uCreated, &uLogin,
	)
	if err != nil {
		return nil, notFound(err)
	}

	for _, f := range []struct {
		raw string
		dst *time.Time
	}{
		{createdAt, &sess.CreatedAt},
		{expiresAt, &sess.ExpiresAt},
		{uCreated, &sess.User.CreatedAt},
		{uLogin, &sess.User.LastLoginAt},
	} {
		if *f.dst, err = parseTime(f.raw); err != nil {
			return nil, fmt.Errorf("parse session time: %w", err)
		}
	}
	if sess.RevokedAt, err = parseNullableTime(revokedAt); err != nil {
		return nil, fmt.Errorf("parse revoked_at: %w", err)
	}
	sess.User.AvatarURL = avatarURL.String
	return &sess, nil
}

// RevokeSession marks the session revoked. Revoking twice keeps the first timestamp;
// revoking an unknown id is a no-op.
func (s *Store) RevokeSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		formatTime(at), id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
