package sqlite

import (
	"context"
	"fmt"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// lastReadColumns must match the scan order in scanLastRead.
const lastReadColumns = `id, user_id, chapter, verse, updated_at`

func scanLastRead(scanner interface{ Scan(dest ...any) error }) (*domain.LastRead, error) {
	var (
		lr        domain.LastRead
		updatedAt string
	)
	if err := scanner.Scan(&lr.ID, &lr.UserID, &lr.Chapter, &lr.Verse, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if lr.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &lr, nil
}

// GetLastRead returns the user's position or store.ErrNotFound.
func (s *Store) GetLastRead(ctx context.Context, userID string) (*domain.LastRead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lastReadColumns+` FROM last_read WHERE user_id = ?`, userID)
	lr, err := scanLastRead(row)
	if err != nil {
		return nil, notFound(err)
	}
	return lr, nil
}

// UpsertLastRead writes the position in one statement. The UNIQUE user_id
// constraint makes concurrent calls for the same user converge on one row.
func (s *Store) UpsertLastRead(ctx context.Context, lr *domain.LastRead) (*domain.LastRead, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO last_read (`+lastReadColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			chapter = excluded.chapter,
			verse = excluded.verse,
			updated_at = excluded.updated_at
		RETURNING `+lastReadColumns,
		lr.ID, lr.UserID, lr.Chapter, lr.Verse, formatTime(lr.UpdatedAt),
	)
	stored, err := scanLastRead(row)
	if err != nil {
		return nil, fmt.Errorf("upsert last read: %w", mapConstraintError(err))
	}
	return stored, nil
}
