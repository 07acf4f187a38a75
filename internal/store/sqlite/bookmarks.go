package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// bookmarkColumns must match the scan order in scanBookmark.
const bookmarkColumns = `id, user_id, chapter, verse, name, created_at`

func scanBookmark(scanner interface{ Scan(dest ...any) error }) (*domain.Bookmark, error) {
	var (
		b         domain.Bookmark
		verse     sql.NullInt64
		createdAt string
	)
	if err := scanner.Scan(&b.ID, &b.UserID, &b.Chapter, &verse, &b.Name, &createdAt); err != nil {
		return nil, err
	}
	if verse.Valid {
		v := int(verse.Int64)
		b.Verse = &v
	}
	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &b, nil
}

// ListBookmarks returns userID's bookmarks ordered by creation time, newest first.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookmarkColumns+`
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBookmark inserts b. Returns store.ErrAlreadyExists for a duplicate id
// and store.ErrInvalidInput when a column check fails.
func (s *Store) CreateBookmark(ctx context.Context, b *domain.Bookmark) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (`+bookmarkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Chapter, nullInt(b.Verse), b.Name, formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create bookmark: %w", mapConstraintError(err))
	}
	return nil
}

// DeleteBookmark deletes the bookmark when owned by userID.
func (s *Store) DeleteBookmark(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Debug("bookmark already absent", "bookmark_id", id, "user_id", userID)
	}
	return nil
}
