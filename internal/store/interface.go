// Package store defines the persistence interfaces for accounts, bookmarks and reading positions.
package store

import (
	"context"
	"time"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// Store is everything the services persist.
type Store interface {
	UserStore
	SessionStore
	BookmarkStore
	LastReadStore

	Close() error
}

// UserStore persists accounts created on sign-in.
type UserStore interface {
	// UpsertUser inserts the user or, when (provider, subject) already exists,
	// refreshes its profile fields and last-login time. It returns the stored row.
	UpsertUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// SessionStore persists sign-in sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	// GetSession returns the session joined with its user, revoked or not.
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// BookmarkStore persists bookmarks.
type BookmarkStore interface {
	// ListBookmarks returns userID's bookmarks, newest first.
	ListBookmarks(ctx context.Context, userID string) ([]*domain.Bookmark, error)
	CreateBookmark(ctx context.Context, b *domain.Bookmark) error
	// DeleteBookmark removes id when it belongs to userID. Deleting a missing
	// bookmark is not an error.
	DeleteBookmark(ctx context.Context, userID, id string) error
}

// LastReadStore persists the single reading position per user.
type LastReadStore interface {
	// GetLastRead returns ErrNotFound when the user has no position yet.
	GetLastRead(ctx context.Context, userID string) (*domain.LastRead, error)
	// UpsertLastRead atomically inserts or replaces the user's position and
	// returns the stored row. The row id is kept across updates.
	UpsertLastRead(ctx context.Context, lr *domain.LastRead) (*domain.LastRead, error)
}
