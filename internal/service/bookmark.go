package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
	"github.com/tilawahapp/tilawah-server/internal/id"
	"github.com/tilawahapp/tilawah-server/internal/store"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

// ErrSignInRequired is returned by operations that need a signed-in reader.
var ErrSignInRequired = domainerrors.Unauthorized(domain.MsgSignInRequiredTitle)

// ChapterLookup resolves chapter metadata. quran.Manager satisfies it.
type ChapterLookup interface {
	Chapter(n int) (domain.Chapter, bool)
}

// CreateBookmarkRequest is the bookmark form.
type CreateBookmarkRequest struct {
	Chapter int    `json:"chapter" validate:"chapter"`
	Verse   *int   `json:"verse,omitempty" validate:"omitempty,gte=1"`
	Name    string `json:"name" validate:"trimmin=2,max=100"`
}

// BookmarkService manages a reader's bookmarks.
type BookmarkService struct {
	store     store.BookmarkStore
	chapters  ChapterLookup
	validator *validation.Validator
	notifier  domain.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookmarkService creates a bookmark service. chapters may be nil, in
// which case verse numbers are only checked for being positive.
func NewBookmarkService(
	st store.BookmarkStore,
	chapters ChapterLookup,
	v *validation.Validator,
	notifier domain.Notifier,
	logger *slog.Logger,
) *BookmarkService {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &BookmarkService{
		store:     st,
		chapters:  chapters,
		validator: v,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// ListBookmarks returns userID's bookmarks, newest first.
func (s *BookmarkService) ListBookmarks(ctx context.Context, userID string) ([]*domain.Bookmark, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	bookmarks, err := s.store.ListBookmarks(ctx, userID)
	if err != nil {
		s.logger.Error("list bookmarks failed", "user_id", userID, "error", err)
		s.notifier.Notify(domain.NewNotification(domain.VariantDestructive, domain.MsgBookmarkLoadFailed, "").ForUser(userID))
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	if bookmarks == nil {
		bookmarks = []*domain.Bookmark{}
	}
	return bookmarks, nil
}

// AddBookmark validates req and stores a new bookmark. Nothing is written
// when validation fails.
func (s *BookmarkService) AddBookmark(ctx context.Context, userID string, req CreateBookmarkRequest) (*domain.Bookmark, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.validateBookmark(req); err != nil {
		return nil, err
	}

	bookmarkID, err := id.Generate(id.PrefixBookmark)
	if err != nil {
		return nil, fmt.Errorf("generate bookmark ID: %w", err)
	}

	b := &domain.Bookmark{
		ID:        bookmarkID,
		UserID:    userID,
		Chapter:   req.Chapter,
		Verse:     req.Verse,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateBookmark(ctx, b); err != nil {
		s.logger.Error("create bookmark failed", "user_id", userID, "chapter", req.Chapter, "error", err)
		s.notifier.Notify(domain.NewNotification(domain.VariantDestructive, domain.MsgBookmarkAddFailedTitle, "").ForUser(userID))
		return nil, fmt.Errorf("create bookmark: %w", err)
	}

	s.logger.Info("bookmark added", "user_id", userID, "bookmark_id", b.ID, "chapter", b.Chapter)
	s.notifier.Notify(domain.NewNotification(domain.VariantDefault, domain.MsgBookmarkAddedTitle, b.Name).ForUser(userID))
	return b, nil
}

// DeleteBookmark removes one of userID's bookmarks. Deleting a missing
// bookmark succeeds.
func (s *BookmarkService) DeleteBookmark(ctx context.Context, userID, bookmarkID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if bookmarkID == "" {
		return domainerrors.Validation("bookmark id is required")
	}

	if err := s.store.DeleteBookmark(ctx, userID, bookmarkID); err != nil {
		s.logger.Error("delete bookmark failed", "user_id", userID, "bookmark_id", bookmarkID, "error", err)
		s.notifier.Notify(domain.NewNotification(domain.VariantDestructive, domain.MsgBookmarkDeleteFailed, "").ForUser(userID))
		return fmt.Errorf("delete bookmark: %w", err)
	}

	s.notifier.Notify(domain.NewNotification(domain.VariantDefault, domain.MsgBookmarkDeletedTitle, "").ForUser(userID))
	return nil
}

func (s *BookmarkService) validateBookmark(req CreateBookmarkRequest) error {
	if err := s.validator.Validate(req); err != nil {
		var derr *domainerrors.Error
		if domainerrors.As(err, &derr) {
			if details, ok := derr.Details.(map[string]string); ok {
				if _, bad := details["name"]; bad && utf8.RuneCountInString(strings.TrimSpace(req.Name)) < domain.MinBookmarkNameLength {
					details["name"] = domain.MsgBookmarkNameTooShort
					return domainerrors.ValidationWithDetails(domain.MsgBookmarkNameTooShort, details)
				}
			}
		}
		return err
	}
	if req.Verse != nil {
		return checkVerse(s.chapters, req.Chapter, *req.Verse)
	}
	return nil
}

// checkVerse rejects verse numbers past the end of the chapter when the
// chapter list is available.
func checkVerse(chapters ChapterLookup, chapter, verse int) error {
	if chapters == nil {
		return nil
	}
	c, ok := chapters.Chapter(chapter)
	if !ok || c.VerseCount == 0 {
		return nil
	}
	if verse > c.VerseCount {
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"verse": fmt.Sprintf("must be less than or equal to %d", c.VerseCount),
		})
	}
	return nil
}

func requireUser(userID string) error {
	if userID == "" {
		return ErrSignInRequired.WithDetails(map[string]string{"description": domain.MsgSignInRequiredDesc})
	}
	return nil
}
