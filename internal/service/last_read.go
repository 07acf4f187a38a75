package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/id"
	"github.com/tilawahapp/tilawah-server/internal/store"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

// SaveLastReadRequest is the "mark as last read" action on a verse.
type SaveLastReadRequest struct {
	Chapter int `json:"chapter" validate:"chapter"`
	Verse   int `json:"verse" validate:"gte=1"`
}

// LastReadService tracks each reader's single continue-reading position.
type LastReadService struct {
	store     store.LastReadStore
	chapters  ChapterLookup
	validator *validation.Validator
	notifier  domain.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewLastReadService creates a last-read service.
func NewLastReadService(
	st store.LastReadStore,
	chapters ChapterLookup,
	v *validation.Validator,
	notifier domain.Notifier,
	logger *slog.Logger,
) *LastReadService {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &LastReadService{
		store:     st,
		chapters:  chapters,
		validator: v,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// GetLastRead returns the reader's position, or nil when none was saved yet.
func (s *LastReadService) GetLastRead(ctx context.Context, userID string) (*domain.LastRead, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	lr, err := s.store.GetLastRead(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last read: %w", err)
	}
	return lr, nil
}

// UpsertLastRead replaces the reader's position with (chapter, verse).
func (s *LastReadService) UpsertLastRead(ctx context.Context, userID string, req SaveLastReadRequest) (*domain.LastRead, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := checkVerse(s.chapters, req.Chapter, req.Verse); err != nil {
		return nil, err
	}

	lastReadID, err := id.Generate(id.PrefixLastRead)
	if err != nil {
		return nil, fmt.Errorf("generate last read ID: %w", err)
	}

	saved, err := s.store.UpsertLastRead(ctx, &domain.LastRead{
		ID:        lastReadID,
		UserID:    userID,
		Chapter:   req.Chapter,
		Verse:     req.Verse,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("save last read failed", "user_id", userID, "chapter", req.Chapter, "verse", req.Verse, "error", err)
		s.notifier.Notify(domain.NewNotification(domain.VariantDestructive, domain.MsgLastReadSaveFailed, "").ForUser(userID))
		return nil, fmt.Errorf("upsert last read: %w", err)
	}

	s.logger.Debug("last read saved", "user_id", userID, "chapter", saved.Chapter, "verse", saved.Verse)
	s.notifier.Notify(domain.NewNotification(domain.VariantDefault, domain.MsgLastReadSavedTitle,
		fmt.Sprintf("QS %d:%d", saved.Chapter, saved.Verse)).ForUser(userID))
	return saved, nil
}
