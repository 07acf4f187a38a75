package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// VerseIndex wraps a Bleve index of verses.
//
// All methods are safe for concurrent use.
type VerseIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // exclusive during Rebuild
}

// Options configures the index.
type Options struct {
	DataPath string // directory holding the index; empty keeps it in memory
	Logger   *slog.Logger
}

// mappingVersion changes whenever buildIndexMapping does; a mismatch on
// startup drops and recreates the index.
const mappingVersion = "1"

// NewVerseIndex opens the index under opts.DataPath, recreating it when it
// is missing, unreadable or built with an older mapping.
func NewVerseIndex(opts Options) (*VerseIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &VerseIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "verses.bleve")
	versionPath := filepath.Join(opts.DataPath, "verses.version")

	var index bleve.Index
	needsRebuild := false

	if _, err := os.Stat(indexPath); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("verse index has no version file, rebuilding", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("verse index mapping changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open verse index, recreating", "path", indexPath, "error", err)
				needsRebuild = true
			}
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write verse index version", "error", err)
		}
		logger.Info("created verse index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened verse index", "path", indexPath)
	}

	return &VerseIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close releases the index.
func (s *VerseIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexChapter indexes every verse of d in one batch, replacing earlier
// documents of the same verses.
func (s *VerseIndex) IndexChapter(ctx context.Context, d *domain.ChapterDetail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, doc := range DocumentsFromDetail(d) {
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("commit chapter %d: %w", d.Number, err)
	}

	s.logger.Debug("indexed chapter", "chapter", d.Number, "verses", len(d.Verses))
	return nil
}

// DeleteChapter removes verses 1..verseCount of chapter.
func (s *VerseIndex) DeleteChapter(chapter, verseCount int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for v := 1; v <= verseCount; v++ {
		batch.Delete(VerseID(chapter, v))
	}
	return s.index.Batch(batch)
}

// DocumentCount returns the number of indexed verses.
func (s *VerseIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document. Memory-only indexes are recreated in place.
func (s *VerseIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt verse index", "path", s.path)
	return nil
}
