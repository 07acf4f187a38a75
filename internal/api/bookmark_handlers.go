package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/service"
)

func (s *Server) registerBookmarkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookmarks",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookmarks",
		Summary:     "List bookmarks",
		Description: "Returns the reader's bookmarks, newest first",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBookmark",
		Method:        http.MethodPost,
		Path:          "/api/v1/bookmarks",
		Summary:       "Add bookmark",
		Description:   "Bookmarks a chapter, or a verse when verse is set",
		Tags:          []string{"Bookmarks"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBookmark",
		Method:        http.MethodDelete,
		Path:          "/api/v1/bookmarks/{id}",
		Summary:       "Delete bookmark",
		Description:   "Deletes a bookmark. Deleting a missing bookmark succeeds.",
		Tags:          []string{"Bookmarks"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBookmark)
}

func (s *Server) registerLastReadRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLastRead",
		Method:      http.MethodGet,
		Path:        "/api/v1/last-read",
		Summary:     "Get last read",
		Description: "Returns the reader's continue-reading position, or null",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetLastRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveLastRead",
		Method:      http.MethodPut,
		Path:        "/api/v1/last-read",
		Summary:     "Save last read",
		Description: "Replaces the reader's continue-reading position",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSaveLastRead)
}

// === DTOs ===

// BookmarkListResponse contains the reader's bookmarks.
type BookmarkListResponse struct {
	Bookmarks []*domain.Bookmark `json:"bookmarks" doc:"Bookmarks, newest first"`
}

// BookmarkListOutput wraps the bookmark list for Huma.
type BookmarkListOutput struct {
	Body BookmarkListResponse
}

// CreateBookmarkInput wraps the bookmark form for Huma.
type CreateBookmarkInput struct {
	Body service.CreateBookmarkRequest
}

// BookmarkOutput wraps a bookmark for Huma.
type BookmarkOutput struct {
	Body *domain.Bookmark
}

// DeleteBookmarkInput names a bookmark.
type DeleteBookmarkInput struct {
	ID string `path:"id" doc:"Bookmark ID"`
}

// LastReadResponse holds the position; LastRead is null when none was saved.
type LastReadResponse struct {
	LastRead *domain.LastRead `json:"last_read" doc:"Continue-reading position"`
	Label    string           `json:"label" doc:"Heading for the position in bookmark lists"`
}

// LastReadOutput wraps the last-read response for Huma.
type LastReadOutput struct {
	Body LastReadResponse
}

// SaveLastReadInput wraps the position for Huma.
type SaveLastReadInput struct {
	Body service.SaveLastReadRequest
}

// === Handlers ===

func (s *Server) handleListBookmarks(ctx context.Context, _ *struct{}) (*BookmarkListOutput, error) {
	bookmarks, err := s.bookmarks.ListBookmarks(ctx, userIDFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &BookmarkListOutput{Body: BookmarkListResponse{Bookmarks: bookmarks}}, nil
}

func (s *Server) handleCreateBookmark(ctx context.Context, input *CreateBookmarkInput) (*BookmarkOutput, error) {
	b, err := s.bookmarks.AddBookmark(ctx, userIDFrom(ctx), input.Body)
	if err != nil {
		return nil, err
	}
	return &BookmarkOutput{Body: b}, nil
}

func (s *Server) handleDeleteBookmark(ctx context.Context, input *DeleteBookmarkInput) (*struct{}, error) {
	if err := s.bookmarks.DeleteBookmark(ctx, userIDFrom(ctx), input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetLastRead(ctx context.Context, _ *struct{}) (*LastReadOutput, error) {
	lr, err := s.lastRead.GetLastRead(ctx, userIDFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &LastReadOutput{Body: LastReadResponse{LastRead: lr, Label: domain.LastReadLabel}}, nil
}

func (s *Server) handleSaveLastRead(ctx context.Context, input *SaveLastReadInput) (*LastReadOutput, error) {
	lr, err := s.lastRead.UpsertLastRead(ctx, userIDFrom(ctx), input.Body)
	if err != nil {
		return nil, err
	}
	return &LastReadOutput{Body: LastReadResponse{LastRead: lr, Label: domain.LastReadLabel}}, nil
}
