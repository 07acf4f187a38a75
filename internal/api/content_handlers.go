package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

func (s *Server) registerContentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listChapters",
		Method:      http.MethodGet,
		Path:        "/api/v1/chapters",
		Summary:     "List chapters",
		Description: "Returns all 114 chapters, optionally filtered by name or number",
		Tags:        []string{"Content"},
	}, s.handleListChapters)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChapter",
		Method:      http.MethodGet,
		Path:        "/api/v1/chapters/{number}",
		Summary:     "Get chapter",
		Description: "Returns a chapter with its verses",
		Tags:        []string{"Content"},
	}, s.handleGetChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReciters",
		Method:      http.MethodGet,
		Path:        "/api/v1/reciters",
		Summary:     "List reciters",
		Description: "Returns the reciter catalog and the current selection",
		Tags:        []string{"Content"},
	}, s.handleListReciters)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPreferences",
		Method:      http.MethodGet,
		Path:        "/api/v1/preferences",
		Summary:     "Get preferences",
		Tags:        []string{"Preferences"},
	}, s.handleGetPreferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleTranslation",
		Method:      http.MethodPost,
		Path:        "/api/v1/preferences/translation/toggle",
		Summary:     "Toggle translation",
		Description: "Flips translation visibility and persists it",
		Tags:        []string{"Preferences"},
	}, s.handleToggleTranslation)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectReciter",
		Method:      http.MethodPut,
		Path:        "/api/v1/preferences/reciter",
		Summary:     "Select reciter",
		Tags:        []string{"Preferences"},
	}, s.handleSelectReciter)
}

// === DTOs ===

// ListChaptersInput filters the chapter list.
type ListChaptersInput struct {
	Query string `query:"q" maxLength:"100" doc:"Name, romanized name or chapter number"`
}

// ChapterListResponse is the (filtered) chapter list.
type ChapterListResponse struct {
	Chapters []domain.Chapter `json:"chapters" doc:"Chapters in number order"`
	Total    int              `json:"total" doc:"Number of chapters returned"`
}

// ChapterListOutput wraps the chapter list for Huma.
type ChapterListOutput struct {
	Body ChapterListResponse
}

// GetChapterInput names a chapter.
type GetChapterInput struct {
	Number int `path:"number" doc:"Chapter number, 1 to 114"`
}

// ChapterOutput wraps a chapter detail for Huma.
type ChapterOutput struct {
	Body *domain.ChapterDetail
}

// ReciterResponse is a catalog entry.
type ReciterResponse struct {
	ID       string `json:"id" doc:"Reciter ID"`
	Name     string `json:"name" doc:"Display name"`
	Selected bool   `json:"selected" doc:"Whether this is the current selection"`
}

// ReciterListOutput wraps the reciter catalog for Huma.
type ReciterListOutput struct {
	Body struct {
		Reciters []ReciterResponse `json:"reciters"`
	}
}

// PreferencesOutput wraps preferences for Huma.
type PreferencesOutput struct {
	Body domain.Preferences
}

// SelectReciterRequest is the request body for choosing a reciter.
type SelectReciterRequest struct {
	Reciter string `json:"reciter" validate:"required,reciter" doc:"Reciter ID from the catalog"`
}

// SelectReciterInput wraps the select reciter request for Huma.
type SelectReciterInput struct {
	Body SelectReciterRequest
}

// === Handlers ===

func (s *Server) handleListChapters(_ context.Context, input *ListChaptersInput) (*ChapterListOutput, error) {
	snap := s.quran.Snapshot()
	if len(snap.Chapters) == 0 && snap.Error != "" {
		return nil, &domainerrors.Error{Code: domainerrors.CodeUpstream, Message: snap.Error}
	}

	chapters := s.quran.Search(input.Query)
	return &ChapterListOutput{Body: ChapterListResponse{Chapters: chapters, Total: len(chapters)}}, nil
}

func (s *Server) handleGetChapter(ctx context.Context, input *GetChapterInput) (*ChapterOutput, error) {
	detail, err := s.quran.FetchChapterDetail(ctx, input.Number)
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: detail}, nil
}

func (s *Server) handleListReciters(_ context.Context, _ *struct{}) (*ReciterListOutput, error) {
	selected := s.quran.Preferences().Reciter

	out := &ReciterListOutput{}
	for _, r := range domain.Reciters() {
		out.Body.Reciters = append(out.Body.Reciters, ReciterResponse{
			ID:       r.ID,
			Name:     r.Name,
			Selected: r.ID == selected,
		})
	}
	return out, nil
}

func (s *Server) handleGetPreferences(_ context.Context, _ *struct{}) (*PreferencesOutput, error) {
	return &PreferencesOutput{Body: s.quran.Preferences()}, nil
}

func (s *Server) handleToggleTranslation(_ context.Context, _ *struct{}) (*PreferencesOutput, error) {
	s.quran.ToggleTranslation()
	return &PreferencesOutput{Body: s.quran.Preferences()}, nil
}

func (s *Server) handleSelectReciter(_ context.Context, input *SelectReciterInput) (*PreferencesOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	if err := s.quran.SelectReciter(input.Body.Reciter); err != nil {
		return nil, err
	}
	return &PreferencesOutput{Body: s.quran.Preferences()}, nil
}
