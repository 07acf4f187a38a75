package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
	"github.com/tilawahapp/tilawah-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchVerses",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/verses",
		Summary:     "Search verses",
		Description: "Full-text search over translations, transliterations and chapter names of opened chapters",
		Tags:        []string{"Search"},
	}, s.handleSearchVerses)
}

// SearchVersesInput contains parameters for verse search.
type SearchVersesInput struct {
	Query   string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search text"`
	Chapter int    `query:"chapter" minimum:"0" maximum:"114" doc:"Restrict to one chapter"`
	Limit   int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size (default 20)"`
	Offset  int    `query:"offset" minimum:"0" doc:"Hits to skip"`
}

// SearchVersesOutput wraps the search result for Huma.
type SearchVersesOutput struct {
	Body *search.Result
}

func (s *Server) handleSearchVerses(ctx context.Context, input *SearchVersesInput) (*SearchVersesOutput, error) {
	if s.search == nil {
		return nil, domainerrors.Internal("search is not available")
	}

	result, err := s.search.SearchVerses(ctx, search.Params{
		Query:   input.Query,
		Chapter: input.Chapter,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchVersesOutput{Body: result}, nil
}
