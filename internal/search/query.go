package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

// MaxLimit caps the page size.
const MaxLimit = 100

// Params configures a verse search.
type Params struct {
	Query   string
	Chapter int // restrict to one chapter; zero searches everything
	Limit   int
	Offset  int
}

// Result is one page of hits ordered by score.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a matching verse.
type Hit struct {
	ID          string            `json:"id"`
	Chapter     int               `json:"chapter"`
	Verse       int               `json:"verse"`
	ChapterName string            `json:"chapter_name"`
	Arabic      string            `json:"arabic"`
	Latin       string            `json:"latin"`
	Translation string            `json:"translation"`
	Score       float64           `json:"score"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// SearchVerses runs a full-text query over translations, transliterations
// and chapter names.
func (s *VerseIndex) SearchVerses(ctx context.Context, params Params) (*Result, error) {
	q := strings.TrimSpace(params.Query)
	if q == "" {
		return nil, domainerrors.Validation("query is required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, MaxLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(q, params.Chapter), limit, max(params.Offset, 0), false)
	req.SortBy([]string{"-_score", "chapter", "verse"})
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("translation")
	req.Highlight.AddField("latin")
	req.Fields = []string{"chapter", "verse", "chapter_name", "arabic", "latin", "translation"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  q,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["chapter"].(float64); ok {
			hit.Chapter = int(v)
		}
		if v, ok := h.Fields["verse"].(float64); ok {
			hit.Verse = int(v)
		}
		hit.ChapterName, _ = h.Fields["chapter_name"].(string)
		hit.Arabic, _ = h.Fields["arabic"].(string)
		hit.Latin, _ = h.Fields["latin"].(string)
		hit.Translation, _ = h.Fields["translation"].(string)

		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func buildQuery(text string, chapter int) query.Query {
	translation := bleve.NewMatchQuery(text)
	translation.SetField("translation")
	translation.SetBoost(3.0)

	latin := bleve.NewMatchQuery(text)
	latin.SetField("latin")
	latin.SetBoost(1.5)

	// Transliterations vary in spelling ("rahman", "rahmaan").
	fuzzy := bleve.NewMatchQuery(text)
	fuzzy.SetField("latin")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.5)

	arabic := bleve.NewMatchQuery(text)
	arabic.SetField("arabic")
	arabic.SetBoost(2.0)

	name := bleve.NewMatchQuery(text)
	name.SetField("chapter_name")

	textQuery := bleve.NewDisjunctionQuery(translation, latin, fuzzy, arabic, name)
	if chapter == 0 {
		return textQuery
	}

	n := float64(chapter)
	inclusive := true
	only := bleve.NewNumericRangeInclusiveQuery(&n, &n, &inclusive, &inclusive)
	only.SetField("chapter")
	return bleve.NewConjunctionQuery(textQuery, only)
}
