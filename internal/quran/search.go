package quran

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// Search returns the chapters whose native or romanized name contains query,
// or whose number equals it, in list order. Matching uses Unicode case
// folding. A blank query returns the whole list. The result is always a new
// slice.
func Search(chapters []domain.Chapter, query string) []domain.Chapter {
	q := strings.TrimSpace(query)
	if q == "" {
		return append(make([]domain.Chapter, 0, len(chapters)), chapters...)
	}

	fold := cases.Fold()
	needle := fold.String(q)

	out := make([]domain.Chapter, 0)
	for _, c := range chapters {
		if c.NumberText() == q ||
			strings.Contains(fold.String(c.Name), needle) ||
			strings.Contains(fold.String(c.LatinName), needle) {
			out = append(out, c)
		}
	}
	return out
}
