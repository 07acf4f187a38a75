package playback

import (
	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

// ErrNoSource is returned when no audio URL can be resolved.
var ErrNoSource = domainerrors.Playback("no audio source")

// Source is what a controller plays: either one URL or a per-reciter map.
type Source struct {
	URL       string              `json:"url,omitempty"`
	ByReciter domain.AudioSources `json:"by_reciter,omitempty"`
}

// URLSource wraps a single URL.
func URLSource(url string) Source {
	return Source{URL: url}
}

// ReciterSource wraps a per-reciter audio map.
func ReciterSource(audio domain.AudioSources) Source {
	return Source{ByReciter: audio.Clone()}
}

// Resolution is the outcome of resolving a source for a reciter.
type Resolution struct {
	URL     string
	Reciter string // empty for single-URL sources
	// FellBack is set when the requested reciter had no entry and another
	// reciter's audio was chosen.
	FellBack bool
}

// Resolve picks the URL to play for reciter. A single URL is used as is.
// For a map, the reciter's own entry wins; otherwise the entry with the
// lowest reciter id is used and FellBack is set.
func (s Source) Resolve(reciter string) (Resolution, error) {
	if s.URL != "" {
		return Resolution{URL: s.URL}, nil
	}
	if url := s.ByReciter[reciter]; url != "" {
		return Resolution{URL: url, Reciter: reciter}, nil
	}
	ids := s.ByReciter.ReciterIDs()
	if len(ids) == 0 {
		return Resolution{}, ErrNoSource
	}
	return Resolution{URL: s.ByReciter[ids[0]], Reciter: ids[0], FellBack: true}, nil
}

// Empty reports whether s has nothing to play.
func (s Source) Empty() bool {
	return s.URL == "" && len(s.ByReciter.ReciterIDs()) == 0
}
