package domain

import (
	"slices"
	"strconv"
)

// Chapter numbers run from 1 to 114 and define canonical order.
const (
	MinChapter = 1
	MaxChapter = 114
)

// ValidChapter reports whether n is a chapter number.
func ValidChapter(n int) bool {
	return n >= MinChapter && n <= MaxChapter
}

// RevelationPlace is where a chapter was revealed.
type RevelationPlace string

const (
	RevelationMecca  RevelationPlace = "Mekah"
	RevelationMedina RevelationPlace = "Madinah"
)

// Valid reports whether p is one of the two known places.
func (p RevelationPlace) Valid() bool {
	return p == RevelationMecca || p == RevelationMedina
}

// AudioSources maps reciter id to an audio URL.
// It is always non-nil after ingestion; an empty map means no audio.
type AudioSources map[string]string

// ReciterIDs returns the reciter ids with audio, sorted ascending.
func (a AudioSources) ReciterIDs() []string {
	ids := make([]string, 0, len(a))
	for id, url := range a {
		if url != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Clone returns an independent copy.
func (a AudioSources) Clone() AudioSources {
	out := make(AudioSources, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Chapter (surah) metadata.
type Chapter struct {
	Number      int             `json:"number"`
	Name        string          `json:"name"`
	LatinName   string          `json:"latin_name"`
	VerseCount  int             `json:"verse_count"`
	Revelation  RevelationPlace `json:"revelation"`
	Meaning     string          `json:"meaning"`
	Description string          `json:"description"`
	Audio       AudioSources    `json:"audio"`
}

// NumberText renders the chapter number the way search matches it.
func (c *Chapter) NumberText() string {
	return strconv.Itoa(c.Number)
}

// Verse (ayah) within a chapter.
type Verse struct {
	Number      int          `json:"number"`
	Arabic      string       `json:"arabic"`
	Latin       string       `json:"latin"`
	Translation string       `json:"translation"`
	Audio       AudioSources `json:"audio"`
}

// ChapterRef is the short form used for previous/next navigation.
type ChapterRef struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	LatinName  string `json:"latin_name"`
	VerseCount int    `json:"verse_count"`
}

// ChapterDetail is a chapter with its verses ordered by number.
type ChapterDetail struct {
	Chapter
	Verses   []Verse     `json:"verses"`
	Previous *ChapterRef `json:"previous,omitempty"`
	Next     *ChapterRef `json:"next,omitempty"`
}

// Verse returns verse n, or false when the chapter has no such verse.
func (d *ChapterDetail) Verse(n int) (Verse, bool) {
	if n < 1 || n > len(d.Verses) {
		return Verse{}, false
	}
	v := d.Verses[n-1]
	return v, v.Number == n
}

// Contiguous reports whether verses are numbered 1..len without gaps.
func (d *ChapterDetail) Contiguous() bool {
	for i, v := range d.Verses {
		if v.Number != i+1 {
			return false
		}
	}
	return true
}
