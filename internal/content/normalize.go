package content

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// htmlTagPattern detects the inline markup the source uses in descriptions.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|sup|ul|ol|li)[\s>/]`)

// descriptionMarkdown converts an HTML description to Markdown. Plain text,
// and text the converter rejects, is returned trimmed but otherwise unchanged.
func descriptionMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}

func (r *rawChapter) toDomain() domain.Chapter {
	return domain.Chapter{
		Number:      r.Number,
		Name:        strings.TrimSpace(r.Name),
		LatinName:   strings.TrimSpace(r.LatinName),
		VerseCount:  r.VerseCount,
		Revelation:  revelationPlace(r.Revelation),
		Meaning:     strings.TrimSpace(r.Meaning),
		Description: descriptionMarkdown(r.Desc),
		Audio:       r.AudioFull.normalize(),
	}
}

func (r *rawDetail) toDomain() *domain.ChapterDetail {
	d := &domain.ChapterDetail{
		Chapter:  r.rawChapter.toDomain(),
		Verses:   make([]domain.Verse, 0, len(r.Verses)),
		Previous: r.Previous.ref,
		Next:     r.Next.ref,
	}
	for _, v := range r.Verses {
		d.Verses = append(d.Verses, domain.Verse{
			Number:      v.Number,
			Arabic:      v.Arabic,
			Latin:       strings.TrimSpace(v.Latin),
			Translation: strings.TrimSpace(v.Translation),
			Audio:       v.Audio.normalize(),
		})
	}
	return d
}

// revelationPlace maps the source's labels onto the two known places.
// Unknown labels are kept verbatim.
func revelationPlace(s string) domain.RevelationPlace {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mekah", "makkah", "mecca", "makkiyah":
		return domain.RevelationMecca
	case "madinah", "medina", "madaniyah":
		return domain.RevelationMedina
	}
	return domain.RevelationPlace(s)
}
