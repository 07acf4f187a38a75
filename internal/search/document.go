// Package search keeps a Bleve full-text index of verses. Chapters are indexed
// as they are opened, so the index grows with what readers actually visit.
package search

import (
	"fmt"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// VerseDocument is the indexed form of one verse.
//
// The chapter's romanized name is denormalized into every verse so a query
// like "kursi baqarah" can match both the verse text and its chapter.
type VerseDocument struct {
	ID          string `json:"id"` // "{chapter}:{verse}"
	Chapter     int    `json:"chapter"`
	Verse       int    `json:"verse"`
	ChapterName string `json:"chapter_name"`
	Arabic      string `json:"arabic"`
	Latin       string `json:"latin"`
	Translation string `json:"translation"`
}

// VerseID formats the document id of a verse.
func VerseID(chapter, verse int) string {
	return fmt.Sprintf("%d:%d", chapter, verse)
}

// DocumentsFromDetail builds one document per verse.
func DocumentsFromDetail(d *domain.ChapterDetail) []*VerseDocument {
	docs := make([]*VerseDocument, 0, len(d.Verses))
	for _, v := range d.Verses {
		docs = append(docs, &VerseDocument{
			ID:          VerseID(d.Number, v.Number),
			Chapter:     d.Number,
			Verse:       v.Number,
			ChapterName: d.LatinName,
			Arabic:      v.Arabic,
			Latin:       v.Latin,
			Translation: v.Translation,
		})
	}
	return docs
}

// ToMap converts the document to a map keyed by the mapped field names.
func (d *VerseDocument) ToMap() map[string]any {
	return map[string]any{
		"id":           d.ID,
		"chapter":      d.Chapter,
		"verse":        d.Verse,
		"chapter_name": d.ChapterName,
		"arabic":       d.Arabic,
		"latin":        d.Latin,
		"translation":  d.Translation,
	}
}
