package domain

import (
	"fmt"
	"time"
)

// MinBookmarkNameLength is the shortest accepted bookmark name, in characters.
const MinBookmarkNameLength = 2

// Bookmark marks a chapter, or a single verse when Verse is set.
// Bookmarks are created and deleted, never edited.
type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Chapter   int       `json:"chapter"`
	Verse     *int      `json:"verse,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// WholeChapter reports whether the bookmark targets the chapter rather than a verse.
func (b *Bookmark) WholeChapter() bool {
	return b.Verse == nil
}

// DefaultBookmarkName is the name offered in the bookmark form.
func DefaultBookmarkName(chapterLatinName string, verse int) string {
	return fmt.Sprintf("Surah %s Ayat %d", chapterLatinName, verse)
}

// LastRead is a user's single "continue reading" position.
type LastRead struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Chapter   int       `json:"chapter"`
	Verse     int       `json:"verse"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LastReadLabel is the heading shown for the last-read entry in bookmark lists.
const LastReadLabel = "Terakhir Dibaca"
