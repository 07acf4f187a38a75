package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidChapter(t *testing.T) {
	assert.False(t, ValidChapter(0))
	assert.True(t, ValidChapter(1))
	assert.True(t, ValidChapter(114))
	assert.False(t, ValidChapter(150))
}

func TestAudioSources_ReciterIDsSortedAndSkipsEmpty(t *testing.T) {
	a := AudioSources{"05": "e", "01": "a", "03": ""}
	assert.Equal(t, []string{"01", "05"}, a.ReciterIDs())
}

func TestReciterName(t *testing.T) {
	assert.Equal(t, "Misyari Rasyid Al-Afasi", ReciterName("05"))
	assert.Equal(t, "Unknown", ReciterName("99"))
	assert.Equal(t, "Unknown", ReciterName(""))
	assert.True(t, KnownReciter("01"))
	assert.Len(t, Reciters(), 5)
}

func TestChapterDetail_Verse(t *testing.T) {
	d := ChapterDetail{Verses: []Verse{{Number: 1}, {Number: 2}}}

	v, ok := d.Verse(2)
	assert.True(t, ok)
	assert.Equal(t, 2, v.Number)

	_, ok = d.Verse(3)
	assert.False(t, ok)
	assert.True(t, d.Contiguous())

	d.Verses[1].Number = 5
	assert.False(t, d.Contiguous())
}

func TestDefaultBookmarkName(t *testing.T) {
	assert.Equal(t, "Surah Al-Baqarah Ayat 255", DefaultBookmarkName("Al-Baqarah", 255))
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	assert.True(t, p.ShowTranslation)
	assert.Equal(t, "01", p.Reciter)
}
