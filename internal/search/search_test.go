package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

func setupTestIndex(t *testing.T) *VerseIndex {
	t.Helper()
	index, err := NewVerseIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func fatihah() *domain.ChapterDetail {
	return &domain.ChapterDetail{
		Chapter: domain.Chapter{Number: 1, LatinName: "Al-Fatihah", VerseCount: 3},
		Verses: []domain.Verse{
			{Number: 1, Latin: "bismillāhir-raḥmānir-raḥīm", Translation: "Dengan nama Allah Yang Maha Pengasih, Maha Penyayang."},
			{Number: 2, Latin: "al-ḥamdu lillāhi rabbil-'ālamīn", Translation: "Segala puji bagi Allah, Tuhan seluruh alam,"},
			{Number: 3, Latin: "ar-raḥmānir-raḥīm", Translation: "Yang Maha Pengasih, Maha Penyayang,"},
		},
	}
}

func ikhlas() *domain.ChapterDetail {
	return &domain.ChapterDetail{
		Chapter: domain.Chapter{Number: 112, LatinName: "Al-Ikhlas", VerseCount: 2},
		Verses: []domain.Verse{
			{Number: 1, Latin: "qul huwallāhu aḥad", Translation: "Katakanlah, Dialah Allah, Yang Maha Esa."},
			{Number: 2, Latin: "allāhuṣ-ṣamad", Translation: "Allah tempat meminta segala sesuatu."},
		},
	}
}

func TestNewVerseIndex_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIndexChapter_OneDocumentPerVerse(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexChapter(ctx, fatihah()))
	require.NoError(t, index.IndexChapter(ctx, fatihah()), "reindexing replaces documents")

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchVerses_MatchesTranslation(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexChapter(ctx, fatihah()))
	require.NoError(t, index.IndexChapter(ctx, ikhlas()))

	res, err := index.SearchVerses(ctx, Params{Query: "Esa"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)

	top := res.Hits[0]
	assert.Equal(t, "112:1", top.ID)
	assert.Equal(t, 112, top.Chapter)
	assert.Equal(t, 1, top.Verse)
	assert.Equal(t, "Al-Ikhlas", top.ChapterName)
	assert.Contains(t, top.Translation, "Maha Esa")
}

func TestSearchVerses_ChapterFilter(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexChapter(ctx, fatihah()))
	require.NoError(t, index.IndexChapter(ctx, ikhlas()))

	all, err := index.SearchVerses(ctx, Params{Query: "allah"})
	require.NoError(t, err)

	only, err := index.SearchVerses(ctx, Params{Query: "allah", Chapter: 112})
	require.NoError(t, err)

	assert.Greater(t, all.Total, only.Total)
	for _, h := range only.Hits {
		assert.Equal(t, 112, h.Chapter)
	}
}

func TestSearchVerses_ChapterName(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexChapter(ctx, ikhlas()))

	res, err := index.SearchVerses(ctx, Params{Query: "ikhlas"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Total)
}

func TestSearchVerses_Limits(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexChapter(ctx, fatihah()))

	res, err := index.SearchVerses(ctx, Params{Query: "maha", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
	assert.Equal(t, uint64(2), res.Total)

	_, err = index.SearchVerses(ctx, Params{Query: "   "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestDeleteChapter(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexChapter(ctx, fatihah()))
	require.NoError(t, index.IndexChapter(ctx, ikhlas()))

	require.NoError(t, index.DeleteChapter(1, 3))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestRebuild_DropsDocuments(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexChapter(context.Background(), ikhlas()))

	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewVerseIndex_ReopensAndRebuildsOnVersionChange(t *testing.T) {
	dir := t.TempDir()

	index, err := NewVerseIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexChapter(context.Background(), ikhlas()))
	require.NoError(t, index.Close())

	reopened, err := NewVerseIndex(Options{DataPath: dir})
	require.NoError(t, err)
	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
	require.NoError(t, reopened.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "verses.version"), []byte("0"), 0o644))

	rebuilt, err := NewVerseIndex(Options{DataPath: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rebuilt.Close() })
	count, err = rebuilt.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewVerseIndex_MemoryOnly(t *testing.T) {
	index, err := NewVerseIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	require.NoError(t, index.IndexChapter(context.Background(), ikhlas()))
	require.NoError(t, index.Rebuild())
}
