package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

func TestBookmarks_RequireSession(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		do   func() int
	}{
		{"list", func() int { return ts.api.Get("/api/v1/bookmarks").Code }},
		{"create", func() int {
			return ts.api.Post("/api/v1/bookmarks", map[string]any{"chapter": 1, "name": "Pembukaan"}).Code
		}},
		{"delete", func() int { return ts.api.Delete("/api/v1/bookmarks/bm-x").Code }},
		{"get last read", func() int { return ts.api.Get("/api/v1/last-read").Code }},
		{"save last read", func() int {
			return ts.api.Put("/api/v1/last-read", map[string]any{"chapter": 1, "verse": 1}).Code
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, tt.do())
		})
	}

	resp := ts.api.Get("/api/v1/bookmarks")
	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
	assert.Equal(t, domain.MsgSignInRequiredTitle, env.Error)
	assert.Equal(t, domain.MsgSignInRequiredDesc, env.Details["description"])
}

func TestBookmarks_CRUD(t *testing.T) {
	ts := newTestServer(t)
	bearer := ts.signIn(t)

	resp := ts.api.Get("/api/v1/bookmarks", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Empty(t, decodeEnvelope[BookmarkListResponse](t, resp).Data.Bookmarks)

	resp = ts.api.Post("/api/v1/bookmarks", bearer, map[string]any{"chapter": 112, "verse": 1, "name": "  Tauhid  "})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decodeEnvelope[domain.Bookmark](t, resp).Data
	assert.Equal(t, "Tauhid", created.Name)
	assert.Equal(t, 112, created.Chapter)
	require.NotNil(t, created.Verse)
	assert.Equal(t, 1, *created.Verse)

	resp = ts.api.Post("/api/v1/bookmarks", bearer, map[string]any{"chapter": 36, "name": "Jantung Al-Quran"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	whole := decodeEnvelope[domain.Bookmark](t, resp).Data
	assert.Nil(t, whole.Verse)

	resp = ts.api.Get("/api/v1/bookmarks", bearer)
	list := decodeEnvelope[BookmarkListResponse](t, resp).Data.Bookmarks
	require.Len(t, list, 2)
	assert.Equal(t, whole.ID, list[0].ID)
	assert.Equal(t, created.ID, list[1].ID)

	resp = ts.api.Delete("/api/v1/bookmarks/"+created.ID, bearer)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	// Deleting again is not an error.
	resp = ts.api.Delete("/api/v1/bookmarks/"+created.ID, bearer)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/bookmarks", bearer)
	list = decodeEnvelope[BookmarkListResponse](t, resp).Data.Bookmarks
	require.Len(t, list, 1)
	assert.Equal(t, whole.ID, list[0].ID)
}

func TestBookmarks_Validation(t *testing.T) {
	ts := newTestServer(t)
	bearer := ts.signIn(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"short name", map[string]any{"chapter": 1, "name": " a "}, "name"},
		{"chapter out of range", map[string]any{"chapter": 115, "name": "Bookmark"}, "chapter"},
		{"verse beyond chapter", map[string]any{"chapter": 112, "verse": 5, "name": "Bookmark"}, "verse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/bookmarks", bearer, tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			env := decodeEnvelope[any](t, resp)
			assert.Equal(t, "VALIDATION", env.Code)
			assert.Contains(t, env.Details, tt.field)
		})
	}

	resp := ts.api.Post("/api/v1/bookmarks", bearer, map[string]any{"chapter": 1, "name": "x"})
	assert.Equal(t, domain.MsgBookmarkNameTooShort, decodeEnvelope[any](t, resp).Error)
}

func TestBookmarks_ScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	first := ts.signIn(t)

	resp := ts.api.Post("/api/v1/bookmarks", first, map[string]any{"chapter": 1, "name": "Pembukaan"})
	require.Equal(t, http.StatusCreated, resp.Code)
	id := decodeEnvelope[domain.Bookmark](t, resp).Data.ID

	// The fake provider always signs in the same account, so sign out and
	// check that a fresh session still sees the bookmark.
	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/session/logout", first).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.api.Delete("/api/v1/bookmarks/"+id, first).Code)

	second := ts.signIn(t)
	list := decodeEnvelope[BookmarkListResponse](t, ts.api.Get("/api/v1/bookmarks", second)).Data.Bookmarks
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestLastRead(t *testing.T) {
	ts := newTestServer(t)
	bearer := ts.signIn(t)

	resp := ts.api.Get("/api/v1/last-read", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[LastReadResponse](t, resp)
	assert.Nil(t, env.Data.LastRead)
	assert.Equal(t, domain.LastReadLabel, env.Data.Label)

	resp = ts.api.Put("/api/v1/last-read", bearer, map[string]any{"chapter": 112, "verse": 2})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	first := decodeEnvelope[LastReadResponse](t, resp).Data.LastRead
	require.NotNil(t, first)
	assert.Equal(t, 2, first.Verse)

	resp = ts.api.Put("/api/v1/last-read", bearer, map[string]any{"chapter": 112, "verse": 4})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/last-read", bearer)
	got := decodeEnvelope[LastReadResponse](t, resp).Data.LastRead
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 112, got.Chapter)
	assert.Equal(t, 4, got.Verse)

	resp = ts.api.Put("/api/v1/last-read", bearer, map[string]any{"chapter": 112, "verse": 0})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
