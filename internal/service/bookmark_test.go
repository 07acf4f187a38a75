package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
	"github.com/tilawahapp/tilawah-server/internal/id"
	"github.com/tilawahapp/tilawah-server/internal/store"
	"github.com/tilawahapp/tilawah-server/internal/store/sqlite"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

func seedUser(t *testing.T, s *sqlite.Store, userID string) {
	t.Helper()
	now := time.Now()
	_, err := s.UpsertUser(context.Background(), &domain.User{
		ID: userID, Provider: "google", Subject: "sub-" + userID,
		Email: userID + "@example.com", DisplayName: userID,
		CreatedAt: now, LastLoginAt: now,
	})
	require.NoError(t, err)
}

func newBookmarkService(t *testing.T) (*BookmarkService, *sqlite.Store, *recordingNotifier) {
	t.Helper()
	st := newTestStore(t)
	seedUser(t, st, "usr-1")
	seedUser(t, st, "usr-2")
	n := &recordingNotifier{}
	return NewBookmarkService(st, testChapters, validation.New(), n, discardLogger()), st, n
}

func TestBookmarkService_AddAndList(t *testing.T) {
	svc, _, n := newBookmarkService(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	first, err := svc.AddBookmark(ctx, "usr-1", CreateBookmarkRequest{Chapter: 1, Name: "  Pembuka  "})
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(first.ID, id.PrefixBookmark))
	assert.Equal(t, "Pembuka", first.Name)
	assert.True(t, first.WholeChapter())

	svc.now = func() time.Time { return base.Add(time.Minute) }
	second, err := svc.AddBookmark(ctx, "usr-1", CreateBookmarkRequest{
		Chapter: 2, Verse: intPtr(255), Name: domain.DefaultBookmarkName("Al-Baqarah", 255),
	})
	require.NoError(t, err)
	assert.Equal(t, "Surah Al-Baqarah Ayat 255", second.Name)

	list, err := svc.ListBookmarks(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	other, err := svc.ListBookmarks(ctx, "usr-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.Equal(t, []string{domain.MsgBookmarkAddedTitle, domain.MsgBookmarkAddedTitle}, n.titles())
	assert.Equal(t, "usr-1", n.last().UserID)
}

func TestBookmarkService_AddValidatesBeforeStorage(t *testing.T) {
	svc, st, n := newBookmarkService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   CreateBookmarkRequest
		field string
	}{
		{"short name", CreateBookmarkRequest{Chapter: 1, Name: " a "}, "name"},
		{"chapter zero", CreateBookmarkRequest{Chapter: 0, Name: "Nama"}, "chapter"},
		{"chapter past end", CreateBookmarkRequest{Chapter: 115, Name: "Nama"}, "chapter"},
		{"verse zero", CreateBookmarkRequest{Chapter: 1, Verse: intPtr(0), Name: "Nama"}, "verse"},
		{"verse past chapter end", CreateBookmarkRequest{Chapter: 112, Verse: intPtr(5), Name: "Nama"}, "verse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddBookmark(ctx, "usr-1", tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.True(t, errors.As(err, &derr))
			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.field)
		})
	}

	list, err := st.ListBookmarks(ctx, "usr-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, n.titles())
}

func TestBookmarkService_ShortNameMessage(t *testing.T) {
	svc, _, _ := newBookmarkService(t)

	_, err := svc.AddBookmark(context.Background(), "usr-1", CreateBookmarkRequest{Chapter: 1, Name: "x"})
	var derr *domainerrors.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.MsgBookmarkNameTooShort, derr.Message)
	assert.Equal(t, domain.MsgBookmarkNameTooShort, derr.Details.(map[string]string)["name"])
}

func TestBookmarkService_DeleteIsIdempotentAndOwnerScoped(t *testing.T) {
	svc, _, n := newBookmarkService(t)
	ctx := context.Background()

	b, err := svc.AddBookmark(ctx, "usr-1", CreateBookmarkRequest{Chapter: 112, Name: "Ikhlas"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBookmark(ctx, "usr-2", b.ID))
	list, err := svc.ListBookmarks(ctx, "usr-1")
	require.NoError(t, err)
	assert.Len(t, list, 1, "another reader cannot delete it")

	require.NoError(t, svc.DeleteBookmark(ctx, "usr-1", b.ID))
	require.NoError(t, svc.DeleteBookmark(ctx, "usr-1", b.ID))
	require.NoError(t, svc.DeleteBookmark(ctx, "usr-1", "bm-never-existed"))

	list, err = svc.ListBookmarks(ctx, "usr-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, domain.MsgBookmarkDeletedTitle, n.last().Title)
}

func TestBookmarkService_RequiresSession(t *testing.T) {
	svc, st, _ := newBookmarkService(t)
	ctx := context.Background()

	_, err := svc.ListBookmarks(ctx, "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = svc.AddBookmark(ctx, "", CreateBookmarkRequest{Chapter: 1, Name: "Pembuka"})
	assert.ErrorIs(t, err, ErrSignInRequired)
	var derr *domainerrors.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.MsgSignInRequiredTitle, derr.Message)

	assert.ErrorIs(t, svc.DeleteBookmark(ctx, "", "bm-1"), domainerrors.ErrUnauthorized)

	list, err := st.ListBookmarks(ctx, "usr-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

type failingBookmarkStore struct{ store.BookmarkStore }

func (failingBookmarkStore) ListBookmarks(context.Context, string) ([]*domain.Bookmark, error) {
	return nil, errors.New("disk on fire")
}

func (failingBookmarkStore) CreateBookmark(context.Context, *domain.Bookmark) error {
	return errors.New("disk on fire")
}

func (failingBookmarkStore) DeleteBookmark(context.Context, string, string) error {
	return errors.New("disk on fire")
}

func TestBookmarkService_StoreFailuresNotify(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewBookmarkService(failingBookmarkStore{}, nil, validation.New(), n, discardLogger())
	ctx := context.Background()

	_, err := svc.ListBookmarks(ctx, "usr-1")
	assert.Error(t, err)
	_, err = svc.AddBookmark(ctx, "usr-1", CreateBookmarkRequest{Chapter: 1, Name: "Pembuka"})
	assert.Error(t, err)
	assert.Error(t, svc.DeleteBookmark(ctx, "usr-1", "bm-1"))

	assert.Equal(t, []string{
		domain.MsgBookmarkLoadFailed,
		domain.MsgBookmarkAddFailedTitle,
		domain.MsgBookmarkDeleteFailed,
	}, n.titles())
	for _, sent := range n.sent {
		assert.Equal(t, domain.VariantDestructive, sent.Variant)
		assert.Equal(t, "usr-1", sent.UserID)
	}
}
