package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
	"github.com/tilawahapp/tilawah-server/internal/id"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

func newLastReadService(t *testing.T) (*LastReadService, *recordingNotifier) {
	t.Helper()
	st := newTestStore(t)
	seedUser(t, st, "usr-1")
	n := &recordingNotifier{}
	return NewLastReadService(st, testChapters, validation.New(), n, discardLogger()), n
}

func TestLastReadService_NoneYet(t *testing.T) {
	svc, _ := newLastReadService(t)

	lr, err := svc.GetLastRead(context.Background(), "usr-1")
	require.NoError(t, err)
	assert.Nil(t, lr)
}

func TestLastReadService_UpsertKeepsOneRow(t *testing.T) {
	svc, n := newLastReadService(t)
	ctx := context.Background()

	first, err := svc.UpsertLastRead(ctx, "usr-1", SaveLastReadRequest{Chapter: 2, Verse: 10})
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(first.ID, id.PrefixLastRead))

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	second, err := svc.UpsertLastRead(ctx, "usr-1", SaveLastReadRequest{Chapter: 112, Verse: 3})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "the row is updated in place")

	got, err := svc.GetLastRead(ctx, "usr-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 112, got.Chapter)
	assert.Equal(t, 3, got.Verse)
	assert.True(t, got.UpdatedAt.After(first.UpdatedAt))

	assert.Equal(t, []string{domain.MsgLastReadSavedTitle, domain.MsgLastReadSavedTitle}, n.titles())
	assert.Equal(t, "QS 112:3", n.last().Description)
}

func TestLastReadService_Validation(t *testing.T) {
	svc, n := newLastReadService(t)
	ctx := context.Background()

	for _, req := range []SaveLastReadRequest{
		{Chapter: 0, Verse: 1},
		{Chapter: 1, Verse: 0},
		{Chapter: 1, Verse: 8},
	} {
		_, err := svc.UpsertLastRead(ctx, "usr-1", req)
		assert.ErrorIs(t, err, domainerrors.ErrValidation, "%+v", req)
	}

	lr, err := svc.GetLastRead(ctx, "usr-1")
	require.NoError(t, err)
	assert.Nil(t, lr)
	assert.Empty(t, n.titles())
}

func TestLastReadService_RequiresSession(t *testing.T) {
	svc, _ := newLastReadService(t)
	ctx := context.Background()

	_, err := svc.GetLastRead(ctx, "")
	assert.ErrorIs(t, err, ErrSignInRequired)
	_, err = svc.UpsertLastRead(ctx, "", SaveLastReadRequest{Chapter: 1, Verse: 1})
	assert.ErrorIs(t, err, ErrSignInRequired)
}
