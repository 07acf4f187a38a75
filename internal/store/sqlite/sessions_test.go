package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/store"
)

func TestSessions_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "usr-1")

	now := time.Now()
	require.NoError(t, s.CreateSession(ctx, &domain.Session{
		ID:        "sess-1",
		User:      *u,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", got.User.ID)
	assert.Equal(t, "usr-1@example.com", got.User.Email)
	assert.True(t, got.Active(now))

	require.NoError(t, s.RevokeSession(ctx, "sess-1", now))
	require.NoError(t, s.RevokeSession(ctx, "sess-1", now.Add(time.Minute)))

	got, err = s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.True(t, got.RevokedAt.Equal(now.UTC()))
	assert.False(t, got.Active(now))
}

func TestSessions_UnknownUserRejected(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateSession(context.Background(), &domain.Session{
		ID:        "sess-1",
		User:      domain.User{ID: "usr-ghost"},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestSessions_DeleteExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "usr-1")

	now := time.Now()
	for id, exp := range map[string]time.Time{
		"sess-old":   now.Add(-time.Hour),
		"sess-fresh": now.Add(time.Hour),
	} {
		require.NoError(t, s.CreateSession(ctx, &domain.Session{ID: id, User: *u, CreatedAt: now, ExpiresAt: exp}))
	}

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetSession(ctx, "sess-old")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetSession(ctx, "sess-fresh")
	assert.NoError(t, err)
}
