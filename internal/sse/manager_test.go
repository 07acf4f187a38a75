package sse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.EventChan:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_UserTargeting(t *testing.T) {
	m := newTestManager(t)
	alice := m.Connect("usr-alice")
	bob := m.Connect("usr-bob")
	anon := m.Connect("")

	m.Notify(domain.NewNotification(domain.VariantDefault, domain.MsgBookmarkAddedTitle, "").ForUser("usr-alice"))

	e := receive(t, alice)
	assert.Equal(t, EventNotification, e.Type)
	n, ok := e.Data.(domain.Notification)
	require.True(t, ok)
	assert.Equal(t, "Bookmark berhasil ditambahkan", n.Title)

	assertNoEvent(t, bob)
	assertNoEvent(t, anon)
}

func TestManager_BroadcastReachesEveryone(t *testing.T) {
	m := newTestManager(t)
	alice := m.Connect("usr-alice")
	anon := m.Connect("")

	m.Notify(domain.NewNotification(domain.VariantDestructive, domain.MsgLoadFailedTitle, domain.MsgLoadFailedDescription))

	assert.Equal(t, EventNotification, receive(t, alice).Type)
	assert.Equal(t, EventNotification, receive(t, anon).Type)
}

func TestManager_AuthStateStripsToken(t *testing.T) {
	m := newTestManager(t)
	alice := m.Connect("usr-alice")

	sess := &domain.Session{ID: "sess-1", Token: "v4.local.secret", User: domain.User{ID: "usr-alice"}}
	m.PublishAuthState(domain.AuthStateChange{Event: domain.AuthSignedIn, UserID: "usr-alice", Session: sess})

	e := receive(t, alice)
	change, ok := e.Data.(domain.AuthStateChange)
	require.True(t, ok)
	assert.Empty(t, change.Session.Token)
	assert.Equal(t, "v4.local.secret", sess.Token, "caller's session is untouched")
}

func TestManager_SlowClientDoesNotBlock(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	slow := m.Connect("")

	for range clientBufferSize + 10 {
		m.broadcast(NewPreferencesEvent(domain.DefaultPreferences()))
	}
	assert.Len(t, slow.EventChan, clientBufferSize)
}

func TestManager_DisconnectIsIdempotent(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	c := m.Connect("usr-1")
	assert.Equal(t, 1, m.ClientCount())

	m.Disconnect(c.ID)
	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_ShutdownDrainsAndClosesClients(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	c := m.Connect("")

	m.Emit(NewPreferencesEvent(domain.DefaultPreferences()))
	require.NoError(t, m.Shutdown(context.Background()))

	e, ok := <-c.EventChan
	require.True(t, ok)
	assert.Equal(t, EventPreferences, e.Type)

	_, ok = <-c.EventChan
	assert.False(t, ok, "client channel closed after shutdown")

	m.Emit(NewHeartbeatEvent())
	require.NoError(t, m.Shutdown(context.Background()))
}
