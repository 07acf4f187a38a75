// Package sse streams notifications and state changes to readers over Server-Sent Events.
package sse

import (
	"time"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventNotification carries a user-visible domain.Notification.
	EventNotification EventType = "notification"
	// EventAuthState carries a domain.AuthStateChange.
	EventAuthState EventType = "auth.state_changed"
	// EventPlayerState carries a player snapshot after every transition.
	EventPlayerState EventType = "player.state_changed"
	// EventPreferences carries the preferences after a change.
	EventPreferences EventType = "preferences.changed"
	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	// UserID restricts delivery to that user's streams. Empty means everyone.
	UserID string `json:"-"`
}

// NewNotificationEvent wraps n, keeping its target user.
func NewNotificationEvent(n domain.Notification) Event {
	ts := n.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return Event{Type: EventNotification, Timestamp: ts, Data: n, UserID: n.UserID}
}

// NewAuthStateEvent is delivered only to the affected user.
func NewAuthStateEvent(change domain.AuthStateChange) Event {
	// The token never leaves the sign-in response.
	if change.Session != nil {
		s := *change.Session
		s.Token = ""
		change.Session = &s
	}
	return Event{Type: EventAuthState, Timestamp: time.Now(), Data: change, UserID: change.UserID}
}

// NewPlayerStateEvent targets the player's owner.
func NewPlayerStateEvent(userID string, snapshot any) Event {
	return Event{Type: EventPlayerState, Timestamp: time.Now(), Data: snapshot, UserID: userID}
}

// NewPreferencesEvent is broadcast to everyone; preferences are installation-wide.
func NewPreferencesEvent(p domain.Preferences) Event {
	return Event{Type: EventPreferences, Timestamp: time.Now(), Data: p}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now(), Data: struct{}{}}
}
