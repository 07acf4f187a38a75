package domain

import "time"

// Session is a signed-in identity. A nil *Session means signed out.
type Session struct {
	ID        string     `json:"id"`
	User      User       `json:"user"`
	Token     string     `json:"token,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"-"`
}

// Active reports whether the session can still authenticate requests at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// AuthEvent names an auth-state change.
type AuthEvent string

const (
	AuthSignedIn  AuthEvent = "signed_in"
	AuthSignedOut AuthEvent = "signed_out"
)

// AuthStateChange is published whenever a session starts or ends.
type AuthStateChange struct {
	Event   AuthEvent `json:"event"`
	UserID  string    `json:"user_id"`
	Session *Session  `json:"session,omitempty"`
}
