package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const sessionKey ctxKey = "session"

// SessionResolver resolves a bearer token. *service.SessionService satisfies it.
type SessionResolver interface {
	Current(ctx context.Context, token string) (*domain.Session, error)
}

func withSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// sessionFrom returns the request's session, or nil for anonymous readers.
func sessionFrom(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey).(*domain.Session)
	return s
}

// userIDFrom returns the signed-in user's id, or "".
func userIDFrom(ctx context.Context) string {
	if s := sessionFrom(ctx); s != nil {
		return s.User.ID
	}
	return ""
}

// bearerToken extracts the token from an Authorization header. The
// notification stream may pass it as ?access_token= since EventSource
// cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if r.URL.Path == streamPath {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// authMiddleware attaches the session for a valid bearer token. Requests
// without one continue anonymously; services reject them where a session
// is required.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.sessions.Current(r.Context(), token)
		if err != nil {
			s.logger.Warn("session lookup failed", "error", err)
		}
		if session == nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}
