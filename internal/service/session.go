package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tilawahapp/tilawah-server/internal/auth"
	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
	"github.com/tilawahapp/tilawah-server/internal/id"
	"github.com/tilawahapp/tilawah-server/internal/store"
)

// ErrSignInDisabled is returned when no identity provider is configured.
var ErrSignInDisabled = &domainerrors.Error{Code: domainerrors.CodeForbidden, Message: "sign-in is not configured"}

// ErrInvalidState is returned when the callback state was never issued,
// was already used, or has expired.
var ErrInvalidState = domainerrors.Unauthorized("invalid or expired sign-in state")

// IdentityProvider runs the OAuth authorization-code flow. *auth.Provider satisfies it.
type IdentityProvider interface {
	Name() string
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Profile, error)
}

// AccountStore is the persistence the session service needs.
type AccountStore interface {
	store.UserStore
	store.SessionStore
}

// AuthListener observes sign-in and sign-out.
type AuthListener func(domain.AuthStateChange)

// SessionService owns sign-in sessions and publishes auth-state changes.
type SessionService struct {
	store    AccountStore
	tokens   *auth.TokenService
	provider IdentityProvider
	states   *auth.StateStore
	notifier domain.Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	listeners map[int]AuthListener
	nextID    int
}

// NewSessionService creates a session service. provider may be nil, which
// disables sign-in while still resolving previously issued tokens.
func NewSessionService(
	st AccountStore,
	tokens *auth.TokenService,
	provider IdentityProvider,
	states *auth.StateStore,
	notifier domain.Notifier,
	logger *slog.Logger,
) *SessionService {
	if states == nil {
		states = auth.NewStateStore(auth.StateTTL)
	}
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &SessionService{
		store:     st,
		tokens:    tokens,
		provider:  provider,
		states:    states,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]AuthListener),
	}
}

// SignInURL starts a sign-in attempt and returns the provider's consent URL.
func (s *SessionService) SignInURL(_ context.Context) (string, error) {
	if s.provider == nil {
		return "", ErrSignInDisabled
	}
	return s.provider.LoginURL(s.states.Issue()), nil
}

// CompleteSignIn finishes the flow started by SignInURL. The returned
// session carries the bearer token.
func (s *SessionService) CompleteSignIn(ctx context.Context, code, state string) (*domain.Session, error) {
	if s.provider == nil {
		return nil, ErrSignInDisabled
	}
	if !s.states.Consume(state) {
		return nil, ErrInvalidState
	}
	if code == "" {
		return nil, domainerrors.Validation("authorization code is required")
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("sign-in exchange failed", "provider", s.provider.Name(), "error", err)
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}
	now := s.now().UTC()
	user, err := s.store.UpsertUser(ctx, &domain.User{
		ID:          userID,
		Provider:    s.provider.Name(),
		Subject:     profile.Subject,
		Email:       profile.Email,
		DisplayName: profile.Name,
		AvatarURL:   profile.Picture,
		CreatedAt:   now,
		LastLoginAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}
	token, expires, err := s.tokens.Issue(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	session := &domain.Session{
		ID:        sessionID,
		User:      *user,
		CreatedAt: now,
		ExpiresAt: expires.UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	session.Token = token

	s.logger.Info("reader signed in", "user_id", user.ID, "session_id", sessionID, "provider", user.Provider)
	s.publish(domain.AuthStateChange{Event: domain.AuthSignedIn, UserID: user.ID, Session: session})
	s.notifier.Notify(domain.NewNotification(domain.VariantDefault, domain.MsgSignedInTitle, user.DisplayName).ForUser(user.ID))
	return session, nil
}

// Current resolves token to its session. It returns nil, nil when the token
// is absent, invalid, expired or revoked.
func (s *SessionService) Current(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil
	}

	session, err := s.store.GetSession(ctx, claims.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !session.Active(s.now()) || session.User.ID != claims.UserID {
		return nil, nil
	}
	session.Token = token
	return session, nil
}

// SignOut revokes the session behind token. Signing out without a live
// session succeeds.
func (s *SessionService) SignOut(ctx context.Context, token string) error {
	session, err := s.Current(ctx, token)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	if err := s.store.RevokeSession(ctx, session.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.logger.Info("reader signed out", "user_id", session.User.ID, "session_id", session.ID)
	s.publish(domain.AuthStateChange{Event: domain.AuthSignedOut, UserID: session.User.ID})
	s.notifier.Notify(domain.NewNotification(domain.VariantDefault, domain.MsgSignedOutTitle, "").ForUser(session.User.ID))
	return nil
}

// Subscribe registers fn for auth-state changes. Listeners run synchronously
// on the goroutine that changed the state.
func (s *SessionService) Subscribe(fn AuthListener) (unsubscribe func()) {
	s.mu.Lock()
	key := s.nextID
	s.nextID++
	s.listeners[key] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, key)
			s.mu.Unlock()
		})
	}
}

func (s *SessionService) publish(change domain.AuthStateChange) {
	s.mu.RLock()
	fns := make([]AuthListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

// DeleteExpiredSessions removes sessions past their expiry.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteExpiredSessions(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if count > 0 {
		s.logger.Info("deleted expired sessions", "count", count)
	}
	return count, nil
}

// RunCleanup calls DeleteExpiredSessions every interval until ctx is done.
func (s *SessionService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DeleteExpiredSessions(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}
