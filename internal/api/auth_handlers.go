package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tilawahapp/tilawah-server/internal/config"
	"github.com/tilawahapp/tilawah-server/internal/domain"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "signIn",
		Method:        http.MethodGet,
		Path:          "/auth/login",
		Summary:       "Sign in",
		Description:   "Redirects to the identity provider's consent page",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusFound,
		Middlewares:   huma.Middlewares{s.rateLimited},
	}, s.handleSignIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "signInCallback",
		Method:      http.MethodGet,
		Path:        config.CallbackPath,
		Summary:     "Sign-in callback",
		Description: "Completes sign-in and returns a session token",
		Tags:        []string{"Auth"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleSignInCallback)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Current session",
		Description: "Returns the signed-in reader, if any",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "signOut",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/logout",
		Summary:     "Sign out",
		Description: "Revokes the current session",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSignOut)
}

// === DTOs ===

// SignInOutput redirects to the provider.
type SignInOutput struct {
	Status   int
	Location string `header:"Location"`
}

// SignInCallbackInput carries the provider's redirect parameters.
type SignInCallbackInput struct {
	Code  string `query:"code" doc:"Authorization code"`
	State string `query:"state" doc:"State issued by /auth/login"`
}

// SignInResponse is returned once sign-in completes.
type SignInResponse struct {
	Token     string      `json:"token" doc:"Bearer token for subsequent requests"`
	ExpiresAt time.Time   `json:"expires_at" doc:"Token expiry"`
	User      domain.User `json:"user" doc:"Signed-in reader"`
}

// SignInCallbackOutput wraps the sign-in response for Huma.
type SignInCallbackOutput struct {
	Body SignInResponse
}

// SessionResponse describes the current auth state.
type SessionResponse struct {
	Authenticated bool         `json:"authenticated" doc:"Whether a reader is signed in"`
	User          *domain.User `json:"user,omitempty" doc:"Signed-in reader"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty" doc:"Session expiry"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// === Handlers ===

func (s *Server) handleSignIn(ctx context.Context, _ *struct{}) (*SignInOutput, error) {
	loginURL, err := s.sessions.SignInURL(ctx)
	if err != nil {
		return nil, err
	}
	return &SignInOutput{Status: http.StatusFound, Location: loginURL}, nil
}

func (s *Server) handleSignInCallback(ctx context.Context, input *SignInCallbackInput) (*SignInCallbackOutput, error) {
	session, err := s.sessions.CompleteSignIn(ctx, input.Code, input.State)
	if err != nil {
		return nil, err
	}
	return &SignInCallbackOutput{Body: SignInResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      session.User,
	}}, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	return &SessionOutput{Body: sessionResponse(sessionFrom(ctx))}, nil
}

func (s *Server) handleSignOut(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	if session := sessionFrom(ctx); session != nil {
		if err := s.sessions.SignOut(ctx, session.Token); err != nil {
			return nil, err
		}
	}
	return &SessionOutput{Body: SessionResponse{}}, nil
}

func sessionResponse(session *domain.Session) SessionResponse {
	if session == nil {
		return SessionResponse{}
	}
	user := session.User
	expires := session.ExpiresAt
	return SessionResponse{Authenticated: true, User: &user, ExpiresAt: &expires}
}
