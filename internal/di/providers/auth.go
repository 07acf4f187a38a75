package providers

import (
	"github.com/samber/do/v2"

	"github.com/tilawahapp/tilawah-server/internal/auth"
	"github.com/tilawahapp/tilawah-server/internal/config"
	"github.com/tilawahapp/tilawah-server/internal/logger"
	"github.com/tilawahapp/tilawah-server/internal/ratelimit"
)

// AuthKey wraps the token key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the token key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.KeyPath())
	if err != nil {
		return nil, err
	}
	cfg.Auth.TokenKey = key

	log.Info("Session key loaded", "session_duration", cfg.Auth.SessionDuration)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(key), cfg.Auth.SessionDuration)
}

// IdentityProviderHandle holds the configured provider; Provider is nil when
// sign-in is disabled.
type IdentityProviderHandle struct {
	Provider *auth.Provider
}

// ProvideIdentityProvider provides the OAuth identity provider.
func ProvideIdentityProvider(i do.Injector) (*IdentityProviderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.OAuth.Enabled() {
		log.Warn("OAuth client not configured - sign-in disabled")
		return &IdentityProviderHandle{}, nil
	}

	provider := auth.NewProvider(auth.ProviderConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.RedirectURL(),
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		UserInfoURL:  cfg.OAuth.UserInfoURL,
		Scopes:       cfg.OAuth.Scopes,
	})
	log.Info("Sign-in enabled", "provider", provider.Name(), "redirect_url", cfg.RedirectURL())

	return &IdentityProviderHandle{Provider: provider}, nil
}

// SignInLimiterHandle wraps the sign-in limiter; Limiter is nil when
// limiting is disabled.
type SignInLimiterHandle struct {
	Limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *SignInLimiterHandle) Shutdown() error {
	if h.Limiter != nil {
		h.Limiter.Stop()
	}
	return nil
}

// ProvideSignInLimiter provides the per-IP limiter for sign-in routes.
func ProvideSignInLimiter(i do.Injector) (*SignInLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	perMinute := cfg.Auth.SignInPerMinute
	if perMinute <= 0 {
		return &SignInLimiterHandle{}, nil
	}
	return &SignInLimiterHandle{Limiter: ratelimit.New(float64(perMinute)/60, perMinute)}, nil
}
