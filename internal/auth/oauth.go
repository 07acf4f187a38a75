package auth

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

// ErrSignInFailed is returned when the provider rejects the authorization code.
var ErrSignInFailed = domainerrors.Unauthorized("sign-in failed")

const maxProfileSize = 1 << 20

// Profile is what the identity provider tells us about the reader.
type Profile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ProviderConfig configures the OAuth provider. Empty endpoints default to Google.
type ProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// Provider runs the authorization-code flow against one identity provider.
type Provider struct {
	name        string
	cfg         *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewProvider builds a provider from cfg.
func NewProvider(cfg ProviderConfig) *Provider {
	endpoint := endpoints.Google
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	name := cfg.Name
	if name == "" {
		name = "google"
	}
	return &Provider{
		name: name,
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  http.DefaultClient,
	}
}

// Name identifies the provider on stored accounts.
func (p *Provider) Name() string {
	return p.name
}

// LoginURL returns the provider's consent page URL carrying state.
func (p *Provider) LoginURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades code for a token and fetches the reader's profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil &&
			(rerr.Response.StatusCode == http.StatusBadRequest || rerr.Response.StatusCode == http.StatusUnauthorized) {
			return nil, ErrSignInFailed.WithCause(err)
		}
		return nil, domainerrors.Upstream(err, "token exchange failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, domainerrors.Upstream(err, "userinfo request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.Upstream(fmt.Errorf("status %d", resp.StatusCode), "userinfo request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileSize))
	if err != nil {
		return nil, domainerrors.Upstream(err, "read userinfo")
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, domainerrors.Upstream(err, "decode userinfo")
	}
	if profile.Subject == "" {
		return nil, ErrSignInFailed.WithCause(errors.New("userinfo has no subject"))
	}
	return &profile, nil
}
