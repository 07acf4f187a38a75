package auth

import (
	"bytes"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, keyLength)
}

func TestLoadOrGenerateKey_PersistsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.key")

	first, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Len(t, first, keyLength)

	second, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.key")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))

	_, err := LoadOrGenerateKey(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(hex.EncodeToString(testKey())[:62]+"zz"), 0o600))
	_, err = LoadOrGenerateKey(path)
	assert.Error(t, err)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc, err := NewTokenService(testKey(), time.Hour)
	require.NoError(t, err)

	user := &domain.User{ID: "usr-1", Email: "reader@example.com"}
	token, expires, err := svc.Issue(user, "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, "sess-1", claims.TokenID)
}

func TestTokenService_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc, err := NewTokenService(testKey(), time.Minute)
	require.NoError(t, err)

	token, _, err := svc.Issue(&domain.User{ID: "usr-1"}, "sess-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	other, err := NewTokenService(bytes.Repeat([]byte{9}, keyLength), time.Minute)
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("v4.local.garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Hour)
	assert.Error(t, err)
}

func TestStateStore_SingleUse(t *testing.T) {
	s := NewStateStore(time.Minute)

	state := s.Issue()
	assert.True(t, s.Consume(state))
	assert.False(t, s.Consume(state), "state is single use")
	assert.False(t, s.Consume("never-issued"))
}

func TestStateStore_Expiry(t *testing.T) {
	s := NewStateStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	state := s.Issue()
	now = now.Add(2 * time.Minute)
	assert.False(t, s.Consume(state))

	s.Issue()
	s.Issue()
	now = now.Add(2 * time.Minute)
	s.Issue()
	assert.Equal(t, 1, s.Len(), "issuing sweeps expired states")
}

func newFakeProvider(t *testing.T, tokenStatus int, profile string) *Provider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if tokenStatus != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		assert.Equal(t, "good-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profile))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	p := NewProvider(ProviderConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://quran.example.com/auth/callback",
		AuthURL:      server.URL + "/authorize",
		TokenURL:     server.URL + "/token",
		UserInfoURL:  server.URL + "/userinfo",
		Scopes:       []string{"openid", "email"},
	})
	p.httpClient = server.Client()
	return p
}

func TestProvider_LoginURL(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, `{}`)

	u, err := url.Parse(p.LoginURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "https://quran.example.com/auth/callback", u.Query().Get("redirect_uri"))
	assert.Equal(t, "google", p.Name())
}

func TestProvider_Exchange(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK,
		`{"sub":"1234","email":"reader@example.com","name":"Reader","picture":"https://img/p.png"}`)

	profile, err := p.Exchange(t.Context(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, &Profile{Subject: "1234", Email: "reader@example.com", Name: "Reader", Picture: "https://img/p.png"}, profile)
}

func TestProvider_ExchangeRejected(t *testing.T) {
	p := newFakeProvider(t, http.StatusBadRequest, `{}`)

	_, err := p.Exchange(t.Context(), "bad-code")
	assert.ErrorIs(t, err, ErrSignInFailed)
}

func TestProvider_ProfileWithoutSubject(t *testing.T) {
	p := newFakeProvider(t, http.StatusOK, `{"email":"x@example.com"}`)

	_, err := p.Exchange(t.Context(), "good-code")
	assert.ErrorIs(t, err, ErrSignInFailed)
}
