package auth

import (
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

const (
	tokenIssuer   = "tilawah-server"
	tokenAudience = "tilawah-reader"
)

// ErrInvalidToken is returned for tokens that fail decryption or validation.
var ErrInvalidToken = domainerrors.Unauthorized("invalid or expired session token")

// TokenService issues and verifies PASETO v4.local session tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
	now          func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &TokenService{symmetricKey: symmetricKey, duration: duration, now: time.Now}, nil
}

// Duration returns the token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}

// Issue creates a token for session and returns it with its expiry.
func (s *TokenService) Issue(user *domain.User, sessionID string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.duration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)
	token.SetJti(sessionID)

	//nolint:errcheck // Set only fails for unmarshalable values
	_ = token.Set("user_id", user.ID)
	//nolint:errcheck // Set only fails for unmarshalable values
	_ = token.Set("session_id", sessionID)
	//nolint:errcheck // Set only fails for unmarshalable values
	_ = token.Set("email", user.Email)

	return token.V4Encrypt(s.symmetricKey, nil), expires, nil
}

// Verify decrypts tokenString and checks issuer, audience and validity window.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, ErrInvalidToken.WithCause(fmt.Errorf("parse claims: %w", err))
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
