package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates the token failed validation. A malformed,
// tampered, mispurposed and expired token all surface identically so the
// verifier leaks nothing about why a token was refused.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenKind names the purpose a token was minted for. The verifier refuses a
// token presented for any purpose other than its own, so a password-reset
// token can never stand in for an API credential.
type TokenKind string

const (
	// TokenConfirm proves ownership of a freshly registered email address.
	TokenConfirm TokenKind = "confirm"
	// TokenReset authorizes a one-shot password replacement.
	TokenReset TokenKind = "reset"
	// TokenAPI is the stateless bearer credential for the API surface.
	TokenAPI TokenKind = "id"
	// TokenSession backs the browser session cookie.
	TokenSession TokenKind = "session"
)

// Default lifetimes per kind.
const (
	ConfirmTokenTTL  = time.Hour
	ResetTokenTTL    = time.Hour
	APITokenTTL      = 7 * 24 * time.Hour
	SessionTokenTTL  = 24 * time.Hour
	RememberTokenTTL = 30 * 24 * time.Hour
)

const tokenIssuer = "niceblog"

// Tokens mints and verifies stateless signed claim tokens using HS256. A
// single server-wide secret keys every token; rotating the secret invalidates
// all outstanding tokens at once. Nothing is persisted: signature plus the
// embedded expiry make each token self-invalidating.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// TokensOption configures a Tokens instance.
type TokensOption func(*Tokens)

// WithTokenClock overrides the time source. Only useful in tests.
func WithTokenClock(fn func() time.Time) TokensOption {
	return func(t *Tokens) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokens constructs a token issuer/verifier bound to secret.
func NewTokens(secret string, opts ...TokensOption) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	t := &Tokens{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type tokenClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Issue signs a token of the given kind for subject, valid for ttl.
func (t *Tokens) Issue(kind TokenKind, subject string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("auth: token subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be greater than zero")
	}

	now := t.now().UTC()
	claims := tokenClaims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and purpose of token and returns the
// subject it was minted for. Every failure is ErrInvalidToken.
func (t *Tokens) Verify(kind TokenKind, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Kind != string(kind) {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
