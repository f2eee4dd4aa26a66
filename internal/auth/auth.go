// Package auth mints and verifies the short-lived HS256 tokens the bot uses
// to call the inventory API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is the iss claim of every service token.
	Issuer = "retailbot"

	// MaxTTL caps token lifetime.
	MaxTTL = 5 * time.Minute

	// refreshMargin is how long before expiry a cached token is replaced.
	refreshMargin = 30 * time.Second
)

var (
	// ErrMissingToken is returned when no bearer token is present.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenIssuer mints tokens for one subject and caches the current one.
type TokenIssuer struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenIssuer creates an issuer. A ttl outside (0, MaxTTL] is clamped to MaxTTL.
func NewTokenIssuer(secret, subject string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 || ttl > MaxTTL {
		ttl = MaxTTL
	}
	return &TokenIssuer{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Token returns a valid signed token, reusing the cached one until it is
// close to expiring.
func (i *TokenIssuer) Token() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if i.token != "" && now.Add(refreshMargin).Before(i.expires) {
		return i.token, nil
	}

	expires := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   i.subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	i.token, i.expires = signed, expires
	return signed, nil
}

// Verify parses a token and checks signature, issuer and expiry. It returns
// the token's subject.
func Verify(secret, tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) > MaxTTL {
		return "", fmt.Errorf("%w: lifetime exceeds %s", ErrInvalidToken, MaxTTL)
	}
	return claims.Subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return parts[1], nil
}
