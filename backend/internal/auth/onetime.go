// Package auth issues and verifies the one-time tokens that allow a response to carry
// stored credentials.
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

var (
	ErrMissingToken  = errors.New("missing one-time token")
	ErrInvalidToken  = errors.New("invalid one-time token")
	ErrExpiredToken  = errors.New("one-time token has expired")
	ErrTokenConsumed = errors.New("one-time token already used")
)

// scope is the only scope a one-time token is accepted for
const scope = "credentials:read"

// Claims are the claims of a one-time token
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// OneTimeTokens issues HS256 tokens that verify at most once
type OneTimeTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu   sync.Mutex
	used map[string]time.Time // token id -> expiry
}

// NewOneTimeTokens creates an issuer/verifier. An empty secret is rejected.
func NewOneTimeTokens(secret string, ttl time.Duration) (*OneTimeTokens, error) {
	if secret == "" {
		return nil, errors.New("one-time token secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("one-time token ttl must be positive, got %s", ttl)
	}
	return &OneTimeTokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		used:   make(map[string]time.Time),
	}, nil
}

// Issue signs a token for subject
func (o *OneTimeTokens) Issue(subject string) (string, error) {
	now := o.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(o.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(o.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign one-time token: %w", err)
	}
	return signed, nil
}

// Verify checks the token and consumes it. A second Verify of the same token fails.
func (o *OneTimeTokens) Verify(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method)
		}
		return o.secret, nil
	}, jwt.WithTimeFunc(o.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" || claims.Scope != scope {
		return nil, ErrInvalidToken
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.sweep()
	if _, seen := o.used[claims.ID]; seen {
		return nil, ErrTokenConsumed
	}
	o.used[claims.ID] = claims.ExpiresAt.Time
	return claims, nil
}

// Allows reports whether a request carrying token may see credentials
func (o *OneTimeTokens) Allows(token string) bool {
	if o == nil {
		return false
	}
	_, err := o.Verify(token)
	return err == nil
}

// sweep forgets consumed tokens that have expired anyway; callers hold mu
func (o *OneTimeTokens) sweep() {
	now := o.now()
	for id, exp := range o.used {
		if now.After(exp) {
			delete(o.used, id)
		}
	}
}
