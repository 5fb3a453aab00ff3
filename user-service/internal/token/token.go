// Package token issues and verifies the HS256 access tokens handed out at
// sign-in.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
)

const MinSecretLength = 32

var (
	ErrWeakSecret   = errors.New("jwt secret must be at least 32 bytes")
	ErrInvalidToken = apperr.Unauthorized("invalid token")
)

type Claims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for username carrying its authorities.
func (m *Manager) Issue(username string, authorities []string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := Claims{
		Authorities: authorities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies signature, algorithm and expiry.
func (m *Manager) Parse(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Validate checks an Authorization header locally, so the user service can
// guard its own routes with auth.Middleware.
func (m *Manager) Validate(_ context.Context, authorizationHeader string) (auth.ValidationResult, error) {
	raw, ok := strings.CutPrefix(authorizationHeader, auth.BearerPrefix)
	if !ok || strings.TrimSpace(raw) == "" {
		return auth.ValidationResult{}, apperr.Unauthorized("missing bearer token")
	}
	claims, err := m.Parse(strings.TrimSpace(raw))
	if err != nil {
		return auth.ValidationResult{}, err
	}
	return auth.ValidationResult{
		Valid:         true,
		PrincipalName: claims.Subject,
		Authorities:   claims.Authorities,
	}, nil
}
