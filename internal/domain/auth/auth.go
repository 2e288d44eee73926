// Package auth verifies bearer tokens presented by mobile clients.
// Tokens are HS256-signed JWTs whose subject carries the user id.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/respiguard/backend/pkg/errors"
)

// Config drives token verification.
type Config struct {
	Secret string
}

// Claims is the subset of token claims the rest of the app cares about.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Verifier validates bearer tokens.
type Verifier interface {
	Verify(token string) (Claims, error)
}

type verifier struct {
	cfg Config
}

// NewVerifier constructs a Verifier backed by a shared HS256 secret.
func NewVerifier(cfg Config) Verifier {
	return &verifier{cfg: cfg}
}

func (v *verifier) Verify(token string) (Claims, error) {
	if token == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(v.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing expiry", nil)
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		return Claims{}, apperrors.Wrap("invalid_token", "token expired", nil)
	}
	if claims.Subject == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing subject", nil)
	}
	return Claims{
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
