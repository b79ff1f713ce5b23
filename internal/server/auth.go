package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OwnerHeader carries the owner id when no signing secret is configured.
const OwnerHeader = "X-Owner-ID"

var errUnauthorized = errors.New("unauthorized")

type ownerClaims struct {
	jwt.RegisteredClaims
}

// TokenAuth resolves the owner of a request from an HS256 bearer token.
type TokenAuth struct {
	secret []byte
}

// NewTokenAuth returns nil when secret is empty, which disables token checks.
func NewTokenAuth(secret string) *TokenAuth {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &TokenAuth{secret: []byte(secret)}
}

// IssueToken signs a token whose subject is ownerID.
func (a *TokenAuth) IssueToken(ownerID string, ttl time.Duration) (string, error) {
	if ownerID == "" {
		return "", fmt.Errorf("owner id is required")
	}
	now := time.Now()
	claims := ownerClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   ownerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseOwner validates tokenString and returns its subject.
func (a *TokenAuth) ParseOwner(tokenString string) (string, error) {
	var claims ownerClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", errUnauthorized)
	}
	return claims.Subject, nil
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
