// Package token issues and verifies the signed session tokens that prove an
// authenticated identity. Tokens are stateless: validity is determined solely
// by signature and expiry, so a token cannot be revoked before it expires.
package token

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of an issued session token.
const DefaultTTL = time.Hour

// ErrInvalid is returned by Verify for any token that does not authorize a
// user: bad signature, wrong algorithm, expired, malformed, missing subject.
var ErrInvalid = errors.New("invalid token")

// Manager signs and verifies session tokens with a process-wide secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    DefaultTTL,
	}
}

// Issue signs a token asserting the given user identity, expiring after the
// manager's TTL.
func (m *Manager) Issue(userID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Verify checks signature and expiry and returns the asserted user ID.
// Every failure mode collapses to ErrInvalid so callers can treat the result
// as a plain "not authenticated" without inspecting causes.
func (m *Manager) Verify(tokenString string) (int, error) {
	claims := jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrInvalid
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrInvalid
	}
	return userID, nil
}
