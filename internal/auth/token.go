package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims binds a bearer token to one session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs an HS256 token for sessionID valid for ttl.
func IssueSessionToken(secret, sessionID string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, exp, nil
}

// ParseSessionToken verifies a token and returns the session it grants.
func ParseSessionToken(secret, token string) (string, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}
