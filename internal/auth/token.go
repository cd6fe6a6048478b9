package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every reason a bearer token is rejected
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and validates HS256 access tokens. The first key
// signs; every key verifies.
type TokenManager struct {
	keys   [][]byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager. keys must hold at least one key.
func NewTokenManager(keys [][]byte, expiry time.Duration) *TokenManager {
	return &TokenManager{keys: keys, expiry: expiry, now: time.Now}
}

// Expiry returns the lifetime of issued tokens
func (m *TokenManager) Expiry() time.Duration {
	return m.expiry
}

// Issue signs a token with the username as subject
func (m *TokenManager) Issue(username string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates the token against each key in turn and returns the
// subject of the first key that verifies it.
func (m *TokenManager) Parse(tokenStr string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	for _, key := range m.keys {
		claims := &jwt.RegisteredClaims{}
		token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
				continue
			}
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if !token.Valid || claims.Subject == "" {
			return "", ErrInvalidToken
		}
		return claims.Subject, nil
	}
	return "", ErrInvalidToken
}
