package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = time.Hour

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken means the signature checked out but the expiry passed.
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"_id"`
}

// TokenManager issues and verifies HS256 session tokens. Rotating the secret
// invalidates every outstanding token.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the token lifetime; the session cookie's max-age matches it.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue mints a token for userID expiring TTL from now.
func (m *TokenManager) Issue(userID string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID: userID,
	})
	return token.SignedString(m.secret)
}

// Verify returns the user id embedded in tokenString, or ErrInvalidToken /
// ErrExpiredToken.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
