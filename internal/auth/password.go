package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/estatehub/backend/internal/apperr"
)

// DefaultCost is the bcrypt work factor used at signup.
const DefaultCost = 12

// Hasher hashes and verifies passwords with bcrypt. The cost and salt are
// embedded in the hash string, so Verify needs nothing but the hash.
type Hasher struct {
	cost int
}

// NewHasher clamps cost to bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns the bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Wrap(apperr.Validation, "password must be at most 72 bytes", err)
	}
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a
// mismatch, not an error.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
