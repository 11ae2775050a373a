package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/models"
)

const (
	generatedPasswordBytes = 12
	usernameSuffixLen      = 4
	base36                 = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GoogleLogin reconciles an identity asserted by the OAuth provider with the
// credential store. The assertion itself is trusted; verifying it is the
// provider SDK's job. Unknown emails get an account with a random password
// the user never sees. created reports whether an account was provisioned.
func (s *Service) GoogleLogin(ctx context.Context, req models.GoogleRequest) (token string, user *models.User, created bool, err error) {
	user, err = s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
	case apperr.Is(err, apperr.NotFound):
		user, err = s.provision(ctx, req)
		if apperr.Is(err, apperr.DuplicateEmail) {
			// Lost a race with a concurrent first login for the same email.
			user, err = s.users.FindByEmail(ctx, req.Email)
		} else {
			created = err == nil
		}
		if err != nil {
			return "", nil, false, err
		}
	default:
		return "", nil, false, err
	}

	token, err = s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, false, apperr.Wrap(apperr.Internal, "token issue failed", err)
	}
	return token, user, created, nil
}

func (s *Service) provision(ctx context.Context, req models.GoogleRequest) (*models.User, error) {
	password, err := randomHex(generatedPasswordBytes)
	if err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	suffix, err := randomBase36(usernameSuffixLen)
	if err != nil {
		return nil, err
	}

	avatar := req.Photo
	if avatar == "" {
		avatar = models.DefaultAvatar
	}

	return s.users.Create(ctx, &models.User{
		Username: DeriveUsername(req.Name) + suffix,
		Email:    req.Email,
		Password: hashed,
		Avatar:   avatar,
	})
}

// DeriveUsername lower-cases name and strips all whitespace.
func DeriveUsername(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomBase36(n int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36[idx.Int64()])
	}
	return sb.String(), nil
}
