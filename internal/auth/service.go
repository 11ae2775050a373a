package auth

import (
	"context"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/models"
)

// UserStore defines the credential persistence the auth flows need. Lookups
// of absent users return an apperr.NotFound error.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
}

// Service implements signup, sign-in and the OAuth bridge.
type Service struct {
	users  UserStore
	hasher *Hasher
	tokens *TokenManager
}

func NewService(users UserStore, hasher *Hasher, tokens *TokenManager) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Tokens exposes the token manager for the authorization guard.
func (s *Service) Tokens() *TokenManager { return s.tokens }

// Signup creates an account. It does not sign the user in.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	_, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, apperr.New(apperr.DuplicateEmail, "Email already exists!")
	case !apperr.Is(err, apperr.NotFound):
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	return s.users.Create(ctx, &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
		Avatar:   models.DefaultAvatar,
	})
}

// Signin checks the credentials and mints a session token.
func (s *Service) Signin(ctx context.Context, req models.SigninRequest) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if apperr.Is(err, apperr.NotFound) {
		return "", nil, apperr.Wrap(apperr.NotFound, "User not found!", err)
	}
	if err != nil {
		return "", nil, err
	}

	if !s.hasher.Verify(req.Password, user.Password) {
		return "", nil, apperr.New(apperr.InvalidCredentials, "Invalid credentials!")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "token issue failed", err)
	}
	return token, user, nil
}
