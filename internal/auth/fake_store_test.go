package auth

import (
	"context"
	"strconv"
	"sync"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/models"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	nextID  int
	findErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*models.User{}}
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "User not found!")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, apperr.New(apperr.DuplicateEmail, "Email already exists!")
	}
	m.nextID++
	cp := *u
	cp.ID = strconv.Itoa(m.nextID)
	m.byEmail[u.Email] = &cp
	out := cp
	return &out, nil
}
