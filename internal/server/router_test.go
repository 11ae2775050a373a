package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/auth"
	"github.com/ayush/estatehub/backend/internal/listing"
	"github.com/ayush/estatehub/backend/internal/logging"
	"github.com/ayush/estatehub/backend/internal/metrics"
	"github.com/ayush/estatehub/backend/internal/models"
	"github.com/ayush/estatehub/backend/internal/user"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	count int
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "User not found!")
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "User not found!")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, apperr.New(apperr.DuplicateEmail, "Email already exists!")
		}
	}
	m.count++
	cp := *u
	cp.ID = primitive.NewObjectID().Hex()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) UpdateByID(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "User not found!")
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.New(apperr.NotFound, "User not found!")
	}
	delete(m.byID, id)
	return nil
}

type memListings struct {
	mu    sync.Mutex
	items []*models.Listing
}

func (m *memListings) Insert(_ context.Context, l *models.Listing) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = primitive.NewObjectID()
	cp := *l
	m.items = append(m.items, &cp)
	return l, nil
}

func (m *memListings) GetByID(_ context.Context, id string) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.items {
		if l.ID.Hex() == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "Listing not found!")
}

func (m *memListings) Update(ctx context.Context, id string, l *models.Listing) (*models.Listing, error) {
	if _, err := m.GetByID(ctx, id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.items {
		if existing.ID.Hex() == id {
			l.ID = existing.ID
			cp := *l
			m.items[i] = &cp
		}
	}
	return l, nil
}

func (m *memListings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.items {
		if l.ID.Hex() == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return apperr.New(apperr.NotFound, "Listing not found!")
}

func (m *memListings) Search(_ context.Context, q listing.Query) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Listing{}
	for _, l := range m.items {
		out = append(out, *l)
	}
	return out, nil
}

func (m *memListings) ListByUser(_ context.Context, userRef string) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Listing{}
	for _, l := range m.items {
		if l.UserRef == userRef {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memListings) DeleteByUser(_ context.Context, userRef string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var n int64
	for _, l := range m.items {
		if l.UserRef == userRef {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.items = kept
	return n, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	users := &memUsers{byID: map[string]*models.User{}}
	listings := &memListings{}
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("router-test", time.Hour)
	cookies := auth.Cookies{TTL: tokens.TTL()}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := logging.Discard()

	srv := httptest.NewServer(NewRouter(Deps{
		Auth:     auth.NewHandler(auth.NewService(users, hasher, tokens), cookies, log),
		Users:    user.NewHandler(users, listings, hasher, cookies, user.Cleanup{}, log),
		Listings: listing.NewHandler(listings, users, nil, nil, m, log),
		Tokens:   tokens,
		Metrics:  m,
		Gatherer: reg,
	}))
	t.Cleanup(srv.Close)
	return srv
}

type session struct {
	t    *testing.T
	base string
	c    *http.Client
}

func newSession(t *testing.T, srv *httptest.Server) *session {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &session{t: t, base: srv.URL, c: &http.Client{Jar: jar}}
}

func (s *session) do(method, path string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.base+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.c.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err == nil && len(raw) > 0 && raw[0] == '{' {
		require.NoError(s.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func signedIn(t *testing.T, srv *httptest.Server, name string) (*session, string) {
	s := newSession(t, srv)
	email := name + "@example.com"
	code, _ := s.do(http.MethodPost, "/api/auth/signup", map[string]string{"username": name, "email": email, "password": "pw-" + name})
	require.Equal(t, http.StatusCreated, code)
	code, body := s.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": email, "password": "pw-" + name})
	require.Equal(t, http.StatusOK, code)
	return s, body["user"].(map[string]interface{})["_id"].(string)
}

func TestRouter_ProfileOwnership(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := signedIn(t, srv, "alice")
	_, bobID := signedIn(t, srv, "bob")

	code, body := alice.do(http.MethodPost, "/api/user/update/"+aliceID, map[string]string{"username": "alice2"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice2", body["username"])

	code, body = alice.do(http.MethodPost, "/api/user/update/"+bobID, map[string]string{"username": "pwned"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You can only update your own account", body["error"])
	assert.Equal(t, false, body["success"])

	code, body = alice.do(http.MethodGet, "/api/user/listings/"+bobID, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You can only view your own listings!", body["error"])

	code, body = alice.do(http.MethodGet, "/api/user/"+bobID, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bob", body["username"])
}

func TestRouter_GuardRejectsAnonymous(t *testing.T) {
	srv := newTestServer(t)
	anon := newSession(t, srv)

	code, body := anon.do(http.MethodPost, "/api/user/update/whatever", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized: No token provided", body["error"])

	code, _ = anon.do(http.MethodPost, "/api/listing/create", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = anon.do(http.MethodGet, "/api/listing/get", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_SignoutEndsSession(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := signedIn(t, srv, "alice")

	code, _ := alice.do(http.MethodGet, "/api/user/listings/"+aliceID, nil)
	require.Equal(t, http.StatusOK, code)

	code, body := alice.do(http.MethodGet, "/api/auth/signout", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User has been logged out successfully", body["message"])

	code, _ = alice.do(http.MethodGet, "/api/user/listings/"+aliceID, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func loftListing() map[string]interface{} {
	return map[string]interface{}{
		"name": "Loft", "description": "Bright", "address": "2 Main St",
		"regularPrice": 900, "bathrooms": 1, "bedrooms": 1,
		"furnished": false, "parking": true, "offer": false, "type": "rent",
		"imageUrls": []string{"https://img.example/loft.jpg"},
	}
}

func TestRouter_ListingLifecycle(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := signedIn(t, srv, "alice")
	bob, _ := signedIn(t, srv, "bob")

	code, created := alice.do(http.MethodPost, "/api/listing/create", loftListing())
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, aliceID, created["userRef"])
	id := created["_id"].(string)

	code, _ = bob.do(http.MethodDelete, "/api/listing/delete/"+id, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, got := bob.do(http.MethodGet, "/api/listing/get/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Loft", got["name"])

	code, _ = alice.do(http.MethodDelete, "/api/user/delete/"+aliceID, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = bob.do(http.MethodGet, "/api/listing/get/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouter_TokenOutlivingAccountCannotCreate(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := signedIn(t, srv, "alice")

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	saved := alice.c.Jar.Cookies(base)
	require.NotEmpty(t, saved)

	code, _ := alice.do(http.MethodDelete, "/api/user/delete/"+aliceID, nil)
	require.Equal(t, http.StatusOK, code)

	alice.c.Jar.SetCookies(base, saved)
	code, body := alice.do(http.MethodPost, "/api/listing/create", loftListing())
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Your account no longer exists", body["error"])

	assert.Empty(t, listingsOf(t, srv))
}

func listingsOf(t *testing.T, srv *httptest.Server) []map[string]interface{} {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/listing/get")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), `route="/health"`), buf.String())
}
