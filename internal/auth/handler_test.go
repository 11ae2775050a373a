package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/estatehub/backend/internal/httputil"
	"github.com/ayush/estatehub/backend/internal/logging"
	"github.com/ayush/estatehub/backend/internal/models"
)

func newTestHandler() (*Handler, *Service) {
	svc := newTestService(newMemUsers())
	return NewHandler(svc, Cookies{TTL: time.Hour}, logging.Discard()), svc
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func TestHandler_SignupThenSignin(t *testing.T) {
	h, svc := newTestHandler()

	rec := post(h.Signup, `{"username":"ann","email":"ann@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"User created successfully"}`, rec.Body.String())
	assert.Nil(t, sessionCookie(rec), "signup does not sign in")

	rec = post(h.Signin, `{"email":"ann@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ann", resp.User.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, resp.Token, c.Value)
	id, err := svc.Tokens().Verify(c.Value)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, id)
}

func TestHandler_SignupErrors(t *testing.T) {
	h, _ := newTestHandler()
	require.Equal(t, http.StatusCreated, post(h.Signup, `{"username":"ann","email":"ann@example.com","password":"pw"}`).Code)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"duplicate", `{"username":"x","email":"ann@example.com","password":"pw"}`, http.StatusBadRequest, "Email already exists!"},
		{"bad email", `{"username":"x","email":"ann","password":"pw"}`, http.StatusBadRequest, "Invalid email format!"},
		{"missing password", `{"username":"x","email":"x@example.com"}`, http.StatusBadRequest, "password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.Signup, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			var env httputil.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tt.status, env.StatusCode)
			assert.Equal(t, tt.msg, env.Error)
		})
	}
}

func TestHandler_SigninErrors(t *testing.T) {
	h, _ := newTestHandler()
	require.Equal(t, http.StatusCreated, post(h.Signup, `{"username":"ann","email":"ann@example.com","password":"pw"}`).Code)

	rec := post(h.Signin, `{"email":"ann@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials!")
	assert.Nil(t, sessionCookie(rec))

	rec = post(h.Signin, `{"email":"nobody@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found!")
}

func TestHandler_Google(t *testing.T) {
	h, _ := newTestHandler()
	body := `{"name":"Jane Doe","email":"jane@example.com","photo":"https://img.example/j.png"}`

	rec := post(h.Google, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, sessionCookie(rec))

	rec = post(h.Google, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sessionCookie(rec))
}

func TestHandler_Signout(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.Signout(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User has been logged out successfully")
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
}
