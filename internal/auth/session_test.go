package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookies_Set(t *testing.T) {
	rec := httptest.NewRecorder()
	Cookies{Secure: true, TTL: time.Hour}.Set(rec, "tok")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookie, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, "/", c.Path)
}

func TestCookies_Clear(t *testing.T) {
	rec := httptest.NewRecorder()
	Cookies{TTL: time.Hour}.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "abc"})
	assert.Equal(t, "abc", TokenFromRequest(req))
}
