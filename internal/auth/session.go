package auth

import (
	"net/http"
	"time"
)

// SessionCookie carries the session token between client and server.
const SessionCookie = "access_token"

// Cookies sets and clears the session cookie. It never talks to the token
// manager: clearing the cookie does not revoke the token itself.
type Cookies struct {
	Secure bool
	TTL    time.Duration
}

// Set writes an HttpOnly, SameSite=Strict cookie whose max-age equals the
// token TTL.
func (c Cookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(c.TTL / time.Second),
	})
}

// Clear expires the session cookie on the client.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// TokenFromRequest returns the session token carried by r, or "".
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
