package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/auth"
	"github.com/ayush/estatehub/backend/internal/httputil"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenVerifier resolves a session token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth validates the session cookie and injects the user id into the
// request context. No cookie is 401; a bad or expired token is 403.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				httputil.WriteError(w, apperr.New(apperr.Unauthorized, "Unauthorized: No token provided"))
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				msg := "Unauthorized: Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Unauthorized: Token expired"
				}
				httputil.WriteError(w, apperr.Wrap(apperr.Forbidden, msg, err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// RequireSelf rejects the request with 403 unless the URL parameter param
// equals the authenticated user id. It must run after RequireAuth.
func RequireSelf(param, msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserID(r.Context()) != chi.URLParam(r, param) {
				httputil.WriteError(w, apperr.New(apperr.Forbidden, msg))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id, or "" outside RequireAuth.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
