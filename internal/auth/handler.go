package auth

import (
	"net/http"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/httputil"
	"github.com/ayush/estatehub/backend/internal/logging"
	"github.com/ayush/estatehub/backend/internal/models"
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc     *Service
	cookies Cookies
	log     logging.Logger
}

func NewHandler(svc *Service, cookies Cookies, log logging.Logger) *Handler {
	return &Handler{svc: svc, cookies: cookies, log: log}
}

// Signup creates a new user.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		h.fail(w, r, "signup failed", err)
		return
	}

	h.log.Info(r.Context(), "user signed up", "user_id", user.ID)
	httputil.WriteMessage(w, http.StatusCreated, "User created successfully")
}

// Signin authenticates a user and sets the session cookie.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req models.SigninRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, user, err := h.svc.Signin(r.Context(), req)
	if err != nil {
		h.fail(w, r, "signin failed", err)
		return
	}

	h.cookies.Set(w, token)
	httputil.WriteJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// Google signs in (or provisions) the user asserted by the OAuth provider.
func (h *Handler) Google(w http.ResponseWriter, r *http.Request) {
	var req models.GoogleRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, user, created, err := h.svc.GoogleLogin(r.Context(), req)
	if err != nil {
		h.fail(w, r, "google login failed", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.log.Info(r.Context(), "user provisioned from oauth", "user_id", user.ID)
	}

	h.cookies.Set(w, token)
	httputil.WriteJSON(w, status, models.AuthResponse{Token: token, User: user})
}

// Signout clears the session cookie. Outstanding tokens stay valid until
// they expire.
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	httputil.WriteMessage(w, http.StatusOK, "User has been logged out successfully")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if apperr.KindOf(err) == apperr.Internal || apperr.KindOf(err) == apperr.Upstream {
		h.log.Error(r.Context(), msg, "error", err)
	}
	httputil.WriteError(w, err)
}
