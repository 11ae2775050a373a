// Package user serves profile management and the owner's listing index.
// Ownership of the {id} path parameter is checked by middleware.RequireSelf
// before these handlers run.
package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/auth"
	"github.com/ayush/estatehub/backend/internal/httputil"
	"github.com/ayush/estatehub/backend/internal/logging"
	"github.com/ayush/estatehub/backend/internal/models"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateByID(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	DeleteByID(ctx context.Context, id string) error
}

type ListingStore interface {
	ListByUser(ctx context.Context, userRef string) ([]models.Listing, error)
	DeleteByUser(ctx context.Context, userRef string) (int64, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Cleanup releases what a deleted account's listings referenced. Either
// field may be nil.
type Cleanup struct {
	Images interface {
		KeyFromURL(rawURL string) (string, bool)
		Remove(ctx context.Context, key string) error
	}
	Cache interface {
		Invalidate(ctx context.Context) error
	}
}

type Handler struct {
	users    UserStore
	listings ListingStore
	hasher   PasswordHasher
	cookies  auth.Cookies
	cleanup  Cleanup
	log      logging.Logger
}

func NewHandler(users UserStore, listings ListingStore, hasher PasswordHasher, cookies auth.Cookies, cleanup Cleanup, log logging.Logger) *Handler {
	return &Handler{users: users, listings: listings, hasher: hasher, cookies: cookies, cleanup: cleanup, log: log}
}

// Get returns the public profile of any user, e.g. a listing's landlord.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "user get failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// Update applies a partial profile update. A new password is hashed before
// it reaches the store.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	upd := models.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Avatar:   req.Avatar,
	}
	if req.Password != nil {
		hashed, err := h.hasher.Hash(*req.Password)
		if err != nil {
			h.fail(w, r, "password hash failed", err)
			return
		}
		upd.Password = &hashed
	}

	u, err := h.users.UpdateByID(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.fail(w, r, "user update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// Delete removes the account, its listings and their images, and clears
// the session cookie. Listings are removed before the account, so no listing
// outlives its owner.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.users.FindByID(ctx, id); err != nil {
		h.fail(w, r, "user delete failed", err)
		return
	}
	owned, err := h.listings.ListByUser(ctx, id)
	if err != nil {
		h.fail(w, r, "user delete failed", apperr.Wrap(apperr.Upstream, "Failed to delete listings", err))
		return
	}
	n, err := h.listings.DeleteByUser(ctx, id)
	if err != nil {
		h.fail(w, r, "user delete failed", apperr.Wrap(apperr.Upstream, "Failed to delete listings", err))
		return
	}
	if n > 0 {
		h.invalidate(ctx)
	}
	if err := h.users.DeleteByID(ctx, id); err != nil {
		h.fail(w, r, "user delete failed", err)
		return
	}
	h.log.Info(ctx, "user deleted", "user_id", id, "listings_removed", n)

	h.removeImages(ctx, owned)
	h.cookies.Clear(w)
	httputil.WriteMessage(w, http.StatusOK, "User deleted successfully")
}

// Listings returns every listing owned by the user.
func (h *Handler) Listings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListByUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "user listings failed", apperr.Wrap(apperr.Upstream, "Failed to fetch listings", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listings)
}

// removeImages is best effort: the listings are already gone.
func (h *Handler) removeImages(ctx context.Context, owned []models.Listing) {
	if h.cleanup.Images == nil {
		return
	}
	for _, l := range owned {
		for _, u := range l.ImageURLs {
			if key, ok := h.cleanup.Images.KeyFromURL(u); ok {
				if err := h.cleanup.Images.Remove(ctx, key); err != nil {
					h.log.Warn(ctx, "image remove failed", "key", key, "error", err)
				}
			}
		}
	}
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.cleanup.Cache == nil {
		return
	}
	if err := h.cleanup.Cache.Invalidate(ctx); err != nil {
		h.log.Warn(ctx, "search cache invalidate failed", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if k := apperr.KindOf(err); k == apperr.Internal || k == apperr.Upstream {
		h.log.Error(r.Context(), msg, "error", err)
	}
	httputil.WriteError(w, err)
}
