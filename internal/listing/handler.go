package listing

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/httputil"
	"github.com/ayush/estatehub/backend/internal/logging"
	"github.com/ayush/estatehub/backend/internal/middleware"
	"github.com/ayush/estatehub/backend/internal/models"
)

// Store defines the listing persistence the handlers need.
type Store interface {
	Insert(ctx context.Context, l *models.Listing) (*models.Listing, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	Update(ctx context.Context, id string, l *models.Listing) (*models.Listing, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q Query) ([]models.Listing, error)
}

// Cache holds search results keyed by Params.CacheKey. Get returns the
// slot a miss should be filled into; Set writes only to that slot, so a
// fill that races an Invalidate stays stale.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (slot string, hit bool, err error)
	Set(ctx context.Context, slot string, value interface{}) error
	Invalidate(ctx context.Context) error
}

// UserLookup resolves the caller before a listing is written.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ImageStore removes uploaded images that a listing no longer references.
type ImageStore interface {
	KeyFromURL(rawURL string) (string, bool)
	Remove(ctx context.Context, key string) error
}

// CacheRecorder counts cache lookups.
type CacheRecorder interface {
	CacheResult(result string)
}

// Handler holds listing HTTP handlers. cache, images and recorder may be nil.
type Handler struct {
	listings Store
	users    UserLookup
	cache    Cache
	images   ImageStore
	recorder CacheRecorder
	log      logging.Logger
}

func NewHandler(listings Store, users UserLookup, cache Cache, images ImageStore, recorder CacheRecorder, log logging.Logger) *Handler {
	return &Handler{listings: listings, users: users, cache: cache, images: images, recorder: recorder, log: log}
}

// Create stores a listing owned by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := h.caller(r)
	if err != nil {
		h.fail(w, r, "listing create failed", err)
		return
	}

	var req models.ListingRequest
	if err := decodeListing(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	l, err := h.listings.Insert(r.Context(), req.ToListing(userID))
	if err != nil {
		h.fail(w, r, "listing insert failed", err)
		return
	}

	h.invalidate(r.Context())
	h.log.Info(r.Context(), "listing created", "listing_id", l.ID.Hex(), "user_id", userID)
	httputil.WriteJSON(w, http.StatusCreated, l)
}

// Get returns a single listing.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "listing get failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

// Update replaces a listing's editable fields. Only the owner may update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.owned(r, id, "You can only update your own listings!")
	if err != nil {
		h.fail(w, r, "listing update failed", err)
		return
	}

	var req models.ListingRequest
	if err := decodeListing(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.listings.Update(r.Context(), id, req.ToListing(existing.UserRef))
	if err != nil {
		h.fail(w, r, "listing update failed", err)
		return
	}

	h.removeImages(r.Context(), droppedImages(existing.ImageURLs, updated.ImageURLs))
	h.invalidate(r.Context())
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// Delete removes a listing and its uploaded images. Only the owner may delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.owned(r, id, "You can only delete your own listings!")
	if err != nil {
		h.fail(w, r, "listing delete failed", err)
		return
	}

	if err := h.listings.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "listing delete failed", err)
		return
	}

	h.removeImages(r.Context(), existing.ImageURLs)
	h.invalidate(r.Context())
	httputil.WriteMessage(w, http.StatusOK, "Listing has been deleted!")
}

// Search returns one page of listings matching the query string.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := ParseParams(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var slot string
	if h.cache != nil {
		var cached []models.Listing
		var hit bool
		slot, hit, err = h.cache.Get(r.Context(), params.CacheKey(), &cached)
		switch {
		case err != nil:
			h.record("error")
			h.log.Warn(r.Context(), "search cache read failed", "error", err)
		case hit:
			h.record("hit")
			httputil.WriteJSON(w, http.StatusOK, cached)
			return
		default:
			h.record("miss")
		}
	}

	listings, err := h.listings.Search(r.Context(), params.Build())
	if err != nil {
		h.fail(w, r, "listing search failed", err)
		return
	}

	if slot != "" {
		if err := h.cache.Set(r.Context(), slot, listings); err != nil {
			h.log.Warn(r.Context(), "search cache write failed", "error", err)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, listings)
}

// caller returns the authenticated user's id once the account is known to
// exist. Session tokens outlive account deletion.
func (h *Handler) caller(r *http.Request) (string, error) {
	id := middleware.UserID(r.Context())
	if _, err := h.users.FindByID(r.Context(), id); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return "", apperr.Wrap(apperr.Forbidden, "Your account no longer exists", err)
		}
		return "", err
	}
	return id, nil
}

// owned loads listing id and checks the caller owns it.
func (h *Handler) owned(r *http.Request, id, msg string) (*models.Listing, error) {
	userID, err := h.caller(r)
	if err != nil {
		return nil, err
	}
	l, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if l.UserRef != userID {
		return nil, apperr.New(apperr.Forbidden, msg)
	}
	return l, nil
}

func decodeListing(w http.ResponseWriter, r *http.Request, req *models.ListingRequest) error {
	if err := httputil.DecodeJSON(w, r, req); err != nil {
		return err
	}
	return checkPricing(req)
}

// checkPricing enforces that an offer carries a discount below the regular
// price.
func checkPricing(req *models.ListingRequest) error {
	if !*req.Offer {
		return nil
	}
	if req.DiscountedPrice == nil {
		return apperr.New(apperr.Validation, "discountedPrice is required for offers")
	}
	if *req.DiscountedPrice >= *req.RegularPrice {
		return apperr.New(apperr.Validation, "Discount price must be lower than regular price")
	}
	return nil
}

func droppedImages(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, u := range after {
		keep[u] = true
	}
	var dropped []string
	for _, u := range before {
		if !keep[u] {
			dropped = append(dropped, u)
		}
	}
	return dropped
}

// removeImages deletes objects we host; failures are logged, not returned.
func (h *Handler) removeImages(ctx context.Context, urls []string) {
	if h.images == nil {
		return
	}
	for _, u := range urls {
		key, ok := h.images.KeyFromURL(u)
		if !ok {
			continue
		}
		if err := h.images.Remove(ctx, key); err != nil {
			h.log.Warn(ctx, "image remove failed", "key", key, "error", err)
		}
	}
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.log.Warn(ctx, "search cache invalidate failed", "error", err)
	}
}

func (h *Handler) record(result string) {
	if h.recorder != nil {
		h.recorder.CacheResult(result)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if k := apperr.KindOf(err); k == apperr.Internal || k == apperr.Upstream {
		h.log.Error(r.Context(), msg, "error", err)
	}
	httputil.WriteError(w, err)
}
