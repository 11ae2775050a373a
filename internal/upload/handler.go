// Package upload accepts listing and avatar images and stores them in the
// object store. The returned URLs are what listings and profiles persist.
package upload

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/httputil"
	"github.com/ayush/estatehub/backend/internal/logging"
	"github.com/ayush/estatehub/backend/internal/middleware"
	"github.com/ayush/estatehub/backend/internal/models"
)

const (
	FormField    = "images"
	MaxFileBytes = 2 << 20
	sniffLen     = 512
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FileStore is the object store the images go to.
type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// Recorder counts upload outcomes.
type Recorder interface {
	UploadResult(outcome string)
}

// Response lists the stored image URLs in upload order.
type Response struct {
	URLs []string `json:"urls"`
}

type Handler struct {
	files    FileStore
	recorder Recorder
	log      logging.Logger
}

func NewHandler(files FileStore, recorder Recorder, log logging.Logger) *Handler {
	return &Handler{files: files, recorder: recorder, log: log}
}

// Images stores 1 to 6 images of at most 2 MiB each. A failed upload is
// reported to the caller and not retried; images already stored by the
// request are removed first.
func (h *Handler) Images(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, models.MaxImages*MaxFileBytes+(1<<20))
	if err := r.ParseMultipartForm(MaxFileBytes); err != nil {
		httputil.WriteError(w, apperr.Wrap(apperr.Validation, "Image upload failed (2 mb max per image)", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[FormField]
	switch {
	case len(files) == 0:
		httputil.WriteError(w, apperr.New(apperr.Validation, "at least one image is required"))
		return
	case len(files) > models.MaxImages:
		httputil.WriteError(w, apperr.New(apperr.Validation, "You can only upload 6 images per listing"))
		return
	}

	userID := middleware.UserID(r.Context())
	urls := make([]string, 0, len(files))
	keys := make([]string, 0, len(files))
	for _, fh := range files {
		key, url, err := h.store(r.Context(), userID, fh)
		if err != nil {
			h.record("error")
			if apperr.KindOf(err) == apperr.Upstream {
				h.log.Error(r.Context(), "image upload failed", "user_id", userID, "error", err)
			}
			h.rollback(r.Context(), keys)
			httputil.WriteError(w, err)
			return
		}
		h.record("ok")
		keys = append(keys, key)
		urls = append(urls, url)
	}

	httputil.WriteJSON(w, http.StatusCreated, Response{URLs: urls})
}

// rollback removes objects stored earlier in a failed request.
func (h *Handler) rollback(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := h.files.Remove(ctx, key); err != nil {
			h.log.Warn(ctx, "image rollback failed", "key", key, "error", err)
		}
	}
}

func (h *Handler) store(ctx context.Context, userID string, fh *multipart.FileHeader) (key, url string, err error) {
	if fh.Size > MaxFileBytes {
		return "", "", apperr.New(apperr.Validation, "Image upload failed (2 mb max per image)")
	}

	f, err := fh.Open()
	if err != nil {
		return "", "", apperr.Wrap(apperr.Validation, "unreadable upload", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", "", apperr.Wrap(apperr.Validation, "unreadable upload", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", "", apperr.New(apperr.Validation, "only jpeg, png, gif and webp images are accepted")
	}

	key = "images/" + userID + "/" + uuid.NewString() + ext
	url, err = h.files.Upload(ctx, key, io.MultiReader(bytes.NewReader(head), f), fh.Size, contentType)
	if err != nil {
		return "", "", apperr.Wrap(apperr.Upstream, "Image upload failed", err)
	}
	return key, url, nil
}

func (h *Handler) record(outcome string) {
	if h.recorder != nil {
		h.recorder.UploadResult(outcome)
	}
}
