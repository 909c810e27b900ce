package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/service"
	"github.com/sakif/art-market/internal/storage"
)

type ImageService interface {
	OpenProductOriginal(ctx context.Context, productID string) (*service.Image, error)
	Open(ctx context.Context, ns storage.Namespace, artifactID string) (*service.Image, error)
}

// ImageHandler streams stored artifacts.
type ImageHandler struct {
	images ImageService
	logger *slog.Logger
}

func NewImageHandler(images ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{images: images, logger: logger}
}

// HandleProductPhoto serves a product's original upload.
//
// HTTP: GET /photos/{id}
func (h *ImageHandler) HandleProductPhoto(w http.ResponseWriter, r *http.Request) {
	img, err := h.images.OpenProductOriginal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.stream(w, img)
}

// HandleImage serves an artifact by ID.
//
// HTTP: GET /api/images/{kind}/{id}, kind is "original" or "thumbnail".
func (h *ImageHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	ns, ok := service.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, apperror.NotFound("image kind", chi.URLParam(r, "kind")))
		return
	}

	img, err := h.images.Open(r.Context(), ns, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.stream(w, img)
}

// Artifacts never change once written, so clients may cache them forever.
func (h *ImageHandler) stream(w http.ResponseWriter, img *service.Image) {
	defer img.Body.Close()

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, img.Body); err != nil {
		// Status is already sent; the client sees a truncated body.
		h.logger.Warn("image stream interrupted",
			slog.String("name", img.Name),
			slog.String("error", err.Error()),
		)
	}
}
