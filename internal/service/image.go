package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/media"
	"github.com/sakif/art-market/internal/repository"
	"github.com/sakif/art-market/internal/storage"
)

// Image is an open stored artifact. The caller closes Body.
type Image struct {
	Body        io.ReadCloser
	ContentType string
	Name        string
}

// ImageService serves stored originals and thumbnails.
type ImageService struct {
	products repository.ProductRepository
	store    storage.Store
}

func NewImageService(products repository.ProductRepository, store storage.Store) *ImageService {
	return &ImageService{products: products, store: store}
}

// ParseKind maps the URL segment ("original" or "thumbnail") to a namespace.
func ParseKind(kind string) (storage.Namespace, bool) {
	switch strings.ToLower(kind) {
	case "original":
		return storage.Originals, true
	case "thumbnail":
		return storage.Thumbnails, true
	}
	return "", false
}

// OpenProductOriginal opens the original upload of productID.
func (s *ImageService) OpenProductOriginal(ctx context.Context, productID string) (*Image, error) {
	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, storage.Originals, product.ImageRef)
}

// Open finds the artifact for artifactID in ns.
//
// Products only store the artifact ID, not its format, so each supported
// extension is tried in turn. IDs that are not UUIDs cannot have been issued
// by the ingestor and are reported as not found without touching storage.
func (s *ImageService) Open(ctx context.Context, ns storage.Namespace, artifactID string) (*Image, error) {
	if id, err := uuid.Parse(artifactID); err != nil || id.String() != artifactID {
		return nil, apperror.NotFound("image", artifactID)
	}

	for _, format := range media.Formats {
		name := media.ArtifactName(artifactID, ns, media.Extension(format))
		body, err := s.store.Open(ctx, ns, name)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("service/image: opening %s: %w", name, err)
		}
		return &Image{Body: body, ContentType: media.ContentType(format), Name: name}, nil
	}

	return nil, apperror.NotFound("image", artifactID)
}
