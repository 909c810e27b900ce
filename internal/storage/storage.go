// Package storage persists image artifacts.
//
// Two namespaces exist: originals and thumbnails. A Store maps
// (namespace, name) to bytes; names look like {artifactID}_{original|thumbnail}.{ext}.
// Backends: the local filesystem (default) and any S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sakif/art-market/internal/apperror"
)

// Namespace separates originals from thumbnails.
type Namespace string

const (
	Originals  Namespace = "originals"
	Thumbnails Namespace = "thumbnails"
)

// Store is the artifact persistence contract.
//
// Open returns an apperror NotFound when the object does not exist; callers
// close the returned reader.
type Store interface {
	Put(ctx context.Context, ns Namespace, name string, data []byte, contentType string) error
	Open(ctx context.Context, ns Namespace, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, ns Namespace, name string) error
}

// Provider names accepted by New.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Provider string
	LocalDir string
	S3       S3Config
}

// New builds the Store named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStore(cfg.LocalDir)
	case ProviderS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unknown provider %q", cfg.Provider)
	}
}

// checkName rejects names that could escape the namespace.
func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return apperror.ValidationFailed("name", fmt.Sprintf("invalid artifact name %q", name))
	}
	return nil
}
