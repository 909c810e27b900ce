package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sakif/art-market/internal/apperror"
)

// compile-time check that *LocalStore implements Store
var _ Store = (*LocalStore)(nil)

// LocalStore keeps originals in root and thumbnails in root/thumbnails.
type LocalStore struct {
	root string
}

// NewLocalStore creates both directories if needed (like `mkdir -p`).
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		root = "uploads"
	}
	s := &LocalStore{root: root}
	for _, ns := range []Namespace{Originals, Thumbnails} {
		if err := os.MkdirAll(s.dir(ns), 0o755); err != nil {
			return nil, fmt.Errorf("storage: creating %s dir: %w", ns, err)
		}
	}
	return s, nil
}

func (s *LocalStore) dir(ns Namespace) string {
	if ns == Thumbnails {
		return filepath.Join(s.root, "thumbnails")
	}
	return s.root
}

// Path returns the file path for (ns, name).
func (s *LocalStore) Path(ns Namespace, name string) string {
	return filepath.Join(s.dir(ns), name)
}

// Put writes to a temp file in the target directory and renames it into place,
// so readers never observe a partially written artifact.
func (s *LocalStore) Put(_ context.Context, ns Namespace, name string, data []byte, _ string) error {
	if err := checkName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir(ns), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: closing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(ns, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: renaming %s: %w", name, err)
	}

	return nil
}

func (s *LocalStore) Open(_ context.Context, ns Namespace, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(ns, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NotFound("image", name)
		}
		return nil, fmt.Errorf("storage: opening %s: %w", name, err)
	}
	return f, nil
}

// Delete is idempotent: a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, ns Namespace, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(s.Path(ns, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: deleting %s: %w", name, err)
	}
	return nil
}
