package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/HugoSmits86/nativewebp"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/storage"
)

// newTestImage draws a w×h gradient. With alpha=true the left half is fully
// transparent, which is what exercises the flatten path.
func newTestImage(w, h int, alpha bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if alpha && x < w/2 {
				a = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w, 1)),
				G: uint8(y * 255 / max(h, 1)),
				B: 128,
				A: a,
			})
		}
	}
	return img
}

// encodeTestImage serialises img with the standard encoder for format.
func encodeTestImage(t *testing.T, img image.Image, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatGIF:
		err = gif.Encode(&buf, img, nil)
	case FormatWEBP:
		err = nativewebp.Encode(&buf, img, nil)
	default:
		t.Fatalf("no test encoder for %q", format)
	}
	if err != nil {
		t.Fatalf("encoding %s test image: %v", format, err)
	}
	return buf.Bytes()
}

// memStore is an in-memory storage.Store. putHook, when set, runs before
// each Put and may block or fail it.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putHook func(ctx context.Context, ns storage.Namespace, name string) error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) key(ns storage.Namespace, name string) string {
	return string(ns) + "/" + name
}

func (m *memStore) Put(ctx context.Context, ns storage.Namespace, name string, data []byte, _ string) error {
	if m.putHook != nil {
		if err := m.putHook(ctx, ns, name); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[m.key(ns, name)] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Open(_ context.Context, ns storage.Namespace, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[m.key(ns, name)]
	if !ok {
		return nil, apperror.NotFound("image", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(_ context.Context, ns storage.Namespace, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, m.key(ns, name))
	return nil
}

func (m *memStore) get(ns storage.Namespace, name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[m.key(ns, name)]
	return data, ok
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
