package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/art-market/internal/apperror"
)

// fakeS3 records calls and keeps objects in memory.
type fakeS3 struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	getErr       error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + ":" + aws.ToString(in.Key)
	f.objects[key] = data
	f.contentTypes[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+":"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+":"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_Keys(t *testing.T) {
	fake := newFakeS3()
	s := newS3Store(fake, "art", "market")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Originals, "id_original.webp", []byte("o"), "image/webp"))
	require.NoError(t, s.Put(ctx, Thumbnails, "id_thumbnail.webp", []byte("t"), "image/webp"))

	assert.Contains(t, fake.objects, "art:market/originals/id_original.webp")
	assert.Contains(t, fake.objects, "art:market/thumbnails/id_thumbnail.webp")
	assert.Equal(t, "image/webp", fake.contentTypes["art:market/originals/id_original.webp"])
}

func TestS3Store_OpenAndDelete(t *testing.T) {
	fake := newFakeS3()
	s := newS3Store(fake, "art", "")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Thumbnails, "x_thumbnail.jpg", []byte("jpeg bytes"), "image/jpeg"))

	rc, err := s.Open(ctx, Thumbnails, "x_thumbnail.jpg")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "jpeg bytes", string(got))

	require.NoError(t, s.Delete(ctx, Thumbnails, "x_thumbnail.jpg"))

	_, err = s.Open(ctx, Thumbnails, "x_thumbnail.jpg")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestS3Store_OpenErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"head not found", &types.NotFound{}, true},
		{"access denied", errors.New("access denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeS3()
			fake.getErr = tt.err
			s := newS3Store(fake, "art", "")

			_, err := s.Open(context.Background(), Originals, "a_original.png")
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, apperror.ErrNotFound))
		})
	}
}
