package storage

import (
	"context"
	"errors"
	"testing"

	"snapblog/internal/config"
)

func testS3Config() config.S3Config {
	return config.S3Config{
		Endpoint:      "http://localhost:3900",
		PublicBaseURL: "https://cdn.example.com",
		Region:        "garage",
		AccessKey:     "GK1234",
		SecretKey:     "secret",
		Bucket:        "snapblog",
	}
}

func TestNewObjectStoreSelectsVariant(t *testing.T) {
	t.Parallel()

	if _, ok := NewObjectStore(testS3Config()).(*BlobStore); !ok {
		t.Error("full config must yield a BlobStore")
	}

	partial := testS3Config()
	partial.SecretKey = ""
	if _, ok := NewObjectStore(partial).(Unconfigured); !ok {
		t.Error("missing credentials must yield the Unconfigured store")
	}

	if _, ok := NewObjectStore(config.S3Config{}).(Unconfigured); !ok {
		t.Error("empty config must yield the Unconfigured store")
	}
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{
			name: "nominal",
			base: "https://cdn.example.com",
			key:  "posts/1700000000000_sunset.jpg",
			want: "https://cdn.example.com/object/public/snapblog/posts/1700000000000_sunset.jpg",
		},
		{
			name: "trailing slash on base trimmed",
			base: "https://cdn.example.com/",
			key:  "posts/a.png",
			want: "https://cdn.example.com/object/public/snapblog/posts/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testS3Config()
			cfg.PublicBaseURL = tt.base
			store := NewBlobStore(cfg)

			if got := store.PublicURL(tt.key); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnconfiguredStore(t *testing.T) {
	t.Parallel()

	store := Unconfigured{}
	ctx := context.Background()

	if _, err := store.Put(ctx, "k", []byte("data"), "image/jpeg"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Put: got %v, want %v", err, ErrStoreUnavailable)
	}
	if err := store.Delete(ctx, "k"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Delete: got %v, want %v", err, ErrStoreUnavailable)
	}
	if got := store.PublicURL("k"); got != "" {
		t.Errorf("PublicURL: got %q, want empty", got)
	}
}

func TestBlobStorePutEmptyKey(t *testing.T) {
	t.Parallel()

	store := NewBlobStore(testS3Config())
	if _, err := store.Put(context.Background(), "", []byte("data"), "image/jpeg"); !errors.Is(err, ErrUploadFailed) {
		t.Errorf("got %v, want %v", err, ErrUploadFailed)
	}
}
