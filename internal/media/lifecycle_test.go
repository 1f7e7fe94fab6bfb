package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"snapblog/internal/storage"
	"snapblog/internal/telemetry"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type putCall struct {
	key         string
	contentType string
	size        int
}

type fakeObjects struct {
	putErr error
	delErr error

	puts    []putCall
	deletes []string
}

func (f *fakeObjects) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts = append(f.puts, putCall{key: key, contentType: contentType, size: len(data)})
	return f.PublicURL(key), nil
}

func (f *fakeObjects) Delete(ctx context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return f.delErr
}

func (f *fakeObjects) PublicURL(key string) string {
	return "https://cdn.test/object/public/pics/" + key
}

type fakePosts struct {
	createErr error
	updateErr error
	deleteErr error

	existing *storage.Post

	createdURL string
	updatedURL string
	deleted    bool
}

func (f *fakePosts) CreatePost(ctx context.Context, authorID int64, title, body, imageURL string) (*storage.Post, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdURL = imageURL
	return &storage.Post{ID: 1, AuthorID: authorID, Title: title, Body: body, ImageURL: &imageURL}, nil
}

func (f *fakePosts) GetPostByID(ctx context.Context, id int64) (*storage.Post, error) {
	if f.existing == nil {
		return nil, storage.ErrNotFound
	}
	return f.existing, nil
}

func (f *fakePosts) UpdatePost(ctx context.Context, postID, authorID int64, title, body, imageURL string) (*storage.Post, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updatedURL = imageURL
	return &storage.Post{ID: postID, AuthorID: authorID, Title: title, Body: body, ImageURL: &imageURL}, nil
}

func (f *fakePosts) DeletePost(ctx context.Context, postID, authorID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = true
	return nil
}

const testMaxBytes = 10 * 1024 * 1024

func newTestLifecycle(t *testing.T, objects storage.ObjectStore, posts PostStore) *Lifecycle {
	t.Helper()

	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLifecycle(objects, posts, testMaxBytes, metrics, logger)
}

func smallUpload() *Upload {
	return &Upload{
		Data:        []byte("not really an image but small enough to pass through"),
		ContentType: "image/jpeg",
		Filename:    "pic.jpg",
	}
}

func TestCreatePostStoresURL(t *testing.T) {
	t.Parallel()

	objects := &fakeObjects{}
	posts := &fakePosts{}
	l := newTestLifecycle(t, objects, posts)

	post, err := l.CreatePost(context.Background(), 7, "title", "body", smallUpload())
	require.NoError(t, err)

	require.Len(t, objects.puts, 1)
	require.Equal(t, objects.PublicURL(objects.puts[0].key), posts.createdURL)
	require.NotNil(t, post.ImageURL)
	require.Equal(t, posts.createdURL, *post.ImageURL)
	require.Empty(t, objects.deletes)
}

func TestCreatePostRequiresFile(t *testing.T) {
	t.Parallel()

	objects := &fakeObjects{}
	posts := &fakePosts{}
	l := newTestLifecycle(t, objects, posts)

	tests := []struct {
		name string
		up   *Upload
	}{
		{name: "nil upload", up: nil},
		{name: "empty data", up: &Upload{Filename: "x.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreatePost(context.Background(), 7, "title", "body", tt.up)
			require.ErrorIs(t, err, ErrNoFile)
		})
	}

	require.Empty(t, objects.puts, "nothing may reach the store without a file")
	require.Empty(t, posts.createdURL)
}

func TestCreatePostRejectsOversizedFile(t *testing.T) {
	t.Parallel()

	objects := &fakeObjects{}
	posts := &fakePosts{}
	l := newTestLifecycle(t, objects, posts)

	up := &Upload{
		Data:        make([]byte, testMaxBytes+1),
		ContentType: "image/jpeg",
		Filename:    "huge.jpg",
	}

	_, err := l.CreatePost(context.Background(), 7, "title", "body", up)
	require.ErrorIs(t, err, ErrFileTooLarge)
	require.Empty(t, objects.puts)
}

func TestCreatePostUnconfiguredStore(t *testing.T) {
	t.Parallel()

	posts := &fakePosts{}
	l := newTestLifecycle(t, storage.Unconfigured{}, posts)

	_, err := l.CreatePost(context.Background(), 7, "title", "body", smallUpload())
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)
	require.Empty(t, posts.createdURL, "no row may be written when the upload never happened")
}

func TestCreatePostRollsBackObjectOnInsertFailure(t *testing.T) {
	t.Parallel()

	objects := &fakeObjects{}
	posts := &fakePosts{createErr: errors.New("insert failed")}
	l := newTestLifecycle(t, objects, posts)

	_, err := l.CreatePost(context.Background(), 7, "title", "body", smallUpload())
	require.Error(t, err)

	require.Len(t, objects.puts, 1)
	require.Equal(t, []string{objects.puts[0].key}, objects.deletes, "the orphaned object must be removed")
}

func existingPost(authorID int64, url string) *storage.Post {
	return &storage.Post{ID: 12, AuthorID: authorID, Title: "old", Body: "old", ImageURL: &url}
}

func TestUpdatePostReplacesImage(t *testing.T) {
	t.Parallel()

	oldURL := "https://cdn.test/object/public/pics/posts/111_old.jpg"
	objects := &fakeObjects{}
	posts := &fakePosts{existing: existingPost(7, oldURL)}
	l := newTestLifecycle(t, objects, posts)

	post, cleanup, err := l.UpdatePost(context.Background(), 12, 7, "new title", "new body", smallUpload())
	require.NoError(t, err)

	require.Len(t, objects.puts, 1)
	require.Equal(t, objects.PublicURL(objects.puts[0].key), posts.updatedURL)
	require.Equal(t, posts.updatedURL, *post.ImageURL)

	// the old object goes away exactly once and only after the DB write
	require.True(t, cleanup.Attempted())
	require.False(t, cleanup.Failed())
	require.Equal(t, "posts/111_old.jpg", cleanup.Key)
	require.Equal(t, []string{"posts/111_old.jpg"}, objects.deletes)
}

func TestUpdatePostCleanupFailureIsNotAnError(t *testing.T) {
	t.Parallel()

	oldURL := "https://cdn.test/object/public/pics/posts/111_old.jpg"
	objects := &fakeObjects{delErr: errors.New("remote hiccup")}
	posts := &fakePosts{existing: existingPost(7, oldURL)}
	l := newTestLifecycle(t, objects, posts)

	post, cleanup, err := l.UpdatePost(context.Background(), 12, 7, "t", "b", smallUpload())
	require.NoError(t, err, "a failed cleanup must never fail the edit")
	require.NotNil(t, post)
	require.True(t, cleanup.Failed())
	require.Equal(t, "posts/111_old.jpg", cleanup.Key)
}

func TestUpdatePostUploadFailureWritesNothing(t *testing.T) {
	t.Parallel()

	oldURL := "https://cdn.test/object/public/pics/posts/111_old.jpg"
	objects := &fakeObjects{putErr: storage.ErrUploadFailed}
	posts := &fakePosts{existing: existingPost(7, oldURL)}
	l := newTestLifecycle(t, objects, posts)

	_, cleanup, err := l.UpdatePost(context.Background(), 12, 7, "t", "b", smallUpload())
	require.ErrorIs(t, err, storage.ErrUploadFailed)
	require.Empty(t, posts.updatedURL, "the post must keep its old state")
	require.False(t, cleanup.Attempted(), "the old object must survive a failed upload")
	require.Empty(t, objects.deletes)
}

func TestUpdatePostWrongAuthor(t *testing.T) {
	t.Parallel()

	oldURL := "https://cdn.test/object/public/pics/posts/111_old.jpg"
	objects := &fakeObjects{}
	posts := &fakePosts{existing: existingPost(99, oldURL)}
	l := newTestLifecycle(t, objects, posts)

	_, _, err := l.UpdatePost(context.Background(), 12, 7, "t", "b", smallUpload())
	require.ErrorIs(t, err, storage.ErrNotFound, "ownership mismatch must look like a missing post")
	require.Empty(t, objects.puts)
}

func TestUpdatePostRollsBackNewObjectOnDBFailure(t *testing.T) {
	t.Parallel()

	oldURL := "https://cdn.test/object/public/pics/posts/111_old.jpg"
	objects := &fakeObjects{}
	posts := &fakePosts{existing: existingPost(7, oldURL), updateErr: errors.New("db down")}
	l := newTestLifecycle(t, objects, posts)

	_, cleanup, err := l.UpdatePost(context.Background(), 12, 7, "t", "b", smallUpload())
	require.Error(t, err)
	require.False(t, cleanup.Attempted())

	// the freshly uploaded object is removed, the old one is untouched
	require.Len(t, objects.puts, 1)
	require.Equal(t, []string{objects.puts[0].key}, objects.deletes)
}

func TestDeletePostRemovesRowThenObject(t *testing.T) {
	t.Parallel()

	oldURL := "https://cdn.test/object/public/pics/posts/111_old.jpg"
	objects := &fakeObjects{}
	posts := &fakePosts{existing: existingPost(7, oldURL)}
	l := newTestLifecycle(t, objects, posts)

	cleanup, err := l.DeletePost(context.Background(), 12, 7)
	require.NoError(t, err)
	require.True(t, posts.deleted)
	require.True(t, cleanup.Attempted())
	require.Equal(t, []string{"posts/111_old.jpg"}, objects.deletes)
}

func TestDeletePostDBErrorSkipsObject(t *testing.T) {
	t.Parallel()

	oldURL := "https://cdn.test/object/public/pics/posts/111_old.jpg"
	objects := &fakeObjects{}
	posts := &fakePosts{existing: existingPost(7, oldURL), deleteErr: storage.ErrNotFound}
	l := newTestLifecycle(t, objects, posts)

	_, err := l.DeletePost(context.Background(), 12, 7)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Empty(t, objects.deletes, "object must outlive a failed row delete")
}

func TestDeletePostUnrecoverableURL(t *testing.T) {
	t.Parallel()

	badURL := "https://elsewhere.example.com/files/unrelated.jpg"
	objects := &fakeObjects{}
	posts := &fakePosts{existing: existingPost(7, badURL)}
	l := newTestLifecycle(t, objects, posts)

	cleanup, err := l.DeletePost(context.Background(), 12, 7)
	require.NoError(t, err, "an unparseable URL must not fail the delete")
	require.False(t, cleanup.Attempted())
	require.Empty(t, objects.deletes)
}
