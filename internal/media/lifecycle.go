package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"snapblog/internal/storage"
	"snapblog/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Upload is the transient payload of one multipart file field. It is never
// persisted; only the public URL derived from it is.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

var (
	ErrNoFile       = errors.New("an image file is required")
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
)

// PostStore is the slice of the database store the lifecycle needs.
type PostStore interface {
	CreatePost(ctx context.Context, authorID int64, title, body, imageURL string) (*storage.Post, error)
	GetPostByID(ctx context.Context, id int64) (*storage.Post, error)
	UpdatePost(ctx context.Context, postID, authorID int64, title, body, imageURL string) (*storage.Post, error)
	DeletePost(ctx context.Context, postID, authorID int64) error
}

// Cleanup reports the outcome of a best-effort object delete. It is a
// separate return value rather than an error so that a failed cleanup can
// never be mistaken for a failed operation: callers inspect it for logging
// and nothing else.
type Cleanup struct {
	Key string
	Err error
}

func (c Cleanup) Attempted() bool { return c.Key != "" }
func (c Cleanup) Failed() bool    { return c.Err != nil }

// Lifecycle sequences the image pipeline around post mutations: transcode,
// upload, persist the returned URL, and clean up superseded objects only
// after the database write has committed.
type Lifecycle struct {
	objects  storage.ObjectStore
	posts    PostStore
	maxBytes int64
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewLifecycle(objects storage.ObjectStore, posts PostStore, maxUploadBytes int64, metrics *telemetry.Metrics, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		objects:  objects,
		posts:    posts,
		maxBytes: maxUploadBytes,
		metrics:  metrics,
		logger:   logger,
		tracer:   otel.Tracer("snapblog/media/lifecycle"),
	}
}

// MaxUploadBytes is the configured pre-transcode size limit.
func (l *Lifecycle) MaxUploadBytes() int64 { return l.maxBytes }

// CreatePost uploads the image and inserts the post row with the returned
// public URL. If the insert fails after a successful upload, the fresh
// object is deleted best-effort so it is not leaked.
func (l *Lifecycle) CreatePost(ctx context.Context, authorID int64, title, body string, up *Upload) (*storage.Post, error) {
	ctx, span := l.tracer.Start(ctx, "Lifecycle.CreatePost")
	defer span.End()

	key, url, err := l.stage(ctx, up)
	if err != nil {
		return nil, err
	}

	post, err := l.posts.CreatePost(ctx, authorID, title, body, url)
	if err != nil {
		span.RecordError(err)
		if delErr := l.objects.Delete(ctx, key); delErr != nil {
			l.logger.Error("could not remove object after failed insert", "key", key, "err", delErr)
		}
		return nil, fmt.Errorf("persisting post: %w", err)
	}

	l.logger.Info("post created", "post_id", post.ID, "author_id", authorID, "key", key)
	return post, nil
}

// UpdatePost replaces the post's image. The new object is uploaded first and
// title/body/URL are written in a single author-guarded statement; only once
// that write has succeeded is the old object deleted, best-effort, reported
// through the Cleanup result. If the new upload fails nothing is written and
// the post keeps its old image.
func (l *Lifecycle) UpdatePost(ctx context.Context, postID, authorID int64, title, body string, up *Upload) (*storage.Post, Cleanup, error) {
	ctx, span := l.tracer.Start(ctx, "Lifecycle.UpdatePost", trace.WithAttributes(attribute.Int64("post.id", postID)))
	defer span.End()

	existing, err := l.authorize(ctx, postID, authorID)
	if err != nil {
		return nil, Cleanup{}, err
	}

	key, url, err := l.stage(ctx, up)
	if err != nil {
		return nil, Cleanup{}, err
	}

	post, err := l.posts.UpdatePost(ctx, postID, authorID, title, body, url)
	if err != nil {
		span.RecordError(err)
		if delErr := l.objects.Delete(ctx, key); delErr != nil {
			l.logger.Error("could not remove object after failed update", "key", key, "err", delErr)
		}
		return nil, Cleanup{}, fmt.Errorf("persisting post: %w", err)
	}

	l.logger.Info("post updated", "post_id", post.ID, "author_id", authorID, "key", key)
	return post, l.discard(ctx, existing.ImageURL), nil
}

// DeletePost verifies ownership, removes the row, then attempts to remove
// the stored object. An orphaned object is an accepted failure mode; a row
// pointing at a deleted object is not, hence this ordering.
func (l *Lifecycle) DeletePost(ctx context.Context, postID, authorID int64) (Cleanup, error) {
	ctx, span := l.tracer.Start(ctx, "Lifecycle.DeletePost", trace.WithAttributes(attribute.Int64("post.id", postID)))
	defer span.End()

	existing, err := l.authorize(ctx, postID, authorID)
	if err != nil {
		return Cleanup{}, err
	}

	if err := l.posts.DeletePost(ctx, postID, authorID); err != nil {
		span.RecordError(err)
		return Cleanup{}, err
	}

	l.logger.Info("post deleted", "post_id", postID, "author_id", authorID)
	return l.discard(ctx, existing.ImageURL), nil
}

// authorize loads the post and hides other users' posts behind ErrNotFound.
func (l *Lifecycle) authorize(ctx context.Context, postID, authorID int64) (*storage.Post, error) {
	post, err := l.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != authorID {
		return nil, storage.ErrNotFound
	}
	return post, nil
}

// stage validates the upload, transcodes it and puts the result into the
// object store, returning the derived key and public URL.
func (l *Lifecycle) stage(ctx context.Context, up *Upload) (key, url string, err error) {
	if up == nil || len(up.Data) == 0 {
		return "", "", ErrNoFile
	}
	if int64(len(up.Data)) > l.maxBytes {
		return "", "", ErrFileTooLarge
	}

	ctx, span := l.tracer.Start(ctx, "Lifecycle.stage", trace.WithAttributes(
		attribute.String("upload.content_type", up.ContentType),
		attribute.Int("upload.size", len(up.Data)),
	))
	defer span.End()

	data, contentType, tErr := Transcode(up.Data, up.ContentType)
	if tErr != nil {
		// masked: the original bytes are uploaded instead
		l.metrics.TranscodeFallbacksTotal.Add(ctx, 1)
		l.logger.Warn("transcode failed, storing original", "filename", up.Filename, "err", tErr)
	}

	key = DeriveKey(up.Filename, time.Now().UTC())

	url, err = l.objects.Put(ctx, key, data, contentType)
	if err != nil {
		span.RecordError(err)
		return "", "", err
	}

	l.metrics.UploadsTotal.Add(ctx, 1)
	l.metrics.UploadBytesTotal.Add(ctx, int64(len(data)))

	return key, url, nil
}

// discard is the best-effort removal of a superseded object. Failures are
// reported in the Cleanup result and counted, never propagated.
func (l *Lifecycle) discard(ctx context.Context, imageURL *string) Cleanup {
	if imageURL == nil || *imageURL == "" {
		return Cleanup{}
	}

	key, ok := ExtractKey(*imageURL)
	if !ok {
		l.logger.Warn("storage key not recoverable from URL, skipping cleanup", "url", *imageURL)
		return Cleanup{}
	}

	err := l.objects.Delete(ctx, key)
	if err != nil {
		l.metrics.CleanupFailuresTotal.Add(ctx, 1)
	}

	return Cleanup{Key: key, Err: err}
}
