package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"snapblog/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrStoreUnavailable means the object store was never configured at
	// startup (missing credentials/endpoint).
	ErrStoreUnavailable = errors.New("object store not configured")
	// ErrUploadFailed wraps any error reported by the remote store on put.
	ErrUploadFailed = errors.New("object upload failed")
)

// ObjectStore is the remote blob store holding post images. PublicURL is a
// pure derivation and never makes a network call.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type BlobStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	tracer        trace.Tracer
}

var _ ObjectStore = (*BlobStore)(nil)

// NewObjectStore returns a BlobStore when cfg carries credentials, otherwise
// the Unconfigured variant. The choice is made once here so request paths
// never need a nil check.
func NewObjectStore(cfg config.S3Config) ObjectStore {
	if !cfg.Configured() {
		return Unconfigured{}
	}
	return NewBlobStore(cfg)
}

func NewBlobStore(cfg config.S3Config) *BlobStore {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		),
		UsePathStyle: true,
	})

	return &BlobStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		tracer:        otel.Tracer("snapblog/storage/blob"),
	}
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key cannot be empty", ErrUploadFailed)
	}

	key = strings.TrimSpace(key)

	ctx, span := s.tracer.Start(ctx, "Blob.Put", trace.WithAttributes(
		attribute.String("blob.key", key),
		attribute.Int("blob.size", len(data)),
	))
	defer span.End()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	return s.PublicURL(key), nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "Blob.Delete", trace.WithAttributes(attribute.String("blob.key", key)))
	defer span.End()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		span.RecordError(err)
	}

	return err
}

// PublicURL composes the store's public URL path convention:
// <base>/object/public/<bucket>/<key>
func (s *BlobStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.publicBaseURL, s.bucket, key)
}

// Unconfigured stands in for the store when no credentials were supplied at
// startup. Every mutation fails with ErrStoreUnavailable.
type Unconfigured struct{}

var _ ObjectStore = Unconfigured{}

func (Unconfigured) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", ErrStoreUnavailable
}

func (Unconfigured) Delete(ctx context.Context, key string) error {
	return ErrStoreUnavailable
}

func (Unconfigured) PublicURL(key string) string {
	return ""
}
