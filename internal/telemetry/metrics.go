package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all the metric instruments for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// image pipeline
	UploadsTotal            metric.Int64Counter
	UploadBytesTotal        metric.Int64Counter
	TranscodeFallbacksTotal metric.Int64Counter
	CleanupFailuresTotal    metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
	// middlewares
	AuthWorkDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests: %w", err)
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request latency in ms"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration: %w", err)
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	uploadsTotal, err := meter.Int64Counter(
		"image_uploads",
		metric.WithDescription("Total number of images stored"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create image_uploads: %w", err)
	}

	uploadBytesTotal, err := meter.Int64Counter(
		"image_upload_bytes",
		metric.WithDescription("Total bytes sent to the object store"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create image_upload_bytes: %w", err)
	}

	transcodeFallbacksTotal, err := meter.Int64Counter(
		"transcode_fallbacks",
		metric.WithDescription("Uploads stored as original bytes because re-encoding failed"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcode_fallbacks: %w", err)
	}

	cleanupFailuresTotal, err := meter.Int64Counter(
		"object_cleanup_failures",
		metric.WithDescription("Best-effort object deletes that failed (orphaned objects)"),
		metric.WithUnit("{delete}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create object_cleanup_failures: %w", err)
	}

	rateLimitHitsTotal, err := meter.Int64Counter(
		"rate_limit_hits",
		metric.WithDescription("Number of rate limiter blocked requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit_hits: %w", err)
	}

	authWorkDuration, err := meter.Float64Histogram(
		"auth_work_duration",
		metric.WithDescription("real time spent on DB/Bcrypt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_work_duration: %w", err)
	}

	return &Metrics{
		HTTPRequestsTotal:       httpRequestsTotal,
		HTTPRequestDuration:     httpRequestDuration,
		HTTPActiveRequests:      httpActiveRequests,
		UploadsTotal:            uploadsTotal,
		UploadBytesTotal:        uploadBytesTotal,
		TranscodeFallbacksTotal: transcodeFallbacksTotal,
		CleanupFailuresTotal:    cleanupFailuresTotal,
		RateLimitHitsTotal:      rateLimitHitsTotal,
		AuthWorkDuration:        authWorkDuration,
	}, nil
}
