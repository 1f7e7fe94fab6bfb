package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"snapblog/internal/telemetry"

	"golang.org/x/time/rate"
)

// RateLimit is one token-bucket policy. The router keeps two limiters:
// a general one for page traffic and a much stricter one for the auth
// and comment endpoints.
type RateLimit struct {
	PerSecond int
	Burst     int
}

const (
	sweepInterval = 1 * time.Minute
	visitorIdle   = 3 * time.Minute
)

var ErrInvalidIP = errors.New("invalid IP")

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out a token bucket per client IP. Buckets idle
// for longer than visitorIdle are dropped by a background sweep.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	limit        RateLimit
	trustedProxy bool
	metrics      *telemetry.Metrics
}

func NewIPRateLimiter(ctx context.Context, limit RateLimit, trustedProxy bool, metrics *telemetry.Metrics) *IPRateLimiter {
	l := &IPRateLimiter{
		visitors:     make(map[string]*visitor),
		limit:        limit,
		trustedProxy: trustedProxy,
		metrics:      metrics,
	}

	go l.sweepLoop(ctx)
	return l
}

func (l *IPRateLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *IPRateLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, v := range l.visitors {
		if time.Since(v.lastSeen) > visitorIdle {
			delete(l.visitors, ip)
		}
	}
}

// bucketFor returns the token bucket for ip, creating one on first
// sight. The key is the canonical form so "::1" and "0:0::1" share a
// bucket.
func (l *IPRateLimiter) bucketFor(ip string) (*rate.Limiter, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, ErrInvalidIP
	}
	key := parsed.String()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{
			bucket:   rate.NewLimiter(rate.Limit(l.limit.PerSecond), l.limit.Burst),
			lastSeen: time.Now().UTC(),
		}
		l.visitors[key] = v
		return v.bucket, nil
	}

	v.lastSeen = time.Now().UTC()
	return v.bucket, nil
}

func (l *IPRateLimiter) resolveIP(r *http.Request) string {
	if l.trustedProxy {
		return forwardedClientIP(r)
	}
	return remoteAddrIP(r)
}

func (l *IPRateLimiter) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket, err := l.bucketFor(l.resolveIP(r))
			if err != nil {
				http.Error(w, "invalid ip address", http.StatusBadRequest)
				return
			}

			if !bucket.Allow() {
				// peek at the wait without consuming a token
				res := bucket.Reserve()
				wait := res.Delay()
				res.Cancel()

				l.metrics.RateLimitHitsTotal.Add(r.Context(), 1)

				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(wait.Seconds()))))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit.Burst))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(bucket.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}
