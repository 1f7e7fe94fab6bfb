package middleware

import (
	"net/http"
	"time"

	"snapblog/internal/telemetry"
)

// SecureDelay pads auth responses out to a fixed floor so response
// timing does not reveal whether a username exists or how far password
// verification got.
func SecureDelay(floor time.Duration, metrics *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			elapsed := time.Since(start)
			metrics.AuthWorkDuration.Record(r.Context(), float64(elapsed.Milliseconds()))

			pad := floor - elapsed
			if pad <= 0 {
				return
			}

			timer := time.NewTimer(pad)
			defer timer.Stop()
			select {
			case <-r.Context().Done():
			case <-timer.C:
			}
		})
	}
}
