package middleware

import (
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
)

// CSRF enforces double-submit token validation on every state-changing
// request. Templates read the per-request token via nosurf.Token.
type CSRF struct {
	secureCookie bool
}

func NewCSRF(isProd bool) *CSRF {
	return &CSRF{secureCookie: isProd}
}

func (c *CSRF) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		guard := nosurf.New(next)

		guard.SetBaseCookie(http.Cookie{
			Path:     "/",
			HttpOnly: true,
			Secure:   c.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})

		guard.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("rejected request with bad CSRF token", "method", r.Method, "path", r.URL.Path)
			http.Error(w, "invalid CSRF token", http.StatusBadRequest)
		}))

		return guard
	}
}
