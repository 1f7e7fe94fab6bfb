package middleware

import (
	"database/sql"
	"log/slog"
	"net/http"

	"snapblog/internal/config"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Sessions owns the server-side session state. Session data lives in
// the sessions table of the application database, so a restart does not
// log anyone out.
type Sessions struct {
	Manager *scs.SessionManager
}

// NewSessions builds the session manager from the auth config. secure
// controls the cookie Secure flag and should be true whenever the site
// is served over HTTPS.
func NewSessions(cfg config.AuthConfig, secure bool, db *sql.DB) *Sessions {
	mgr := scs.New()
	mgr.Lifetime = cfg.SessionTTL
	mgr.Store = sqlite3store.New(db)

	mgr.Cookie.Name = "snapblog_session"
	mgr.Cookie.HttpOnly = true
	mgr.Cookie.SameSite = http.SameSiteLaxMode
	mgr.Cookie.Secure = secure
	mgr.Cookie.Persist = true

	return &Sessions{Manager: mgr}
}

func (s *Sessions) Middleware(logger *slog.Logger, tracer trace.Tracer) Middleware {
	return func(next http.Handler) http.Handler {
		loadAndSave := s.Manager.LoadAndSave(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware.Session")
			defer span.End()
			span.SetAttributes(attribute.String("session.cookie", s.Manager.Cookie.Name))

			loadAndSave.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
