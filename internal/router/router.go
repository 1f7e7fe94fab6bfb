package router

import (
	"log/slog"
	"net/http"
	"time"

	"snapblog/internal/config"
	"snapblog/internal/handlers"
	"snapblog/internal/middleware"
	"snapblog/internal/telemetry"

	"go.opentelemetry.io/otel/trace"
)

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg            *config.Config
	Logger         *slog.Logger
	BlogHandler    *handlers.BlogHandler
	Limiter        *middleware.IPRateLimiter
	AuthLimiter    *middleware.IPRateLimiter
	Tracer         trace.Tracer
	Metrics        *telemetry.Metrics
	MetricsHandler http.Handler
	Session        *middleware.Sessions
	CSRF           *middleware.CSRF
	CSP            *middleware.CSP
}

func NewRouter(deps RouterDependencies) http.Handler {
	// routing
	appMux := http.NewServeMux()

	// static files
	fs := http.FileServer(http.Dir("static"))
	appMux.Handle("GET /static/", http.StripPrefix("/static/", fs))

	authDelay := 500 * time.Millisecond
	authStack := func(h http.Handler) http.Handler {
		h = middleware.SecureDelay(authDelay, deps.Metrics)(h)
		h = deps.AuthLimiter.Middleware(deps.Logger)(h)
		return h
	}

	// auth
	appMux.Handle("GET /register", deps.BlogHandler.HandleRegisterPage())
	appMux.Handle("POST /register", authStack(deps.BlogHandler.HandleRegister()))
	appMux.Handle("GET /login", deps.BlogHandler.HandleLoginPage())
	appMux.Handle("POST /login", authStack(deps.BlogHandler.HandleLogin()))
	appMux.Handle("POST /logout", authStack(deps.BlogHandler.HandleLogout()))

	// posts
	appMux.Handle("GET /{$}", deps.BlogHandler.HandleIndex())
	appMux.Handle("GET /post/new", deps.BlogHandler.HandleNewPostPage())
	appMux.Handle("POST /post/new", deps.BlogHandler.HandleCreatePost())
	appMux.Handle("GET /post/{id}", deps.BlogHandler.HandlePost())
	appMux.Handle("GET /post/{id}/edit", deps.BlogHandler.HandleEditPostPage())
	appMux.Handle("POST /post/{id}/edit", deps.BlogHandler.HandleUpdatePost())
	appMux.Handle("POST /post/{id}/delete", deps.BlogHandler.HandleDeletePost())

	// comments
	appMux.Handle("POST /post/{id}/comment", authStack(deps.BlogHandler.HandleComment()))
	appMux.Handle("POST /post/{id}/comment/{commentID}/delete", authStack(deps.BlogHandler.HandleDeleteComment()))

	// static pages
	appMux.Handle("GET /about", deps.BlogHandler.HandlePage("about"))
	appMux.Handle("GET /privacy", deps.BlogHandler.HandlePage("privacy"))

	appMux.HandleFunc("/", deps.BlogHandler.NotFound)

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger),
	}

	if deps.Cfg.Metrics.EnableTelemetry {
		// order matters so don't append
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger))
	}

	middlewareStack = append(middlewareStack,
		deps.CSP.Middleware(),
		deps.Limiter.Middleware(deps.Logger),
		deps.Session.Middleware(deps.Logger, deps.Tracer),
		deps.CSRF.Middleware(deps.Logger),
		middleware.Logger(deps.Logger), // Inner logger (shows simple text logs)
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	if deps.MetricsHandler != nil {
		rootMux.Handle("GET /metrics", deps.MetricsHandler)
	} else {
		rootMux.Handle("GET /metrics", deps.BlogHandler.HandleStats())
	}

	// lightweight for docker keepalive
	rootMux.Handle("GET /healthz", deps.BlogHandler.HandleHealth())

	rootMux.Handle("/", appHandler)

	return rootMux
}
