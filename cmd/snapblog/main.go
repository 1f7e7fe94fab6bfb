package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"snapblog/internal/config"
	"snapblog/internal/content"
	"snapblog/internal/handlers"
	"snapblog/internal/media"
	"snapblog/internal/middleware"
	"snapblog/internal/router"
	"snapblog/internal/storage"
	"snapblog/internal/storage/sqlite"
	"snapblog/internal/telemetry"
	"snapblog/internal/views"
)

const serviceVersion = "0.3.0"

type App struct {
	Server *http.Server
	Logger *slog.Logger
	Config *config.Config
}

func NewApp(cfg *config.Config, logger *slog.Logger, handler http.Handler) *App {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
	}

	return &App{
		Server: server,
		Logger: logger,
		Config: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	select {
	case err := <-srvErrChan:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	// attempt clean shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		// graceful shutdown timed out
		if closeErr := a.Server.Close(); closeErr != nil {
			// both failed. Return combined error.
			return fmt.Errorf("graceful shutdown failed: %w", errors.Join(err, closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

func main() {
	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	stderr := os.Stderr
	logHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", cfg.App.Name)

	logger.Info("application starting", "pid", os.Getpid())
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db", cfg.DB.Path,
		"rate_limit_rps", cfg.Limiter.RPS,
		"trusted_proxy", cfg.Proxy.Trusted,
		"object_store", cfg.S3.Configured(),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(rootCtx, cfg.App.Name, serviceVersion, cfg.App.Environment, cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		logger.Error("telemetry init", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown", "err", err)
		}
	}()

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		logger.Error("metrics init", "err", err)
		os.Exit(1)
	}

	// database
	db, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		logger.Error("opening database", "path", cfg.DB.Path, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(cfg.DB.MigrationsPath); err != nil {
		logger.Error("running migrations", "err", err)
		os.Exit(1)
	}

	// object store and the image lifecycle on top of it
	objects := storage.NewObjectStore(cfg.S3)
	if !cfg.S3.Configured() {
		logger.Warn("object store not configured, image uploads will be rejected")
	}
	lifecycle := media.NewLifecycle(objects, db, cfg.Upload.MaxBytes, metrics, logger)

	// content rendering
	renderer := content.NewMarkDownRenderer()
	pages := content.NewPages(renderer)
	if err := pages.LoadDir(cfg.App.PagesDir); err != nil {
		logger.Error("loading pages", "dir", cfg.App.PagesDir, "err", err)
		os.Exit(1)
	}

	v, err := views.New()
	if err != nil {
		logger.Error("parsing templates", "err", err)
		os.Exit(1)
	}

	isProd := cfg.App.Environment == "prod"

	sessions := middleware.NewSessions(cfg.Auth, isProd, db.RawDB())
	limiter := middleware.NewIPRateLimiter(rootCtx,
		middleware.RateLimit{PerSecond: cfg.Limiter.RPS, Burst: cfg.Limiter.Burst},
		cfg.Proxy.Trusted, metrics)
	authLimiter := middleware.NewIPRateLimiter(rootCtx,
		middleware.RateLimit{PerSecond: cfg.Limiter.AuthRPS, Burst: cfg.Limiter.AuthBurst},
		cfg.Proxy.Trusted, metrics)
	csrf := middleware.NewCSRF(isProd)
	csp := middleware.NewCSP(isProd, cfg.S3.PublicBaseURL)

	blogHandler := handlers.NewBlogHandler(db, lifecycle, renderer, pages, v, sessions, cfg.App.Name, logger)

	var metricsHandler http.Handler
	if cfg.Metrics.EnableTelemetry {
		metricsHandler = tel.PrometheusHandler
	}

	mux := router.NewRouter(router.RouterDependencies{
		Cfg:            cfg,
		Logger:         logger,
		BlogHandler:    blogHandler,
		Limiter:        limiter,
		AuthLimiter:    authLimiter,
		Tracer:         tel.Tracer,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
		Session:        sessions,
		CSRF:           csrf,
		CSP:            csp,
	})

	app := NewApp(cfg, logger, mux)

	// run the app with context
	if err := app.Run(rootCtx); err != nil {
		logger.Error("server crashed", "err", err)
		os.Exit(1)
	}

	logger.Info("application exited successfully")
}
