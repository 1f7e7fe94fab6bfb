package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int
	Timeouts HTTPTimeoutsConfig
}

type RateLimiterConfig struct {
	RPS   int
	Burst int
	// stricter bucket for login/register and other abuse-prone endpoints
	AuthRPS   int
	AuthBurst int
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name        string
	Environment string // 'dev' | 'prod'
	PagesDir    string
}

type DBConfig struct {
	Path           string
	MigrationsPath string
}

type ProxyConfig struct {
	Trusted bool
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
}

type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
}

// S3Config describes the object store backing uploaded post images. When any
// of the required fields is empty the store is considered unconfigured and
// create/edit requests carrying an image fail fast.
type S3Config struct {
	Endpoint      string
	PublicBaseURL string // base for public object URLs: <base>/object/public/<bucket>/<key>
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
}

func (c S3Config) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Endpoint != "" && c.Bucket != ""
}

type UploadConfig struct {
	MaxBytes int64
}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Proxy   ProxyConfig
	HTTP    HTTPConfig
	Limiter RateLimiterConfig
	Logger  LoggerConfig
	Metrics TelemetryConfig
	Auth    AuthConfig
	S3      S3Config
	Upload  UploadConfig
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "Your blog",
			Environment: "prod",
			PagesDir:    "./pages",
		},
		DB: DBConfig{
			Path:           "snapblog.db",
			MigrationsPath: "./migrations",
		},
		Proxy: ProxyConfig{
			Trusted: true,
		},
		HTTP: HTTPConfig{
			Port: 3000,
			Timeouts: HTTPTimeoutsConfig{
				Read:     5 * time.Second,
				Write:    30 * time.Second,
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
		},
		Limiter: RateLimiterConfig{
			RPS:       20,
			Burst:     50,
			AuthRPS:   2,
			AuthBurst: 5,
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Metrics: TelemetryConfig{
			OtelEndpoint: "localhost:4318",
		},
		Auth: AuthConfig{
			SessionSecret: "very-secret-key-change-me-in-production",
			SessionTTL:    7 * 24 * time.Hour,
		},
		S3: S3Config{
			Region: "auto",
			Bucket: "snapblog",
		},
		Upload: UploadConfig{
			MaxBytes: 10 * 1024 * 1024,
		},
	}
}

func LoadWithDefaults() *Config {
	defaults := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", defaults.App.Name),
			Environment: getEnv("APP_ENV", defaults.App.Environment),
			PagesDir:    getEnv("APP_PAGES_DIR", defaults.App.PagesDir),
		},
		DB: DBConfig{
			Path:           getEnv("DB_PATH", defaults.DB.Path),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", defaults.DB.MigrationsPath),
		},
		Proxy: ProxyConfig{
			Trusted: getEnvAsBool("PROXY_TRUSTED", defaults.Proxy.Trusted),
		},
		HTTP: HTTPConfig{
			Port: getEnvAsInt("HTTP_PORT", defaults.HTTP.Port),
			Timeouts: HTTPTimeoutsConfig{
				Read:     getEnvAsDuration("HTTP_READ_TIMEOUT", defaults.HTTP.Timeouts.Read),
				Write:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", defaults.HTTP.Timeouts.Write),
				Idle:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", defaults.HTTP.Timeouts.Idle),
				Shutdown: getEnvAsDuration("HTTP_SHUTDOWN_DELAY", defaults.HTTP.Timeouts.Shutdown),
			},
		},
		Limiter: RateLimiterConfig{
			RPS:       getEnvAsInt("LIMITER_RPS", defaults.Limiter.RPS),
			Burst:     getEnvAsInt("LIMITER_BURST", defaults.Limiter.Burst),
			AuthRPS:   getEnvAsInt("LIMITER_AUTH_RPS", defaults.Limiter.AuthRPS),
			AuthBurst: getEnvAsInt("LIMITER_AUTH_BURST", defaults.Limiter.AuthBurst),
		},
		Logger: LoggerConfig{
			Level: getEnvAsLogLevel("LOGGER_LEVEL", defaults.Logger.Level),
		},
		Metrics: TelemetryConfig{
			EnableTelemetry: getEnvAsBool("ENABLE_TELEMETRY", false),
			OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaults.Metrics.OtelEndpoint),
		},
		Auth: AuthConfig{
			SessionSecret: getEnv("SESSION_SECRET", defaults.Auth.SessionSecret),
			SessionTTL:    getEnvAsDuration("SESSION_TTL", defaults.Auth.SessionTTL),
		},
		S3: S3Config{
			Endpoint:      getEnv("S3_ENDPOINT", defaults.S3.Endpoint),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", defaults.S3.PublicBaseURL),
			Region:        getEnv("S3_REGION", defaults.S3.Region),
			AccessKey:     getEnv("S3_ACCESS_KEY", defaults.S3.AccessKey),
			SecretKey:     getEnv("S3_SECRET_KEY", defaults.S3.SecretKey),
			Bucket:        getEnv("S3_BUCKET", defaults.S3.Bucket),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvAsInt64("UPLOAD_MAX_BYTES", defaults.Upload.MaxBytes),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsLogLevel(key string, fallback slog.Level) slog.Level {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	switch strings.ToLower(valueStr) {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := strings.ToLower(c.App.Environment); s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.DB.MigrationsPath == "" {
		return fmt.Errorf("DB_MIGRATIONS_PATH must not be empty")
	}
	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("HTTP_PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 30s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.Limiter.RPS <= 0 {
		return fmt.Errorf("LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	}
	if c.Limiter.Burst <= 0 {
		return fmt.Errorf("LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	}
	if c.Limiter.AuthRPS <= 0 {
		return fmt.Errorf("LIMITER_AUTH_RPS must be positive, got %d", c.Limiter.AuthRPS)
	}
	if c.Limiter.AuthBurst <= 0 {
		return fmt.Errorf("LIMITER_AUTH_BURST must be positive, got %d", c.Limiter.AuthBurst)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive (e.g., 168h), got %s", c.Auth.SessionTTL)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.S3.Configured() && c.S3.PublicBaseURL == "" {
		return fmt.Errorf("S3_PUBLIC_BASE_URL must be set when the object store is configured")
	}
	if c.App.Environment == "prod" {
		if c.Auth.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET must not be empty in production")
		}
		if c.Auth.SessionSecret == "very-secret-key-change-me-in-production" {
			return fmt.Errorf("SESSION_SECRET must be changed from default value for production")
		}
	}

	// c.Proxy.Trusted will default to true if not valid
	// c.Logger.Level will default to Info if not valid
	return nil
}
