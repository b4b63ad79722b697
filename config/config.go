package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      *DatabaseConfig // Optional: metrics persistence is enabled only when set
	Pipeline      PipelineConfig
	Model         ModelConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Metrics       MetricsConfig
	Observability ObservabilityConfig
	ProvidersFile string // Empty means the bundled provider directory
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// PipelineConfig holds the case pipeline switches, resolved once at startup
type PipelineConfig struct {
	EnableModelPath     bool
	EnableFallback      bool
	ConfidenceThreshold float64
	UrgencyThreshold    int
}

// ModelConfig holds the generative model client configuration
type ModelConfig struct {
	Provider    string // anthropic or openai
	ModelID     string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	MaxTokens   int
	Temperature float64
}

// AuthConfig holds service-token authentication settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// Enabled reports whether bearer tokens are required
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// RateLimitConfig holds the case submission rate limit. RPS of zero disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// MetricsConfig holds the asynchronous metric store settings
type MetricsConfig struct {
	BufferSize int
	Workers    int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// Supported model providers
const (
	ModelProviderAnthropic = "anthropic"
	ModelProviderOpenAI    = "openai"
)

// New loads .env when present, reads the environment and validates the result
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: envString("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            envString("SERVER_HOST", "0.0.0.0"),
			Port:            envValue(firstSet("PORT", "SERVER_PORT"), 8080, strconv.Atoi),
			ReadTimeout:     envValue("SERVER_READ_TIMEOUT", 30*time.Second, time.ParseDuration),
			WriteTimeout:    envValue("SERVER_WRITE_TIMEOUT", 90*time.Second, time.ParseDuration),
			ShutdownTimeout: envValue("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second, time.ParseDuration),
			AllowedOrigins:  envValue("CORS_ALLOWED_ORIGINS", []string{"*"}, parseList),
		},
		Database: loadDatabaseConfig(),
		Pipeline: PipelineConfig{
			EnableModelPath:     envValue("PIPELINE_ENABLE_MODEL", false, strconv.ParseBool),
			EnableFallback:      envValue("PIPELINE_ENABLE_FALLBACK", true, strconv.ParseBool),
			ConfidenceThreshold: envValue("PIPELINE_CONFIDENCE_THRESHOLD", 0.70, parseFloat),
			UrgencyThreshold:    envValue("PIPELINE_URGENCY_THRESHOLD", 2, strconv.Atoi),
		},
		Model: ModelConfig{
			Provider:    strings.ToLower(envString("MODEL_PROVIDER", ModelProviderAnthropic)),
			ModelID:     envString("MODEL_ID", ""),
			APIKey:      envString("MODEL_API_KEY", ""),
			BaseURL:     envString("MODEL_BASE_URL", ""),
			Timeout:     envValue("MODEL_TIMEOUT", 30*time.Second, time.ParseDuration),
			MaxRetries:  envValue("MODEL_MAX_RETRIES", 2, strconv.Atoi),
			RetryDelay:  envValue("MODEL_RETRY_DELAY", 500*time.Millisecond, time.ParseDuration),
			MaxTokens:   envValue("MODEL_MAX_TOKENS", 2000, strconv.Atoi),
			Temperature: envValue("MODEL_TEMPERATURE", 0.3, parseFloat),
		},
		Auth: AuthConfig{
			JWTSecret: envString("AUTH_JWT_SECRET", ""),
			Issuer:    envString("AUTH_JWT_ISSUER", ""),
		},
		RateLimit: RateLimitConfig{
			RPS:   envValue("RATE_LIMIT_RPS", 10.0, parseFloat),
			Burst: envValue("RATE_LIMIT_BURST", 20, strconv.Atoi),
		},
		Metrics: MetricsConfig{
			BufferSize: envValue("METRICS_BUFFER_SIZE", 10000, strconv.Atoi),
			Workers:    envValue("METRICS_WORKERS", 5, strconv.Atoi),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envString("LOG_LEVEL", "info"),
			LogFormat: envString("LOG_FORMAT", "json"),
		},
		ProvidersFile: envString("PROVIDERS_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate reports every setting that is missing or out of range, joined
// into one error
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	if db := c.Database; db != nil && db.ConnectionString == "" {
		check(db.User != "", "database user is required")
		check(db.Database != "", "database name is required")
	}

	check(c.Pipeline.ConfidenceThreshold >= 0 && c.Pipeline.ConfidenceThreshold <= 1,
		"confidence threshold must be between 0 and 1, got %v", c.Pipeline.ConfidenceThreshold)
	check(c.Pipeline.UrgencyThreshold >= 1 && c.Pipeline.UrgencyThreshold <= 5,
		"urgency threshold must be between 1 and 5, got %d", c.Pipeline.UrgencyThreshold)

	check(c.Model.Provider == ModelProviderAnthropic || c.Model.Provider == ModelProviderOpenAI,
		"unsupported model provider %q", c.Model.Provider)
	check(!c.Pipeline.EnableModelPath || c.Model.APIKey != "",
		"model API key is required when the model path is enabled")
	check(c.Model.MaxTokens > 0, "model max tokens must be positive")
	check(c.Model.Temperature >= 0 && c.Model.Temperature <= 1, "model temperature must be between 0 and 1")
	check(c.Model.MaxRetries >= 0, "model max retries cannot be negative")

	check(!c.IsProduction() || c.Auth.Enabled(), "auth JWT secret is required in production")

	check(c.RateLimit.RPS >= 0, "rate limit rps cannot be negative")
	check(c.RateLimit.RPS == 0 || c.RateLimit.Burst >= 1, "rate limit burst must be at least 1")

	check(c.Metrics.BufferSize > 0 && c.Metrics.Workers > 0, "metrics buffer size and workers must be positive")

	check(c.Observability.LogLevel != "", "log level is required")
	check(c.Observability.LogFormat == "json" || c.Observability.LogFormat == "console",
		"log format must be json or console, got %q", c.Observability.LogFormat)

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// DSN prefers DATABASE_URL and otherwise builds a key/value DSN for lib/pq
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// LogString describes the target database without credentials
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString == "" {
		return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
	}
	u, err := url.Parse(c.ConnectionString)
	if err != nil {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}

// loadDatabaseConfig returns nil unless DATABASE_URL or DB_HOST is set
func loadDatabaseConfig() *DatabaseConfig {
	db := &DatabaseConfig{
		MaxOpenConns:    envValue("DB_MAX_OPEN_CONNS", 10, strconv.Atoi),
		MaxIdleConns:    envValue("DB_MAX_IDLE_CONNS", 2, strconv.Atoi),
		ConnMaxLifetime: envValue("DB_CONN_MAX_LIFETIME", 5*time.Minute, time.ParseDuration),
	}

	if dbURL := envString("DATABASE_URL", ""); dbURL != "" {
		db.ConnectionString = dbURL
		return db
	}

	db.Host = envString("DB_HOST", "")
	if db.Host == "" {
		return nil
	}
	db.Port = envValue("DB_PORT", 5432, strconv.Atoi)
	db.User = envString("DB_USER", "")
	db.Password = envString("DB_PASSWORD", "")
	db.Database = envString("DB_NAME", "triage")
	db.SSLMode = envString("DB_SSLMODE", "disable")
	return db
}

func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// envValue parses key with parse. Unset, empty and unparseable values all
// yield fallback.
func envValue[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := parse(raw)
	if err != nil {
		return fallback
	}
	return value
}

// firstSet returns the first key with a non-empty value, or the last key
func firstSet(keys ...string) string {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return key
		}
	}
	return keys[len(keys)-1]
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// parseList splits a comma-separated value, dropping blank entries
func parseList(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("empty list")
	}
	return out, nil
}
