package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
				assert.Nil(t, cfg.Database)
				assert.False(t, cfg.Pipeline.EnableModelPath)
				assert.True(t, cfg.Pipeline.EnableFallback)
				assert.Equal(t, 0.70, cfg.Pipeline.ConfidenceThreshold)
				assert.Equal(t, 2, cfg.Pipeline.UrgencyThreshold)
				assert.Equal(t, ModelProviderAnthropic, cfg.Model.Provider)
				assert.Equal(t, 2000, cfg.Model.MaxTokens)
				assert.Equal(t, 0.3, cfg.Model.Temperature)
				assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
				assert.False(t, cfg.Auth.Enabled())
				assert.Equal(t, 10000, cfg.Metrics.BufferSize)
				assert.Equal(t, 5, cfg.Metrics.Workers)
				assert.Empty(t, cfg.ProvidersFile)
			},
		},
		{
			name: "model path enabled with openai",
			envVars: map[string]string{
				"PIPELINE_ENABLE_MODEL":         "true",
				"PIPELINE_ENABLE_FALLBACK":      "false",
				"PIPELINE_CONFIDENCE_THRESHOLD": "0.8",
				"PIPELINE_URGENCY_THRESHOLD":    "1",
				"MODEL_PROVIDER":                "OpenAI",
				"MODEL_ID":                      "gpt-4o",
				"MODEL_API_KEY":                 "sk-xxxxx",
				"MODEL_TIMEOUT":                 "10s",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Pipeline.EnableModelPath)
				assert.False(t, cfg.Pipeline.EnableFallback)
				assert.Equal(t, 0.8, cfg.Pipeline.ConfidenceThreshold)
				assert.Equal(t, 1, cfg.Pipeline.UrgencyThreshold)
				assert.Equal(t, ModelProviderOpenAI, cfg.Model.Provider)
				assert.Equal(t, "gpt-4o", cfg.Model.ModelID)
				assert.Equal(t, 10*time.Second, cfg.Model.Timeout)
			},
		},
		{
			name: "database from individual fields",
			envVars: map[string]string{
				"DB_HOST":           "metrics-db.example.com",
				"DB_PORT":           "5433",
				"DB_USER":           "triage",
				"DB_MAX_OPEN_CONNS": "50",
			},
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Database)
				assert.Equal(t, "metrics-db.example.com", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "triage", cfg.Database.Database)
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
			},
		},
		{
			name: "database from DATABASE_URL",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://u:p@db:5432/triage?sslmode=disable",
			},
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Database)
				assert.Equal(t, "postgres://u:p@db:5432/triage?sslmode=disable", cfg.Database.DSN())
				assert.Equal(t, "host=db port=5432 database=triage", cfg.Database.LogString())
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "auth and rate limit",
			envVars: map[string]string{
				"AUTH_JWT_SECRET":      "s3cret",
				"RATE_LIMIT_RPS":       "2.5",
				"RATE_LIMIT_BURST":     "5",
				"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Auth.Enabled())
				assert.Equal(t, 2.5, cfg.RateLimit.RPS)
				assert.Equal(t, 5, cfg.RateLimit.Burst)
				assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name:    "model path enabled without key",
			envVars: map[string]string{"PIPELINE_ENABLE_MODEL": "true"},
			wantErr: true,
		},
		{
			name:    "unsupported provider",
			envVars: map[string]string{"MODEL_PROVIDER": "bedrock"},
			wantErr: true,
		},
		{
			name:    "threshold out of range",
			envVars: map[string]string{"PIPELINE_CONFIDENCE_THRESHOLD": "1.5"},
			wantErr: true,
		},
		{
			name:    "production without auth",
			envVars: map[string]string{"ENVIRONMENT": "production"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Pipeline: PipelineConfig{
			EnableFallback:      true,
			ConfidenceThreshold: 0.7,
			UrgencyThreshold:    2,
		},
		Model: ModelConfig{
			Provider:    ModelProviderAnthropic,
			MaxTokens:   2000,
			Temperature: 0.3,
		},
		RateLimit:     RateLimitConfig{RPS: 10, Burst: 20},
		Metrics:       MetricsConfig{BufferSize: 100, Workers: 1},
		Observability: ObservabilityConfig{LogLevel: "info", LogFormat: "json"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid development config",
			mutate: func(*Config) {},
		},
		{
			name: "missing database user",
			mutate: func(c *Config) {
				c.Database = &DatabaseConfig{Host: "localhost", Database: "db"}
			},
			wantErr: true,
			errMsg:  "database user is required",
		},
		{
			name: "urgency threshold out of range",
			mutate: func(c *Config) {
				c.Pipeline.UrgencyThreshold = 6
			},
			wantErr: true,
			errMsg:  "urgency threshold",
		},
		{
			name: "burst required with rate limit",
			mutate: func(c *Config) {
				c.RateLimit.Burst = 0
			},
			wantErr: true,
			errMsg:  "burst",
		},
		{
			name: "rate limit disabled ignores burst",
			mutate: func(c *Config) {
				c.RateLimit = RateLimitConfig{}
			},
		},
		{
			name: "bad log format",
			mutate: func(c *Config) {
				c.Observability.LogFormat = "text"
			},
			wantErr: true,
			errMsg:  "log format",
		},
		{
			name: "temperature out of range",
			mutate: func(c *Config) {
				c.Model.Temperature = 1.2
			},
			wantErr: true,
			errMsg:  "temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
	assert.Equal(t, "host=localhost port=5432 database=testdb", cfg.LogString())
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 8080,
	}

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestEnvValue(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.85")
	t.Setenv("TEST_BAD_FLOAT", "high")
	t.Setenv("TEST_DURATION", "30s")
	t.Setenv("TEST_BAD_DURATION", "soon")
	t.Setenv("TEST_EMPTY", "")

	assert.Equal(t, 0.85, envValue("TEST_FLOAT", 0.7, parseFloat))
	assert.Equal(t, 0.7, envValue("TEST_BAD_FLOAT", 0.7, parseFloat))
	assert.Equal(t, 0.7, envValue("TEST_EMPTY", 0.7, parseFloat))
	assert.Equal(t, 30*time.Second, envValue("TEST_DURATION", 10*time.Second, time.ParseDuration))
	assert.Equal(t, 10*time.Second, envValue("TEST_BAD_DURATION", 10*time.Second, time.ParseDuration))
	assert.Equal(t, 10*time.Second, envValue("TEST_UNSET_DURATION", 10*time.Second, time.ParseDuration))
}

func TestEnvValue_List(t *testing.T) {
	t.Setenv("TEST_LIST", " a, ,b ")
	assert.Equal(t, []string{"a", "b"}, envValue("TEST_LIST", nil, parseList))

	t.Setenv("TEST_LIST", " , ")
	assert.Equal(t, []string{"x"}, envValue("TEST_LIST", []string{"x"}, parseList))
}

func TestFirstSet(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SERVER_PORT", "9000")
	assert.Equal(t, "SERVER_PORT", firstSet("PORT", "SERVER_PORT"))

	t.Setenv("PORT", "9443")
	assert.Equal(t, "PORT", firstSet("PORT", "SERVER_PORT"))
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Model.Provider = "bedrock"
	cfg.Metrics.Workers = 0
	cfg.Observability.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model provider")
	assert.Contains(t, err.Error(), "metrics buffer size")
	assert.Contains(t, err.Error(), "log format")
}
