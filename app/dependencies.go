package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/config"
	"github.com/upb/triage-pipeline/internal/observability"
	"github.com/upb/triage-pipeline/middleware"
	"github.com/upb/triage-pipeline/repositories"
	"github.com/upb/triage-pipeline/repositories/postgres"
	"github.com/upb/triage-pipeline/services/agents"
	"github.com/upb/triage-pipeline/services/directory"
	"github.com/upb/triage-pipeline/services/llm"
	"github.com/upb/triage-pipeline/services/llm/anthropic"
	"github.com/upb/triage-pipeline/services/llm/openai"
	"github.com/upb/triage-pipeline/services/metricstore"
	"github.com/upb/triage-pipeline/services/pipeline"
	"github.com/upb/triage-pipeline/services/review"
	"github.com/upb/triage-pipeline/services/stage"
)

// metricStoreStopTimeout bounds the final flush of queued metrics
const metricStoreStopTimeout = 10 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when no database is configured
	Logger *zap.Logger

	// Metrics
	MetricsRepo repositories.MetricsRepository // nil when no database is configured
	MetricStore *metricstore.Service
	Metrics     observability.Metrics

	// Pipeline
	Directory    *directory.Directory
	ModelClient  llm.Client // nil when the model path is disabled
	Orchestrator *pipeline.Orchestrator

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initMetrics(cfg); err != nil {
		_ = deps.closeDB()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := deps.initPipeline(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Bool("model_path", cfg.Pipeline.EnableModelPath),
		zap.Bool("fallback", cfg.Pipeline.EnableFallback),
		zap.Bool("metric_store", deps.MetricStore != nil),
		zap.Bool("auth", deps.AuthMiddleware.Enabled()))
	return deps, nil
}

// initDatabase opens the metrics database when one is configured
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Info("no database configured, metrics are logged only")
		return nil
	}

	db, err := postgres.NewDB(ctx, *cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}

	d.DB = db
	d.MetricsRepo = postgres.NewMetricsRepository(db, d.Logger)
	return nil
}

// initMetrics builds the metrics fan-out: structured logs always, the
// persistent store when a database is available
func (d *Dependencies) initMetrics(cfg *config.Config) error {
	sinks := observability.MultiMetrics{observability.NewLogMetrics(d.Logger)}

	if d.MetricsRepo != nil {
		store := metricstore.NewService(d.MetricsRepo, d.Logger.Named("metricstore"), metricstore.Config{
			BufferSize:  cfg.Metrics.BufferSize,
			WorkerCount: cfg.Metrics.Workers,
		})
		if err := store.Start(); err != nil {
			return err
		}
		d.MetricStore = store
		sinks = append(sinks, store)
	}

	d.Metrics = sinks
	return nil
}

// initPipeline loads the directory, the model client and the orchestrator
func (d *Dependencies) initPipeline(cfg *config.Config) error {
	dir, err := directory.Load(cfg.ProvidersFile, d.Logger)
	if err != nil {
		return err
	}
	d.Directory = dir

	client, err := NewModelClient(cfg)
	if err != nil {
		return err
	}
	d.ModelClient = client

	agentCfg := agents.Config{
		EnableModelPath: cfg.Pipeline.EnableModelPath,
		MaxTokens:       cfg.Model.MaxTokens,
		Temperature:     cfg.Model.Temperature,
		Timeout:         cfg.Model.Timeout,
	}

	clock := stage.SystemClock{}
	executor := stage.NewExecutor(clock, d.Metrics, d.Logger.Named("stage"), stage.Config{
		EnableFallback: cfg.Pipeline.EnableFallback,
	})

	d.Orchestrator = pipeline.NewOrchestrator(
		executor,
		agents.NewIntakeAgent(client, agentCfg, d.Logger.Named("intake")),
		agents.NewTriageAgent(client, agentCfg, d.Logger.Named("triage")),
		dir,
		d.Metrics,
		d.Logger.Named("pipeline"),
		pipeline.Config{
			Thresholds: review.Thresholds{
				Confidence: cfg.Pipeline.ConfidenceThreshold,
				Urgency:    cfg.Pipeline.UrgencyThreshold,
			},
			Clock: clock,
		},
	)

	d.Logger.Info("pipeline initialized",
		zap.Int("providers", dir.Len()),
		zap.String("model_provider", cfg.Model.Provider))
	return nil
}

// NewModelClient builds the configured model adapter, or returns nil when
// the model path is disabled
func NewModelClient(cfg *config.Config) (llm.Client, error) {
	if !cfg.Pipeline.EnableModelPath {
		return nil, nil
	}

	llmCfg := llm.DefaultConfig()
	llmCfg.APIKey = cfg.Model.APIKey
	llmCfg.Model = cfg.Model.ModelID
	llmCfg.BaseURL = cfg.Model.BaseURL
	llmCfg.Timeout = cfg.Model.Timeout
	llmCfg.MaxRetries = cfg.Model.MaxRetries
	llmCfg.RetryDelay = cfg.Model.RetryDelay

	switch cfg.Model.Provider {
	case config.ModelProviderAnthropic:
		return anthropic.NewAdapter(llmCfg), nil
	case config.ModelProviderOpenAI:
		return openai.NewOpenAIAdapter(llmCfg), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Model.Provider)
	}
}

// initHTTP builds the request middleware
func (d *Dependencies) initHTTP(cfg *config.Config) {
	var validator middleware.TokenValidator
	if cfg.Auth.Enabled() {
		validator = middleware.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	} else {
		d.Logger.Warn("AUTH_JWT_SECRET not set, case submission is unauthenticated")
	}

	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger.Named("auth"))
	d.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, d.Logger.Named("ratelimit"))
}

func (d *Dependencies) closeDB() error {
	if d.DB == nil {
		return nil
	}
	err := d.DB.Close()
	d.DB = nil
	return err
}

// Close gracefully shuts down all dependencies. Queued metrics are flushed
// before the database is closed.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.MetricStore != nil {
		timeout := metricStoreStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.MetricStore.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metric store: %w", err))
		}
		d.MetricStore = nil
	}

	if err := d.closeDB(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
