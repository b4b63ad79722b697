package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/config"
)

const (
	connectTimeout = 5 * time.Second
	healthTimeout  = 2 * time.Second
)

// errMetricsTableMissing means the pool is up but InitSchema never ran
var errMetricsTableMissing = errors.New("pipeline_metrics table does not exist")

// DB is the metrics database pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB opens the pool and pings it before returning
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("metrics database connected",
		zap.String("connection", cfg.LogString()),
		zap.Int("max_open_conns", cfg.MaxOpenConns))
	return Wrap(pool, logger), nil
}

// Wrap adapts an existing pool, such as a sqlmock connection in tests
func Wrap(pool *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: pool, logger: logger}
}

func (db *DB) Close() error {
	db.logger.Info("closing metrics database")
	return db.DB.Close()
}

// HealthCheck pings the pool and confirms the metrics table is in place
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT to_regclass('pipeline_metrics') IS NOT NULL`).Scan(&exists); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("database health check failed: %w", errMetricsTableMissing)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_metrics (
	id UUID PRIMARY KEY,
	case_id VARCHAR(32) NOT NULL,
	kind VARCHAR(16) NOT NULL,
	duration_ms DOUBLE PRECISION NOT NULL,
	details JSONB,
	recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	stage VARCHAR(32),
	confidence DOUBLE PRECISION,
	success BOOLEAN,
	fallback_used BOOLEAN,
	urgency_level INTEGER,
	requires_human_review BOOLEAN,
	estimated_cost_usd DECIMAL(10, 6),
	status VARCHAR(16)
);

CREATE INDEX IF NOT EXISTS idx_pipeline_metrics_case_id ON pipeline_metrics(case_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_metrics_kind ON pipeline_metrics(kind);
CREATE INDEX IF NOT EXISTS idx_pipeline_metrics_recorded_at ON pipeline_metrics(recorded_at);
`

// InitSchema creates the metrics table and its indexes; safe to rerun
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	db.logger.Info("metrics schema ready")
	return nil
}
