package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/repositories"
)

// MetricsRepository implements the repositories.MetricsRepository interface
type MetricsRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(db *DB, logger *zap.Logger) repositories.MetricsRepository {
	return &MetricsRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new metric record
func (r *MetricsRepository) Insert(ctx context.Context, event *models.MetricEvent) error {
	query := `
		INSERT INTO pipeline_metrics (
			id, case_id, kind, duration_ms, details, recorded_at,
			stage, confidence, success, fallback_used,
			urgency_level, requires_human_review, estimated_cost_usd, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	var details interface{}
	if len(event.Details) > 0 {
		details = []byte(event.Details)
	}

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.CaseID,
		event.Kind,
		event.DurationMs,
		details,
		event.RecordedAt,
		event.Stage,
		event.Confidence,
		event.Success,
		event.FallbackUsed,
		event.UrgencyLevel,
		event.RequiresHumanReview,
		event.EstimatedCostUSD,
		event.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert metric: %w", err)
	}

	r.logger.Debug("metric inserted",
		zap.String("id", event.ID.String()),
		zap.String("case_id", event.CaseID),
		zap.String("kind", string(event.Kind)))
	return nil
}

// ListByCase retrieves the records of one case in the order they were recorded
func (r *MetricsRepository) ListByCase(ctx context.Context, caseID string) ([]*models.MetricEvent, error) {
	query := `
		SELECT id, case_id, kind, duration_ms, details, recorded_at,
		       stage, confidence, success, fallback_used,
		       urgency_level, requires_human_review, estimated_cost_usd, status
		FROM pipeline_metrics
		WHERE case_id = $1
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	events := []*models.MetricEvent{}
	for rows.Next() {
		event, err := scanMetricEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}

	return events, nil
}

func scanMetricEvent(rows *sql.Rows) (*models.MetricEvent, error) {
	var (
		event          models.MetricEvent
		details        []byte
		stage          sql.NullString
		confidence     sql.NullFloat64
		success        sql.NullBool
		fallbackUsed   sql.NullBool
		urgencyLevel   sql.NullInt64
		requiresReview sql.NullBool
		cost           sql.NullFloat64
		status         sql.NullString
	)

	err := rows.Scan(
		&event.ID,
		&event.CaseID,
		&event.Kind,
		&event.DurationMs,
		&details,
		&event.RecordedAt,
		&stage,
		&confidence,
		&success,
		&fallbackUsed,
		&urgencyLevel,
		&requiresReview,
		&cost,
		&status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan metric: %w", err)
	}

	event.Details = details
	if stage.Valid {
		event.Stage = &stage.String
	}
	if confidence.Valid {
		event.Confidence = &confidence.Float64
	}
	if success.Valid {
		event.Success = &success.Bool
	}
	if fallbackUsed.Valid {
		event.FallbackUsed = &fallbackUsed.Bool
	}
	if urgencyLevel.Valid {
		level := int(urgencyLevel.Int64)
		event.UrgencyLevel = &level
	}
	if requiresReview.Valid {
		event.RequiresHumanReview = &requiresReview.Bool
	}
	if cost.Valid {
		event.EstimatedCostUSD = &cost.Float64
	}
	if status.Valid {
		event.Status = &status.String
	}

	return &event, nil
}
