package repositories

import (
	"context"

	"github.com/upb/triage-pipeline/models"
)

// MetricsRepository persists pipeline metric records
type MetricsRepository interface {
	// Insert inserts a new metric record
	Insert(ctx context.Context, event *models.MetricEvent) error

	// ListByCase retrieves the records of one case in the order they were recorded
	ListByCase(ctx context.Context, caseID string) ([]*models.MetricEvent, error)
}
