// Package metricstore persists pipeline metrics asynchronously. Records are
// queued on a buffered channel and written by a pool of workers, so a slow or
// failing database never delays case processing.
package metricstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/internal/observability"
	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/repositories"
)

// insertTimeout bounds a single repository write
const insertTimeout = 5 * time.Second

// Service handles asynchronous metric persistence
type Service struct {
	repo        repositories.MetricsRepository
	logger      *zap.Logger
	eventChan   chan *models.MetricEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup

	// mu guards started/stopped and the channel close against concurrent sends
	mu      sync.RWMutex
	started bool
	stopped bool

	dropped atomic.Int64
	failed  atomic.Int64
	written atomic.Int64
}

// Config holds configuration for the Service
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewService creates a new metric store
func NewService(repo repositories.MetricsRepository, logger *zap.Logger, config Config) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		eventChan:   make(chan *models.MetricEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("metric store already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started metric store",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting records and waits for queued ones to be written
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("metric store not running")
	}
	s.stopped = true
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping metric store", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("metric store stopped gracefully",
			zap.Int64("written", s.written.Load()),
			zap.Int64("dropped", s.dropped.Load()))
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("metric store stop timeout after %v", timeout)
	}
}

// Enqueue queues a record without blocking. When the buffer is full the
// record is dropped.
func (s *Service) Enqueue(event *models.MetricEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		s.dropped.Add(1)
		return fmt.Errorf("metric store not running")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.dropped.Add(1)
		s.logger.Warn("metric channel full, dropping record",
			zap.String("case_id", event.CaseID),
			zap.String("kind", string(event.Kind)))
		return fmt.Errorf("metric buffer full")
	}
}

// RecordStage implements observability.Metrics
func (s *Service) RecordStage(_ context.Context, m observability.StageMetric) {
	event := models.NewMetricEvent(m.CaseID, models.MetricKindStage, m.DurationMs).
		WithStage(m.Stage, m.Confidence, m.Success, m.FallbackUsed)
	if m.Error != "" {
		event.WithDetails(map[string]string{"error": m.Error})
	}
	_ = s.Enqueue(event)
}

// RecordCase implements observability.Metrics
func (s *Service) RecordCase(_ context.Context, m observability.CaseMetric) {
	event := models.NewMetricEvent(m.CaseID, models.MetricKindCase, m.TotalDurationMs).
		WithCase(models.CaseStatus(m.Status), m.UrgencyLevel, m.RequiresHumanReview, m.EstimatedCostUSD)
	_ = s.Enqueue(event)
}

// worker processes events from the channel
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("metric worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.failed.Add(1)
			s.logger.Error("failed to persist metric",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("case_id", event.CaseID),
				zap.String("kind", string(event.Kind)))
			continue
		}
		s.written.Add(1)
	}

	s.logger.Debug("metric worker stopped", zap.Int("worker_id", id))
}

// processEvent writes a single record
func (s *Service) processEvent(event *models.MetricEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	return s.repo.Insert(ctx, event)
}

// GetStats returns statistics about the metric store
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
		Written:       s.written.Load(),
		Dropped:       s.dropped.Load(),
		Failed:        s.failed.Load(),
	}
}

// Stats represents metric store statistics
type Stats struct {
	BufferSize    int   `json:"buffer_size"`
	PendingEvents int   `json:"pending_events"`
	WorkerCount   int   `json:"worker_count"`
	Started       bool  `json:"started"`
	Written       int64 `json:"written"`
	Dropped       int64 `json:"dropped"`
	Failed        int64 `json:"failed"`
}
