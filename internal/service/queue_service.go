package service

import (
	"context"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/telemetry"
	"go.uber.org/zap"
)

// QueueService implements the queue controller of the queue-node API:
// create/exists/metadata/delete/list/stats, each a thin pass-through to
// the configured storage.QueueStore plus logging and stats-gauge upkeep.
type QueueService struct {
	store  storage.QueueStore
	logger *logger.Logger
}

func NewQueueService(store storage.QueueStore, log *logger.Logger) *QueueService {
	return &QueueService{store: store, logger: log}
}

// Create returns created=false (not an error) when the queue already
// existed, mirroring the idempotent PUT semantics of the queue endpoint.
func (s *QueueService) Create(ctx context.Context, project, name string) (bool, error) {
	created, err := s.store.Create(ctx, project, name)
	if err != nil {
		s.logger.WithContext(ctx).Error("create queue failed", zap.String("queue", name), zap.Error(err))
		return false, err
	}
	if created {
		s.logger.WithContext(ctx).Info("queue created", zap.String("project", project), zap.String("queue", name))
	}
	return created, nil
}

func (s *QueueService) Exists(ctx context.Context, project, name string) (bool, error) {
	return s.store.Exists(ctx, project, name)
}

func (s *QueueService) GetMetadata(ctx context.Context, project, name string) (map[string]any, error) {
	return s.store.GetMetadata(ctx, project, name)
}

func (s *QueueService) SetMetadata(ctx context.Context, project, name string, metadata map[string]any) error {
	return s.store.SetMetadata(ctx, project, name, metadata)
}

func (s *QueueService) Delete(ctx context.Context, project, name string) error {
	if err := s.store.Delete(ctx, project, name); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("queue deleted", zap.String("project", project), zap.String("queue", name))
	return nil
}

func (s *QueueService) List(ctx context.Context, project string, opts storage.QueueListOptions) (domain.Page[domain.Queue], error) {
	return s.store.List(ctx, project, opts)
}

// Stats also refreshes the queue-depth gauge, since this is the one
// read path that already computes free/claimed counts.
func (s *QueueService) Stats(ctx context.Context, project, name string) (domain.MessageStats, error) {
	stats, err := s.store.Stats(ctx, project, name)
	if err != nil {
		return domain.MessageStats{}, err
	}
	telemetry.QueueDepth.WithLabelValues(project, name, "free").Set(float64(stats.Free))
	telemetry.QueueDepth.WithLabelValues(project, name, "claimed").Set(float64(stats.Claimed))
	return stats, nil
}
