package service

import (
	"context"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/telemetry"
	"go.uber.org/zap"
)

// MessageService implements the message controller: post/get/bulk_get/
// delete/bulk_delete/list/purge, each delegating to storage.MessageStore
// and keeping the posted/deleted counters current.
type MessageService struct {
	store  storage.MessageStore
	logger *logger.Logger
}

func NewMessageService(store storage.MessageStore, log *logger.Logger) *MessageService {
	return &MessageService{store: store, logger: log}
}

func (s *MessageService) Post(ctx context.Context, project, queue string, specs []domain.MessageSpec, clientUUID string) ([]string, error) {
	ids, err := s.store.Post(ctx, project, queue, specs, clientUUID)
	if err != nil {
		return nil, err
	}
	telemetry.MessagesPostedTotal.WithLabelValues(project, queue).Add(float64(len(ids)))
	s.logger.WithContext(ctx).Debug("messages posted",
		zap.String("project", project), zap.String("queue", queue), zap.Int("count", len(ids)))
	return ids, nil
}

func (s *MessageService) Get(ctx context.Context, project, queue, id string) (*domain.Message, error) {
	return s.store.Get(ctx, project, queue, id)
}

func (s *MessageService) BulkGet(ctx context.Context, project, queue string, ids []string) ([]domain.Message, error) {
	return s.store.BulkGet(ctx, project, queue, ids)
}

func (s *MessageService) Delete(ctx context.Context, project, queue, id, claimID string) error {
	if err := s.store.Delete(ctx, project, queue, id, claimID); err != nil {
		return err
	}
	telemetry.MessagesDeletedTotal.WithLabelValues(project, queue).Inc()
	return nil
}

func (s *MessageService) BulkDelete(ctx context.Context, project, queue string, ids []string) error {
	if err := s.store.BulkDelete(ctx, project, queue, ids); err != nil {
		return err
	}
	telemetry.MessagesDeletedTotal.WithLabelValues(project, queue).Add(float64(len(ids)))
	return nil
}

func (s *MessageService) List(ctx context.Context, project, queue string, opts storage.MessageListOptions) (domain.Page[domain.Message], error) {
	return s.store.List(ctx, project, queue, opts)
}

func (s *MessageService) Purge(ctx context.Context, project, queue string) error {
	return s.store.Purge(ctx, project, queue)
}
