package service

import (
	"context"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/telemetry"
	"go.uber.org/zap"
)

// ClaimService implements the claim controller. Atomicity of selection
// and TTL extension is the storage driver's responsibility (SKIP LOCKED
// in postgres, a Lua script in redis, a single mutex in memstore); this
// layer only adds observability.
type ClaimService struct {
	store  storage.ClaimStore
	logger *logger.Logger
}

func NewClaimService(store storage.ClaimStore, log *logger.Logger) *ClaimService {
	return &ClaimService{store: store, logger: log}
}

func (s *ClaimService) Create(ctx context.Context, project, queue string, ttl, grace, limit int) (*domain.Claim, []domain.Message, error) {
	claim, msgs, err := s.store.Create(ctx, project, queue, ttl, grace, limit)
	if err != nil {
		return nil, nil, err
	}
	telemetry.ClaimsCreatedTotal.WithLabelValues(project, queue).Inc()
	s.logger.WithContext(ctx).Debug("claim created",
		zap.String("project", project), zap.String("queue", queue),
		zap.String("claim_id", claim.ID), zap.Int("messages", len(msgs)))
	return claim, msgs, nil
}

func (s *ClaimService) Get(ctx context.Context, project, queue, claimID string) (*domain.Claim, []domain.Message, error) {
	return s.store.Get(ctx, project, queue, claimID)
}

func (s *ClaimService) Update(ctx context.Context, project, queue, claimID string, ttl int) error {
	return s.store.Touch(ctx, project, queue, claimID, ttl)
}

func (s *ClaimService) Delete(ctx context.Context, project, queue, claimID string) error {
	return s.store.Delete(ctx, project, queue, claimID)
}
