package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"go.uber.org/zap"
)

var ErrRequestHashMismatch = errors.New("request body does not match stored hash")

// IdempotencyConfig controls how long a replay key is honored and how
// aggressively the cleanup worker reaps expired ones.
type IdempotencyConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	CleanupBatch    int
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:             domain.DefaultIdempotencyTTL,
		CleanupInterval: time.Hour,
		CleanupBatch:    100,
	}
}

type IdempotencyService struct {
	store  storage.IdempotencyStore
	config IdempotencyConfig
	logger *logger.Logger
}

func NewIdempotencyService(store storage.IdempotencyStore, config IdempotencyConfig, log *logger.Logger) *IdempotencyService {
	return &IdempotencyService{store: store, config: config, logger: log}
}

// CachedResponse is the replayed response for a previously-seen key.
type CachedResponse struct {
	Status int
	Body   []byte
}

// CheckKey returns nil (no error, no response) when the caller should
// proceed with the request. It returns a CachedResponse when the same
// (project, key) was already completed, and ErrRequestHashMismatch when
// the key is reused against a different request body.
func (s *IdempotencyService) CheckKey(ctx context.Context, project, key string, requestBody []byte) (*CachedResponse, error) {
	ik, err := s.store.Get(ctx, project, key)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if len(requestBody) > 0 && ik.RequestHash != "" {
		if hashRequestBody(requestBody) != ik.RequestHash {
			s.logger.WithContext(ctx).Warn("idempotency key reused with a different request body",
				zap.String("project", project), zap.String("key", key))
			return nil, ErrRequestHashMismatch
		}
	}

	s.logger.WithContext(ctx).Debug("returning cached response for idempotency key",
		zap.String("project", project), zap.String("key", key), zap.Int("status", ik.ResponseStatus))
	return &CachedResponse{Status: ik.ResponseStatus, Body: ik.ResponseBody}, nil
}

// StoreResult records the outcome of a request under its idempotency
// key, so a replay of the same (project, key) short-circuits via
// CheckKey instead of re-executing the operation.
func (s *IdempotencyService) StoreResult(ctx context.Context, project, key, endpoint, method string, requestBody []byte, responseStatus int, responseBody []byte) error {
	now := time.Now().UTC()
	ik := &domain.IdempotencyKey{
		ID:             uuid.NewString(),
		Project:        project,
		Key:            key,
		Endpoint:       endpoint,
		Method:         method,
		RequestHash:    hashRequestBody(requestBody),
		ResponseStatus: responseStatus,
		ResponseBody:   responseBody,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.config.TTL),
	}

	if err := s.store.Create(ctx, ik); err != nil {
		s.logger.WithContext(ctx).Error("failed to store idempotency key",
			zap.String("project", project), zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// CleanupExpired is invoked periodically by the idempotency worker.
func (s *IdempotencyService) CleanupExpired(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.WithContext(ctx).Info("cleaned up expired idempotency keys", zap.Int64("count", count))
	}
	return count, nil
}

func hashRequestBody(body []byte) string {
	h := sha256.Sum256(body)
	return hex.EncodeToString(h[:])
}
