package service

import (
	"context"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"go.uber.org/zap"
)

// CatalogueService implements the proxy's catalogue controller: the
// (project, queue) → node mapping that lets the proxy route requests
// without consulting every queue node on every call.
type CatalogueService struct {
	store  storage.CatalogueStore
	logger *logger.Logger
}

func NewCatalogueService(store storage.CatalogueStore, log *logger.Logger) *CatalogueService {
	return &CatalogueService{store: store, logger: log}
}

func (s *CatalogueService) Insert(ctx context.Context, project, queue, location string, metadata map[string]any) error {
	if err := s.store.Insert(ctx, project, queue, location, metadata); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("catalogue entry inserted",
		zap.String("project", project), zap.String("queue", queue), zap.String("location", location))
	return nil
}

func (s *CatalogueService) Get(ctx context.Context, project, queue string) (*domain.CatalogueEntry, error) {
	return s.store.Get(ctx, project, queue)
}

func (s *CatalogueService) List(ctx context.Context, project string, includeMetadata, includeLocation bool) ([]domain.CatalogueEntry, error) {
	return s.store.List(ctx, project, includeMetadata, includeLocation)
}

func (s *CatalogueService) Delete(ctx context.Context, project, queue string) error {
	return s.store.Delete(ctx, project, queue)
}

func (s *CatalogueService) Location(ctx context.Context, project, queue string) (string, error) {
	return s.store.Location(ctx, project, queue)
}

func (s *CatalogueService) UpdateMetadata(ctx context.Context, project, queue string, metadata map[string]any) error {
	return s.store.UpdateMetadata(ctx, project, queue, metadata)
}

func (s *CatalogueService) Move(ctx context.Context, project, queue, newLocation string) error {
	if err := s.store.Move(ctx, project, queue, newLocation); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("catalogue entry moved",
		zap.String("project", project), zap.String("queue", queue), zap.String("new_location", newLocation))
	return nil
}
