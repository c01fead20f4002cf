package service

import (
	"context"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PartitionShare reports a partition's share of the weighted selection
// pool as a decimal fraction rounded to six places, avoiding the binary
// rounding drift a float64 division would introduce.
type PartitionShare struct {
	Name  string
	Nodes int
	Share decimal.Decimal
}

// PartitionService implements the proxy's partition controller: weighted
// node pools, and the Select operation the proxy calls whenever a
// catalogue lookup misses and a new queue must be placed.
type PartitionService struct {
	store  storage.PartitionStore
	logger *logger.Logger
}

func NewPartitionService(store storage.PartitionStore, log *logger.Logger) *PartitionService {
	return &PartitionService{store: store, logger: log}
}

func (s *PartitionService) Create(ctx context.Context, name string, weight int, nodes []string) error {
	if err := s.store.Create(ctx, name, weight, nodes); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("partition created",
		zap.String("partition", name), zap.Int("weight", weight), zap.Int("nodes", len(nodes)))
	return nil
}

func (s *PartitionService) Get(ctx context.Context, name string) (*domain.Partition, error) {
	return s.store.Get(ctx, name)
}

func (s *PartitionService) List(ctx context.Context) ([]domain.Partition, error) {
	return s.store.List(ctx)
}

func (s *PartitionService) Delete(ctx context.Context, name string) error {
	return s.store.Delete(ctx, name)
}

func (s *PartitionService) Select(ctx context.Context) (string, error) {
	node, err := s.store.Select(ctx)
	if err != nil {
		return "", err
	}
	telemetry.PartitionSelectionsTotal.WithLabelValues(node).Inc()
	return node, nil
}

// Stats reports each registered partition's share of the weighted
// selection pool, rounded to six decimal places, for operators sizing
// partitions relative to one another.
func (s *PartitionService) Stats(ctx context.Context) ([]PartitionShare, error) {
	partitions, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, p := range partitions {
		total = total.Add(decimal.NewFromInt(int64(p.Weight)))
	}

	shares := make([]PartitionShare, len(partitions))
	for i, p := range partitions {
		weight := decimal.NewFromInt(int64(p.Weight))
		share := decimal.Zero
		if total.IsPositive() {
			share = weight.DivRound(total, 6)
		}
		shares[i] = PartitionShare{Name: p.Name, Nodes: len(p.Nodes), Share: share}
	}
	return shares, nil
}
