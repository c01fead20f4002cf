package memstore

import (
	"context"
	"sort"

	"github.com/queue-broker-service/internal/domain"
)

type partitionRecord struct {
	name          string
	weight        int
	nodes         []string
	rotatingIndex int64
}

func (p *partitionRecord) toDomain() domain.Partition {
	nodes := make([]string, len(p.nodes))
	copy(nodes, p.nodes)
	return domain.Partition{
		Name:          p.name,
		Weight:        p.weight,
		Nodes:         nodes,
		RotatingIndex: p.rotatingIndex,
	}
}

type partitionStore Store

func (ps *partitionStore) s() *Store { return (*Store)(ps) }

func (ps *partitionStore) Create(ctx context.Context, name string, weight int, nodes []string) error {
	s := ps.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.partitions[name]; !exists {
		s.partOrder = append(s.partOrder, name)
	}
	copied := make([]string, len(nodes))
	copy(copied, nodes)
	s.partitions[name] = &partitionRecord{name: name, weight: weight, nodes: copied}
	return nil
}

func (ps *partitionStore) Get(ctx context.Context, name string) (*domain.Partition, error) {
	s := ps.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.partitions[name]
	if !ok {
		return nil, domain.ErrPartitionNotFound
	}
	d := rec.toDomain()
	return &d, nil
}

func (ps *partitionStore) List(ctx context.Context) ([]domain.Partition, error) {
	s := ps.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.partOrder))
	copy(names, s.partOrder)
	sort.Strings(names)

	out := make([]domain.Partition, 0, len(names))
	for _, name := range names {
		if rec, ok := s.partitions[name]; ok {
			out = append(out, rec.toDomain())
		}
	}
	return out, nil
}

func (ps *partitionStore) Delete(ctx context.Context, name string) error {
	s := ps.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.partitions, name)
	for i, n := range s.partOrder {
		if n == name {
			s.partOrder = append(s.partOrder[:i], s.partOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Select performs a weight-proportional pick among registered
// partitions, then a round-robin pick among that partition's nodes.
func (ps *partitionStore) Select(ctx context.Context) (string, error) {
	s := ps.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.partOrder) == 0 {
		return "", domain.ErrNoPartitionsRegistered
	}

	totalWeight := 0
	for _, name := range s.partOrder {
		if rec, ok := s.partitions[name]; ok {
			totalWeight += rec.weight
		}
	}
	if totalWeight <= 0 {
		return "", domain.ErrNoPartitionsRegistered
	}

	// Deterministic weighted pick: advance the store's shared sequence
	// counter and use it as a running cursor so repeated calls fan out
	// proportionally to weight without needing a random source.
	s.seq++
	pick := s.seq % int64(totalWeight)
	var chosen *partitionRecord
	for _, name := range s.partOrder {
		rec, ok := s.partitions[name]
		if !ok || rec.weight <= 0 {
			continue
		}
		if pick < int64(rec.weight) {
			chosen = rec
			break
		}
		pick -= int64(rec.weight)
	}
	if chosen == nil || len(chosen.nodes) == 0 {
		return "", domain.ErrNoPartitionsRegistered
	}

	node := chosen.nodes[chosen.rotatingIndex%int64(len(chosen.nodes))]
	chosen.rotatingIndex++
	return node, nil
}
