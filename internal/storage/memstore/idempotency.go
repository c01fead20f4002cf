package memstore

import (
	"context"
	"time"

	"github.com/queue-broker-service/internal/domain"
)

type idempotencyStore Store

func (s *idempotencyStore) st() *Store { return (*Store)(s) }

func (s *idempotencyStore) Get(ctx context.Context, project, key string) (*domain.IdempotencyKey, error) {
	st := s.st()
	st.mu.Lock()
	defer st.mu.Unlock()

	ik, ok := st.idempotencyKeys[project+"|"+key]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	if ik.IsExpired(st.clock.Now()) {
		delete(st.idempotencyKeys, project+"|"+key)
		return nil, domain.ErrEntryNotFound
	}
	cp := *ik
	return &cp, nil
}

func (s *idempotencyStore) Create(ctx context.Context, ik *domain.IdempotencyKey) error {
	st := s.st()
	st.mu.Lock()
	defer st.mu.Unlock()

	cp := *ik
	st.idempotencyKeys[ik.Project+"|"+ik.Key] = &cp
	return nil
}

func (s *idempotencyStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	st := s.st()
	st.mu.Lock()
	defer st.mu.Unlock()

	var count int64
	for k, ik := range st.idempotencyKeys {
		if ik.IsExpired(now) {
			delete(st.idempotencyKeys, k)
			count++
		}
	}
	return count, nil
}
