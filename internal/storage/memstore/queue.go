package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
)

type queueRecord struct {
	project   string
	name      string
	metadata  map[string]any
	createdAt time.Time
}

type queueStore Store

func (q *queueStore) s() *Store { return (*Store)(q) }

func (q *queueStore) Create(ctx context.Context, project, name string) (bool, error) {
	s := q.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := queueKey{project, name}
	if _, ok := s.queues[key]; ok {
		return false, nil
	}
	s.queues[key] = &queueRecord{
		project:   project,
		name:      name,
		metadata:  map[string]any{},
		createdAt: s.clock.Now(),
	}
	s.messages[key] = make(map[string]*messageRecord)
	s.claims[key] = make(map[string]*claimRecord)
	return true, nil
}

func (q *queueStore) Exists(ctx context.Context, project, name string) (bool, error) {
	s := q.s()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.queues[queueKey{project, name}]
	return ok, nil
}

func (q *queueStore) GetMetadata(ctx context.Context, project, name string) (map[string]any, error) {
	s := q.s()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.queues[queueKey{project, name}]
	if !ok {
		return nil, domain.ErrQueueDoesNotExist
	}
	return copyMetadata(rec.metadata), nil
}

func (q *queueStore) SetMetadata(ctx context.Context, project, name string, metadata map[string]any) error {
	s := q.s()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.queues[queueKey{project, name}]
	if !ok {
		return domain.ErrQueueDoesNotExist
	}
	rec.metadata = copyMetadata(metadata)
	return nil
}

func (q *queueStore) Delete(ctx context.Context, project, name string) error {
	s := q.s()
	s.mu.Lock()
	defer s.mu.Unlock()
	key := queueKey{project, name}
	delete(s.queues, key)
	delete(s.messages, key)
	delete(s.claims, key)
	return nil
}

func (q *queueStore) List(ctx context.Context, project string, opts storage.QueueListOptions) (domain.Page[domain.Queue], error) {
	s := q.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for key := range s.queues {
		if key.project == project {
			names = append(names, key.name)
		}
	}
	sort.Strings(names)

	start := 0
	if opts.Marker != "" {
		for i, n := range names {
			if n > opts.Marker {
				start = i
				break
			}
			start = i + 1
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	end := start + limit
	if end > len(names) {
		end = len(names)
	}
	if start > len(names) {
		start = len(names)
	}

	page := domain.Page[domain.Queue]{}
	for _, n := range names[start:end] {
		rec := s.queues[queueKey{project, n}]
		qu := domain.Queue{Project: project, Name: n, CreatedAt: rec.createdAt}
		if opts.Detailed {
			qu.Metadata = copyMetadata(rec.metadata)
		}
		page.Items = append(page.Items, qu)
	}
	if end < len(names) {
		page.NextMarker = names[end-1]
	}
	return page, nil
}

func (q *queueStore) Stats(ctx context.Context, project, name string) (domain.MessageStats, error) {
	s := q.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := queueKey{project, name}
	if _, ok := s.queues[key]; !ok {
		return domain.MessageStats{}, domain.ErrQueueDoesNotExist
	}

	now := s.clock.Now()
	var stats domain.MessageStats
	var oldest, newest *messageRecord

	for _, m := range s.messages[key] {
		if m.isExpired(now) {
			continue
		}
		stats.Total++
		if m.isClaimed(now) {
			stats.Claimed++
		} else {
			stats.Free++
		}
		if oldest == nil || m.createdAt.Before(oldest.createdAt) {
			oldest = m
		}
		if newest == nil || m.createdAt.After(newest.createdAt) {
			newest = m
		}
	}

	if stats.Total > 0 {
		stats.Oldest = &domain.MessageStat{ID: oldest.id, Created: oldest.createdAt}
		stats.Newest = &domain.MessageStat{ID: newest.id, Created: newest.createdAt}
	}
	return stats, nil
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
