package redis

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
)

type QueueStore struct {
	client *redis.Client
	clock  storage.Clock
}

func (s *QueueStore) Create(ctx context.Context, project, name string) (bool, error) {
	added, err := s.client.SAdd(ctx, queueSetKey(project), name).Result()
	if err != nil {
		return false, err
	}
	if added == 0 {
		return false, nil
	}
	err = s.client.HSet(ctx, queueMetaKey(project, name),
		"created_at", s.clock.Now().UnixNano(),
		"metadata", "{}",
	).Err()
	return true, err
}

func (s *QueueStore) Exists(ctx context.Context, project, name string) (bool, error) {
	return s.client.SIsMember(ctx, queueSetKey(project), name).Result()
}

func (s *QueueStore) GetMetadata(ctx context.Context, project, name string) (map[string]any, error) {
	exists, err := s.Exists(ctx, project, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrQueueDoesNotExist
	}
	raw, err := s.client.HGet(ctx, queueMetaKey(project, name), "metadata").Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	var metadata map[string]any
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return nil, err
		}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return metadata, nil
}

func (s *QueueStore) SetMetadata(ctx context.Context, project, name string, metadata map[string]any) error {
	exists, err := s.Exists(ctx, project, name)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrQueueDoesNotExist
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, queueMetaKey(project, name), "metadata", string(encoded)).Err()
}

func (s *QueueStore) Delete(ctx context.Context, project, name string) error {
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, queueSetKey(project), name)
	pipe.Del(ctx, queueMetaKey(project, name))
	pipe.Del(ctx, messagesZKey(project, name))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *QueueStore) List(ctx context.Context, project string, opts storage.QueueListOptions) (domain.Page[domain.Queue], error) {
	names, err := s.client.SMembers(ctx, queueSetKey(project)).Result()
	if err != nil {
		return domain.Page[domain.Queue]{}, err
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

	var page domain.Page[domain.Queue]
	for _, n := range names[start:end] {
		fields, err := s.client.HGetAll(ctx, queueMetaKey(project, n)).Result()
		if err != nil {
			return domain.Page[domain.Queue]{}, err
		}
		qu := domain.Queue{Project: project, Name: n}
		if nanos, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
			qu.CreatedAt = time.Unix(0, nanos).UTC()
		}
		if opts.Detailed {
			var metadata map[string]any
			if fields["metadata"] != "" {
				_ = json.Unmarshal([]byte(fields["metadata"]), &metadata)
			}
			if metadata == nil {
				metadata = map[string]any{}
			}
			qu.Metadata = metadata
		}
		page.Items = append(page.Items, qu)
	}
	if end < len(names) {
		page.NextMarker = names[end-1]
	}
	return page, nil
}

func (s *QueueStore) Stats(ctx context.Context, project, name string) (domain.MessageStats, error) {
	exists, err := s.Exists(ctx, project, name)
	if err != nil {
		return domain.MessageStats{}, err
	}
	if !exists {
		return domain.MessageStats{}, domain.ErrQueueDoesNotExist
	}

	ids, err := s.client.ZRange(ctx, messagesZKey(project, name), 0, -1).Result()
	if err != nil {
		return domain.MessageStats{}, err
	}

	now := s.clock.Now()
	var stats domain.MessageStats
	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, messageKey(project, name, id)).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		m := fieldsToMessage(project, name, id, fields)
		if m.IsExpired(now) {
			continue
		}
		stats.Total++
		if m.IsClaimed(now) {
			stats.Claimed++
		} else {
			stats.Free++
		}
		if stats.Oldest == nil {
			stats.Oldest = &domain.MessageStat{ID: m.ID, Created: m.CreatedAt}
		}
		stats.Newest = &domain.MessageStat{ID: m.ID, Created: m.CreatedAt}
	}
	return stats, nil
}
