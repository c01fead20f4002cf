package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
)

type QueueStore struct {
	pool  *pgxpool.Pool
	clock storage.Clock
}

func NewQueueStore(pool *pgxpool.Pool, clock storage.Clock) *QueueStore {
	return &QueueStore{pool: pool, clock: clock}
}

func (s *QueueStore) Create(ctx context.Context, project, name string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO queues (project, name, metadata, created_at) VALUES ($1, $2, '{}', $3)
		 ON CONFLICT (project, name) DO NOTHING`,
		project, name, s.clock.Now())
	if err != nil {
		return false, mapError(err, nil)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *QueueStore) Exists(ctx context.Context, project, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM queues WHERE project = $1 AND name = $2)`,
		project, name).Scan(&exists)
	if err != nil {
		return false, mapError(err, nil)
	}
	return exists, nil
}

func (s *QueueStore) GetMetadata(ctx context.Context, project, name string) (map[string]any, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT metadata FROM queues WHERE project = $1 AND name = $2`,
		project, name).Scan(&raw)
	if err != nil {
		return nil, mapError(err, domain.ErrQueueDoesNotExist)
	}
	return decodeMetadata(raw)
}

func (s *QueueStore) SetMetadata(ctx context.Context, project, name string, metadata map[string]any) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE queues SET metadata = $3 WHERE project = $1 AND name = $2`,
		project, name, encoded)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQueueDoesNotExist
	}
	return nil
}

func (s *QueueStore) Delete(ctx context.Context, project, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM queues WHERE project = $1 AND name = $2`, project, name)
	return mapError(err, nil)
}

func (s *QueueStore) List(ctx context.Context, project string, opts storage.QueueListOptions) (domain.Page[domain.Queue], error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT name, metadata, created_at FROM queues
		 WHERE project = $1 AND name > $2
		 ORDER BY name
		 LIMIT $3`,
		project, opts.Marker, limit+1)
	if err != nil {
		return domain.Page[domain.Queue]{}, mapError(err, nil)
	}
	defer rows.Close()

	var page domain.Page[domain.Queue]
	for rows.Next() {
		var name string
		var raw []byte
		var createdAt = s.clock.Now()
		if err := rows.Scan(&name, &raw, &createdAt); err != nil {
			return domain.Page[domain.Queue]{}, err
		}
		qu := domain.Queue{Project: project, Name: name, CreatedAt: createdAt}
		if opts.Detailed {
			metadata, err := decodeMetadata(raw)
			if err != nil {
				return domain.Page[domain.Queue]{}, err
			}
			qu.Metadata = metadata
		}
		page.Items = append(page.Items, qu)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Queue]{}, err
	}

	if len(page.Items) > limit {
		page.NextMarker = page.Items[limit-1].Name
		page.Items = page.Items[:limit]
	}
	return page, nil
}

func (s *QueueStore) Stats(ctx context.Context, project, name string) (domain.MessageStats, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM queues WHERE project = $1 AND name = $2)`,
		project, name).Scan(&exists); err != nil {
		return domain.MessageStats{}, mapError(err, nil)
	}
	if !exists {
		return domain.MessageStats{}, domain.ErrQueueDoesNotExist
	}

	now := s.clock.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, ttl, claim_id, claim_expires_at
		 FROM messages
		 WHERE project = $1 AND queue = $2
		   AND created_at + (ttl || ' seconds')::interval > $3
		 ORDER BY created_at`,
		project, name, now)
	if err != nil {
		return domain.MessageStats{}, mapError(err, nil)
	}
	defer rows.Close()

	var stats domain.MessageStats
	for rows.Next() {
		m := domain.Message{Project: project, Queue: name}
		var claimID string
		var claimExpires *time.Time
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.TTL, &claimID, &claimExpires); err != nil {
			return domain.MessageStats{}, err
		}
		m.ClaimID = claimID
		if claimExpires != nil {
			m.ClaimExpiresAt = *claimExpires
		}
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
	if err := rows.Err(); err != nil {
		return domain.MessageStats{}, err
	}
	return stats, nil
}
