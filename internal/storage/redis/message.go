package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
)

type MessageStore struct {
	client *redis.Client
	clock  storage.Clock
}

func fieldsToMessage(project, queue, id string, fields map[string]string) domain.Message {
	m := domain.Message{ID: id, Project: project, Queue: queue}
	m.Body = []byte(fields["body"])
	if ttl, err := strconv.Atoi(fields["ttl"]); err == nil {
		m.TTL = ttl
	}
	if nanos, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		m.CreatedAt = time.Unix(0, nanos).UTC()
	}
	m.ClientUUID = fields["client_uuid"]
	m.ClaimID = fields["claim_id"]
	if nanos, err := strconv.ParseInt(fields["claim_expires_at"], 10, 64); err == nil && nanos > 0 {
		m.ClaimExpiresAt = time.Unix(0, nanos).UTC()
	}
	return m
}

func messageToFields(m domain.Message) map[string]any {
	return map[string]any{
		"body":             string(m.Body),
		"ttl":              m.TTL,
		"created_at":       m.CreatedAt.UnixNano(),
		"client_uuid":      m.ClientUUID,
		"claim_id":         m.ClaimID,
		"claim_expires_at": m.ClaimExpiresAt.UnixNano(),
	}
}

func (s *MessageStore) Post(ctx context.Context, project, queue string, specs []domain.MessageSpec, clientUUID string) ([]string, error) {
	exists, err := (&QueueStore{client: s.client, clock: s.clock}).Exists(ctx, project, queue)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrQueueDoesNotExist
	}

	now := s.clock.Now()
	ids := make([]string, 0, len(specs))
	pipe := s.client.TxPipeline()
	for _, spec := range specs {
		id := uuid.Must(uuid.NewV7()).String()
		ids = append(ids, id)
		m := domain.Message{Body: spec.Body, TTL: spec.TTL, CreatedAt: now, ClientUUID: clientUUID}
		pipe.HSet(ctx, messageKey(project, queue, id), messageToFields(m))
		pipe.ZAdd(ctx, messagesZKey(project, queue), redis.Z{Score: float64(now.UnixNano()), Member: id})
	}
	_, err = pipe.Exec(ctx)
	return ids, err
}

func (s *MessageStore) get(ctx context.Context, project, queue, id string) (*domain.Message, error) {
	fields, err := s.client.HGetAll(ctx, messageKey(project, queue, id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrMessageDoesNotExist
	}
	m := fieldsToMessage(project, queue, id, fields)
	if m.IsExpired(s.clock.Now()) {
		return nil, domain.ErrMessageDoesNotExist
	}
	return &m, nil
}

func (s *MessageStore) Get(ctx context.Context, project, queue, id string) (*domain.Message, error) {
	return s.get(ctx, project, queue, id)
}

func (s *MessageStore) BulkGet(ctx context.Context, project, queue string, ids []string) ([]domain.Message, error) {
	var out []domain.Message
	for _, id := range ids {
		m, err := s.get(ctx, project, queue, id)
		if err != nil {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (s *MessageStore) Delete(ctx context.Context, project, queue, id, claimID string) error {
	m, err := s.get(ctx, project, queue, id)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	claimed := m.IsClaimed(now)
	switch {
	case claimed && (claimID == "" || claimID != m.ClaimID):
		return domain.ErrNotPermitted
	case !claimed && claimID != "" && isWellFormedClaimID(claimID):
		// A well-formed claim token against an unclaimed message may
		// reference a claim that once owned it and has since expired
		// or been deleted; a malformed token carries no such history
		// and is treated as no token at all.
		return domain.ErrNotPermitted
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, messageKey(project, queue, id))
	pipe.ZRem(ctx, messagesZKey(project, queue), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *MessageStore) BulkDelete(ctx context.Context, project, queue string, ids []string) error {
	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, messageKey(project, queue, id))
		pipe.ZRem(ctx, messagesZKey(project, queue), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *MessageStore) List(ctx context.Context, project, queue string, opts storage.MessageListOptions) (domain.Page[domain.Message], error) {
	ids, err := s.client.ZRange(ctx, messagesZKey(project, queue), 0, -1).Result()
	if err != nil {
		return domain.Page[domain.Message]{}, err
	}

	now := s.clock.Now()
	var all []domain.Message
	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, messageKey(project, queue, id)).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		m := fieldsToMessage(project, queue, id, fields)
		if m.IsExpired(now) {
			continue
		}
		if !opts.IncludeClaimed && m.IsClaimed(now) {
			continue
		}
		if !opts.Echo && opts.ClientUUID != "" && m.ClientUUID == opts.ClientUUID {
			continue
		}
		all = append(all, m)
	}

	start := 0
	if opts.Marker != "" {
		marker, ok := domain.DecodeMarker(opts.Marker)
		if !ok {
			// A non-empty marker that fails to decode is malformed,
			// not absent: it yields an empty page rather than page one.
			return domain.Page[domain.Message]{}, nil
		}
		start = len(all)
		for i, m := range all {
			if m.CreatedAt.After(marker.CreatedAt) || (m.CreatedAt.Equal(marker.CreatedAt) && m.ID > marker.ID) {
				start = i
				break
			}
		}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	if start > len(all) {
		start = len(all)
	}

	page := domain.Page[domain.Message]{Items: all[start:end]}
	if end < len(all) {
		last := all[end-1]
		page.NextMarker = domain.EncodeMarker(last.CreatedAt, last.ID)
	}
	return page, nil
}

func (s *MessageStore) Purge(ctx context.Context, project, queue string) error {
	ids, err := s.client.ZRange(ctx, messagesZKey(project, queue), 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, messageKey(project, queue, id))
	}
	pipe.Del(ctx, messagesZKey(project, queue))
	_, err = pipe.Exec(ctx)
	return err
}
