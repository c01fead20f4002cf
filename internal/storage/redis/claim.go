package redis

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
)

type ClaimStore struct {
	client *redis.Client
	clock  storage.Clock
}

// claimScript atomically selects up to ARGV[2] free, non-expired
// messages from the sorted set at KEYS[1] (FIFO by score), marks each
// with the new claim, and records the claim hash at KEYS[2]. It plays
// the same role the postgres driver's SELECT ... FOR UPDATE SKIP LOCKED
// transaction does: nothing else can observe or grab the same message
// mid-selection because a Lua script runs to completion as one atomic
// unit on the server.
var claimScript = redis.NewScript(`
local zkey = KEYS[1]
local claimKey = KEYS[2]
local msgPrefix = ARGV[1]
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local claimID = ARGV[4]
local ttl = tonumber(ARGV[5])
local grace = tonumber(ARGV[6])
local expiresAt = ARGV[7]

local ids = redis.call('ZRANGE', zkey, 0, -1)
local selected = {}
for _, id in ipairs(ids) do
  if #selected >= limit then break end
  local mkey = msgPrefix .. id
  local claimID_existing = redis.call('HGET', mkey, 'claim_id')
  local createdAt = tonumber(redis.call('HGET', mkey, 'created_at'))
  local msgTTL = tonumber(redis.call('HGET', mkey, 'ttl'))
  if createdAt ~= nil and msgTTL ~= nil then
    local expiry = createdAt + (msgTTL * 1000000000)
    if expiry > now and (claimID_existing == false or claimID_existing == '') then
      local remaining = math.floor((expiry - now) / 1000000000)
      local extended = ttl + grace
      if remaining > extended then extended = remaining end
      redis.call('HSET', mkey, 'ttl', extended, 'created_at', now, 'claim_id', claimID, 'claim_expires_at', expiresAt)
      table.insert(selected, id)
    end
  end
end

if #selected > 0 then
  redis.call('HSET', claimKey, 'ttl', ttl, 'grace', grace, 'created_at', now, 'expires_at', expiresAt, 'message_ids', table.concat(selected, ','))
end
return selected
`)

func (s *ClaimStore) Create(ctx context.Context, project, queue string, ttl, grace, limit int) (*domain.Claim, []domain.Message, error) {
	exists, err := (&QueueStore{client: s.client, clock: s.clock}).Exists(ctx, project, queue)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, domain.ErrQueueDoesNotExist
	}

	now := s.clock.Now()
	claimID := uuid.Must(uuid.NewV7()).String()
	expiresAt := now.Add(time.Duration(ttl) * time.Second)

	if limit <= 0 {
		limit = 1 << 30
	}

	result, err := claimScript.Run(ctx, s.client,
		[]string{messagesZKey(project, queue), claimKey(project, queue, claimID)},
		"m:"+project+":"+queue+":",
		now.UnixNano(), limit, claimID, ttl, grace, expiresAt.UnixNano(),
	).Result()
	if err != nil {
		return nil, nil, err
	}

	ids, _ := result.([]any)
	messageIDs := make([]string, 0, len(ids))
	messages := make([]domain.Message, 0, len(ids))
	for _, raw := range ids {
		id, _ := raw.(string)
		fields, err := s.client.HGetAll(ctx, messageKey(project, queue, id)).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		messageIDs = append(messageIDs, id)
		messages = append(messages, fieldsToMessage(project, queue, id, fields))
	}

	claim := &domain.Claim{
		ID: claimID, Project: project, Queue: queue, TTL: ttl, Grace: grace,
		CreatedAt: now, ExpiresAt: expiresAt, MessageIDs: messageIDs,
	}
	return claim, messages, nil
}

func (s *ClaimStore) Get(ctx context.Context, project, queue, claimID string) (*domain.Claim, []domain.Message, error) {
	fields, err := s.client.HGetAll(ctx, claimKey(project, queue, claimID)).Result()
	if err != nil {
		return nil, nil, err
	}
	if len(fields) == 0 {
		return nil, nil, domain.ErrClaimDoesNotExist
	}

	ttl, _ := strconv.Atoi(fields["ttl"])
	grace, _ := strconv.Atoi(fields["grace"])
	createdNanos, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	expiresNanos, _ := strconv.ParseInt(fields["expires_at"], 10, 64)
	expiresAt := time.Unix(0, expiresNanos).UTC()

	now := s.clock.Now()
	if !now.Before(expiresAt) {
		return nil, nil, domain.ErrClaimDoesNotExist
	}

	var messageIDs []string
	if raw := fields["message_ids"]; raw != "" {
		messageIDs = splitCSV(raw)
	}

	var messages []domain.Message
	for _, id := range messageIDs {
		mfields, err := s.client.HGetAll(ctx, messageKey(project, queue, id)).Result()
		if err != nil || len(mfields) == 0 {
			continue
		}
		m := fieldsToMessage(project, queue, id, mfields)
		if m.IsExpired(now) {
			continue
		}
		messages = append(messages, m)
	}

	claim := &domain.Claim{
		ID: claimID, Project: project, Queue: queue, TTL: ttl, Grace: grace,
		CreatedAt: time.Unix(0, createdNanos).UTC(), ExpiresAt: expiresAt, MessageIDs: messageIDs,
	}
	return claim, messages, nil
}

func (s *ClaimStore) Touch(ctx context.Context, project, queue, claimID string, ttl int) error {
	key := claimKey(project, queue, claimID)
	raw, err := s.client.HGet(ctx, key, "message_ids").Result()
	if err != nil && err != redis.Nil {
		return err
	}
	if raw == "" {
		exists, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrClaimDoesNotExist
		}
	}

	now := s.clock.Now()
	expiresAt := now.Add(time.Duration(ttl) * time.Second)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "ttl", ttl, "expires_at", expiresAt.UnixNano())
	for _, id := range splitCSV(raw) {
		pipe.HSet(ctx, messageKey(project, queue, id), "claim_expires_at", expiresAt.UnixNano())
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *ClaimStore) Delete(ctx context.Context, project, queue, claimID string) error {
	key := claimKey(project, queue, claimID)
	raw, err := s.client.HGet(ctx, key, "message_ids").Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, id := range splitCSV(raw) {
		pipe.HSet(ctx, messageKey(project, queue, id), "claim_id", "", "claim_expires_at", 0)
	}
	pipe.Del(ctx, key)
	_, err = pipe.Exec(ctx)
	return err
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
