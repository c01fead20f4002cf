package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/queue-broker-service/internal/domain"
)

type claimRecord struct {
	id         string
	project    string
	queue      string
	ttl        int
	grace      int
	createdAt  time.Time
	expiresAt  time.Time
	messageIDs []string
}

func (c *claimRecord) toDomain() domain.Claim {
	ids := make([]string, len(c.messageIDs))
	copy(ids, c.messageIDs)
	return domain.Claim{
		ID:         c.id,
		Project:    c.project,
		Queue:      c.queue,
		TTL:        c.ttl,
		Grace:      c.grace,
		CreatedAt:  c.createdAt,
		ExpiresAt:  c.expiresAt,
		MessageIDs: ids,
	}
}

func (c *claimRecord) isExpired(now time.Time) bool {
	d := c.toDomain()
	return d.IsExpired(now)
}

type claimStore Store

func (cs *claimStore) s() *Store { return (*Store)(cs) }

// Create performs the same atomic "select free messages FIFO, mark them
// claimed, extend their TTL" sequence the postgres driver does under
// SELECT ... FOR UPDATE SKIP LOCKED — here trivially atomic under the
// single store mutex.
func (cs *claimStore) Create(ctx context.Context, project, queue string, ttl, grace, limit int) (*domain.Claim, []domain.Message, error) {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := queueKey{project, queue}
	bucket, ok := s.messages[key]
	if !ok {
		return nil, nil, domain.ErrQueueDoesNotExist
	}
	claims, ok := s.claims[key]
	if !ok {
		claims = make(map[string]*claimRecord)
		s.claims[key] = claims
	}

	now := s.clock.Now()
	var free []*messageRecord
	for _, rec := range bucket {
		if rec.isExpired(now) || rec.isClaimed(now) {
			continue
		}
		free = append(free, rec)
	}
	sort.Slice(free, func(i, j int) bool {
		if free[i].createdAt.Equal(free[j].createdAt) {
			return free[i].id < free[j].id
		}
		return free[i].createdAt.Before(free[j].createdAt)
	})

	if limit <= 0 || limit > len(free) {
		limit = len(free)
	}
	selected := free[:limit]

	claimID := s.nextID("claim")
	expiresAt := now.Add(time.Duration(ttl) * time.Second)
	rec := &claimRecord{
		id:        claimID,
		project:   project,
		queue:     queue,
		ttl:       ttl,
		grace:     grace,
		createdAt: now,
		expiresAt: expiresAt,
	}

	for _, m := range selected {
		remaining := int(m.createdAt.Add(time.Duration(m.ttl) * time.Second).Sub(now).Seconds())
		extended := rec.toDomain().ExtendedMessageTTL(remaining)
		m.ttl = extended
		m.createdAt = now
		m.claimID = claimID
		m.claimExpiresAt = expiresAt
		rec.messageIDs = append(rec.messageIDs, m.id)
	}
	claims[claimID] = rec

	out := make([]domain.Message, len(selected))
	for i, m := range selected {
		out[i] = m.toDomain()
	}
	d := rec.toDomain()
	return &d, out, nil
}

func (cs *claimStore) Get(ctx context.Context, project, queue, claimID string) (*domain.Claim, []domain.Message, error) {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := queueKey{project, queue}
	claims, ok := s.claims[key]
	if !ok {
		return nil, nil, domain.ErrQueueDoesNotExist
	}
	now := s.clock.Now()
	rec, ok := claims[claimID]
	if !ok || rec.isExpired(now) {
		return nil, nil, domain.ErrClaimDoesNotExist
	}

	bucket := s.messages[key]
	msgs := make([]domain.Message, 0, len(rec.messageIDs))
	for _, id := range rec.messageIDs {
		if m, ok := bucket[id]; ok && !m.isExpired(now) {
			msgs = append(msgs, m.toDomain())
		}
	}
	d := rec.toDomain()
	return &d, msgs, nil
}

func (cs *claimStore) Touch(ctx context.Context, project, queue, claimID string, ttl int) error {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := queueKey{project, queue}
	claims, ok := s.claims[key]
	if !ok {
		return domain.ErrQueueDoesNotExist
	}
	now := s.clock.Now()
	rec, ok := claims[claimID]
	if !ok || rec.isExpired(now) {
		return domain.ErrClaimDoesNotExist
	}

	rec.ttl = ttl
	rec.expiresAt = now.Add(time.Duration(ttl) * time.Second)

	bucket := s.messages[key]
	for _, id := range rec.messageIDs {
		if m, ok := bucket[id]; ok {
			m.claimExpiresAt = rec.expiresAt
		}
	}
	return nil
}

func (cs *claimStore) Delete(ctx context.Context, project, queue, claimID string) error {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := queueKey{project, queue}
	claims, ok := s.claims[key]
	if !ok {
		return domain.ErrQueueDoesNotExist
	}
	rec, ok := claims[claimID]
	if !ok {
		return nil
	}

	bucket := s.messages[key]
	for _, id := range rec.messageIDs {
		if m, ok := bucket[id]; ok && m.claimID == claimID {
			m.claimID = ""
			m.claimExpiresAt = time.Time{}
		}
	}
	delete(claims, claimID)
	return nil
}

// SweepExpiredClaims implements storage.ExpirySweeper: it scans every
// queue's claim bucket, deleting any claim whose expiry has lapsed and
// releasing the messages it held. Grace is not added: isExpired compares
// against the claim's own ExpiresAt.
func (cs *claimStore) SweepExpiredClaims(ctx context.Context, now time.Time) (int, error) {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	reaped := 0
	for key, claims := range s.claims {
		bucket := s.messages[key]
		for id, rec := range claims {
			if !rec.isExpired(now) {
				continue
			}
			for _, msgID := range rec.messageIDs {
				if m, ok := bucket[msgID]; ok && m.claimID == id {
					m.claimID = ""
					m.claimExpiresAt = time.Time{}
				}
			}
			delete(claims, id)
			reaped++
		}
	}
	return reaped, nil
}
