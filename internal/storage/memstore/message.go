package memstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
)

// isWellFormedClaimID reports whether id has the "claim-<n>" shape this
// store issues. Anything else is a malformed token rather than a
// reference to some other, stale claim.
func isWellFormedClaimID(id string) bool {
	n, ok := strings.CutPrefix(id, "claim-")
	if !ok {
		return false
	}
	_, err := strconv.ParseInt(n, 10, 64)
	return err == nil
}

type messageRecord struct {
	id             string
	project        string
	queue          string
	body           []byte
	ttl            int
	createdAt      time.Time
	clientUUID     string
	claimID        string
	claimExpiresAt time.Time
}

func (m *messageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:             m.id,
		Project:        m.project,
		Queue:          m.queue,
		Body:           m.body,
		TTL:            m.ttl,
		CreatedAt:      m.createdAt,
		ClientUUID:     m.clientUUID,
		ClaimID:        m.claimID,
		ClaimExpiresAt: m.claimExpiresAt,
	}
}

func (m *messageRecord) isExpired(now time.Time) bool {
	d := m.toDomain()
	return d.IsExpired(now)
}

func (m *messageRecord) isClaimed(now time.Time) bool {
	d := m.toDomain()
	return d.IsClaimed(now)
}

type messageStore Store

func (ms *messageStore) s() *Store { return (*Store)(ms) }

func (ms *messageStore) Post(ctx context.Context, project, queue string, specs []domain.MessageSpec, clientUUID string) ([]string, error) {
	s := ms.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := queueKey{project, queue}
	bucket, ok := s.messages[key]
	if !ok {
		return nil, domain.ErrQueueDoesNotExist
	}

	now := s.clock.Now()
	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		id := s.nextID("msg")
		bucket[id] = &messageRecord{
			id:         id,
			project:    project,
			queue:      queue,
			body:       spec.Body,
			ttl:        spec.TTL,
			createdAt:  now,
			clientUUID: clientUUID,
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (ms *messageStore) Get(ctx context.Context, project, queue, id string) (*domain.Message, error) {
	s := ms.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.messages[queueKey{project, queue}]
	if !ok {
		return nil, domain.ErrQueueDoesNotExist
	}
	rec, ok := bucket[id]
	if !ok || rec.isExpired(s.clock.Now()) {
		return nil, domain.ErrMessageDoesNotExist
	}
	d := rec.toDomain()
	return &d, nil
}

func (ms *messageStore) BulkGet(ctx context.Context, project, queue string, ids []string) ([]domain.Message, error) {
	s := ms.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.messages[queueKey{project, queue}]
	if !ok {
		return nil, domain.ErrQueueDoesNotExist
	}
	now := s.clock.Now()
	out := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		rec, ok := bucket[id]
		if !ok || rec.isExpired(now) {
			continue
		}
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (ms *messageStore) Delete(ctx context.Context, project, queue, id, claimID string) error {
	s := ms.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.messages[queueKey{project, queue}]
	if !ok {
		return domain.ErrQueueDoesNotExist
	}
	now := s.clock.Now()
	rec, ok := bucket[id]
	if !ok || rec.isExpired(now) {
		return domain.ErrMessageDoesNotExist
	}

	if rec.isClaimed(now) {
		if claimID == "" || claimID != rec.claimID {
			return domain.ErrNotPermitted
		}
	} else if claimID != "" && isWellFormedClaimID(claimID) {
		// A well-formed claim token against an unclaimed message may
		// reference a claim that once owned it and has since expired
		// or been deleted; a malformed token carries no such history
		// and is treated as no token at all.
		return domain.ErrNotPermitted
	}

	delete(bucket, id)
	return nil
}

func (ms *messageStore) BulkDelete(ctx context.Context, project, queue string, ids []string) error {
	s := ms.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.messages[queueKey{project, queue}]
	if !ok {
		return domain.ErrQueueDoesNotExist
	}
	for _, id := range ids {
		delete(bucket, id)
	}
	return nil
}

func (ms *messageStore) List(ctx context.Context, project, queue string, opts storage.MessageListOptions) (domain.Page[domain.Message], error) {
	s := ms.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.messages[queueKey{project, queue}]
	if !ok {
		return domain.Page[domain.Message]{}, domain.ErrQueueDoesNotExist
	}

	now := s.clock.Now()
	var all []*messageRecord
	for _, rec := range bucket {
		if rec.isExpired(now) {
			continue
		}
		if !opts.IncludeClaimed && rec.isClaimed(now) {
			continue
		}
		if !opts.Echo && opts.ClientUUID != "" && rec.clientUUID == opts.ClientUUID {
			continue
		}
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].createdAt.Equal(all[j].createdAt) {
			return all[i].id < all[j].id
		}
		return all[i].createdAt.Before(all[j].createdAt)
	})

	start := 0
	if opts.Marker != "" {
		marker, ok := domain.DecodeMarker(opts.Marker)
		if !ok {
			// A non-empty marker that fails to decode is malformed,
			// not absent: it yields an empty page rather than page one.
			return domain.Page[domain.Message]{}, nil
		}
		start = len(all)
		for i, rec := range all {
			if rec.createdAt.After(marker.CreatedAt) ||
				(rec.createdAt.Equal(marker.CreatedAt) && rec.id > marker.ID) {
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

	page := domain.Page[domain.Message]{}
	for _, rec := range all[start:end] {
		page.Items = append(page.Items, rec.toDomain())
	}
	if end < len(all) {
		last := all[end-1]
		page.NextMarker = domain.EncodeMarker(last.createdAt, last.id)
	}
	return page, nil
}

func (ms *messageStore) Purge(ctx context.Context, project, queue string) error {
	s := ms.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := queueKey{project, queue}
	if _, ok := s.messages[key]; !ok {
		return domain.ErrQueueDoesNotExist
	}
	s.messages[key] = make(map[string]*messageRecord)
	s.claims[key] = make(map[string]*claimRecord)
	return nil
}
