package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
)

type MessageStore struct {
	pool  *pgxpool.Pool
	clock storage.Clock
}

func NewMessageStore(pool *pgxpool.Pool, clock storage.Clock) *MessageStore {
	return &MessageStore{pool: pool, clock: clock}
}

func (s *MessageStore) Post(ctx context.Context, project, queue string, specs []domain.MessageSpec, clientUUID string) ([]string, error) {
	now := s.clock.Now()
	ids := make([]string, 0, len(specs))

	var batch pgx.Batch
	for _, spec := range specs {
		id := uuid.Must(uuid.NewV7()).String()
		ids = append(ids, id)
		batch.Queue(
			`INSERT INTO messages (id, project, queue, body, ttl, created_at, client_uuid)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, project, queue, spec.Body, spec.TTL, now, clientUUID)
	}

	results := s.pool.SendBatch(ctx, &batch)
	defer results.Close()
	for range specs {
		if _, err := results.Exec(); err != nil {
			return nil, mapError(err, domain.ErrQueueDoesNotExist)
		}
	}
	return ids, nil
}

func (s *MessageStore) Get(ctx context.Context, project, queue, id string) (*domain.Message, error) {
	now := s.clock.Now()
	row := s.pool.QueryRow(ctx,
		`SELECT id, body, ttl, created_at, client_uuid, claim_id, claim_expires_at
		 FROM messages WHERE project = $1 AND queue = $2 AND id = $3
		   AND created_at + (ttl || ' seconds')::interval > $4`,
		project, queue, id, now)
	return scanMessage(row, project, queue)
}

func (s *MessageStore) BulkGet(ctx context.Context, project, queue string, ids []string) ([]domain.Message, error) {
	now := s.clock.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT id, body, ttl, created_at, client_uuid, claim_id, claim_expires_at
		 FROM messages WHERE project = $1 AND queue = $2 AND id = ANY($3)
		   AND created_at + (ttl || ' seconds')::interval > $4`,
		project, queue, ids, now)
	if err != nil {
		return nil, mapError(err, nil)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessageRow(rows, project, queue)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *MessageStore) Delete(ctx context.Context, project, queue, id, claimID string) error {
	now := s.clock.Now()
	msg, err := s.Get(ctx, project, queue, id)
	if err != nil {
		return err
	}

	claimed := msg.IsClaimed(now)
	switch {
	case claimed && (claimID == "" || claimID != msg.ClaimID):
		return domain.ErrNotPermitted
	case !claimed && claimID != "" && isWellFormedClaimID(claimID):
		// A well-formed claim token against an unclaimed message may
		// reference a claim that once owned it and has since expired
		// or been deleted; a malformed token carries no such history
		// and is treated as no token at all.
		return domain.ErrNotPermitted
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE project = $1 AND queue = $2 AND id = $3`,
		project, queue, id)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageDoesNotExist
	}
	return nil
}

func (s *MessageStore) BulkDelete(ctx context.Context, project, queue string, ids []string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM messages WHERE project = $1 AND queue = $2 AND id = ANY($3)`,
		project, queue, ids)
	return mapError(err, nil)
}

func (s *MessageStore) List(ctx context.Context, project, queue string, opts storage.MessageListOptions) (domain.Page[domain.Message], error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	markerTime := time.Unix(0, 0).UTC()
	markerID := ""
	if opts.Marker != "" {
		m, ok := domain.DecodeMarker(opts.Marker)
		if !ok {
			// A non-empty marker that fails to decode is malformed,
			// not absent: it yields an empty page rather than page one.
			return domain.Page[domain.Message]{}, nil
		}
		markerTime, markerID = m.CreatedAt, m.ID
	}

	now := s.clock.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT id, body, ttl, created_at, client_uuid, claim_id, claim_expires_at
		 FROM messages
		 WHERE project = $1 AND queue = $2
		   AND created_at + (ttl || ' seconds')::interval > $3
		   AND (created_at, id) > ($4, $5)
		   AND ($6 OR claim_id = '' OR claim_expires_at <= $3)
		   AND ($7 OR client_uuid <> $8 OR client_uuid = '')
		 ORDER BY created_at, id
		 LIMIT $9`,
		project, queue, now, markerTime, markerID,
		opts.IncludeClaimed, opts.Echo, opts.ClientUUID, limit+1)
	if err != nil {
		return domain.Page[domain.Message]{}, mapError(err, domain.ErrQueueDoesNotExist)
	}
	defer rows.Close()

	var page domain.Page[domain.Message]
	for rows.Next() {
		m, err := scanMessageRow(rows, project, queue)
		if err != nil {
			return domain.Page[domain.Message]{}, err
		}
		page.Items = append(page.Items, *m)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Message]{}, err
	}

	if len(page.Items) > limit {
		last := page.Items[limit-1]
		page.NextMarker = domain.EncodeMarker(last.CreatedAt, last.ID)
		page.Items = page.Items[:limit]
	}
	return page, nil
}

func (s *MessageStore) Purge(ctx context.Context, project, queue string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE project = $1 AND queue = $2`, project, queue)
	return mapError(err, nil)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner, project, queue string) (*domain.Message, error) {
	return scanMessageRow(row, project, queue)
}

func scanMessageRow(row rowScanner, project, queue string) (*domain.Message, error) {
	var m domain.Message
	var claimExpires *time.Time
	if err := row.Scan(&m.ID, &m.Body, &m.TTL, &m.CreatedAt, &m.ClientUUID, &m.ClaimID, &claimExpires); err != nil {
		return nil, mapError(err, domain.ErrMessageDoesNotExist)
	}
	m.Project = project
	m.Queue = queue
	if claimExpires != nil {
		m.ClaimExpiresAt = *claimExpires
	}
	return &m, nil
}
