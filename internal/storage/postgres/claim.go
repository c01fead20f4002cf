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

type ClaimStore struct {
	pool  *pgxpool.Pool
	clock storage.Clock
}

func NewClaimStore(pool *pgxpool.Pool, clock storage.Clock) *ClaimStore {
	return &ClaimStore{pool: pool, clock: clock}
}

// Create selects up to limit free messages FIFO and atomically assigns
// them to a new claim. SELECT ... FOR UPDATE SKIP LOCKED lets concurrent
// claim attempts on the same queue proceed against disjoint message
// sets instead of serializing on a table lock.
func (s *ClaimStore) Create(ctx context.Context, project, queue string, ttl, grace, limit int) (*domain.Claim, []domain.Message, error) {
	now := s.clock.Now()
	claimID := uuid.Must(uuid.NewV7()).String()
	expiresAt := now.Add(time.Duration(ttl) * time.Second)

	var claim *domain.Claim
	var messages []domain.Message

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM queues WHERE project = $1 AND name = $2)`,
			project, queue).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrQueueDoesNotExist
		}

		rows, err := tx.Query(ctx,
			`SELECT id, body, ttl, created_at, client_uuid
			 FROM messages
			 WHERE project = $1 AND queue = $2
			   AND created_at + (ttl || ' seconds')::interval > $3
			   AND claim_id = ''
			 ORDER BY created_at, id
			 LIMIT $4
			 FOR UPDATE SKIP LOCKED`,
			project, queue, now, limit)
		if err != nil {
			return err
		}

		type picked struct {
			id         string
			body       []byte
			ttl        int
			createdAt  time.Time
			clientUUID string
		}
		var selected []picked
		for rows.Next() {
			var p picked
			if err := rows.Scan(&p.id, &p.body, &p.ttl, &p.createdAt, &p.clientUUID); err != nil {
				rows.Close()
				return err
			}
			selected = append(selected, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO claims (id, project, queue, ttl, grace, created_at, expires_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			claimID, project, queue, ttl, grace, now, expiresAt); err != nil {
			return err
		}

		messageIDs := make([]string, 0, len(selected))
		for _, p := range selected {
			remaining := int(p.createdAt.Add(time.Duration(p.ttl) * time.Second).Sub(now).Seconds())
			extended := (&domain.Claim{TTL: ttl, Grace: grace}).ExtendedMessageTTL(remaining)

			if _, err := tx.Exec(ctx,
				`UPDATE messages SET ttl = $1, created_at = $2, claim_id = $3, claim_expires_at = $4
				 WHERE project = $5 AND queue = $6 AND id = $7`,
				extended, now, claimID, expiresAt, project, queue, p.id); err != nil {
				return err
			}
			messageIDs = append(messageIDs, p.id)
			messages = append(messages, domain.Message{
				ID: p.id, Project: project, Queue: queue, Body: p.body,
				TTL: extended, CreatedAt: now, ClientUUID: p.clientUUID,
				ClaimID: claimID, ClaimExpiresAt: expiresAt,
			})
		}

		claim = &domain.Claim{
			ID: claimID, Project: project, Queue: queue, TTL: ttl, Grace: grace,
			CreatedAt: now, ExpiresAt: expiresAt, MessageIDs: messageIDs,
		}
		return nil
	})
	if err != nil {
		return nil, nil, mapError(err, domain.ErrQueueDoesNotExist)
	}
	return claim, messages, nil
}

func (s *ClaimStore) Get(ctx context.Context, project, queue, claimID string) (*domain.Claim, []domain.Message, error) {
	now := s.clock.Now()
	var ttl, grace int
	var createdAt, expiresAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT ttl, grace, created_at, expires_at FROM claims
		 WHERE project = $1 AND queue = $2 AND id = $3 AND expires_at > $4`,
		project, queue, claimID, now).Scan(&ttl, &grace, &createdAt, &expiresAt)
	if err != nil {
		return nil, nil, mapError(err, domain.ErrClaimDoesNotExist)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, body, ttl, created_at, client_uuid, claim_expires_at
		 FROM messages
		 WHERE project = $1 AND queue = $2 AND claim_id = $3
		   AND created_at + (ttl || ' seconds')::interval > $4
		 ORDER BY created_at, id`,
		project, queue, claimID, now)
	if err != nil {
		return nil, nil, mapError(err, nil)
	}
	defer rows.Close()

	var messages []domain.Message
	var messageIDs []string
	for rows.Next() {
		var m domain.Message
		var claimExpires *time.Time
		if err := rows.Scan(&m.ID, &m.Body, &m.TTL, &m.CreatedAt, &m.ClientUUID, &claimExpires); err != nil {
			return nil, nil, err
		}
		m.Project, m.Queue, m.ClaimID = project, queue, claimID
		if claimExpires != nil {
			m.ClaimExpiresAt = *claimExpires
		}
		messages = append(messages, m)
		messageIDs = append(messageIDs, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	claim := &domain.Claim{
		ID: claimID, Project: project, Queue: queue, TTL: ttl, Grace: grace,
		CreatedAt: createdAt, ExpiresAt: expiresAt, MessageIDs: messageIDs,
	}
	return claim, messages, nil
}

func (s *ClaimStore) Touch(ctx context.Context, project, queue, claimID string, ttl int) error {
	now := s.clock.Now()
	expiresAt := now.Add(time.Duration(ttl) * time.Second)

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE claims SET ttl = $1, expires_at = $2
			 WHERE project = $3 AND queue = $4 AND id = $5 AND expires_at > $6`,
			ttl, expiresAt, project, queue, claimID, now)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrClaimDoesNotExist
		}

		_, err = tx.Exec(ctx,
			`UPDATE messages SET claim_expires_at = $1 WHERE project = $2 AND queue = $3 AND claim_id = $4`,
			expiresAt, project, queue, claimID)
		return err
	})
}

func (s *ClaimStore) Delete(ctx context.Context, project, queue, claimID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE messages SET claim_id = '', claim_expires_at = NULL
			 WHERE project = $1 AND queue = $2 AND claim_id = $3`,
			project, queue, claimID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM claims WHERE project = $1 AND queue = $2 AND id = $3`,
			project, queue, claimID)
		return err
	})
}

// SweepExpiredClaims implements storage.ExpirySweeper with a single
// DELETE ... RETURNING, then releases every message that pointed at one
// of the reaped claims.
func (s *ClaimStore) SweepExpiredClaims(ctx context.Context, now time.Time) (int, error) {
	var reaped int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `DELETE FROM claims WHERE expires_at <= $1 RETURNING id`, now)
		if err != nil {
			return err
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		reaped = len(ids)
		if len(ids) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE messages SET claim_id = '', claim_expires_at = NULL WHERE claim_id = ANY($1)`, ids)
		return err
	})
	return reaped, mapError(err, nil)
}
