package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queue-broker-service/internal/domain"
)

// IdempotencyStore persists replay keys in the idempotency_keys table
// created by migration 0001.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

func (s *IdempotencyStore) Get(ctx context.Context, project, key string) (*domain.IdempotencyKey, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, project, key, endpoint, method, request_hash,
		       response_status, response_body, created_at, expires_at
		FROM idempotency_keys
		WHERE project = $1 AND key = $2`, project, key)

	var ik domain.IdempotencyKey
	err := row.Scan(&ik.ID, &ik.Project, &ik.Key, &ik.Endpoint, &ik.Method,
		&ik.RequestHash, &ik.ResponseStatus, &ik.ResponseBody, &ik.CreatedAt, &ik.ExpiresAt)
	if err != nil {
		return nil, mapError(err, domain.ErrEntryNotFound)
	}
	return &ik, nil
}

func (s *IdempotencyStore) Create(ctx context.Context, ik *domain.IdempotencyKey) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys
			(id, project, key, endpoint, method, request_hash, response_status, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (project, key, endpoint, method) DO NOTHING`,
		ik.ID, ik.Project, ik.Key, ik.Endpoint, ik.Method, ik.RequestHash,
		ik.ResponseStatus, ik.ResponseBody, ik.CreatedAt, ik.ExpiresAt)
	return mapError(err, nil)
}

func (s *IdempotencyStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapError(err, nil)
	}
	return tag.RowsAffected(), nil
}
