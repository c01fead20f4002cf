package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queue-broker-service/internal/domain"
)

type CatalogueStore struct {
	pool *pgxpool.Pool
}

func NewCatalogueStore(pool *pgxpool.Pool) *CatalogueStore {
	return &CatalogueStore{pool: pool}
}

func (s *CatalogueStore) Insert(ctx context.Context, project, queue, location string, metadata map[string]any) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO catalogue_entries (project, queue, location, metadata) VALUES ($1, $2, $3, $4)`,
		project, queue, location, encoded)
	return mapError(err, nil)
}

func (s *CatalogueStore) Get(ctx context.Context, project, queue string) (*domain.CatalogueEntry, error) {
	var location string
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT location, metadata FROM catalogue_entries WHERE project = $1 AND queue = $2`,
		project, queue).Scan(&location, &raw)
	if err != nil {
		return nil, mapError(err, domain.ErrEntryNotFound)
	}
	metadata, err := decodeMetadata(raw)
	if err != nil {
		return nil, err
	}
	return &domain.CatalogueEntry{Project: project, Queue: queue, Location: location, Metadata: metadata}, nil
}

func (s *CatalogueStore) List(ctx context.Context, project string, includeMetadata, includeLocation bool) ([]domain.CatalogueEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT queue, location, metadata FROM catalogue_entries WHERE project = $1 ORDER BY queue`,
		project)
	if err != nil {
		return nil, mapError(err, nil)
	}
	defer rows.Close()

	var out []domain.CatalogueEntry
	for rows.Next() {
		var queue, location string
		var raw []byte
		if err := rows.Scan(&queue, &location, &raw); err != nil {
			return nil, err
		}
		entry := domain.CatalogueEntry{Project: project, Queue: queue}
		if includeLocation {
			entry.Location = location
		}
		if includeMetadata {
			metadata, err := decodeMetadata(raw)
			if err != nil {
				return nil, err
			}
			entry.Metadata = metadata
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *CatalogueStore) Delete(ctx context.Context, project, queue string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM catalogue_entries WHERE project = $1 AND queue = $2`, project, queue)
	return mapError(err, nil)
}

func (s *CatalogueStore) Location(ctx context.Context, project, queue string) (string, error) {
	var location string
	err := s.pool.QueryRow(ctx,
		`SELECT location FROM catalogue_entries WHERE project = $1 AND queue = $2`,
		project, queue).Scan(&location)
	if err != nil {
		return "", mapError(err, domain.ErrEntryNotFound)
	}
	return location, nil
}

func (s *CatalogueStore) UpdateMetadata(ctx context.Context, project, queue string, metadata map[string]any) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE catalogue_entries SET metadata = $3 WHERE project = $1 AND queue = $2`,
		project, queue, encoded)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (s *CatalogueStore) Move(ctx context.Context, project, queue, newLocation string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE catalogue_entries SET location = $3 WHERE project = $1 AND queue = $2`,
		project, queue, newLocation)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}
