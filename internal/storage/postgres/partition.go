package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queue-broker-service/internal/domain"
)

type PartitionStore struct {
	pool *pgxpool.Pool
}

func NewPartitionStore(pool *pgxpool.Pool) *PartitionStore {
	return &PartitionStore{pool: pool}
}

func (s *PartitionStore) Create(ctx context.Context, name string, weight int, nodes []string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO partitions (name, weight, nodes, rotating_index) VALUES ($1, $2, $3, 0)
		 ON CONFLICT (name) DO UPDATE SET weight = EXCLUDED.weight, nodes = EXCLUDED.nodes`,
		name, weight, nodes)
	return mapError(err, nil)
}

func (s *PartitionStore) Get(ctx context.Context, name string) (*domain.Partition, error) {
	var p domain.Partition
	err := s.pool.QueryRow(ctx,
		`SELECT name, weight, nodes, rotating_index FROM partitions WHERE name = $1`,
		name).Scan(&p.Name, &p.Weight, &p.Nodes, &p.RotatingIndex)
	if err != nil {
		return nil, mapError(err, domain.ErrPartitionNotFound)
	}
	return &p, nil
}

func (s *PartitionStore) List(ctx context.Context) ([]domain.Partition, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, weight, nodes, rotating_index FROM partitions ORDER BY name`)
	if err != nil {
		return nil, mapError(err, nil)
	}
	defer rows.Close()

	var out []domain.Partition
	for rows.Next() {
		var p domain.Partition
		if err := rows.Scan(&p.Name, &p.Weight, &p.Nodes, &p.RotatingIndex); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PartitionStore) Delete(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM partitions WHERE name = $1`, name)
	return mapError(err, nil)
}

// Select performs the weighted partition pick and round-robin node pick
// inside one transaction so RotatingIndex advances atomically under
// concurrent callers, mirroring the SKIP LOCKED discipline the claim
// store uses for message selection.
func (s *PartitionStore) Select(ctx context.Context) (string, error) {
	var node string
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT name, weight, nodes, rotating_index FROM partitions ORDER BY name FOR UPDATE`)
		if err != nil {
			return err
		}
		var partitions []domain.Partition
		for rows.Next() {
			var p domain.Partition
			if err := rows.Scan(&p.Name, &p.Weight, &p.Nodes, &p.RotatingIndex); err != nil {
				rows.Close()
				return err
			}
			partitions = append(partitions, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		totalWeight := 0
		for _, p := range partitions {
			totalWeight += p.Weight
		}
		if len(partitions) == 0 || totalWeight <= 0 {
			return domain.ErrNoPartitionsRegistered
		}

		var cursor int64
		if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(rotating_index), 0) FROM partitions`).Scan(&cursor); err != nil {
			return err
		}
		pick := cursor % int64(totalWeight)

		var chosen *domain.Partition
		for i := range partitions {
			p := &partitions[i]
			if p.Weight <= 0 {
				continue
			}
			if pick < int64(p.Weight) {
				chosen = p
				break
			}
			pick -= int64(p.Weight)
		}
		if chosen == nil || len(chosen.Nodes) == 0 {
			return domain.ErrNoPartitionsRegistered
		}

		node = chosen.Nodes[chosen.RotatingIndex%int64(len(chosen.Nodes))]
		_, err = tx.Exec(ctx, `UPDATE partitions SET rotating_index = rotating_index + 1 WHERE name = $1`, chosen.Name)
		return err
	})
	if err != nil {
		return "", mapError(err, domain.ErrNoPartitionsRegistered)
	}
	return node, nil
}
