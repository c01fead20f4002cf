// Package storage defines the contracts every persistence driver for the
// queue service must satisfy, generalizing the four controllers of
// spec.md §4 into capability interfaces. A Driver groups one
// implementation of each; storage/postgres and storage/redis provide
// concrete drivers, storage/memstore provides an in-process one used by
// service-layer tests.
package storage

import (
	"context"
	"time"

	"github.com/queue-broker-service/internal/domain"
)

// Clock is the injectable time source every store and service takes, so
// TTL arithmetic is deterministic under test (spec.md §5, "Time").
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ListOptions is shared by every paginated list call.
type ListOptions struct {
	Marker string
	Limit  int
}

// QueueListOptions extends ListOptions with the Queue controller's
// detailed flag (spec.md §4.1).
type QueueListOptions struct {
	ListOptions
	Detailed bool
}

// MessageListOptions extends ListOptions with the Message controller's
// echo/include_claimed/client_uuid filters (spec.md §4.2).
type MessageListOptions struct {
	ListOptions
	Echo           bool
	IncludeClaimed bool
	ClientUUID     string
}

// QueueStore persists queues and reports their message statistics.
type QueueStore interface {
	Create(ctx context.Context, project, name string) (bool, error)
	Exists(ctx context.Context, project, name string) (bool, error)
	GetMetadata(ctx context.Context, project, name string) (map[string]any, error)
	SetMetadata(ctx context.Context, project, name string, metadata map[string]any) error
	Delete(ctx context.Context, project, name string) error
	List(ctx context.Context, project string, opts QueueListOptions) (domain.Page[domain.Queue], error)
	Stats(ctx context.Context, project, name string) (domain.MessageStats, error)
}

// MessageStore persists messages within queues.
type MessageStore interface {
	Post(ctx context.Context, project, queue string, specs []domain.MessageSpec, clientUUID string) ([]string, error)
	Get(ctx context.Context, project, queue, id string) (*domain.Message, error)
	BulkGet(ctx context.Context, project, queue string, ids []string) ([]domain.Message, error)
	Delete(ctx context.Context, project, queue, id, claimID string) error
	BulkDelete(ctx context.Context, project, queue string, ids []string) error
	List(ctx context.Context, project, queue string, opts MessageListOptions) (domain.Page[domain.Message], error)
	// Purge deletes every message in a queue without removing the queue
	// itself (SPEC_FULL.md §4 queue-controller addition).
	Purge(ctx context.Context, project, queue string) error
}

// ClaimStore persists claims and the ownership they confer.
type ClaimStore interface {
	Create(ctx context.Context, project, queue string, ttl, grace, limit int) (*domain.Claim, []domain.Message, error)
	Get(ctx context.Context, project, queue, claimID string) (*domain.Claim, []domain.Message, error)
	Touch(ctx context.Context, project, queue, claimID string, ttl int) error
	Delete(ctx context.Context, project, queue, claimID string) error
}

// CatalogueStore maps (project, queue) to a backend node and metadata,
// for the proxy layer.
type CatalogueStore interface {
	Insert(ctx context.Context, project, queue, location string, metadata map[string]any) error
	Get(ctx context.Context, project, queue string) (*domain.CatalogueEntry, error)
	List(ctx context.Context, project string, includeMetadata, includeLocation bool) ([]domain.CatalogueEntry, error)
	Delete(ctx context.Context, project, queue string) error
	Location(ctx context.Context, project, queue string) (string, error)
	UpdateMetadata(ctx context.Context, project, queue string, metadata map[string]any) error
	Move(ctx context.Context, project, queue, newLocation string) error
}

// PartitionStore manages the proxy's weighted node pools.
type PartitionStore interface {
	Create(ctx context.Context, name string, weight int, nodes []string) error
	Get(ctx context.Context, name string) (*domain.Partition, error)
	List(ctx context.Context) ([]domain.Partition, error)
	Delete(ctx context.Context, name string) error
	// Select performs the two-stage weighted-then-round-robin pick
	// described in spec.md §4.4 and returns the chosen node URL.
	Select(ctx context.Context) (string, error)
}

// IdempotencyStore persists the outcome of prior POSTs so a replayed
// request returns the cached response instead of re-executing the
// operation. It is independent of the Driver capabilities above: a queue
// node wires exactly one; the proxy wires none.
type IdempotencyStore interface {
	Get(ctx context.Context, project, key string) (*domain.IdempotencyKey, error)
	Create(ctx context.Context, ik *domain.IdempotencyKey) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExpirySweeper is an optional capability a ClaimStore may implement to
// reap expired claims in one bulk pass, for the ExpiryWorker. postgres
// and memstore implement it with a single query/scan; redis relies on
// its keys' own TTLs and the lazy expiry checks in domain.Claim/Message
// instead, since its key space is not enumerable without a secondary
// index (see storage/redis package doc).
type ExpirySweeper interface {
	SweepExpiredClaims(ctx context.Context, now time.Time) (reaped int, err error)
}

// Driver groups one implementation of each storage capability. Queue
// node deployments populate Queue/Message/Claim; proxy deployments
// populate Catalogue/Partition. A single driver MAY implement both
// roles (the postgres driver does).
type Driver struct {
	Queue      QueueStore
	Message    MessageStore
	Claim      ClaimStore
	Catalogue  CatalogueStore
	Partition  PartitionStore
}
