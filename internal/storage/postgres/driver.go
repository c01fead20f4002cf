package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queue-broker-service/internal/storage"
)

// NewDriver wires all five storage capabilities to pool. A queue node
// deployment uses Queue/Message/Claim; a proxy deployment uses
// Catalogue/Partition. Both roles share one pool and one driver value.
func NewDriver(pool *pgxpool.Pool, clock storage.Clock) storage.Driver {
	return storage.Driver{
		Queue:     NewQueueStore(pool, clock),
		Message:   NewMessageStore(pool, clock),
		Claim:     NewClaimStore(pool, clock),
		Catalogue: NewCatalogueStore(pool),
		Partition: NewPartitionStore(pool),
	}
}
