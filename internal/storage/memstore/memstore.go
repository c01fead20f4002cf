// Package memstore is an in-process storage.Driver implementation. It
// exists for two reasons: service-layer unit tests need a fast fake that
// actually honors the storage invariants (rather than a hand-rolled mock
// per interface, the way the reference codebase's testutil does it), and
// a single-node deployment may not want a database at all.
//
// Every method takes the package-level lock for its whole body; this
// trades concurrency for a trivially-correct implementation of the
// invariants in spec.md §3, which is exactly what a test fake should
// optimize for.
package memstore

import (
	"strconv"
	"sync"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
)

// Store holds all in-memory state behind a single mutex.
type Store struct {
	mu    sync.Mutex
	clock storage.Clock

	queues          map[queueKey]*queueRecord
	messages        map[queueKey]map[string]*messageRecord
	claims          map[queueKey]map[string]*claimRecord
	catalogue       map[string]map[string]*catalogueRecord
	partitions      map[string]*partitionRecord
	partOrder       []string
	idempotencyKeys map[string]*domain.IdempotencyKey
	seq             int64
}

type queueKey struct {
	project string
	name    string
}

// New creates an empty store using clock for all TTL arithmetic.
func New(clock storage.Clock) *Store {
	return &Store{
		clock:           clock,
		queues:          make(map[queueKey]*queueRecord),
		messages:        make(map[queueKey]map[string]*messageRecord),
		claims:          make(map[queueKey]map[string]*claimRecord),
		catalogue:       make(map[string]map[string]*catalogueRecord),
		partitions:      make(map[string]*partitionRecord),
		idempotencyKeys: make(map[string]*domain.IdempotencyKey),
	}
}

// IdempotencyStore adapts Store to storage.IdempotencyStore, wired
// separately from Driver since idempotency replay is a transport-level
// concern orthogonal to the queue/message/claim/catalogue/partition
// capabilities.
func (s *Store) IdempotencyStore() storage.IdempotencyStore {
	return (*idempotencyStore)(s)
}

// Driver adapts Store to a storage.Driver exposing all five
// capabilities.
func (s *Store) Driver() storage.Driver {
	return storage.Driver{
		Queue:     (*queueStore)(s),
		Message:   (*messageStore)(s),
		Claim:     (*claimStore)(s),
		Catalogue: (*catalogueStore)(s),
		Partition: (*partitionStore)(s),
	}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.FormatInt(s.seq, 10)
}
