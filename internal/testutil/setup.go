package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/queue-broker-service/internal/domain"
)

// TestContext returns a context with timeout for tests
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ==================== Fixtures ====================

// NewTestQueue creates a queue fixture for testing.
func NewTestQueue(project, name string, now time.Time) *domain.Queue {
	return domain.NewQueue(project, name, now)
}

// NewTestMessageSpec creates a message spec fixture with the given body.
func NewTestMessageSpec(ttl int, body string) domain.MessageSpec {
	return domain.MessageSpec{TTL: ttl, Body: []byte(body)}
}

// NewTestMessageSpecs creates n message spec fixtures, all sharing ttl.
func NewTestMessageSpecs(n, ttl int) []domain.MessageSpec {
	specs := make([]domain.MessageSpec, n)
	for i := range specs {
		specs[i] = NewTestMessageSpec(ttl, "body-"+strconv.Itoa(i))
	}
	return specs
}

// NewTestPartition creates a partition fixture for testing.
func NewTestPartition(name string, weight int, nodes []string) domain.Partition {
	return domain.Partition{Name: name, Weight: weight, Nodes: nodes}
}

// ==================== Helpers ====================

// TimePtr returns a pointer to a time.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// StringPtr returns a pointer to a string.
func StringPtr(s string) *string {
	return &s
}
