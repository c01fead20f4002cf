package service

import (
	"testing"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionService_SelectPrefersHeavierWeight(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	svc := NewPartitionService(driver.Partition, logger.NewNop())

	require.NoError(t, svc.Create(ctx, "heavy", 3, []string{"http://a"}))
	require.NoError(t, svc.Create(ctx, "light", 1, []string{"http://b"}))

	counts := map[string]int{}
	for i := 0; i < 40; i++ {
		node, err := svc.Select(ctx)
		require.NoError(t, err)
		counts[node]++
	}
	assert.Greater(t, counts["http://a"], counts["http://b"])
}

func TestPartitionService_SelectWithNothingRegisteredFails(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	svc := NewPartitionService(driver.Partition, logger.NewNop())

	_, err := svc.Select(ctx)
	assert.ErrorIs(t, err, domain.ErrNoPartitionsRegistered)
}
