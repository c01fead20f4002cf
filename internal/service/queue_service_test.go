package service

import (
	"testing"
	"time"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/storage/memstore"
	"github.com/queue-broker-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestDriver() storage.Driver {
	return memstore.New(fixedClock{now: time.Now()}).Driver()
}

func TestQueueService_CreateThenStats(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	svc := NewQueueService(driver.Queue, logger.NewNop())
	msgSvc := NewMessageService(driver.Message, logger.NewNop())

	t.Run("create reports true then false on repeat", func(t *testing.T) {
		created, err := svc.Create(ctx, "proj", "orders")
		require.NoError(t, err)
		assert.True(t, created)

		created, err = svc.Create(ctx, "proj", "orders")
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("stats reflects posted messages", func(t *testing.T) {
		_, err := msgSvc.Post(ctx, "proj", "orders", []domain.MessageSpec{
			{TTL: 300, Body: []byte("a")},
			{TTL: 300, Body: []byte("b")},
		}, "")
		require.NoError(t, err)

		stats, err := svc.Stats(ctx, "proj", "orders")
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 2, stats.Free)
	})
}

func TestQueueService_MetadataRoundTrips(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	svc := NewQueueService(driver.Queue, logger.NewNop())

	_, err := svc.Create(ctx, "proj", "orders")
	require.NoError(t, err)

	require.NoError(t, svc.SetMetadata(ctx, "proj", "orders", map[string]any{"owner": "billing"}))

	meta, err := svc.GetMetadata(ctx, "proj", "orders")
	require.NoError(t, err)
	assert.Equal(t, "billing", meta["owner"])
}

func TestQueueService_DeleteRemovesQueue(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	svc := NewQueueService(driver.Queue, logger.NewNop())

	_, err := svc.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "proj", "orders"))

	exists, err := svc.Exists(ctx, "proj", "orders")
	require.NoError(t, err)
	assert.False(t, exists)
}
