package service

import (
	"testing"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimService_CreateExtendsMessageTTL(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	queueSvc := NewQueueService(driver.Queue, logger.NewNop())
	msgSvc := NewMessageService(driver.Message, logger.NewNop())
	claimSvc := NewClaimService(driver.Claim, logger.NewNop())

	_, err := queueSvc.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	ids, err := msgSvc.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 60, Body: []byte("a")}}, "")
	require.NoError(t, err)

	claim, msgs, err := claimSvc.Create(ctx, "proj", "orders", 777, 23, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, ids[0], msgs[0].ID)
	assert.Equal(t, 800, msgs[0].TTL)

	t.Run("update resets expiry without changing ownership", func(t *testing.T) {
		require.NoError(t, claimSvc.Update(ctx, "proj", "orders", claim.ID, 120))
		got, gotMsgs, err := claimSvc.Get(ctx, "proj", "orders", claim.ID)
		require.NoError(t, err)
		assert.Equal(t, claim.ID, got.ID)
		assert.Len(t, gotMsgs, 1)
	})

	t.Run("delete releases the message", func(t *testing.T) {
		require.NoError(t, claimSvc.Delete(ctx, "proj", "orders", claim.ID))
		stats, err := queueSvc.Stats(ctx, "proj", "orders")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Free)
		assert.Equal(t, 0, stats.Claimed)
	})
}

func TestClaimService_CreateWithZeroTTLIsImmediatelyExpired(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	queueSvc := NewQueueService(driver.Queue, logger.NewNop())
	msgSvc := NewMessageService(driver.Message, logger.NewNop())
	claimSvc := NewClaimService(driver.Claim, logger.NewNop())

	_, err := queueSvc.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	_, err = msgSvc.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 60, Body: []byte("a")}}, "")
	require.NoError(t, err)

	claim, _, err := claimSvc.Create(ctx, "proj", "orders", 0, 0, 10)
	require.NoError(t, err)

	_, _, err = claimSvc.Get(ctx, "proj", "orders", claim.ID)
	assert.ErrorIs(t, err, domain.ErrClaimDoesNotExist)
}
