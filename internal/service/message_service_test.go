package service

import (
	"testing"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService_PostGetDelete(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	queueSvc := NewQueueService(driver.Queue, logger.NewNop())
	msgSvc := NewMessageService(driver.Message, logger.NewNop())

	_, err := queueSvc.Create(ctx, "proj", "orders")
	require.NoError(t, err)

	ids, err := msgSvc.Post(ctx, "proj", "orders", []domain.MessageSpec{
		{TTL: 300, Body: []byte("a")},
		{TTL: 300, Body: []byte("b")},
	}, "client-1")
	require.NoError(t, err)
	require.Len(t, ids, 2)

	got, err := msgSvc.Get(ctx, "proj", "orders", ids[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got.Body)

	bulk, err := msgSvc.BulkGet(ctx, "proj", "orders", []string{ids[0], "missing", ids[1]})
	require.NoError(t, err)
	assert.Len(t, bulk, 2)

	require.NoError(t, msgSvc.Delete(ctx, "proj", "orders", ids[0], ""))
	_, err = msgSvc.Get(ctx, "proj", "orders", ids[0])
	assert.ErrorIs(t, err, domain.ErrMessageDoesNotExist)
}

func TestMessageService_ListExcludesEchoAndClaimedByDefault(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	queueSvc := NewQueueService(driver.Queue, logger.NewNop())
	msgSvc := NewMessageService(driver.Message, logger.NewNop())
	claimSvc := NewClaimService(driver.Claim, logger.NewNop())

	_, err := queueSvc.Create(ctx, "proj", "orders")
	require.NoError(t, err)

	_, err = msgSvc.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("mine")}}, "client-1")
	require.NoError(t, err)
	_, err = msgSvc.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("theirs")}}, "client-2")
	require.NoError(t, err)

	page, err := msgSvc.List(ctx, "proj", "orders", storage.MessageListOptions{
		ListOptions: storage.ListOptions{Limit: 10},
		ClientUUID:  "client-1",
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1, "own message should be excluded unless echo=true")

	_, _, err = claimSvc.Create(ctx, "proj", "orders", 60, 0, 1)
	require.NoError(t, err)

	page, err = msgSvc.List(ctx, "proj", "orders", storage.MessageListOptions{
		ListOptions: storage.ListOptions{Limit: 10},
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1, "claimed message should be excluded unless include_claimed=true")
}

func TestMessageService_DeleteWithMalformedClaimOnUnclaimedMessageSucceeds(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	queueSvc := NewQueueService(driver.Queue, logger.NewNop())
	msgSvc := NewMessageService(driver.Message, logger.NewNop())

	_, err := queueSvc.Create(ctx, "proj", "orders")
	require.NoError(t, err)

	ids, err := msgSvc.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 10, Body: []byte("a")}}, "my_uuid")
	require.NoError(t, err)

	err = msgSvc.Delete(ctx, "proj", "orders", ids[0], "; DROP TABLE queues")
	assert.NoError(t, err, "a malformed claim token against an unclaimed message must not raise NotPermitted")
}

func TestMessageService_ListWithMalformedMarkerReturnsEmptyPage(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	queueSvc := NewQueueService(driver.Queue, logger.NewNop())
	msgSvc := NewMessageService(driver.Message, logger.NewNop())

	_, err := queueSvc.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	_, err = msgSvc.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("a")}}, "")
	require.NoError(t, err)

	page, err := msgSvc.List(ctx, "proj", "orders", storage.MessageListOptions{
		ListOptions: storage.ListOptions{Marker: "xyz"},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "a malformed marker must yield an empty page, not page one")
}
