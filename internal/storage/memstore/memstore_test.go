package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestDriver(now time.Time) (storage.Driver, *fakeClock) {
	clock := &fakeClock{now: now}
	return New(clock).Driver(), clock
}

func TestQueueStore_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDriver(time.Now())

	created, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	assert.False(t, created, "second create of the same queue must report false, not error")
}

func TestQueueStore_StatsReflectsFreeAndClaimed(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	driver, _ := newTestDriver(now)

	_, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)

	_, err = driver.Message.Post(ctx, "proj", "orders", []domain.MessageSpec{
		{TTL: 300, Body: []byte("a")},
		{TTL: 300, Body: []byte("b")},
		{TTL: 300, Body: []byte("c")},
	}, "client-1")
	require.NoError(t, err)

	_, _, err = driver.Claim.Create(ctx, "proj", "orders", 60, 30, 2)
	require.NoError(t, err)

	stats, err := driver.Queue.Stats(ctx, "proj", "orders")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Claimed)
	assert.Equal(t, 1, stats.Free)
}

func TestMessageStore_DeleteRequiresOwningClaim(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	driver, _ := newTestDriver(now)

	_, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	ids, err := driver.Message.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("a")}}, "")
	require.NoError(t, err)

	claim, _, err := driver.Claim.Create(ctx, "proj", "orders", 60, 30, 1)
	require.NoError(t, err)

	err = driver.Message.Delete(ctx, "proj", "orders", ids[0], "wrong-claim")
	assert.ErrorIs(t, err, domain.ErrNotPermitted)

	err = driver.Message.Delete(ctx, "proj", "orders", ids[0], claim.ID)
	assert.NoError(t, err)
}

func TestMessageStore_DeleteWithMalformedClaimOnUnclaimedMessageSucceeds(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDriver(time.Now())

	_, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	ids, err := driver.Message.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 10, Body: []byte("a")}}, "my_uuid")
	require.NoError(t, err)

	err = driver.Message.Delete(ctx, "proj", "orders", ids[0], "; DROP TABLE queues")
	assert.NoError(t, err, "a malformed claim token against an unclaimed message is no different from no token")
}

func TestMessageStore_DeleteWithoutClaimTokenOnClaimedMessageFails(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDriver(time.Now())

	_, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	ids, err := driver.Message.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("a")}}, "")
	require.NoError(t, err)
	_, _, err = driver.Claim.Create(ctx, "proj", "orders", 60, 30, 1)
	require.NoError(t, err)

	err = driver.Message.Delete(ctx, "proj", "orders", ids[0], "")
	assert.ErrorIs(t, err, domain.ErrNotPermitted)
}

func TestMessageStore_ListWithMalformedMarkerReturnsEmptyPage(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDriver(time.Now())

	_, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	_, err = driver.Message.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("a")}}, "")
	require.NoError(t, err)

	page, err := driver.Message.List(ctx, "proj", "orders", storage.MessageListOptions{ListOptions: storage.ListOptions{Marker: "xyz"}})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "a malformed marker must yield an empty page, not page one")
}

func TestClaimStore_CreateSelectsFIFOUpToLimit(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	driver := New(clock).Driver()

	_, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)

	var allIDs []string
	for i := 0; i < 3; i++ {
		ids, err := driver.Message.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("x")}}, "")
		require.NoError(t, err)
		allIDs = append(allIDs, ids...)
		clock.now = clock.now.Add(time.Second)
	}

	claim, msgs, err := driver.Claim.Create(ctx, "proj", "orders", 60, 30, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []string{allIDs[0], allIDs[1]}, claim.MessageIDs)
}

func TestClaimStore_DeleteReleasesMessagesForReclaim(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDriver(time.Now())

	_, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	_, err = driver.Message.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("a")}}, "")
	require.NoError(t, err)

	claim, _, err := driver.Claim.Create(ctx, "proj", "orders", 60, 30, 1)
	require.NoError(t, err)

	err = driver.Claim.Delete(ctx, "proj", "orders", claim.ID)
	require.NoError(t, err)

	stats, err := driver.Queue.Stats(ctx, "proj", "orders")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Free)
	assert.Equal(t, 0, stats.Claimed)
}

func TestClaimStore_GetExpiredClaimIsNotFound(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	driver := New(clock).Driver()

	_, err := driver.Queue.Create(ctx, "proj", "orders")
	require.NoError(t, err)
	_, err = driver.Message.Post(ctx, "proj", "orders", []domain.MessageSpec{{TTL: 300, Body: []byte("a")}}, "")
	require.NoError(t, err)

	claim, _, err := driver.Claim.Create(ctx, "proj", "orders", 10, 0, 1)
	require.NoError(t, err)

	clock.now = clock.now.Add(20 * time.Second)

	_, _, err = driver.Claim.Get(ctx, "proj", "orders", claim.ID)
	assert.ErrorIs(t, err, domain.ErrClaimDoesNotExist)
}

func TestCatalogueStore_InsertRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDriver(time.Now())

	err := driver.Catalogue.Insert(ctx, "proj", "orders", "node-1", nil)
	require.NoError(t, err)

	err = driver.Catalogue.Insert(ctx, "proj", "orders", "node-2", nil)
	assert.ErrorIs(t, err, domain.ErrEntryAlreadyExists)
}

func TestPartitionStore_SelectDistributesAcrossWeights(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDriver(time.Now())

	require.NoError(t, driver.Partition.Create(ctx, "heavy", 3, []string{"http://a"}))
	require.NoError(t, driver.Partition.Create(ctx, "light", 1, []string{"http://b"}))

	counts := map[string]int{}
	for i := 0; i < 40; i++ {
		node, err := driver.Partition.Select(ctx)
		require.NoError(t, err)
		counts[node]++
	}

	assert.Greater(t, counts["http://a"], counts["http://b"],
		"a partition with 3x the weight should be selected more often")
}

func TestPartitionStore_SelectWithNoPartitionsFails(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDriver(time.Now())

	_, err := driver.Partition.Select(ctx)
	assert.ErrorIs(t, err, domain.ErrNoPartitionsRegistered)
}
