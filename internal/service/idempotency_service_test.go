package service

import (
	"testing"
	"time"

	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/storage/memstore"
	"github.com/queue-broker-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyService_ReplayReturnsCachedResponse(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := memstore.New(fixedClock{now: time.Now()}).IdempotencyStore()
	svc := NewIdempotencyService(store, DefaultIdempotencyConfig(), logger.NewNop())

	cached, err := svc.CheckKey(ctx, "proj", "key-1", []byte(`{"queue":"orders"}`))
	require.NoError(t, err)
	assert.Nil(t, cached, "unseen key should proceed with the request")

	require.NoError(t, svc.StoreResult(ctx, "proj", "key-1", "/v1/queues/orders", "PUT",
		[]byte(`{"queue":"orders"}`), 201, []byte(`{"created":true}`)))

	cached, err = svc.CheckKey(ctx, "proj", "key-1", []byte(`{"queue":"orders"}`))
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 201, cached.Status)
	assert.Equal(t, []byte(`{"created":true}`), cached.Body)
}

func TestIdempotencyService_ReusedKeyWithDifferentBodyFails(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := memstore.New(fixedClock{now: time.Now()}).IdempotencyStore()
	svc := NewIdempotencyService(store, DefaultIdempotencyConfig(), logger.NewNop())

	require.NoError(t, svc.StoreResult(ctx, "proj", "key-1", "/v1/queues/orders", "PUT",
		[]byte(`{"queue":"orders"}`), 201, []byte(`{"created":true}`)))

	_, err := svc.CheckKey(ctx, "proj", "key-1", []byte(`{"queue":"different"}`))
	assert.ErrorIs(t, err, ErrRequestHashMismatch)
}
