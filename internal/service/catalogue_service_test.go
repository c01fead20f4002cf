package service

import (
	"testing"

	"github.com/queue-broker-service/internal/domain"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogueService_InsertGetMoveDelete(t *testing.T) {
	ctx := testutil.TestContext(t)
	driver := newTestDriver()
	svc := NewCatalogueService(driver.Catalogue, logger.NewNop())

	require.NoError(t, svc.Insert(ctx, "proj", "orders", "http://node-1", map[string]any{"region": "us"}))

	entry, err := svc.Get(ctx, "proj", "orders")
	require.NoError(t, err)
	assert.Equal(t, "http://node-1", entry.Location)

	require.NoError(t, svc.Move(ctx, "proj", "orders", "http://node-2"))
	loc, err := svc.Location(ctx, "proj", "orders")
	require.NoError(t, err)
	assert.Equal(t, "http://node-2", loc)

	require.NoError(t, svc.Delete(ctx, "proj", "orders"))
	_, err = svc.Get(ctx, "proj", "orders")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}
