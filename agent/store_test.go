package agent

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/luckygas/luckygas/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustQueueItem(t *testing.T, mutationType model.MutationType, payload string) *model.QueueItem {
	t.Helper()
	item, err := model.NewQueueItem(mutationType, json.RawMessage(payload))
	require.NoError(t, err)
	return item
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := mustQueueItem(t, model.MutationLocationUpdate, `{"driver_id":"drv_1","latitude":25.03,"longitude":121.56}`)
	second := mustQueueItem(t, model.MutationRouteStatus, `{"route_id":"route_1","status":"in_progress"}`)

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	count, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
	assert.Equal(t, first.IdempotencyKey, items[0].IdempotencyKey)
	assert.JSONEq(t, string(first.Payload), string(items[0].Payload))
}

func TestSQLiteStoreIncrementRetries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := mustQueueItem(t, model.MutationLocationUpdate, `{"driver_id":"drv_1"}`)
	require.NoError(t, store.Append(ctx, item))

	require.NoError(t, store.IncrementRetries(ctx, item.ID))
	require.NoError(t, store.IncrementRetries(ctx, item.ID))

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Retries)
}

func TestSQLiteStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := mustQueueItem(t, model.MutationRouteStatus, `{"route_id":"route_1","status":"completed"}`)
	require.NoError(t, store.Append(ctx, item))
	require.NoError(t, store.Delete(ctx, item.ID))

	count, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Deleting an absent item is not an error.
	assert.NoError(t, store.Delete(ctx, "qitem_missing"))
}

func TestSQLiteStoreRejectsDuplicateItem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := mustQueueItem(t, model.MutationLocationUpdate, `{"driver_id":"drv_1"}`)
	require.NoError(t, store.Append(ctx, item))
	assert.Error(t, store.Append(ctx, item))
}
