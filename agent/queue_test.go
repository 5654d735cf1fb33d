package agent

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/luckygas/luckygas/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReplayer records replay order and fails item IDs listed in failing.
type fakeReplayer struct {
	mu       sync.Mutex
	replayed []string
	failing  map[string]bool
	calls    int
}

func (f *fakeReplayer) Replay(_ context.Context, item *model.QueueItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.replayed = append(f.replayed, item.ID)
	if f.failing[item.ID] {
		return errors.New("server unavailable")
	}
	return nil
}

type fakeProber struct {
	mu     sync.Mutex
	online bool
	probes int
}

func (f *fakeProber) Online(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.online
}

func (f *fakeProber) setOnline(online bool) {
	f.mu.Lock()
	f.online = online
	f.mu.Unlock()
}

func newTestQueue(t *testing.T) (*Queue, *fakeReplayer, *fakeProber) {
	t.Helper()
	replayer := &fakeReplayer{failing: map[string]bool{}}
	prober := &fakeProber{online: true}
	return NewQueue(newTestStore(t), replayer, prober), replayer, prober
}

func TestTriggerSyncDrainsQueue(t *testing.T) {
	queue, replayer, _ := newTestQueue(t)
	ctx := context.Background()

	first, err := queue.Add(ctx, model.MutationLocationUpdate, json.RawMessage(`{"driver_id":"drv_1"}`))
	require.NoError(t, err)
	second, err := queue.Add(ctx, model.MutationRouteStatus, json.RawMessage(`{"route_id":"route_1","status":"in_progress"}`))
	require.NoError(t, err)

	require.NoError(t, queue.TriggerSync(ctx))

	// FIFO replay order, then an empty store.
	assert.Equal(t, []string{first.ID, second.ID}, replayer.replayed)
	count, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	progress := queue.Progress()
	assert.Equal(t, 2, progress.Total)
	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, 0, progress.Failed)
	assert.False(t, progress.InProgress)
}

func TestTriggerSyncOfflineLeavesQueueUntouched(t *testing.T) {
	queue, replayer, prober := newTestQueue(t)
	ctx := context.Background()

	_, err := queue.Add(ctx, model.MutationLocationUpdate, json.RawMessage(`{"driver_id":"drv_1"}`))
	require.NoError(t, err)
	_, err = queue.Add(ctx, model.MutationLocationUpdate, json.RawMessage(`{"driver_id":"drv_1"}`))
	require.NoError(t, err)

	prober.setOnline(false)
	err = queue.TriggerSync(ctx)
	require.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, replayer.calls)

	count, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Reconnect and drain.
	prober.setOnline(true)
	require.NoError(t, queue.TriggerSync(ctx))
	count, err = queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTriggerSyncEmptyQueueMakesNoNetworkCalls(t *testing.T) {
	queue, replayer, prober := newTestQueue(t)

	require.NoError(t, queue.TriggerSync(context.Background()))

	assert.Zero(t, prober.probes)
	assert.Zero(t, replayer.calls)
}

func TestFailingItemDroppedAfterRetryCap(t *testing.T) {
	queue, replayer, _ := newTestQueue(t)
	ctx := context.Background()

	item, err := queue.Add(ctx, model.MutationDeliveryCompletion, json.RawMessage(`{"order_id":"ord_1"}`))
	require.NoError(t, err)
	replayer.failing[item.ID] = true

	for pass := 1; pass < model.MaxSyncRetries; pass++ {
		require.NoError(t, queue.TriggerSync(ctx))
		items, err := queue.store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, pass, items[0].Retries)
	}

	// The final failing pass drops the item instead of retrying forever.
	require.NoError(t, queue.TriggerSync(ctx))
	count, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, model.MaxSyncRetries, replayer.calls)
}

func TestDroppedItemDoesNotBlockLaterItems(t *testing.T) {
	queue, replayer, _ := newTestQueue(t)
	ctx := context.Background()

	poisoned, err := queue.Add(ctx, model.MutationDeliveryCompletion, json.RawMessage(`{"order_id":"ord_1"}`))
	require.NoError(t, err)
	replayer.failing[poisoned.ID] = true

	healthy, err := queue.Add(ctx, model.MutationLocationUpdate, json.RawMessage(`{"driver_id":"drv_1"}`))
	require.NoError(t, err)

	require.NoError(t, queue.TriggerSync(ctx))

	// The healthy item replays and leaves in the same pass.
	assert.Contains(t, replayer.replayed, healthy.ID)
	items, err := queue.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, poisoned.ID, items[0].ID)

	progress := queue.Progress()
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, 1, progress.Failed)
}

func TestConcurrentTriggerSyncSerialized(t *testing.T) {
	queue, replayer, _ := newTestQueue(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := queue.Add(ctx, model.MutationLocationUpdate, json.RawMessage(`{"driver_id":"drv_1"}`))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, queue.TriggerSync(ctx))
		}()
	}
	wg.Wait()

	// Each item replays exactly once; the passes after the first see an
	// empty queue.
	assert.Equal(t, 5, replayer.calls)
	count, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAddRejectsUnknownMutationType(t *testing.T) {
	queue, _, _ := newTestQueue(t)

	_, err := queue.Add(context.Background(), model.MutationType("truck_refuel"), json.RawMessage(`{}`))
	assert.Error(t, err)

	count, err := queue.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
