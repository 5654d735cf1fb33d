package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luckygas/luckygas/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientReplaySendsIdempotencyKey(t *testing.T) {
	var gotPath, gotKey, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"applied"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "drv_123", "token-abc", time.Second)
	item := mustQueueItem(t, model.MutationLocationUpdate, `{"driver_id":"drv_123","latitude":25.03}`)

	require.NoError(t, client.Replay(context.Background(), item))

	assert.Equal(t, "/api/v1/sync/location_update", gotPath)
	assert.Equal(t, item.IdempotencyKey, gotKey)
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, item.ID, gotBody["id"])
	assert.Equal(t, "drv_123", gotBody["driver_id"])
}

func TestClientReplayRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"boom"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "drv_123", "token-abc", time.Second)
	item := mustQueueItem(t, model.MutationRouteStatus, `{"route_id":"route_1","status":"completed"}`)

	err := client.Replay(context.Background(), item)
	assert.ErrorContains(t, err, "replay rejected with status 500")
}

func TestClientOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	client := NewClient(server.URL, "drv_123", "token-abc", time.Second)
	assert.True(t, client.Online(context.Background()))

	server.Close()
	assert.False(t, client.Online(context.Background()))
}

// End to end against a real HTTP server: queued while offline, drained after
// reconnect, and a sync of an empty queue never touches the network.
func TestQueueWithHTTPClient(t *testing.T) {
	var requests atomic.Int64
	var healthy atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path == "/health" {
			if healthy.Load() {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"applied"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "drv_123", "token-abc", time.Second)
	queue := NewQueue(newTestStore(t), client, client)
	ctx := context.Background()

	_, err := queue.Add(ctx, model.MutationLocationUpdate, json.RawMessage(`{"driver_id":"drv_123"}`))
	require.NoError(t, err)
	_, err = queue.Add(ctx, model.MutationRouteStatus, json.RawMessage(`{"route_id":"route_1","status":"in_progress"}`))
	require.NoError(t, err)

	require.ErrorIs(t, queue.TriggerSync(ctx), ErrOffline)
	count, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	healthy.Store(true)
	require.NoError(t, queue.TriggerSync(ctx))
	count, err = queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Empty queue: no probe, no replay.
	before := requests.Load()
	require.NoError(t, queue.TriggerSync(ctx))
	assert.Equal(t, before, requests.Load())
}
