package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewQueueItem(t *testing.T) {
	payload := json.RawMessage(`{"order_id":"ord_1"}`)
	item, err := NewQueueItem(MutationDeliveryCompletion, payload)
	assert.NoError(t, err)
	assert.Contains(t, item.ID, "qitem_")
	assert.Contains(t, item.IdempotencyKey, "idem_")
	assert.Equal(t, MutationDeliveryCompletion, item.Type)
	assert.Equal(t, payload, item.Payload)
	assert.Equal(t, 0, item.Retries)
	assert.WithinDuration(t, time.Now(), MillisToTime(item.Timestamp), time.Second)
}

func TestNewQueueItem_UnknownType(t *testing.T) {
	_, err := NewQueueItem("order_teleport", nil)
	assert.Error(t, err)
}

func TestValidMutationType(t *testing.T) {
	assert.True(t, ValidMutationType(MutationDeliveryCompletion))
	assert.True(t, ValidMutationType(MutationLocationUpdate))
	assert.True(t, ValidMutationType(MutationRouteStatus))
	assert.False(t, ValidMutationType("delivery"))
	assert.False(t, ValidMutationType(""))
}

func TestQueueItem_ExhaustedRetries(t *testing.T) {
	item := &QueueItem{Retries: 0}
	assert.False(t, item.ExhaustedRetries())
	item.Retries = 2
	assert.False(t, item.ExhaustedRetries())
	item.Retries = MaxSyncRetries
	assert.True(t, item.ExhaustedRetries())
	item.Retries = MaxSyncRetries + 1
	assert.True(t, item.ExhaustedRetries())
}

func TestQueueItemJSONShape(t *testing.T) {
	item, err := NewQueueItem(MutationLocationUpdate, json.RawMessage(`{"driver_id":"drv_1","latitude":25.03,"longitude":121.56}`))
	assert.NoError(t, err)

	raw, err := json.Marshal(item)
	assert.NoError(t, err)

	var decoded QueueItem
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, item.ID, decoded.ID)
	assert.Equal(t, item.IdempotencyKey, decoded.IdempotencyKey)
	assert.JSONEq(t, string(item.Payload), string(decoded.Payload))
}
