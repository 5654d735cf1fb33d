/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// MutationType identifies the kind of offline mutation a driver device queued
// while disconnected. The server dispatches ingestion by this value.
type MutationType string

const (
	MutationDeliveryCompletion MutationType = "delivery_completion"
	MutationLocationUpdate     MutationType = "location_update"
	MutationRouteStatus        MutationType = "route_status"
)

// MaxSyncRetries is the replay attempt cap for a queued mutation. Once an
// item has failed this many times it is dropped from the queue with a log
// entry rather than retried forever.
const MaxSyncRetries = 3

// ValidMutationType reports whether t is one of the known mutation kinds.
func ValidMutationType(t MutationType) bool {
	switch t {
	case MutationDeliveryCompletion, MutationLocationUpdate, MutationRouteStatus:
		return true
	}
	return false
}

// QueueItem is a single offline mutation awaiting replay to the server.
// Payload is opaque at the queue layer; only the ingestion endpoint for the
// item's Type interprets it.
type QueueItem struct {
	ID             string          `json:"id" db:"item_id"`
	Type           MutationType    `json:"type" db:"type"`
	Payload        json.RawMessage `json:"payload" db:"payload"`
	Timestamp      int64           `json:"timestamp" db:"timestamp"`
	Retries        int             `json:"retries" db:"retries"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
}

// NewQueueItem builds a queue item for a mutation captured now. Both the item
// ID and the idempotency key are minted at enqueue time so that every replay
// of the same item presents the same key to the server.
func NewQueueItem(mutationType MutationType, payload json.RawMessage) (*QueueItem, error) {
	if !ValidMutationType(mutationType) {
		return nil, fmt.Errorf("unknown mutation type: %s", mutationType)
	}
	return &QueueItem{
		ID:             GenerateUUIDWithSuffix("qitem"),
		Type:           mutationType,
		Payload:        payload,
		Timestamp:      NowMillis(),
		Retries:        0,
		IdempotencyKey: GenerateUUIDWithSuffix("idem"),
	}, nil
}

// ExhaustedRetries reports whether the item has hit the replay cap and must be
// dropped instead of retried.
func (q *QueueItem) ExhaustedRetries() bool {
	return q.Retries >= MaxSyncRetries
}

// SyncMutation is the server-side record of a replayed mutation that was
// applied. It doubles as an audit trail and as durable backing for
// idempotency-key lookups past the Redis TTL.
type SyncMutation struct {
	ID             int64           `json:"-"`
	ItemID         string          `json:"item_id"`
	DriverID       string          `json:"driver_id"`
	Type           MutationType    `json:"type"`
	Payload        json.RawMessage `json:"payload"`
	Timestamp      int64           `json:"timestamp"`
	IdempotencyKey string          `json:"idempotency_key"`
	AppliedAt      time.Time       `json:"applied_at"`
}

// SyncProgress summarizes one sync pass. It is recomputed per pass and never
// persisted.
type SyncProgress struct {
	Total      int  `json:"total"`
	Completed  int  `json:"completed"`
	Failed     int  `json:"failed"`
	InProgress bool `json:"in_progress"`
}

// DeliveryCompletionPayload is the payload schema for delivery_completion
// mutations.
type DeliveryCompletionPayload struct {
	OrderID            string `json:"order_id"`
	RouteID            string `json:"route_id,omitempty"`
	DriverID           string `json:"driver_id"`
	CylindersDelivered int    `json:"cylinders_delivered"`
	CylindersCollected int    `json:"cylinders_collected"`
	Signature          string `json:"signature,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CompletedAt        int64  `json:"completed_at"`
}

// LocationUpdatePayload is the payload schema for location_update mutations.
type LocationUpdatePayload struct {
	DriverID   string  `json:"driver_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Accuracy   float64 `json:"accuracy,omitempty"`
	RecordedAt int64   `json:"recorded_at"`
}

// RouteStatusPayload is the payload schema for route_status mutations.
type RouteStatusPayload struct {
	RouteID   string `json:"route_id"`
	Status    string `json:"status"`
	ChangedAt int64  `json:"changed_at"`
}
