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

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/luckygas/luckygas/model"
)

// ReplayMutation is the body a driver agent posts to /api/v1/sync/:type. The
// mutation type rides in the URL and the idempotency key in the
// X-Idempotency-Key header.
type ReplayMutation struct {
	ID        string          `json:"id"`
	DriverID  string          `json:"driver_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func (r *ReplayMutation) ValidateReplayMutation() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.DriverID, validation.Required),
		validation.Field(&r.Payload, validation.Required),
		validation.Field(&r.Timestamp, validation.Required, validation.Min(int64(1))),
	)
}

func (r *ReplayMutation) ToQueueItem(mutationType model.MutationType, idempotencyKey string) model.QueueItem {
	return model.QueueItem{
		ID:             r.ID,
		Type:           mutationType,
		Payload:        r.Payload,
		Timestamp:      r.Timestamp,
		IdempotencyKey: idempotencyKey,
	}
}
