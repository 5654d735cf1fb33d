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

package luckygas

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/luckygas/luckygas/config"
	"github.com/luckygas/luckygas/internal/apierror"
	redlock "github.com/luckygas/luckygas/internal/lock"
	"github.com/luckygas/luckygas/internal/metrics"
	"github.com/luckygas/luckygas/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ApplyMutation applies one replayed driver mutation. The same idempotency
// key is presented on every replay of an item, so duplicates collapse to a
// single effect: the first application wins, later ones are acknowledged
// without touching state. The returned bool reports whether the replay was
// such a duplicate.
func (l *LuckyGas) ApplyMutation(ctx context.Context, driverID string, item *model.QueueItem) (bool, error) {
	ctx, span := tracer.Start(ctx, "Applying Driver Mutation")
	defer span.End()

	if !model.ValidMutationType(item.Type) {
		return false, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown mutation type: %s", item.Type), nil)
	}

	applied, err := l.claimIdempotencyKey(ctx, item.IdempotencyKey)
	if err != nil {
		return false, err
	}
	if !applied {
		metrics.SyncDuplicates.Inc()
		span.AddEvent("Duplicate replay acknowledged", trace.WithAttributes(attribute.String("item.id", item.ID)))
		logrus.WithFields(logrus.Fields{
			"item_id": item.ID,
			"driver":  driverID,
		}).Info("duplicate mutation replay acknowledged")
		return true, nil
	}

	if err := l.dispatchMutation(ctx, item); err != nil {
		// Release the claim so a later replay can retry.
		l.redis.Del(ctx, idempotencyRedisKey(item.IdempotencyKey))
		return false, err
	}

	mutation := &model.SyncMutation{
		ItemID:         item.ID,
		DriverID:       driverID,
		Type:           item.Type,
		Payload:        item.Payload,
		Timestamp:      item.Timestamp,
		IdempotencyKey: item.IdempotencyKey,
	}
	if err := l.datasource.RecordSyncMutation(ctx, mutation); err != nil {
		// A conflict here means another process applied the same key first.
		if apiErr, ok := err.(apierror.APIError); ok && apiErr.Code == apierror.ErrConflict {
			metrics.SyncDuplicates.Inc()
			return true, nil
		}
		return false, err
	}

	metrics.SyncItemsReplayed.WithLabelValues(string(item.Type)).Inc()
	span.AddEvent("Mutation applied", trace.WithAttributes(attribute.String("item.id", item.ID), attribute.String("mutation.type", string(item.Type))))
	return false, nil
}

// claimIdempotencyKey reserves an idempotency key. It returns false when the
// key was already consumed, checking Redis first and falling back to the
// durable audit log for keys past the Redis TTL.
func (l *LuckyGas) claimIdempotencyKey(ctx context.Context, key string) (bool, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return false, err
	}

	ok, err := l.redis.SetNX(ctx, idempotencyRedisKey(key), time.Now().UnixMilli(), cnf.Sync.IdempotencyTTL).Result()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to claim idempotency key", err)
	}
	if !ok {
		return false, nil
	}

	persisted, err := l.datasource.SyncMutationApplied(ctx, key)
	if err != nil {
		return false, err
	}
	if persisted {
		return false, nil
	}

	return true, nil
}

func idempotencyRedisKey(key string) string {
	return fmt.Sprintf("sync:idem:%s", key)
}

// dispatchMutation routes a mutation to the domain operation for its type.
func (l *LuckyGas) dispatchMutation(ctx context.Context, item *model.QueueItem) error {
	switch item.Type {
	case model.MutationDeliveryCompletion:
		var payload model.DeliveryCompletionPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return apierror.NewAPIError(apierror.ErrInvalidInput, "Invalid delivery completion payload", err)
		}
		_, err := l.CompleteDelivery(ctx, payload)
		// A delivery recorded by an earlier partial replay is not a failure.
		if apiErr, ok := err.(apierror.APIError); ok && apiErr.Code == apierror.ErrConflict {
			return nil
		}
		return err

	case model.MutationLocationUpdate:
		var payload model.LocationUpdatePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return apierror.NewAPIError(apierror.ErrInvalidInput, "Invalid location update payload", err)
		}
		return l.UpdateDriverLocation(ctx, payload)

	case model.MutationRouteStatus:
		var payload model.RouteStatusPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return apierror.NewAPIError(apierror.ErrInvalidInput, "Invalid route status payload", err)
		}
		return l.applyRouteStatus(ctx, payload)
	}
	return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown mutation type: %s", item.Type), nil)
}

// applyRouteStatus applies a replayed route status change with last-write-wins
// semantics: a status no further along the lifecycle than the current one is
// acknowledged and skipped.
func (l *LuckyGas) applyRouteStatus(ctx context.Context, payload model.RouteStatusPayload) error {
	status := model.RouteStatus(payload.Status)
	if !model.ValidRouteStatus(status) {
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown route status: %s", payload.Status), nil)
	}

	route, err := l.datasource.GetRouteByID(ctx, payload.RouteID)
	if err != nil {
		return err
	}

	if !model.StatusNewerThan(status, route.Status) {
		logrus.WithFields(logrus.Fields{
			"route":  payload.RouteID,
			"status": payload.Status,
		}).Info("stale route status replay acknowledged")
		return nil
	}

	if err := l.datasource.UpdateRouteStatus(ctx, payload.RouteID, status); err != nil {
		return err
	}

	route.Status = status
	l.events.Publish(model.NewEventMessage(model.EventRouteUpdated, route))
	return nil
}

// WithSyncPassLock serializes whole replay passes for a driver across server
// instances. Two devices logged in as the same driver cannot interleave
// passes.
func (l *LuckyGas) WithSyncPassLock(ctx context.Context, driverID string, fn func(ctx context.Context) error) error {
	cnf, err := config.Fetch()
	if err != nil {
		return err
	}

	locker := redlock.NewLocker(l.redis, fmt.Sprintf("sync-pass:%s", driverID), model.GenerateUUIDWithSuffix("lock"))
	if err := locker.WaitLock(ctx, cnf.Sync.LockDuration, cnf.Sync.LockDuration); err != nil {
		return apierror.NewAPIError(apierror.ErrServiceUnavailable, "Another sync pass is in progress", err)
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error("failed to release sync pass lock", err)
		}
	}()

	start := time.Now()
	err = fn(ctx)
	metrics.SyncPassDuration.Observe(time.Since(start).Seconds())
	return err
}

// ProcessMutationTask is the asynq handler for mutations routed through the
// sync queues.
func (l *LuckyGas) ProcessMutationTask(ctx context.Context, task *asynq.Task) error {
	var payload MutationTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logrus.Errorf("Error unmarshaling mutation task: %v", err)
		return err
	}
	_, err := l.ApplyMutation(ctx, payload.DriverID, &payload.Item)
	return err
}

// GetSyncMutations returns the audit trail of applied mutations for a driver,
// newest first.
func (l *LuckyGas) GetSyncMutations(ctx context.Context, driverID string, limit, offset int) ([]model.SyncMutation, error) {
	return l.datasource.GetSyncMutations(ctx, driverID, limit, offset)
}
