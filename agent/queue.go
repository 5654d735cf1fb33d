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

// Package agent implements the offline mutation queue running on driver
// devices. Mutations captured while disconnected are persisted locally and
// replayed to the server in insertion order once connectivity returns.
package agent

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/luckygas/luckygas/internal/metrics"
	"github.com/luckygas/luckygas/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrOffline is returned by TriggerSync when connectivity is down. The queue
// is left untouched; items wait for the next trigger.
var ErrOffline = errors.New("cannot sync offline")

// Replayer sends one queued mutation to the server.
type Replayer interface {
	Replay(ctx context.Context, item *model.QueueItem) error
}

// Prober reports current connectivity.
type Prober interface {
	Online(ctx context.Context) bool
}

// Queue is the offline sync queue. All mutations flow through Add; TriggerSync
// replays them FIFO. An item leaves the store only when its replay succeeded
// or it has failed MaxSyncRetries times, in which case it is dropped with a
// log entry and never retried again.
type Queue struct {
	store    Store
	replayer Replayer
	prober   Prober
	retryCap int

	mu         sync.Mutex
	inProgress bool
	progressMu sync.Mutex
	progress   model.SyncProgress
}

func NewQueue(store Store, replayer Replayer, prober Prober) *Queue {
	return &Queue{
		store:    store,
		replayer: replayer,
		prober:   prober,
		retryCap: model.MaxSyncRetries,
	}
}

// SetRetryCap overrides the default replay attempt cap.
func (q *Queue) SetRetryCap(n int) {
	if n > 0 {
		q.retryCap = n
	}
}

// Add appends a mutation to the queue. It succeeds regardless of
// connectivity; replay happens on the next sync pass. The idempotency key is
// minted here and reused on every replay of the item.
func (q *Queue) Add(ctx context.Context, mutationType model.MutationType, payload json.RawMessage) (*model.QueueItem, error) {
	item, err := model.NewQueueItem(mutationType, payload)
	if err != nil {
		return nil, err
	}

	if err := q.store.Append(ctx, item); err != nil {
		return nil, err
	}

	metrics.SyncItemsQueued.WithLabelValues(string(item.Type)).Inc()
	logrus.WithFields(logrus.Fields{
		"item": item.ID,
		"type": item.Type,
	}).Debug("queued offline mutation")
	return item, nil
}

// TriggerSync replays all queued items in insertion order. Concurrent calls
// are serialized; the later caller runs its own pass after the first
// finishes. An empty queue is a no-op with no network activity.
func (q *Queue) TriggerSync(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.store.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		q.setProgress(model.SyncProgress{})
		return nil
	}

	if !q.prober.Online(ctx) {
		return ErrOffline
	}

	q.inProgress = true
	defer func() { q.inProgress = false }()

	progress := model.SyncProgress{Total: len(items), InProgress: true}
	q.setProgress(progress)

	for i := range items {
		item := &items[i]
		if err := q.replayItem(ctx, item); err != nil {
			progress.Failed++
		} else {
			progress.Completed++
		}
		q.setProgress(progress)
	}

	progress.InProgress = false
	q.setProgress(progress)
	return nil
}

// replayItem runs one item's replay attempt and applies the removal rule:
// delete on success, bump retries on failure, drop once the retry cap is
// reached.
func (q *Queue) replayItem(ctx context.Context, item *model.QueueItem) error {
	err := q.replayer.Replay(ctx, item)
	if err == nil {
		return q.store.Delete(ctx, item.ID)
	}

	item.Retries++
	if item.Retries >= q.retryCap {
		metrics.SyncItemsDropped.WithLabelValues(string(item.Type)).Inc()
		logrus.WithFields(logrus.Fields{
			"item":    item.ID,
			"type":    item.Type,
			"retries": item.Retries,
		}).Warn("dropping mutation after exhausting retries")
		if delErr := q.store.Delete(ctx, item.ID); delErr != nil {
			return delErr
		}
		return err
	}

	if incErr := q.store.IncrementRetries(ctx, item.ID); incErr != nil {
		return incErr
	}
	return err
}

// Progress returns a snapshot of the current or most recent sync pass.
func (q *Queue) Progress() model.SyncProgress {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()
	return q.progress
}

// Len reports how many items are waiting.
func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.store.Len(ctx)
}

func (q *Queue) setProgress(p model.SyncProgress) {
	q.progressMu.Lock()
	q.progress = p
	q.progressMu.Unlock()
}
