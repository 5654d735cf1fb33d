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
	"hash/fnv"
	"log"

	"github.com/hibiken/asynq"
	"github.com/luckygas/luckygas/config"
	redis_db "github.com/luckygas/luckygas/internal/redis-db"
	"github.com/luckygas/luckygas/model"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("luckygas.sync")

// Queue represents a queue for handling various tasks.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// MutationTaskPayload is the task body for a replayed mutation routed through
// the sync queues.
type MutationTaskPayload struct {
	DriverID string          `json:"driver_id"`
	Item     model.QueueItem `json:"item"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(fmt.Sprintf("redis://%s", conf.Redis.Dns), conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// EnqueueMutation enqueues a replayed driver mutation for asynchronous
// application. Mutations from the same driver always land in the same queue,
// so they are applied serially in replay order.
func (q *Queue) EnqueueMutation(ctx context.Context, driverID string, item *model.QueueItem) error {
	ctx, span := tracer.Start(ctx, "Adding Mutation To Redis Queue")
	defer span.End()

	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(MutationTaskPayload{DriverID: driverID, Item: *item})
	if err != nil {
		return err
	}

	info, err := q.Client.EnqueueContext(ctx, q.mutationTask(driverID, item, payload), asynq.MaxRetry(cfg.Queue.MaxRetryAttempts))
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued mutation: %+v", item.ID)

	return nil
}

// queueIndexData enqueues a task to index data in a specified collection.
func (q *Queue) queueIndexData(id string, collection string, data interface{}) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	if cfg.TypeSense.Dns == "" {
		return nil
	}

	payload := map[string]interface{}{
		"collection": collection,
		"payload":    data,
	}

	IPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	taskOptions := []asynq.Option{asynq.Queue(cfg.Queue.IndexQueue)}
	task := asynq.NewTask(cfg.Queue.IndexQueue, IPayload, taskOptions...)
	info, err := q.Client.Enqueue(task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued index data: %+v", id)
	return nil
}

// mutationTask generates a task for a mutation and assigns it to a queue based on the driver ID.
// Hashing the driver ID keeps all of one driver's mutations in a single queue, so they are
// processed serially in the order the device replayed them, while different drivers spread
// across queues.
func (q *Queue) mutationTask(driverID string, item *model.QueueItem, payload []byte) *asynq.Task {
	cnf, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config: %v", err)
		return nil
	}
	queueIndex := hashDriverID(driverID) % cnf.Queue.NumberOfQueues
	queueName := fmt.Sprintf("%s_%d", cnf.Queue.SyncQueue, queueIndex+1)

	taskOptions := []asynq.Option{asynq.TaskID(item.ID), asynq.Queue(queueName)}
	return asynq.NewTask(queueName, payload, taskOptions...)
}

// hashDriverID hashes a driver ID to distribute mutations across queues.
func hashDriverID(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % 12)
}
