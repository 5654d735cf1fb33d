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
	"embed"
	"fmt"

	"github.com/luckygas/luckygas/config"
	"github.com/luckygas/luckygas/database"
	redis_db "github.com/luckygas/luckygas/internal/redis-db"
	"github.com/luckygas/luckygas/internal/search"
	"github.com/redis/go-redis/v9"
	"github.com/typesense/typesense-go/typesense/api"
)

// LuckyGas represents the main struct for the Lucky Gas application.
type LuckyGas struct {
	queue      *Queue
	search     *search.TypesenseClient
	redis      redis.UniversalClient
	datasource database.IDataSource
	events     *EventBus
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewLuckyGas initializes a new instance of LuckyGas with the provided database datasource.
// It fetches the configuration and initializes the Redis client, task queue, event bus,
// and search client.
func NewLuckyGas(db database.IDataSource) (*LuckyGas, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)
	newSearch := search.NewTypesenseClient(configuration.TypeSenseKey, []string{configuration.TypeSense.Dns})

	return &LuckyGas{
		datasource: db,
		queue:      newQueue,
		redis:      redisClient.Client(),
		search:     newSearch,
		events:     NewEventBus(),
	}, nil
}

// Events exposes the bus dashboard transports subscribe to.
func (l *LuckyGas) Events() *EventBus {
	return l.events
}

// Search runs a query against one Typesense collection.
func (l *LuckyGas) Search(ctx context.Context, collection string, query *api.SearchCollectionParams) (*api.SearchResult, error) {
	return l.search.Search(ctx, collection, query)
}

// MultiSearch runs federated queries across collections in one round trip.
func (l *LuckyGas) MultiSearch(ctx context.Context, searches api.MultiSearchSearchesParameter) (*api.MultiSearchResult, error) {
	return l.search.MultiSearch(ctx, searches)
}
