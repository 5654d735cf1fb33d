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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luckygas/luckygas"
	"github.com/luckygas/luckygas/config"
	"github.com/luckygas/luckygas/internal/backups"
	"github.com/luckygas/luckygas/internal/listener"
	"github.com/luckygas/luckygas/internal/notification"
	redis_db "github.com/luckygas/luckygas/internal/redis-db"
	"github.com/luckygas/luckygas/internal/search"
	"github.com/luckygas/luckygas/internal/storagemonitor"
)

// indexData is the payload of an index task: the collection to index into
// and the document itself.
type indexData struct {
	Collection string                 `json:"collection"`
	Payload    map[string]interface{} `json:"payload"`
}

// processMutation applies a replayed driver mutation routed through the sync
// queues. Failed mutations are retried by asynq with its backoff.
func (l *luckyInstance) processMutation(ctx context.Context, t *asynq.Task) error {
	if err := l.lucky.ProcessMutationTask(ctx, t); err != nil {
		logrus.Infof("Mutation pushed back for retry due to error: %v", err)
		return err
	}
	log.Println(" [*] Mutation Applied")
	return nil
}

// indexData indexes a document into TypeSense for searchability.
func (l *luckyInstance) indexData(ctx context.Context, t *asynq.Task) error {
	var data indexData

	if err := json.Unmarshal(t.Payload(), &data); err != nil {
		logrus.Error(err)
		return err
	}

	newSearch := search.NewTypesenseClient(l.cnf.TypeSenseKey, []string{l.cnf.TypeSense.Dns})
	err := newSearch.EnsureCollectionsExist(ctx)
	if err != nil {
		log.Printf("Failed to ensure collections exist: %v", err)
		return err
	}

	err = newSearch.HandleNotification(ctx, data.Collection, data.Payload)
	if err != nil {
		log.Println("Error indexing data", err)
		return err
	}

	log.Println(" [*] Data indexed", data.Collection)
	return nil
}

func initializeQueues() map[string]int {
	cfg, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config, using defaults: %v", err)
		return nil
	}

	queues := make(map[string]int)
	queues[cfg.Queue.WebhookQueue] = 3
	queues[cfg.Queue.IndexQueue] = 1

	for i := 1; i <= cfg.Queue.NumberOfQueues; i++ {
		queueName := fmt.Sprintf("%s_%d", cfg.Queue.SyncQueue, i)
		queues[queueName] = 1
	}
	return queues
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:      redisOption.Addr,
			Password:  redisOption.Password,
			DB:        redisOption.DB,
			TLSConfig: redisOption.TLSConfig,
		},
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
		},
	), nil
}

func initializeTaskHandlers(l *luckyInstance, mux *asynq.ServeMux) {
	cfg, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config, using defaults: %v", err)
		return
	}

	// Mutations from the same driver hash to the same queue, so replay
	// order survives the trip through Redis.
	for i := 1; i <= cfg.Queue.NumberOfQueues; i++ {
		queueName := fmt.Sprintf("%s_%d", cfg.Queue.SyncQueue, i)
		mux.HandleFunc(queueName, l.processMutation)
	}

	mux.HandleFunc(cfg.Queue.IndexQueue, l.indexData)
	mux.HandleFunc(cfg.Queue.WebhookQueue, luckygas.ProcessWebhook)
}

// changeIndexer reindexes rows changed outside the API path. Postgres
// triggers emit NOTIFY payloads for direct writes (migrations, manual fixes)
// that never pass through the domain layer.
type changeIndexer struct {
	search *search.TypesenseClient
}

func (ci *changeIndexer) HandleChange(table string, data map[string]interface{}) error {
	return ci.search.HandleNotification(context.Background(), table, data)
}

func startDBListener(conf *config.Configuration) {
	if conf.TypeSense.Dns == "" || conf.DataSource.Dns == "" {
		return
	}

	newSearch := search.NewTypesenseClient(conf.TypeSenseKey, []string{conf.TypeSense.Dns})
	dbListener := listener.NewDBListener(listener.ListenerConfig{
		PgConnStr: conf.DataSource.Dns,
		Timeout:   time.Minute,
	}, &changeIndexer{search: newSearch})

	go func() {
		if err := dbListener.Start(); err != nil {
			logrus.Errorf("DB listener stopped: %v", err)
		}
	}()
}

// scheduleBackups registers the nightly database backup. With S3 credentials
// configured the archive is also shipped off the box.
func scheduleBackups(c *cron.Cron, conf *config.Configuration) {
	schedule := conf.Backup.Schedule
	if schedule == "" {
		schedule = "@daily"
	}

	_, err := c.AddFunc(schedule, func() {
		if err := backups.BackupDB(); err != nil {
			logrus.Errorf("scheduled backup failed: %v", err)
			return
		}
		if conf.Backup.S3BucketName != "" {
			if err := backups.ZipUploadToS3(); err != nil {
				logrus.Errorf("backup S3 upload failed: %v", err)
			}
		}
	})
	if err != nil {
		logrus.Errorf("could not schedule backups: %v", err)
	}
}

// workerCommands defines the "workers" command: asynq consumers for the sync,
// webhook and index queues, queue monitoring, scheduled backups and the disk
// usage monitor.
func workerCommands(l *luckyInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start luckygas workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			shutdown, err := initializeObservability(ctx, conf)
			if err != nil {
				log.Fatal(err)
			}
			if shutdown != nil {
				defer func() {
					if err := shutdown(ctx); err != nil {
						log.Printf("Error during shutdown: %v", err)
					}
				}()
			}

			queues := initializeQueues()

			srv, err := initializeWorkerServer(conf, queues)
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(l, mux)

			startDBListener(conf)

			cronScheduler := cron.New()
			scheduleBackups(cronScheduler, conf)
			cronScheduler.Start()
			defer cronScheduler.Stop()

			if conf.Backup.Dir != "" {
				monitor := storagemonitor.NewMonitor(conf.Backup.Dir)
				alerts := monitor.Broker.Subscribe()
				go func() {
					for event := range alerts {
						notification.NotifyError(fmt.Errorf("storage warning: %s", event.Message))
					}
				}()
				stop := make(chan struct{})
				defer close(stop)
				monitor.Start(30*time.Minute, stop)
			}

			// Start asynqmon for queue monitoring.
			redisOption, _ := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
			h := asynqmon.New(asynqmon.Options{
				RootPath: "/monitoring",
				RedisConnOpt: asynq.RedisClientOpt{
					Addr:      redisOption.Addr,
					Password:  redisOption.Password,
					DB:        redisOption.DB,
					TLSConfig: redisOption.TLSConfig,
				},
			})

			go func() {
				monitoringAddr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)
				log.Printf("Asynqmon server listening on %s/monitoring", monitoringAddr)
				if err := http.ListenAndServe(monitoringAddr, h); err != nil {
					log.Fatalf("could not start asynqmon server: %v", err)
				}
			}()

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
