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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"LUCKYGAS_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"LUCKYGAS_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"LUCKYGAS_SERVER_SECRET_KEY"`
	JWTSecret string `json:"jwt_secret" envconfig:"LUCKYGAS_SERVER_JWT_SECRET"`
	Domain    string `json:"domain" envconfig:"LUCKYGAS_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"LUCKYGAS_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"LUCKYGAS_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"LUCKYGAS_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"LUCKYGAS_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"LUCKYGAS_REDIS_SKIP_TLS_VERIFY"`
}

type TypeSenseConfig struct {
	Dns string `json:"dns" envconfig:"LUCKYGAS_TYPESENSE_DNS"`
}

// QueueConfig names the asynq queues the workers consume and tunes their
// retry behaviour.
type QueueConfig struct {
	SyncQueue        string `json:"sync_queue" envconfig:"LUCKYGAS_QUEUE_SYNC"`
	WebhookQueue     string `json:"webhook_queue" envconfig:"LUCKYGAS_QUEUE_WEBHOOK"`
	IndexQueue       string `json:"index_queue" envconfig:"LUCKYGAS_QUEUE_INDEX"`
	NumberOfQueues   int    `json:"number_of_queues" envconfig:"LUCKYGAS_QUEUE_NUMBER_OF_QUEUES"`
	MaxRetryAttempts int    `json:"max_retry_attempts" envconfig:"LUCKYGAS_QUEUE_MAX_RETRY_ATTEMPTS"`
	MonitoringPort   string `json:"monitoring_port" envconfig:"LUCKYGAS_QUEUE_MONITORING_PORT"`
}

// SyncConfig governs server-side handling of replayed driver mutations.
type SyncConfig struct {
	// IdempotencyTTL is how long a consumed idempotency key is remembered.
	IdempotencyTTL time.Duration `json:"idempotency_ttl" envconfig:"LUCKYGAS_SYNC_IDEMPOTENCY_TTL"`
	// LockDuration bounds how long a sync pass may hold the pass lock.
	LockDuration time.Duration `json:"lock_duration" envconfig:"LUCKYGAS_SYNC_LOCK_DURATION"`
}

// AgentConfig configures the driver-device agent and its local queue.
type AgentConfig struct {
	ServerURL    string        `json:"server_url" envconfig:"LUCKYGAS_AGENT_SERVER_URL"`
	DriverID     string        `json:"driver_id" envconfig:"LUCKYGAS_AGENT_DRIVER_ID"`
	Token        string        `json:"token" envconfig:"LUCKYGAS_AGENT_TOKEN"`
	QueuePath    string        `json:"queue_path" envconfig:"LUCKYGAS_AGENT_QUEUE_PATH"`
	SyncSchedule string        `json:"sync_schedule" envconfig:"LUCKYGAS_AGENT_SYNC_SCHEDULE"`
	HTTPTimeout  time.Duration `json:"http_timeout" envconfig:"LUCKYGAS_AGENT_HTTP_TIMEOUT"`
	MaxRetries   int           `json:"max_retries" envconfig:"LUCKYGAS_AGENT_MAX_RETRIES"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"LUCKYGAS_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"LUCKYGAS_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"LUCKYGAS_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type CacheConfig struct {
	// ResponseTTL is the age threshold for cached API GET responses.
	ResponseTTL time.Duration `json:"response_ttl" envconfig:"LUCKYGAS_CACHE_RESPONSE_TTL"`
	// Version namespaces response-cache keys. Bumping it invalidates every
	// cached response at once.
	Version string `json:"version" envconfig:"LUCKYGAS_CACHE_VERSION"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type BackupConfig struct {
	Dir                string `json:"dir" envconfig:"LUCKYGAS_BACKUP_DIR"`
	Schedule           string `json:"schedule" envconfig:"LUCKYGAS_BACKUP_SCHEDULE"`
	S3Endpoint         string `json:"s3_endpoint"`
	S3BucketName       string `json:"s3_bucket_name"`
	S3Region           string `json:"s3_region"`
	AwsAccessKeyId     string `json:"aws_access_key_id"`
	AwsSecretAccessKey string `json:"aws_secret_access_key"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"LUCKYGAS_PROJECT_NAME"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"LUCKYGAS_ENABLE_TELEMETRY"`
	Server          ServerConfig     `json:"server"`
	DataSource      DataSourceConfig `json:"data_source"`
	Redis           RedisConfig      `json:"redis"`
	TypeSense       TypeSenseConfig  `json:"typesense"`
	TypeSenseKey    string           `json:"type_sense_key"`
	Queue           QueueConfig      `json:"queue"`
	Sync            SyncConfig       `json:"sync"`
	Agent           AgentConfig      `json:"agent"`
	Cache           CacheConfig      `json:"cache"`
	RateLimit       RateLimitConfig  `json:"rate_limit"`
	Notification    Notification     `json:"notification"`
	Backup          BackupConfig     `json:"backup"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("luckygas", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called luckygas.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Lucky Gas Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	if cnf.TypeSense.Dns == "" {
		cnf.TypeSense.Dns = "http://typesense:8108"
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	cnf.applyQueueDefaults()
	cnf.applyAgentDefaults()

	if cnf.Sync.IdempotencyTTL <= 0 {
		cnf.Sync.IdempotencyTTL = 24 * time.Hour
	}
	if cnf.Sync.LockDuration <= 0 {
		cnf.Sync.LockDuration = 30 * time.Second
	}

	if cnf.Cache.ResponseTTL <= 0 {
		cnf.Cache.ResponseTTL = 5 * time.Minute
	}
	if cnf.Cache.Version == "" {
		cnf.Cache.Version = "v1"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

func (cnf *Configuration) applyQueueDefaults() {
	if cnf.Queue.SyncQueue == "" {
		cnf.Queue.SyncQueue = "new:sync"
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.IndexQueue == "" {
		cnf.Queue.IndexQueue = "new:index"
	}
	if cnf.Queue.NumberOfQueues <= 0 {
		cnf.Queue.NumberOfQueues = 4
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = 3
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5004"
	}
}

func (cnf *Configuration) applyAgentDefaults() {
	if cnf.Agent.QueuePath == "" {
		cnf.Agent.QueuePath = "luckygas-agent.db"
	}
	if cnf.Agent.SyncSchedule == "" {
		cnf.Agent.SyncSchedule = "@every 30s"
	}
	if cnf.Agent.HTTPTimeout <= 0 {
		cnf.Agent.HTTPTimeout = 10 * time.Second
	}
	if cnf.Agent.MaxRetries <= 0 {
		cnf.Agent.MaxRetries = 3
	}
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.applyQueueDefaults()
	mockConfig.applyAgentDefaults()
	if mockConfig.Sync.IdempotencyTTL <= 0 {
		mockConfig.Sync.IdempotencyTTL = 24 * time.Hour
	}
	if mockConfig.Sync.LockDuration <= 0 {
		mockConfig.Sync.LockDuration = 30 * time.Second
	}
	if mockConfig.Cache.ResponseTTL <= 0 {
		mockConfig.Cache.ResponseTTL = 5 * time.Minute
	}
	if mockConfig.Cache.Version == "" {
		mockConfig.Cache.Version = "v1"
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
