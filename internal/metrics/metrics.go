package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync queue counters. Labels carry the mutation type so dashboards can
// split delivery completions from location noise.
var (
	SyncItemsQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckygas_sync_items_queued_total",
		Help: "Driver mutations accepted into the sync queue.",
	}, []string{"type"})

	SyncItemsReplayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckygas_sync_items_replayed_total",
		Help: "Driver mutations applied successfully.",
	}, []string{"type"})

	SyncItemsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckygas_sync_items_dropped_total",
		Help: "Driver mutations dropped after exhausting the retry cap.",
	}, []string{"type"})

	SyncDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luckygas_sync_duplicates_total",
		Help: "Replays acknowledged as duplicates via idempotency key.",
	})

	SyncPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "luckygas_sync_pass_duration_seconds",
		Help:    "Duration of server-side sync passes.",
		Buckets: prometheus.DefBuckets,
	})
)

var (
	WebhooksDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckygas_webhooks_delivered_total",
		Help: "Webhook notifications delivered, by event.",
	}, []string{"event"})

	ResponseCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckygas_response_cache_total",
		Help: "Response cache lookups by outcome (fresh, stale, miss).",
	}, []string{"outcome"})
)
