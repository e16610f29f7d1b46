// Package metrics registers the ambient Prometheus collectors exposed by
// the service: crawl tick health, cache effectiveness, and recommendation
// latency.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CrawlTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "twittra",
		Subsystem: "ingest",
		Name:      "crawl_tick_duration_seconds",
		Help:      "Duration of a single ingestion engine crawl tick.",
		Buckets:   prometheus.DefBuckets,
	})

	CandidatesRefreshed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "twittra",
		Subsystem: "ingest",
		Name:      "candidates_refreshed_total",
		Help:      "Sync candidates that passed should_refresh and were re-fetched.",
	})

	NotificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "twittra",
		Subsystem: "notify",
		Name:      "notifications_sent_total",
		Help:      "message.updated events successfully published.",
	})

	NotificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "twittra",
		Subsystem: "notify",
		Name:      "notifications_dropped_total",
		Help:      "message.updated events that failed to publish and were swallowed.",
	})

	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twittra",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "L1 cache hits by entity type.",
	}, []string{"entity"})

	CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twittra",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "L1 cache misses by entity type.",
	}, []string{"entity"})

	RecommendationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "twittra",
		Subsystem: "timeline",
		Name:      "recommendation_latency_seconds",
		Help:      "Latency of GetRecommendedMessages end to end.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register adds every collector in this package to reg.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		CrawlTickDuration,
		CandidatesRefreshed,
		NotificationsSent,
		NotificationsDropped,
		CacheHits,
		CacheMisses,
		RecommendationLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
