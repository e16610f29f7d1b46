// Package rediscache provides an L1 read-through cache decorator sitting in
// front of the Postgres repository for User and Stamp lookups: adaptive TTL
// for hot keys, probabilistic early expiration to avoid stampedes on
// popular entities.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/akimon658/twittra/internal/metrics"
)

const (
	defaultTTL      = 5 * time.Minute
	maxTTLBoost     = 1 * time.Hour
	stampedeFactor  = 0.8
	hotKeyThreshold = 100
)

// manager is the shared caching core both entity-specific decorators use.
type manager struct {
	client *redis.Client
	log    *logrus.Entry
	entity string

	mu      sync.Mutex
	hotKeys map[string]*hotKeyStats
}

type hotKeyStats struct {
	count      int64
	lastAccess time.Time
	ttlBoost   time.Duration
}

func newManager(client *redis.Client, entity string, log *logrus.Entry) *manager {
	return &manager{client: client, log: log, entity: entity, hotKeys: make(map[string]*hotKeyStats)}
}

// getOrLoad returns the cached value for key, decoded as T, falling back
// to loader on a miss, a decode failure, or a probabilistic early
// expiration. Cache read/write failures are logged and treated as a miss:
// the Postgres repository is always the source of truth, so a Redis
// outage degrades latency, not correctness.
func getOrLoad[T any](ctx context.Context, m *manager, key string, loader func() (T, bool, error)) (T, bool, error) {
	m.trackHotKey(key)

	if cached, err := m.client.Get(ctx, key).Result(); err == nil && !m.shouldRefreshEarly(ctx, key) {
		var value T
		if err := json.Unmarshal([]byte(cached), &value); err == nil {
			metrics.CacheHits.WithLabelValues(m.entity).Inc()
			return value, true, nil
		}
		m.log.WithField("key", key).Warn("failed to decode cached value, falling back to loader")
	} else if err != nil && err != redis.Nil {
		m.log.WithError(err).WithField("key", key).Warn("redis get failed, falling back to loader")
	}

	metrics.CacheMisses.WithLabelValues(m.entity).Inc()

	value, found, err := loader()
	if err != nil || !found {
		return value, found, err
	}

	m.store(ctx, key, value)
	return value, true, nil
}

func (m *manager) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		m.log.WithError(err).WithField("key", key).Warn("failed to encode value for caching")
		return
	}
	if err := m.client.Set(ctx, key, data, m.ttlFor(key)).Err(); err != nil {
		m.log.WithError(err).WithField("key", key).Warn("redis set failed")
	}
}

// invalidate drops key from the cache, used after a write-through save so
// a stale cached value can't outlive the row it was read from.
func (m *manager) invalidate(ctx context.Context, key string) {
	if err := m.client.Del(ctx, key).Err(); err != nil {
		m.log.WithError(err).WithField("key", key).Warn("redis invalidate failed")
	}
}

func (m *manager) trackHotKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.hotKeys[key]
	if !ok {
		stats = &hotKeyStats{}
		m.hotKeys[key] = stats
	}
	stats.count++
	stats.lastAccess = time.Now()
	if stats.count > hotKeyThreshold {
		stats.ttlBoost = time.Duration(math.Min(
			float64(stats.count/hotKeyThreshold)*float64(time.Minute),
			float64(maxTTLBoost),
		))
	}
}

func (m *manager) ttlFor(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stats, ok := m.hotKeys[key]; ok && stats.ttlBoost > 0 {
		return defaultTTL + stats.ttlBoost
	}
	return defaultTTL
}

// shouldRefreshEarly applies a probabilistic-early-expiration stampede
// guard. The remaining TTL is measured against defaultTTL; a hot key's TTL
// boost is not taken into account.
func (m *manager) shouldRefreshEarly(ctx context.Context, key string) bool {
	ttl, err := m.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return false
	}

	remainingRatio := float64(ttl) / float64(defaultTTL)
	if remainingRatio > stampedeFactor {
		return false
	}

	probability := math.Pow(1-remainingRatio/stampedeFactor, 3)
	return rand.Float64() < probability
}

func userKey(id fmt.Stringer) string  { return "user:" + id.String() }
func stampKey(id fmt.Stringer) string { return "stamp:" + id.String() }
