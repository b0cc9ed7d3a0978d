// Package cache memoizes upstream GET responses by request signature with
// a fixed expiry window.
//
// Entries are grouped into partitions by resource type so each can be
// inspected independently; ClearAll wipes every partition. Failed fetches
// are never stored. A Cache is safe for concurrent use.
package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/helixir/scholarview/internal/observability"
)

// DefaultTTL is the expiry window applied when Config.TTL is zero.
const DefaultTTL = 10 * time.Minute

// Partition names a group of cached entries of one resource type.
type Partition string

const (
	PartitionWorksSearch Partition = "works-search"
	PartitionWorksByID   Partition = "works-by-id"
	PartitionAuthors     Partition = "authors"
	PartitionJournals    Partition = "journals"
)

// Partitions lists every partition a Cache holds.
var Partitions = []Partition{
	PartitionWorksSearch,
	PartitionWorksByID,
	PartitionAuthors,
	PartitionJournals,
}

// Config configures a Cache.
type Config struct {
	// TTL is the expiry window. An entry older than TTL is stale and is
	// replaced by the next fetch. Defaults to DefaultTTL.
	TTL time.Duration

	// CoalesceInflight routes concurrent misses for the same key through a
	// single upstream call. When false, each concurrent miss fetches on its
	// own and the last store wins.
	CoalesceInflight bool

	// Now is the clock used to stamp and age entries. Defaults to time.Now.
	Now func() time.Time

	// Metrics records hits, misses, and stores. May be nil.
	Metrics *observability.Metrics
}

// FetchFunc performs the network call behind a cache miss.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

type entry struct {
	payload  json.RawMessage
	storedAt time.Time
}

// Cache is a partitioned, time-expiring response cache.
type Cache struct {
	ttl      time.Duration
	coalesce bool
	now      func() time.Time
	metrics  *observability.Metrics
	logger   zerolog.Logger

	mu         sync.RWMutex
	partitions map[Partition]map[string]entry

	inflight singleflight.Group
}

// New creates an empty cache.
func New(cfg Config, logger zerolog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Cache{
		ttl:      cfg.TTL,
		coalesce: cfg.CoalesceInflight,
		now:      cfg.Now,
		metrics:  cfg.Metrics,
		logger:   observability.WithComponent(logger, "cache"),
	}
	c.partitions = newPartitions()
	return c
}

func newPartitions() map[Partition]map[string]entry {
	p := make(map[Partition]map[string]entry, len(Partitions))
	for _, name := range Partitions {
		p[name] = make(map[string]entry)
	}
	return p
}

// Key derives the cache key for endpoint and params. Parameters are
// encoded in sorted key order, so equal parameter sets always produce the
// same key regardless of how they were built.
func Key(endpoint string, params url.Values) string {
	encoded := params.Encode()
	if encoded == "" {
		return endpoint
	}
	return endpoint + "?" + encoded
}

// TTL returns the expiry window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fetch returns the fresh cached payload for endpoint and params, or calls
// fetch and stores its result. Errors from fetch are returned unchanged and
// nothing is stored. The returned payload must not be modified.
func (c *Cache) Fetch(ctx context.Context, partition Partition, endpoint string, params url.Values, fetch FetchFunc) (json.RawMessage, error) {
	key := Key(endpoint, params)
	logger := observability.WithCacheContext(c.logger, string(partition), key)

	if payload, ok := c.Get(partition, key); ok {
		c.metrics.RecordCacheHit(string(partition))
		logger.Debug().Msg("cache hit")
		return payload, nil
	}

	c.metrics.RecordCacheMiss(string(partition))
	logger.Debug().Msg("cache miss")

	if !c.coalesce {
		return c.fetchAndStore(ctx, partition, key, fetch)
	}

	v, err, shared := c.inflight.Do(string(partition)+"\x00"+key, func() (any, error) {
		if payload, ok := c.Get(partition, key); ok {
			return payload, nil
		}
		return c.fetchAndStore(ctx, partition, key, fetch)
	})
	if shared {
		logger.Debug().Msg("joined in-flight fetch")
	}
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (c *Cache) fetchAndStore(ctx context.Context, partition Partition, key string, fetch FetchFunc) (json.RawMessage, error) {
	payload, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(partition, key, payload)
	return payload, nil
}

// Get returns the payload stored under key if it is younger than the TTL.
func (c *Cache) Get(partition Partition, key string) (json.RawMessage, bool) {
	c.mu.RLock()
	e, ok := c.partitions[partition][key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.payload, true
}

// Set stores a copy of payload under key, stamped with the current time.
func (c *Cache) Set(partition Partition, key string, payload json.RawMessage) {
	stored := make(json.RawMessage, len(payload))
	copy(stored, payload)

	c.mu.Lock()
	p, ok := c.partitions[partition]
	if !ok {
		p = make(map[string]entry)
		c.partitions[partition] = p
	}
	p[key] = entry{payload: stored, storedAt: c.now()}
	c.mu.Unlock()

	c.metrics.RecordCacheStore(string(partition))
}

// Len returns the number of entries, fresh or stale, held in partition.
func (c *Cache) Len(partition Partition) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.partitions[partition])
}

// ClearAll removes every entry from every partition.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.partitions = newPartitions()
	c.mu.Unlock()

	c.metrics.RecordCacheClear()
	c.logger.Info().Msg("cache cleared")
}
