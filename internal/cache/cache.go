// Package cache maps search fingerprints to ordered job-id lists in Redis
// with a short TTL. The cache is strictly best-effort: a read that errors
// or exceeds its latency budget is demoted to a miss and logged — it never
// fails a retrieval.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/CredenceNG/jobs-matching-sub002/internal/metrics"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
	"github.com/CredenceNG/jobs-matching-sub002/internal/retry"
	"github.com/CredenceNG/jobs-matching-sub002/internal/search"
)

const (
	keyPrefix = "jobsearch:"

	// writeRetries bounds the backoff retries for one write. Writes are
	// best-effort for every caller, so a blip should not cost an entry.
	writeRetries = 2
)

// Cache is the fingerprint → job-id list layer.
type Cache struct {
	rdb        *redis.Client
	readBudget time.Duration
	defaultTTL time.Duration
	log        zerolog.Logger
}

// New returns a Cache with the given read budget and default TTL.
func New(rdb *redis.Client, readBudget, defaultTTL time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		rdb:        rdb,
		readBudget: readBudget,
		defaultTTL: defaultTTL,
		log:        log.With().Str("component", "cache").Logger(),
	}
}

// Get returns the cached id list for spec, or nil on a miss. Expired
// entries are absent (Redis TTL handles expiry). Any error, including a
// read slower than the budget, is treated as a miss.
func (c *Cache) Get(ctx context.Context, spec model.SearchSpec) []int64 {
	ctx, cancel := context.WithTimeout(ctx, c.readBudget)
	defer cancel()

	raw, err := c.rdb.Get(ctx, keyPrefix+search.Fingerprint(spec)).Result()
	if err == redis.Nil {
		metrics.CacheMisses.Inc()
		return nil
	}
	if err != nil {
		// Slow or unavailable cache is equivalent to absence.
		c.log.Warn().Err(err).Msg("cache read demoted to miss")
		metrics.CacheMisses.Inc()
		return nil
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		c.log.Warn().Err(err).Msg("corrupt cache entry, treating as miss")
		metrics.CacheMisses.Inc()
		return nil
	}
	if len(ids) == 0 {
		metrics.CacheMisses.Inc()
		return nil
	}

	metrics.CacheHits.Inc()
	return ids
}

// Set stores the id list for spec with the default TTL.
func (c *Cache) Set(ctx context.Context, spec model.SearchSpec, ids []int64) error {
	return c.SetWithTTL(ctx, spec, ids, c.defaultTTL)
}

// SetWithTTL stores the id list with an explicit TTL. Entries are written
// whole, never partially updated; a rewrite replaces the previous list.
// Transient write failures are retried with backoff before the error is
// reported.
func (c *Cache) SetWithTTL(ctx context.Context, spec model.SearchSpec, ids []int64, ttl time.Duration) error {
	if len(ids) == 0 {
		return nil
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal id list: %w", err)
	}

	key := keyPrefix + search.Fingerprint(spec)
	err = retry.Do(ctx, writeRetries, func(ctx context.Context) error {
		return c.rdb.Set(ctx, key, payload, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
