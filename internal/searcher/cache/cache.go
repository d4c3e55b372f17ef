// Package cache memoises search results in two tiers: a bounded in-process
// LRU and an optional shared Redis store. Keys embed the index generation,
// so any mutation makes every older entry unreachable without an explicit
// purge.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

const keyPrefix = "search:"

// Tier names the cache level that answered a lookup.
type Tier string

const (
	TierLocal  Tier = "local"
	TierRemote Tier = "remote"
	TierNone   Tier = ""
)

// Store is the shared cache backend. *pkgredis.Client satisfies it; Get must
// return an error matching pkgredis.ErrNil for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Config struct {
	LocalSize     int
	TTL           time.Duration
	RemoteTimeout time.Duration
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	LocalEntries int    `json:"local_entries"`
	Remote       bool   `json:"remote"`
	BreakerState string `json:"breaker_state,omitempty"`
}

// QueryCache is safe for concurrent use. Results it returns are shared and
// must be treated as read-only.
type QueryCache struct {
	local    *lru.Cache[string, *executor.SearchResult]
	remote   Store
	breaker  *resilience.CircuitBreaker
	cfg      Config
	instance string
	group    singleflight.Group
	metrics  *metrics.Metrics
	logger   *slog.Logger
	hits     atomic.Int64
	misses   atomic.Int64
}

// New builds a QueryCache. remote and m may be nil. Each QueryCache gets a
// random instance id so that processes sharing one Redis never read each
// other's entries.
func New(cfg Config, remote Store, m *metrics.Metrics) (*QueryCache, error) {
	if cfg.LocalSize <= 0 {
		cfg.LocalSize = 1024
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 50 * time.Millisecond
	}
	local, err := lru.New[string, *executor.SearchResult](cfg.LocalSize)
	if err != nil {
		return nil, fmt.Errorf("creating local cache: %w", err)
	}
	c := &QueryCache{
		local:    local,
		remote:   remote,
		cfg:      cfg,
		instance: uuid.NewString(),
		metrics:  m,
		logger:   slog.Default().With("component", "query-cache"),
	}
	if remote != nil {
		c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			OnStateChange: func(name string, to resilience.State) {
				if m != nil {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		})
	}
	return c, nil
}

// GetOrCompute returns the cached result for plan at the given index
// generation, or runs compute and caches what it returns. Concurrent misses
// for the same key share one compute call. The computed result is stored
// under its own generation, which may be newer than generation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	plan *parser.QueryPlan,
	generation uint64,
	compute func() *executor.SearchResult,
) (*executor.SearchResult, Tier) {
	key := c.buildKey(plan, generation)
	if result, tier := c.lookup(ctx, key); result != nil {
		c.recordHit(tier)
		return result, tier
	}
	type shared struct {
		result *executor.SearchResult
		tier   Tier
	}
	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		if result, tier := c.lookup(ctx, key); result != nil {
			return shared{result: result, tier: tier}, nil
		}
		result := compute()
		c.store(ctx, c.buildKey(plan, result.Generation), result)
		return shared{result: result, tier: TierNone}, nil
	})
	out := v.(shared)
	if out.tier == TierNone {
		c.recordMiss()
	} else {
		c.recordHit(out.tier)
	}
	logger.Attach(ctx, c.logger).Debug("cache lookup",
		"key", key,
		"tier", string(out.tier),
	)
	return out.result, out.tier
}

// Invalidate drops every entry written by this cache, locally and in Redis.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.local.Purge()
	if c.remote == nil {
		return nil
	}
	pattern := keyPrefix + c.instance + ":*"
	deleted, err := c.remote.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() Stats {
	s := Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		LocalEntries: c.local.Len(),
		Remote:       c.remote != nil,
	}
	if c.breaker != nil {
		s.BreakerState = c.breaker.GetState().String()
	}
	return s
}

func (c *QueryCache) lookup(ctx context.Context, key string) (*executor.SearchResult, Tier) {
	if result, ok := c.local.Get(key); ok {
		return result, TierLocal
	}
	if c.remote == nil {
		return nil, TierNone
	}
	var data string
	err := c.breaker.Execute(func() error {
		v, err := resilience.CallWithTimeout(ctx, c.cfg.RemoteTimeout, "redis get", func(ctx context.Context) (string, error) {
			return c.remote.Get(ctx, key)
		})
		if pkgredis.IsNilError(err) {
			return nil
		}
		data = v
		return err
	})
	if err != nil {
		c.logger.Warn("remote cache get failed", "key", key, "error", err)
		return nil, TierNone
	}
	if data == "" {
		return nil, TierNone
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, TierNone
	}
	c.local.Add(key, &result)
	return &result, TierRemote
}

func (c *QueryCache) store(ctx context.Context, key string, result *executor.SearchResult) {
	c.local.Add(key, result)
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, c.cfg.RemoteTimeout, "redis set", func(ctx context.Context) error {
			return c.remote.Set(ctx, key, data, c.cfg.TTL)
		})
	})
	if err != nil {
		c.logger.Warn("remote cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) recordHit(tier Tier) {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(string(tier)).Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the canonical plan, so "fox dog" and "Fox AND dog." share
// an entry.
func (c *QueryCache) buildKey(plan *parser.QueryPlan, generation uint64) string {
	hash := sha256.Sum256([]byte(plan.String()))
	return fmt.Sprintf("%s%s:%d:%x", keyPrefix, c.instance, generation, hash[:16])
}
