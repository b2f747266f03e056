// Package querycache is the process-wide cache for identity-scoped backend
// reads. Its refetch policy is explicit configuration rather than framework
// defaults: no interval refetch, no focus refetch, entries fresh until
// invalidated, and no automatic retries.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dgraph-io/ristretto/v2/z"
	"go.uber.org/zap"

	"github.com/spec-kit/concierge-portal/internal/observability"
)

// StaleForever keeps entries fresh until they are invalidated.
const StaleForever time.Duration = math.MaxInt64

// QueryFunc fetches data for a query. A nil result with a nil error means "no data".
type QueryFunc func(ctx context.Context) (json.RawMessage, error)

// Policy is the refetch and retry policy applied to every query and mutation.
type Policy struct {
	// RefetchInterval re-fetches entries older than the interval on read. Zero disables it.
	RefetchInterval time.Duration
	// RefetchOnFocus makes Focus drop every entry.
	RefetchOnFocus bool
	// StaleTime is how long an entry is served without refetching.
	StaleTime time.Duration
	// Retry is the number of extra attempts after a failed query.
	Retry int
	// MutationRetry is the number of extra attempts after a failed mutation.
	MutationRetry int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
}

// DefaultPolicy never refetches on its own and never retries.
func DefaultPolicy() Policy {
	return Policy{
		RefetchInterval: 0,
		RefetchOnFocus:  false,
		StaleTime:       StaleForever,
		Retry:           0,
		MutationRetry:   0,
	}
}

// Config sizes the underlying ristretto cache.
type Config struct {
	NumCounters int64
	MaxCost     int64
	Policy      Policy
	Logger      *zap.Logger
	Now         func() time.Time
}

// Query describes one cached read.
type Query struct {
	// Scope isolates entries of different browser profiles.
	Scope string
	Key   []string
	Fn    QueryFunc
	// Enabled gates the read. A disabled query never calls Fn.
	Enabled bool
}

type entry struct {
	data      json.RawMessage
	fetchedAt time.Time
}

// generationStripes bounds the invalidation counters; keys sharing a stripe
// only cost each other an extra refetch.
const generationStripes = 256

// fetchStamp identifies the invalidation state a fetch started from.
type fetchStamp struct {
	epoch uint64
	gen   uint64
}

// Cache memoizes query results keyed by scope and structured key.
type Cache struct {
	store  *ristretto.Cache[string, entry]
	policy Policy
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	epoch       uint64
	generations [generationStripes]uint64
}

// New builds a cache.
func New(cfg Config) (*Cache, error) {
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 10000
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, entry]{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init query cache: %w", err)
	}
	return &Cache{
		store:  store,
		policy: cfg.Policy,
		logger: observability.OrNop(cfg.Logger),
		now:    cfg.Now,
	}, nil
}

// Close releases cache resources.
func (c *Cache) Close() {
	c.store.Close()
}

// Fetch returns the cached data for q or runs q.Fn. Disabled queries return
// no data without touching the network or the cache.
func (c *Cache) Fetch(ctx context.Context, q Query) (json.RawMessage, error) {
	if !q.Enabled {
		return nil, nil
	}
	if q.Fn == nil {
		return nil, errors.New("query has no fetch function")
	}
	key := cacheKey(q.Scope, q.Key)
	started := c.stamp(key)

	if cached, ok := c.store.Get(key); ok && c.fresh(cached) {
		return cached.data, nil
	}

	var data json.RawMessage
	err := c.attempt(ctx, c.policy.Retry, func(ctx context.Context) error {
		var err error
		data, err = q.Fn(ctx)
		return err
	})
	if err != nil {
		c.logger.Debug("query failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stampLocked(key) != started {
		c.logger.Debug("query invalidated while in flight; not caching", zap.String("key", key))
		return data, nil
	}
	c.store.Set(key, entry{data: data, fetchedAt: c.now()}, 1)
	c.store.Wait()
	return data, nil
}

// Mutate runs fn under the mutation retry policy. Results are never cached.
func (c *Cache) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.attempt(ctx, c.policy.MutationRetry, fn)
}

// Invalidate drops the entry for scope and key so the next Fetch refetches.
// Fetches already in flight for the key do not store their result.
func (c *Cache) Invalidate(scope string, key []string) {
	k := cacheKey(scope, key)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[c.stripe(k)]++
	c.store.Del(k)
	c.store.Wait()
}

// Focus signals the host regained focus. Entries are dropped only when the
// policy asks for refetch on focus.
func (c *Cache) Focus() {
	if !c.policy.RefetchOnFocus {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.store.Clear()
}

func (c *Cache) stamp(key string) fetchStamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stampLocked(key)
}

func (c *Cache) stampLocked(key string) fetchStamp {
	return fetchStamp{epoch: c.epoch, gen: c.generations[c.stripe(key)]}
}

func (c *Cache) stripe(key string) uint64 {
	h, _ := z.KeyToHash(key)
	return h % generationStripes
}

func (c *Cache) fresh(e entry) bool {
	age := c.now().Sub(e.fetchedAt)
	if c.policy.RefetchInterval > 0 && age >= c.policy.RefetchInterval {
		return false
	}
	if c.policy.StaleTime == StaleForever {
		return true
	}
	return age < c.policy.StaleTime
}

func (c *Cache) attempt(ctx context.Context, retries int, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i <= retries; i++ {
		if i > 0 && c.policy.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(c.policy.RetryDelay):
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func cacheKey(scope string, key []string) string {
	return scope + "|" + strings.Join(key, "/")
}
