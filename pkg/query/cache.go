package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrDisabled is returned when a disabled query is read. Disabled
	// queries never fetch; callers treat the result as absent.
	ErrDisabled = errors.New("query disabled")
)

// FetchFunc loads the current server state for one query key.
type FetchFunc func(ctx context.Context) (any, error)

// Query declares a cacheable read: a stable key, a fetch function, and
// an enabled predicate (a user-scoped query is disabled until the user
// id is known).
type Query struct {
	Key     Key
	Enabled bool
	Fetch   FetchFunc
}

// Mutation declares a write together with the query-key prefixes it
// makes stale on success.
type Mutation struct {
	Name        string
	Invalidates []Key
}

// entry is the cached state for one key.
type entry struct {
	key       Key
	value     any
	hasValue  bool
	stale     bool
	fetchedAt time.Time
	fetch     FetchFunc
	subs      map[*Subscription]struct{}
}

// Cache is a keyed, invalidation-driven cache of server-resource reads.
// It is shared across every facade; all writes flow through Mutate and
// the declared invalidation lists, never through direct entry access.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		logger:  log.With().Str("component", "query-cache").Logger(),
	}
}

// entryLocked returns the entry for key, creating it if absent. The
// caller must hold c.mu.
func (c *Cache) entryLocked(key Key) *entry {
	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{
			key:  key,
			subs: make(map[*Subscription]struct{}),
		}
		c.entries[ks] = e
	}
	return e
}

// Get returns the value for q, serving a fresh cache entry without
// network I/O and fetching otherwise. Concurrent Gets for one key share
// a single in-flight fetch; a second caller waits on it instead of
// issuing a duplicate. Fetch errors are returned, never cached.
func (c *Cache) Get(ctx context.Context, q Query) (any, error) {
	if !q.Enabled {
		return nil, ErrDisabled
	}

	c.mu.Lock()
	e := c.entryLocked(q.Key)
	if q.Fetch != nil {
		e.fetch = q.Fetch
	}
	if e.hasValue && !e.stale {
		v := e.value
		c.mu.Unlock()
		CacheHits.Inc()
		c.logger.Debug().Str("key", q.Key.String()).Msg("Cache hit")
		return v, nil
	}
	c.mu.Unlock()

	CacheMisses.Inc()
	v, err := c.fetch(ctx, q.Key, q.Fetch)
	if err != nil {
		FetchErrors.WithLabelValues("get").Inc()
	}
	return v, err
}

// fetch runs fn through the per-key singleflight group and lands the
// result in the cache. Subscribers of the key receive the new value.
func (c *Cache) fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		e := c.entryLocked(key)
		e.value = v
		e.hasValue = true
		e.stale = false
		e.fetchedAt = time.Now()
		subs := subscriberSnapshot(e)
		c.mu.Unlock()

		c.logger.Debug().Str("key", key.String()).Msg("Fetched and cached")
		push(subs, Update{Key: key, Value: v})
		return v, nil
	})
	return v, err
}

// Invalidate marks every entry whose key starts with prefix as stale.
// Entries with enabled subscribers are refetched in the background; the
// rest stay stale until the next Get.
func (c *Cache) Invalidate(prefix Key) {
	type refetchTarget struct {
		key   Key
		fetch FetchFunc
	}

	c.mu.Lock()
	var targets []refetchTarget
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.stale = true
		Invalidations.Inc()
		if e.fetch != nil && hasEnabledSubscriber(e) {
			targets = append(targets, refetchTarget{key: e.key, fetch: e.fetch})
		}
	}
	c.mu.Unlock()

	c.logger.Debug().
		Str("prefix", prefix.String()).
		Int("refetches", len(targets)).
		Msg("Invalidated prefix")

	for _, t := range targets {
		go c.refetch(t.key, t.fetch)
	}
}

// refetch reloads one subscribed key after invalidation. Failures are
// delivered to subscribers rather than swallowed.
func (c *Cache) refetch(key Key, fn FetchFunc) {
	Refetches.Inc()

	if _, err := c.fetch(context.Background(), key, fn); err != nil {
		FetchErrors.WithLabelValues("refetch").Inc()
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Background refetch failed")

		c.mu.Lock()
		e := c.entryLocked(key)
		subs := subscriberSnapshot(e)
		c.mu.Unlock()

		push(subs, Update{Key: key, Err: err})
	}
}

// Mutate executes a write and, on success only, invalidates every
// prefix the mutation declares. The server response passes through
// untouched.
func (c *Cache) Mutate(ctx context.Context, m Mutation, fn FetchFunc) (any, error) {
	v, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("mutation", m.Name).
		Int("prefixes", len(m.Invalidates)).
		Msg("Mutation succeeded")

	for _, prefix := range m.Invalidates {
		c.Invalidate(prefix)
	}

	return v, nil
}

// Peek returns the cached value for key without fetching.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// IsStale reports whether the entry for key is currently stale. A
// missing entry is not considered stale.
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	return ok && e.stale
}

// Clear drops every cache entry. Subscriptions stay registered.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.value = nil
		e.hasValue = false
		e.stale = false
	}
}
