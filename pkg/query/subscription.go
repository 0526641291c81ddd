package query

import "sync"

// Update is one delivery to a subscriber: the refreshed value for a
// key, or the error that kept it stale.
type Update struct {
	Key   Key
	Value any
	Err   error
}

// Subscription is an active observer of one query key. While at least
// one subscription exists for a key, invalidating the key triggers a
// background refetch whose result arrives on C.
type Subscription struct {
	// C receives cache updates for the subscribed key.
	C <-chan Update

	key     Key
	ch      chan Update
	cache   *Cache
	enabled bool

	mu     sync.Mutex
	closed bool
}

// Subscribe registers an observer for q. A fresh cached value is
// delivered immediately; a missing or stale entry triggers a background
// fetch (deduplicated with any in-flight one). Disabled queries are
// registered but never fetched.
func (c *Cache) Subscribe(q Query) *Subscription {
	ch := make(chan Update, 16)
	s := &Subscription{
		C:       ch,
		key:     q.Key,
		ch:      ch,
		cache:   c,
		enabled: q.Enabled,
	}

	c.mu.Lock()
	e := c.entryLocked(q.Key)
	e.subs[s] = struct{}{}
	if q.Enabled && q.Fetch != nil {
		e.fetch = q.Fetch
	}
	fresh := e.hasValue && !e.stale
	value := e.value
	needsFetch := q.Enabled && !fresh && e.fetch != nil
	fetch := e.fetch
	c.mu.Unlock()

	if fresh {
		s.push(Update{Key: q.Key, Value: value})
	} else if needsFetch {
		go c.refetch(q.Key, fetch)
	}

	return s
}

// Close cancels the subscription. An in-flight fetch still completes
// and lands in the cache; only delivery to this subscriber stops.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.cache.mu.Lock()
	if e, ok := s.cache.entries[s.key.String()]; ok {
		delete(e.subs, s)
	}
	s.cache.mu.Unlock()
}

// push delivers an update without blocking. A subscriber that stopped
// draining its channel loses intermediate updates; the cache remains
// the source of truth.
func (s *Subscription) push(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- u:
	default:
	}
}

// hasEnabledSubscriber reports whether any enabled subscription watches
// e. Disabled subscriptions never cause a fetch, so they do not make an
// entry a refetch target. The caller must hold the cache lock.
func hasEnabledSubscriber(e *entry) bool {
	for s := range e.subs {
		if s.enabled {
			return true
		}
	}
	return false
}

// subscriberSnapshot copies the subscriber set. The caller must hold
// the cache lock.
func subscriberSnapshot(e *entry) []*Subscription {
	subs := make([]*Subscription, 0, len(e.subs))
	for s := range e.subs {
		subs = append(subs, s)
	}
	return subs
}

// push delivers u to every subscriber in subs.
func push(subs []*Subscription, u Update) {
	for _, s := range subs {
		s.push(u)
	}
}
