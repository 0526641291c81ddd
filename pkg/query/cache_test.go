package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingFetch returns a FetchFunc that counts invocations and
// returns value.
func countingFetch(calls *atomic.Int64, value any) FetchFunc {
	return func(ctx context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestCache_Get_CachesValue(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	var calls atomic.Int64
	q := Query{
		Key:     NewKey("products"),
		Enabled: true,
		Fetch:   countingFetch(&calls, "catalog"),
	}

	v, err := cache.Get(ctx, q)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "catalog" {
		t.Errorf("Get = %v, want %q", v, "catalog")
	}

	// Second read must be served from cache.
	if _, err := cache.Get(ctx, q); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch called %d times, want 1", got)
	}
}

func TestCache_Get_Disabled(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	var calls atomic.Int64
	q := Query{
		Key:     NewKey("products", "0"),
		Enabled: false,
		Fetch:   countingFetch(&calls, "never"),
	}

	_, err := cache.Get(ctx, q)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("disabled query fetched %d times, want 0", got)
	}
}

func TestCache_Get_ErrorNotCached(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	var calls atomic.Int64
	fetchErr := errors.New("upstream down")
	q := Query{
		Key:     NewKey("products"),
		Enabled: true,
		Fetch: func(ctx context.Context) (any, error) {
			if calls.Add(1) == 1 {
				return nil, fetchErr
			}
			return "recovered", nil
		},
	}

	if _, err := cache.Get(ctx, q); !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	// The failure must not be cached; the next read retries.
	v, err := cache.Get(ctx, q)
	if err != nil {
		t.Fatalf("Get after error failed: %v", err)
	}
	if v != "recovered" {
		t.Errorf("Get = %v, want %q", v, "recovered")
	}
}

func TestCache_Get_SingleFlight(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	release := make(chan struct{})
	q := Query{
		Key:     NewKey("cart", "1"),
		Enabled: true,
		Fetch: func(ctx context.Context) (any, error) {
			calls.Add(1)
			<-release
			return "cart", nil
		},
	}

	const readers = 10
	var wg sync.WaitGroup
	results := make([]any, readers)
	errs := make([]error, readers)

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background(), q)
		}(i)
	}

	// Let every reader reach the in-flight fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("concurrent readers triggered %d fetches, want 1", got)
	}
	for i := 0; i < readers; i++ {
		if errs[i] != nil {
			t.Errorf("reader %d failed: %v", i, errs[i])
		}
		if results[i] != "cart" {
			t.Errorf("reader %d got %v, want %q", i, results[i], "cart")
		}
	}
}

func TestCache_Invalidate_MarksPrefixStale(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	var calls atomic.Int64
	keys := []Key{
		NewKey("products"),
		NewKey("products", "5"),
		NewKey("products", "search", "chair"),
		NewKey("cart", "1"),
	}
	for _, key := range keys {
		q := Query{Key: key, Enabled: true, Fetch: countingFetch(&calls, "v")}
		if _, err := cache.Get(ctx, q); err != nil {
			t.Fatalf("seed Get(%v) failed: %v", key, err)
		}
	}

	cache.Invalidate(NewKey("products"))

	for _, key := range keys[:3] {
		if !cache.IsStale(key) {
			t.Errorf("key %v should be stale after invalidating products prefix", key)
		}
	}
	if cache.IsStale(NewKey("cart", "1")) {
		t.Error("cart key should not be stale after invalidating products prefix")
	}
}

func TestCache_Get_RefetchesStaleEntry(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	var calls atomic.Int64
	q := Query{
		Key:     NewKey("cart", "1"),
		Enabled: true,
		Fetch: func(ctx context.Context) (any, error) {
			return fmt.Sprintf("state-%d", calls.Add(1)), nil
		},
	}

	v, err := cache.Get(ctx, q)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "state-1" {
		t.Errorf("Get = %v, want state-1", v)
	}

	cache.Invalidate(NewKey("cart", "1"))

	// A stale entry must fetch fresh server state, not serve the old
	// payload.
	v, err = cache.Get(ctx, q)
	if err != nil {
		t.Fatalf("Get after invalidation failed: %v", err)
	}
	if v != "state-2" {
		t.Errorf("Get after invalidation = %v, want state-2", v)
	}
}

func TestCache_Mutate_InvalidatesOnSuccess(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	var calls atomic.Int64
	seed := Query{Key: NewKey("orders", "1"), Enabled: true, Fetch: countingFetch(&calls, "orders")}
	if _, err := cache.Get(ctx, seed); err != nil {
		t.Fatalf("seed Get failed: %v", err)
	}
	seedCart := Query{Key: NewKey("cart", "1"), Enabled: true, Fetch: countingFetch(&calls, "cart")}
	if _, err := cache.Get(ctx, seedCart); err != nil {
		t.Fatalf("seed Get failed: %v", err)
	}

	m := Mutation{
		Name:        "orders.create",
		Invalidates: []Key{NewKey("orders", "1"), NewKey("cart", "1")},
	}
	v, err := cache.Mutate(ctx, m, func(ctx context.Context) (any, error) {
		return "order-42", nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if v != "order-42" {
		t.Errorf("Mutate = %v, want order-42", v)
	}

	if !cache.IsStale(NewKey("orders", "1")) {
		t.Error("orders key should be stale after create order")
	}
	if !cache.IsStale(NewKey("cart", "1")) {
		t.Error("cart key should be stale after create order")
	}
}

func TestCache_Mutate_NoInvalidationOnFailure(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	var calls atomic.Int64
	seed := Query{Key: NewKey("cart", "1"), Enabled: true, Fetch: countingFetch(&calls, "cart")}
	if _, err := cache.Get(ctx, seed); err != nil {
		t.Fatalf("seed Get failed: %v", err)
	}

	mutErr := errors.New("server rejected")
	m := Mutation{Name: "cart.add", Invalidates: []Key{NewKey("cart", "1")}}
	if _, err := cache.Mutate(ctx, m, func(ctx context.Context) (any, error) {
		return nil, mutErr
	}); !errors.Is(err, mutErr) {
		t.Fatalf("expected mutation error, got %v", err)
	}

	if cache.IsStale(NewKey("cart", "1")) {
		t.Error("failed mutation must not invalidate anything")
	}
}

func TestCache_Subscribe_ReceivesRefetchAfterInvalidation(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	q := Query{
		Key:     NewKey("cart", "1"),
		Enabled: true,
		Fetch: func(ctx context.Context) (any, error) {
			return fmt.Sprintf("state-%d", calls.Add(1)), nil
		},
	}

	sub := cache.Subscribe(q)
	defer sub.Close()

	// Initial background fetch.
	select {
	case u := <-sub.C:
		if u.Err != nil {
			t.Fatalf("initial update failed: %v", u.Err)
		}
		if u.Value != "state-1" {
			t.Errorf("initial update = %v, want state-1", u.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial update")
	}

	cache.Invalidate(NewKey("cart", "1"))

	// The subscribed key must refetch in the background.
	select {
	case u := <-sub.C:
		if u.Err != nil {
			t.Fatalf("refetch update failed: %v", u.Err)
		}
		if u.Value != "state-2" {
			t.Errorf("refetch update = %v, want state-2", u.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refetch update")
	}
}

func TestCache_Subscribe_Disabled_NeverFetches(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	q := Query{
		Key:     NewKey("products", "0"),
		Enabled: false,
		Fetch:   countingFetch(&calls, "never"),
	}

	sub := cache.Subscribe(q)
	defer sub.Close()

	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("disabled subscription fetched %d times, want 0", got)
	}
}

func TestCache_Invalidate_DisabledSubscription_NeverFetches(t *testing.T) {
	cache := NewCache()

	var calls atomic.Int64
	sub := cache.Subscribe(Query{
		Key:     NewKey("cart", "0"),
		Enabled: false,
		Fetch:   countingFetch(&calls, "never"),
	})
	defer sub.Close()

	// Invalidating the subscribed key must not turn the disabled
	// subscription into a refetch.
	cache.Invalidate(NewKey("cart", "0"))

	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("disabled subscribed query fetched %d times after invalidation, want 0", got)
	}
	select {
	case u := <-sub.C:
		t.Errorf("disabled subscription received update %+v", u)
	default:
	}
}

func TestCache_Unsubscribed_StaleEntryNotRefetched(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	var calls atomic.Int64
	q := Query{Key: NewKey("orders", "all"), Enabled: true, Fetch: countingFetch(&calls, "orders")}
	if _, err := cache.Get(ctx, q); err != nil {
		t.Fatalf("seed Get failed: %v", err)
	}

	cache.Invalidate(NewKey("orders"))

	// Without subscribers the entry stays stale; no background fetch.
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("unsubscribed stale entry fetched %d times, want 1", got)
	}
	if !cache.IsStale(NewKey("orders", "all")) {
		t.Error("entry should remain stale until the next read")
	}
}

func TestCache_Subscription_CloseDiscardsUpdates(t *testing.T) {
	cache := NewCache()

	block := make(chan struct{})
	var calls atomic.Int64
	q := Query{
		Key:     NewKey("products"),
		Enabled: true,
		Fetch: func(ctx context.Context) (any, error) {
			calls.Add(1)
			<-block
			return "late", nil
		},
	}

	sub := cache.Subscribe(q)
	sub.Close()
	close(block)

	// The in-flight fetch still completes and lands in the cache.
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := cache.Peek(NewKey("products")); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("fetch result never landed in cache")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if _, open := <-sub.C; open {
		t.Error("closed subscription channel should not deliver")
	}
}

func TestCache_Peek(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	if _, ok := cache.Peek(NewKey("products")); ok {
		t.Error("Peek on empty cache should report absent")
	}

	var calls atomic.Int64
	q := Query{Key: NewKey("products"), Enabled: true, Fetch: countingFetch(&calls, "catalog")}
	if _, err := cache.Get(ctx, q); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	v, ok := cache.Peek(NewKey("products"))
	if !ok || v != "catalog" {
		t.Errorf("Peek = %v, %v; want catalog, true", v, ok)
	}
}
