// Package query provides a keyed, invalidation-driven cache of
// server-resource reads with mutation operations that mark dependent
// keys stale.
//
// Reads declare a key, a fetch function, and an enabled predicate.
// Writes declare the key prefixes they invalidate; correctness is
// chosen over precision, so invalidation is deliberately coarse and an
// extra refetch is preferred to a stale read after a write.
//
// # Basic Usage
//
//	cache := query.NewCache()
//
//	v, err := cache.Get(ctx, query.Query{
//		Key:     query.NewKey("products"),
//		Enabled: true,
//		Fetch: func(ctx context.Context) (any, error) {
//			var products []Product
//			err := client.Get(ctx, "/api/products", nil, &products)
//			return products, err
//		},
//	})
//
// # Mutations
//
//	_, err := cache.Mutate(ctx, query.Mutation{
//		Name:        "cart.add",
//		Invalidates: []query.Key{query.NewKey("cart", "1")},
//	}, func(ctx context.Context) (any, error) {
//		var item CartItem
//		err := client.Post(ctx, "/api/cart/user/1", req, &item)
//		return item, err
//	})
//
// # Subscriptions
//
//	sub := cache.Subscribe(q)
//	defer sub.Close()
//	for update := range sub.C {
//		// re-render from update.Value
//	}
//
// # Guarantees
//
//   - At most one fetch in flight per key; concurrent readers share it.
//   - A key is stale immediately after any mutation that declares it.
//   - Subscribed stale keys refetch in the background; unsubscribed
//     ones refetch lazily on the next read.
//   - Disabled queries never touch the network.
//
// # Metrics
//
// The cache exports Prometheus metrics:
//
//   - storefront_query_cache_hits_total - reads served from cache
//   - storefront_query_cache_misses_total - reads that fetched upstream
//   - storefront_query_invalidations_total - entries marked stale
//   - storefront_query_refetches_total - background refetches
//   - storefront_query_fetch_errors_total{origin} - failed fetches
package query
