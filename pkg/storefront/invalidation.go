package storefront

import (
	"strconv"

	"github.com/sentraflow/storefront-client/pkg/query"
)

// mutationName identifies a write for the invalidation table.
type mutationName string

const (
	mutCreateProduct mutationName = "products.create"
	mutUpdateProduct mutationName = "products.update"
	mutDeleteProduct mutationName = "products.delete"

	mutAddCartItem    mutationName = "cart.add"
	mutUpdateCartItem mutationName = "cart.update"
	mutRemoveCartItem mutationName = "cart.remove"
	mutClearCart      mutationName = "cart.clear"

	mutCreateOrder         mutationName = "orders.create"
	mutUpdateOrderStatus   mutationName = "orders.updateStatus"
	mutUpdatePaymentStatus mutationName = "orders.updatePaymentStatus"
	mutCancelOrder         mutationName = "orders.cancel"

	mutLogin    mutationName = "auth.login"
	mutRegister mutationName = "auth.register"
)

// invalidationSet is the single declaration of which query-key prefixes
// each mutation makes stale. Invalidation is prefix-based and coarse:
// any product write stales every products query, any order status
// write stales every orders query. An extra refetch is cheaper than a
// stale read after a write.
func invalidationSet(m mutationName, userID int64) []query.Key {
	uid := strconv.FormatInt(userID, 10)

	switch m {
	case mutCreateProduct, mutUpdateProduct, mutDeleteProduct:
		return []query.Key{query.NewKey("products")}

	case mutAddCartItem, mutUpdateCartItem, mutRemoveCartItem, mutClearCart:
		return []query.Key{query.NewKey("cart", uid)}

	case mutCreateOrder:
		// Checkout empties the cart server-side, so both the user's
		// orders and cart are stale afterward.
		return []query.Key{
			query.NewKey("orders", uid),
			query.NewKey("cart", uid),
		}

	case mutUpdateOrderStatus, mutUpdatePaymentStatus, mutCancelOrder:
		return []query.Key{query.NewKey("orders")}

	case mutLogin, mutRegister:
		// Auth writes update the session store directly, not the cache.
		return nil

	default:
		return nil
	}
}
