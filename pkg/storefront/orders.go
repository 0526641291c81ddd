package storefront

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sentraflow/storefront-client/pkg/query"
)

// Orders returns the user's orders. Disabled until a user id is known.
func (c *Client) Orders(ctx context.Context, userID int64) ([]Order, error) {
	return getQuery[[]Order](ctx, c,
		query.NewKey("orders", strconv.FormatInt(userID, 10)),
		userID != 0,
		fmt.Sprintf("/api/orders/user/%d", userID), nil)
}

// Order returns one order of one user. Disabled until both ids are
// known.
func (c *Client) Order(ctx context.Context, orderID, userID int64) (Order, error) {
	return getQuery[Order](ctx, c,
		query.NewKey("orders", strconv.FormatInt(orderID, 10), strconv.FormatInt(userID, 10)),
		orderID != 0 && userID != 0,
		fmt.Sprintf("/api/orders/%d/user/%d", orderID, userID), nil)
}

// AllOrders returns every order in the system (admin).
func (c *Client) AllOrders(ctx context.Context) ([]Order, error) {
	return getQuery[[]Order](ctx, c,
		query.NewKey("orders", "all"), true, "/api/orders", nil)
}

// WatchOrders subscribes to the user's orders; order mutations arrive
// as background refetches.
func (c *Client) WatchOrders(userID int64) *query.Subscription {
	return watchQuery[[]Order](c,
		query.NewKey("orders", strconv.FormatInt(userID, 10)),
		userID != 0,
		fmt.Sprintf("/api/orders/user/%d", userID), nil)
}

// CreateOrder places an order. On success both the user's orders and
// cart queries are invalidated: checkout empties the cart server-side.
func (c *Client) CreateOrder(ctx context.Context, userID int64, req CreateOrderRequest) (Order, error) {
	if err := c.validateRequest(req); err != nil {
		return Order{}, err
	}

	return runMutation(ctx, c, mutCreateOrder, userID, func(ctx context.Context) (Order, error) {
		var created Order
		err := c.api.Post(ctx, fmt.Sprintf("/api/orders/user/%d", userID), req, &created)
		return created, err
	})
}

// UpdateOrderStatus changes an order's lifecycle status (admin).
// Invalidates every orders query.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus) (Order, error) {
	return runMutation(ctx, c, mutUpdateOrderStatus, 0, func(ctx context.Context) (Order, error) {
		var updated Order
		err := c.api.Patch(ctx,
			fmt.Sprintf("/api/orders/%d/status", orderID),
			url.Values{"status": []string{string(status)}},
			&updated)
		return updated, err
	})
}

// UpdatePaymentStatus changes an order's payment status (admin).
// Invalidates every orders query.
func (c *Client) UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatus PaymentStatus) (Order, error) {
	return runMutation(ctx, c, mutUpdatePaymentStatus, 0, func(ctx context.Context) (Order, error) {
		var updated Order
		err := c.api.Patch(ctx,
			fmt.Sprintf("/api/orders/%d/payment-status", orderID),
			url.Values{"paymentStatus": []string{string(paymentStatus)}},
			&updated)
		return updated, err
	})
}

// CancelOrder cancels one order of one user. Invalidates every orders
// query; whether the order may still be cancelled is the server's
// decision alone.
func (c *Client) CancelOrder(ctx context.Context, orderID, userID int64) error {
	_, err := runMutation(ctx, c, mutCancelOrder, 0, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.api.Delete(ctx, fmt.Sprintf("/api/orders/%d/user/%d", orderID, userID))
	})
	return err
}
