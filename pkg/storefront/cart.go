package storefront

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sentraflow/storefront-client/pkg/query"
)

// Cart returns the user's cart items. Disabled until a user id is
// known.
func (c *Client) Cart(ctx context.Context, userID int64) ([]CartItem, error) {
	return getQuery[[]CartItem](ctx, c,
		query.NewKey("cart", strconv.FormatInt(userID, 10)),
		userID != 0,
		fmt.Sprintf("/api/cart/user/%d", userID), nil)
}

// WatchCart subscribes to the user's cart; cart mutations and checkout
// arrive as background refetches.
func (c *Client) WatchCart(userID int64) *query.Subscription {
	return watchQuery[[]CartItem](c,
		query.NewKey("cart", strconv.FormatInt(userID, 10)),
		userID != 0,
		fmt.Sprintf("/api/cart/user/%d", userID), nil)
}

// AddToCart adds a product to the user's cart. Invalidates the user's
// cart query.
func (c *Client) AddToCart(ctx context.Context, userID int64, req AddToCartRequest) (CartItem, error) {
	if err := c.validateRequest(req); err != nil {
		return CartItem{}, err
	}

	return runMutation(ctx, c, mutAddCartItem, userID, func(ctx context.Context) (CartItem, error) {
		var item CartItem
		err := c.api.Post(ctx, fmt.Sprintf("/api/cart/user/%d", userID), req, &item)
		return item, err
	})
}

// UpdateCartItem changes the quantity of one cart line. Invalidates
// the user's cart query.
func (c *Client) UpdateCartItem(ctx context.Context, userID, itemID int64, quantity int) (CartItem, error) {
	if quantity <= 0 {
		return CartItem{}, fmt.Errorf("quantity must be positive")
	}

	return runMutation(ctx, c, mutUpdateCartItem, userID, func(ctx context.Context) (CartItem, error) {
		var item CartItem
		err := c.api.Put(ctx,
			fmt.Sprintf("/api/cart/user/%d/items/%d", userID, itemID),
			url.Values{"quantity": []string{strconv.Itoa(quantity)}},
			nil, &item)
		return item, err
	})
}

// RemoveFromCart removes one cart line. Invalidates the user's cart
// query.
func (c *Client) RemoveFromCart(ctx context.Context, userID, itemID int64) error {
	_, err := runMutation(ctx, c, mutRemoveCartItem, userID, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.api.Delete(ctx, fmt.Sprintf("/api/cart/user/%d/items/%d", userID, itemID))
	})
	return err
}

// ClearCart empties the user's cart. Invalidates the user's cart
// query.
func (c *Client) ClearCart(ctx context.Context, userID int64) error {
	_, err := runMutation(ctx, c, mutClearCart, userID, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.api.Delete(ctx, fmt.Sprintf("/api/cart/user/%d", userID))
	})
	return err
}
