package storefront

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sentraflow/storefront-client/pkg/query"
)

// Products returns every product.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	return getQuery[[]Product](ctx, c,
		query.NewKey("products"), true, "/api/products", nil)
}

// Product returns one product by id. Disabled for a zero id: no
// network call is issued.
func (c *Client) Product(ctx context.Context, id int64) (Product, error) {
	return getQuery[Product](ctx, c,
		query.NewKey("products", strconv.FormatInt(id, 10)),
		id != 0,
		fmt.Sprintf("/api/products/%d", id), nil)
}

// ProductsByCategory returns the products of one category. Disabled
// for an empty category.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	return getQuery[[]Product](ctx, c,
		query.NewKey("products", "category", category),
		category != "",
		"/api/products/category/"+url.PathEscape(category), nil)
}

// AvailableProducts returns the products currently in stock.
func (c *Client) AvailableProducts(ctx context.Context) ([]Product, error) {
	return getQuery[[]Product](ctx, c,
		query.NewKey("products", "available"), true, "/api/products/available", nil)
}

// SearchProducts returns the products matching keyword. Disabled for
// an empty keyword: no network call is issued.
func (c *Client) SearchProducts(ctx context.Context, keyword string) ([]Product, error) {
	return getQuery[[]Product](ctx, c,
		query.NewKey("products", "search", keyword),
		keyword != "",
		"/api/products/search", url.Values{"keyword": []string{keyword}})
}

// WatchProducts subscribes to the product list; invalidations after
// product mutations arrive as background refetches.
func (c *Client) WatchProducts() *query.Subscription {
	return watchQuery[[]Product](c, query.NewKey("products"), true, "/api/products", nil)
}

// CreateProduct creates a product (admin). Invalidates every products
// query.
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (Product, error) {
	if err := c.validateRequest(req); err != nil {
		return Product{}, err
	}

	return runMutation(ctx, c, mutCreateProduct, 0, func(ctx context.Context) (Product, error) {
		var created Product
		err := c.api.Post(ctx, "/api/products", req, &created)
		return created, err
	})
}

// UpdateProduct updates a product (admin). Invalidates every products
// query.
func (c *Client) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	if err := c.validateRequest(req); err != nil {
		return Product{}, err
	}

	return runMutation(ctx, c, mutUpdateProduct, 0, func(ctx context.Context) (Product, error) {
		var updated Product
		err := c.api.Put(ctx, fmt.Sprintf("/api/products/%d", id), nil, req, &updated)
		return updated, err
	})
}

// DeleteProduct deletes a product (admin). Invalidates every products
// query.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	_, err := runMutation(ctx, c, mutDeleteProduct, 0, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.api.Delete(ctx, fmt.Sprintf("/api/products/%d", id))
	})
	return err
}
