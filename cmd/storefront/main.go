// Command storefront is a small demo CLI that walks through the SDK
// against a running storefront API: restore or establish a session,
// browse the catalog, inspect the cart and optionally check out.
package main

import (
	"context"
	"os"
	"time"

	"github.com/sentraflow/storefront-client/pkg/logging"
	"github.com/sentraflow/storefront-client/pkg/session"
	"github.com/sentraflow/storefront-client/pkg/storefront"
)

func main() {
	// Configuration from environment
	apiURL := getEnv("STOREFRONT_API_URL", "http://localhost:3000")
	logLevel := getEnv("LOG_LEVEL", "info")
	sessionDir := getEnv("STOREFRONT_SESSION_DIR", "")
	email := getEnv("STOREFRONT_EMAIL", "")
	password := getEnv("STOREFRONT_PASSWORD", "")

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Pretty: true,
		Output: os.Stderr,
	})

	storage, err := session.NewFileStorage(sessionDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open session storage")
	}

	cfg := storefront.DefaultConfig(apiURL)
	cfg.Storage = storage
	cfg.OnSessionExpired = func() {
		logger.Warn().Msg("Session expired, please log in again")
	}

	client, err := storefront.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create storefront client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Establish a session unless one was restored from disk.
	if !client.Session().IsAuthenticated() {
		if email == "" || password == "" {
			logger.Info().Msg("No session and no credentials, browsing anonymously")
		} else {
			resp, err := client.Login(ctx, storefront.LoginRequest{
				Email:    email,
				Password: password,
			})
			if err != nil {
				logger.Fatal().Err(err).Msg("Login failed")
			}
			logger.Info().Str("user", resp.User.Name).Msg("Logged in")
		}
	} else {
		user := client.Session().Current().User
		logger.Info().Str("user", user.Name).Msg("Session restored")
	}

	// Browse the catalog. The second read is served from the cache.
	products, err := client.AvailableProducts(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to list products")
	}
	for _, p := range products {
		logger.Info().
			Int64("id", p.ID).
			Str("name", p.Name).
			Float64("price", p.Price).
			Int("stock", p.StockQuantity).
			Msg("Product")
	}
	if _, err := client.AvailableProducts(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Cached read failed")
	}

	if !client.Session().IsAuthenticated() || len(products) == 0 {
		return
	}
	userID := client.Session().Current().User.ID

	// Put the first product in the cart; the cart read afterward goes
	// back to the server because the mutation invalidated it.
	if _, err := client.AddToCart(ctx, userID, storefront.AddToCartRequest{
		ProductID: products[0].ID,
		Quantity:  1,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to add to cart")
	}

	items, err := client.Cart(ctx, userID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to read cart")
	}
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
		logger.Info().
			Str("product", it.ProductName).
			Int("quantity", it.Quantity).
			Msg("Cart item")
	}
	logger.Info().Float64("total", total).Msg("Cart total")

	if getEnv("STOREFRONT_CHECKOUT", "") != "true" {
		logger.Info().Msg("Set STOREFRONT_CHECKOUT=true to place the order")
		return
	}

	orderItems := make([]storefront.CreateOrderItem, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, storefront.CreateOrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	order, err := client.CreateOrder(ctx, userID, storefront.CreateOrderRequest{
		ShippingAddress: getEnv("STOREFRONT_ADDRESS", "1 Demo Street"),
		OrderItems:      orderItems,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Checkout failed")
	}
	logger.Info().
		Int64("order", order.ID).
		Str("status", string(order.Status)).
		Float64("total", order.TotalAmount).
		Msg("Order placed")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
