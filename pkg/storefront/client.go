// Package storefront provides typed facades over the storefront REST
// API: products, cart, orders and auth. Facades bind a cache key, a
// fetch function and an invalidation list per resource and pass server
// payloads through untouched; all authority over valid states stays
// server-side.
package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sentraflow/storefront-client/pkg/api"
	"github.com/sentraflow/storefront-client/pkg/query"
	"github.com/sentraflow/storefront-client/pkg/session"
)

// Client is the storefront SDK entry point, composing the transport,
// the query cache and the session store.
type Client struct {
	api      *api.Client
	cache    *query.Cache
	session  *session.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// Config holds the SDK configuration.
type Config struct {
	// BaseURL of the storefront API, e.g. "http://localhost:3000".
	BaseURL string

	// Storage persists the session across restarts. Nil keeps the
	// session in memory only.
	Storage session.Storage

	// OnSessionExpired runs after any 401 has torn down the session,
	// so the embedding application can force its login view.
	OnSessionExpired func()

	// Timeout per request. Defaults to api.DefaultTimeout.
	Timeout time.Duration

	// RateLimit is the outbound request rate in requests per second.
	// Zero disables local rate limiting.
	RateLimit float64
	RateBurst int

	// DisableBreaker turns off the transport circuit breaker.
	DisableBreaker bool

	// HTTPClient overrides the underlying HTTP client (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: api.DefaultTimeout,
	}
}

// New creates a storefront client. A previously persisted session is
// restored before the first request can go out.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	store, err := session.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	logger := log.With().Str("component", "storefront").Logger()

	apiCfg := api.DefaultConfig(cfg.BaseURL)
	apiCfg.Timeout = cfg.Timeout
	apiCfg.RateLimit = cfg.RateLimit
	apiCfg.RateBurst = cfg.RateBurst
	apiCfg.DisableBreaker = cfg.DisableBreaker
	apiCfg.HTTPClient = cfg.HTTPClient
	apiCfg.Tokens = store
	apiCfg.OnUnauthorized = func() {
		// Centralized session expiry: clear memory + persisted state,
		// then hand control to the application's redirect hook.
		store.Logout()
		logger.Warn().Msg("Session expired, logged out")
		if cfg.OnSessionExpired != nil {
			cfg.OnSessionExpired()
		}
	}

	transport, err := api.New(apiCfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		api:      transport,
		cache:    query.NewCache(),
		session:  store,
		validate: validator.New(),
		logger:   logger,
	}, nil
}

// Session returns the session store.
func (c *Client) Session() *session.Store {
	return c.session
}

// Cache returns the query cache.
func (c *Client) Cache() *query.Cache {
	return c.cache
}

// getQuery runs a typed cache read against a GET endpoint.
func getQuery[T any](ctx context.Context, c *Client, key query.Key, enabled bool, path string, qv url.Values) (T, error) {
	var zero T
	v, err := c.cache.Get(ctx, query.Query{
		Key:     key,
		Enabled: enabled,
		Fetch:   fetchJSON[T](c, path, qv),
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// watchQuery subscribes to a typed cache read. The caller receives the
// initial value and every post-invalidation refetch on the returned
// subscription's channel.
func watchQuery[T any](c *Client, key query.Key, enabled bool, path string, qv url.Values) *query.Subscription {
	return c.cache.Subscribe(query.Query{
		Key:     key,
		Enabled: enabled,
		Fetch:   fetchJSON[T](c, path, qv),
	})
}

// fetchJSON builds the fetch function for one endpoint.
func fetchJSON[T any](c *Client, path string, qv url.Values) query.FetchFunc {
	return func(ctx context.Context) (any, error) {
		var out T
		if err := c.api.Get(ctx, path, qv, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// runMutation executes a typed write through the cache so the declared
// invalidation prefixes fire on success.
func runMutation[T any](ctx context.Context, c *Client, name mutationName, userID int64, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.cache.Mutate(ctx, query.Mutation{
		Name:        string(name),
		Invalidates: invalidationSet(name, userID),
	}, func(ctx context.Context) (any, error) {
		out, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// validateRequest applies client-side validation before any request is
// issued; invalid input never reaches the transport.
func (c *Client) validateRequest(req any) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("validate request: %w", err)
	}
	return nil
}
