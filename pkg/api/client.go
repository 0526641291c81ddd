// Package api provides the storefront HTTP transport: a single
// configured client with auth-token injection, 401 session teardown,
// and normalization of every failure into one error shape.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Prometheus metrics for transport operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_requests_total",
		Help: "Total storefront API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_request_duration_seconds",
		Help:    "Storefront API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	requestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_request_errors_total",
		Help: "Total storefront API errors by class",
	}, []string{"class"})

	requestRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_request_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})
)

// DefaultTimeout is the fixed per-request timeout.
const DefaultTimeout = 30 * time.Second

// errServerStatus marks a 5xx response inside the circuit breaker so it
// counts toward tripping; the response itself still reaches the caller.
var errServerStatus = errors.New("server error status")

// TokenSource supplies the current session token for outbound requests.
// An empty token means the request goes out anonymous.
type TokenSource interface {
	Token() string
}

// Client is the storefront API transport.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         TokenSource
	onUnauthorized func()
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker
	retry          RetryConfig
	logger         zerolog.Logger
}

// Config holds the transport configuration.
type Config struct {
	// BaseURL of the storefront API, e.g. "http://localhost:3000".
	BaseURL string

	// Timeout per request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Tokens supplies the bearer credential; nil disables injection.
	Tokens TokenSource

	// OnUnauthorized is invoked on every 401 response before the error
	// is surfaced to the caller (session teardown + redirect).
	OnUnauthorized func()

	// RateLimit is the outbound request rate in requests per second.
	// Zero disables local rate limiting.
	RateLimit float64
	RateBurst int

	// Retry configures backoff for idempotent requests.
	Retry RetryConfig

	// DisableBreaker turns off the circuit breaker.
	DisableBreaker bool

	// HTTPClient overrides the underlying HTTP client (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		Timeout:   DefaultTimeout,
		RateLimit: 20,
		RateBurst: 40,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new transport client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "api-client").Logger()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit)
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	var breaker *gobreaker.CircuitBreaker
	if !cfg.DisableBreaker {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "storefront-api",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		})
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		limiter:        limiter,
		breaker:        breaker,
		retry:          cfg.Retry,
		logger:         logger,
	}, nil
}

// Do performs a request against the storefront API. The response body
// is decoded into out when out is non-nil. Every failure is returned as
// *Error; a 401 additionally triggers the unauthorized hook before the
// error is surfaced.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{
				Status:  http.StatusInternalServerError,
				Message: "request cancelled while rate limited",
				Class:   ErrorClassNetwork,
				Err:     err,
			}
		}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var apiErr *Error
	var result []byte

	attempt := func() error {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		// Outbound interceptor: attach the bearer credential when a
		// session token exists. Anonymous endpoints go out without it.
		if c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("method", method).
			Msg("Executing storefront request")

		resp, err := c.send(req)
		if err != nil {
			apiErr = &Error{
				Status:  http.StatusInternalServerError,
				Message: "request failed",
				Class:   ErrorClassNetwork,
				Err:     err,
			}
			requestErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return apiErr
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			apiErr = &Error{
				Status:  http.StatusInternalServerError,
				Message: "read response body",
				Class:   ErrorClassNetwork,
				Err:     err,
			}
			requestErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return apiErr
		}

		requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			class := classify(resp.StatusCode)
			apiErr = &Error{
				Status:  resp.StatusCode,
				Message: serverMessage(data, resp.StatusCode),
				Class:   class,
			}
			requestErrorsTotal.WithLabelValues(string(class)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Storefront request error")

			// Inbound interceptor: any 401 tears down the session
			// globally before the caller sees the failure.
			if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
				c.onUnauthorized()
			}
			return apiErr
		}

		result = data
		return nil
	}

	var err error
	if retryable(method) {
		err = retryWithBackoff(ctx, c.retry, c.logger, attempt, func(error) ErrorClass {
			if apiErr != nil {
				return apiErr.Class
			}
			return ErrorClassNetwork
		})
	} else {
		err = attempt()
	}

	if err != nil {
		if apiErr != nil {
			return apiErr
		}
		return &Error{
			Status:  http.StatusInternalServerError,
			Message: "request failed",
			Class:   ErrorClassNetwork,
			Err:     err,
		}
	}

	if out != nil && len(result) > 0 {
		if err := json.Unmarshal(result, out); err != nil {
			return &Error{
				Status:  http.StatusInternalServerError,
				Message: "invalid response body",
				Class:   ErrorClassServer,
				Err:     err,
			}
		}
	}

	return nil
}

// send executes the wire call, routed through the circuit breaker when
// one is configured. Only network errors and 5xx responses count as
// breaker failures; 4xx responses are well-formed answers.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	res, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if errors.Is(err, errServerStatus) {
		// 5xx tripped the failure counter; the response still flows
		// through the normal status handling.
		return res.(*http.Response), nil
	}
	if err != nil {
		return nil, err
	}
	return res.(*http.Response), nil
}

// serverMessage extracts the server-supplied error message, falling
// back to the standard status text.
func serverMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "an error occurred"
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, query, body, out)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodPatch, path, query, nil, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}
