// Package testutil provides testing utilities for the storefront
// client SDK.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock storefront endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockStorefront is a configurable mock storefront API server.
type MockStorefront struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	counts   map[string]int

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockStorefront creates a new mock storefront API server.
func NewMockStorefront() *MockStorefront {
	mock := &MockStorefront{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		counts:   make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		routeKey := r.Method + " " + r.URL.Path

		mock.mu.Lock()
		mock.RequestCount++
		mock.counts[routeKey]++
		mock.LastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[routeKey]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockStorefront) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockStorefront) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and handlers.
func (m *MockStorefront) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.counts = make(map[string]int)
	m.handlers = make(map[string]func(w http.ResponseWriter, r *http.Request))
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a method and path.
func (m *MockStorefront) SetHandler(method, path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// SetResponse configures a canned response for a method and path.
func (m *MockStorefront) SetResponse(method, path string, resp MockResponse) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.Header().Set("Content-Type", "application/json")

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetJSON configures a 200 response with a JSON body.
func (m *MockStorefront) SetJSON(method, path, body string) {
	m.SetResponse(method, path, MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	})
}

// RouteCount returns the number of requests seen for a method and
// path.
func (m *MockStorefront) RouteCount(method, path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[method+" "+path]
}

// TotalRequests returns the number of requests made to the server.
func (m *MockStorefront) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// AuthHeader returns the Authorization header of the last request.
func (m *MockStorefront) AuthHeader() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LastRequestHeader == nil {
		return ""
	}
	return m.LastRequestHeader.Get("Authorization")
}

// defaultHandler answers 404 with a JSON error body like the real API.
func (m *MockStorefront) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message": "Not Found"}`))
}
