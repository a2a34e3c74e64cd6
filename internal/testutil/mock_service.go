// Package testutil provides a configurable mock remote service for
// exercising the execution layer end to end: scripted page chains,
// long-running operation status sequences, and failure injection.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior of one mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockService is a configurable mock remote service for testing.
type MockService struct {
	server     *httptest.Server
	mu         sync.RWMutex
	handlers   map[string]func(w http.ResponseWriter, r *http.Request)
	pageBodies map[string]map[int]string

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	PathCounts        map[string]int
}

// NewMockService creates a new mock service server.
func NewMockService() *MockService {
	mock := &MockService{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockService) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockService) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockService) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockService) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetPageChain wires a chain of list pages under basePath. Page i is
// served at basePath?page=i and links to its successor; the last page
// carries no continuation link. Items are distributed across the pages
// as given.
func (m *MockService) SetPageChain(basePath string, pages [][]any) {
	for i, items := range pages {
		page := struct {
			Value    []any  `json:"value"`
			NextLink string `json:"nextLink,omitempty"`
		}{Value: items}
		if i < len(pages)-1 {
			page.NextLink = fmt.Sprintf("%s?page=%d", basePath, i+2)
		}

		body, _ := json.Marshal(page)
		pageIndex := i + 1
		path := basePath
		m.setPageHandler(path, pageIndex, string(body))
	}
}

// setPageHandler registers (or extends) the handler for one paged path.
// All pages of one chain share the path and are selected by the page
// query parameter; an absent parameter means page one.
func (m *MockService) setPageHandler(path string, pageIndex int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bodies, ok := m.pageBodies[path]
	if !ok {
		bodies = make(map[int]string)
		if m.pageBodies == nil {
			m.pageBodies = make(map[string]map[int]string)
		}
		m.pageBodies[path] = bodies

		m.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
			index := 1
			if p := r.URL.Query().Get("page"); p != "" {
				fmt.Sscanf(p, "%d", &index)
			}
			m.mu.RLock()
			pageBody, exists := m.pageBodies[path][index]
			m.mu.RUnlock()
			if !exists {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprintf(w, `{"error":"no page %d"}`, index)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(pageBody))
		}
	}
	bodies[pageIndex] = body
}

// SetStatusSequence serves one body per request at path, in order,
// repeating the final body once the sequence is exhausted. Used to
// script provisioning-state transitions for long-running operations.
func (m *MockService) SetStatusSequence(path string, bodies []string, headers map[string]string) {
	var served int
	var seqMu sync.Mutex

	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		seqMu.Lock()
		index := served
		if index >= len(bodies) {
			index = len(bodies) - 1
		}
		served++
		seqMu.Unlock()

		for key, value := range headers {
			w.Header().Set(key, value)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(bodies[index]))
	})
}

// RequestsTo returns the number of requests made to one path.
func (m *MockService) RequestsTo(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// GetRequestCount returns the total number of requests made.
func (m *MockService) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

func (m *MockService) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// NewRateLimitResponse creates a 429 Too Many Requests response with a
// Retry-After hint.
func NewRateLimitResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":"rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After":  fmt.Sprintf("%d", retryAfterSeconds),
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewCacheableResponse creates a 200 response the caching layer will
// store, fresh for the given duration.
func NewCacheableResponse(data string, freshFor time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Expires":      time.Now().Add(freshFor).Format(http.TimeFormat),
		},
	}
}
