// Package testutil provides testing utilities for the splits.io client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// MockAPI is a configurable mock splits.io server for testing.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requestCount      int
	pathCounts        map[string]int
	pageCounts        map[string]map[int]int
	lastRequestHeader http.Header
}

// NewMockAPI creates a new mock splits.io server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
		pageCounts: make(map[string]map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		if pageStr := r.URL.Query().Get("page"); pageStr != "" {
			if page, err := strconv.Atoi(pageStr); err == nil {
				if mock.pageCounts[r.URL.Path] == nil {
					mock.pageCounts[r.URL.Path] = make(map[int]int)
				}
				mock.pageCounts[r.URL.Path][page]++
			}
		}
		mock.lastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Handle registers a handler for a path.
func (m *MockAPI) Handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// HandleJSON registers a handler serving a fixed JSON body.
func (m *MockAPI) HandleJSON(path, body string) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}

// HandleCollection registers a paginated collection at path: items are
// pre-marshaled JSON objects served under key in pages of perPage,
// with Per-Page and Total response headers. With perPage <= 0 the
// collection is served complete, without pagination headers.
func (m *MockAPI) HandleCollection(path, key string, items []string, perPage int) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		pageItems := items
		if perPage > 0 {
			page := 1
			if pageStr := r.URL.Query().Get("page"); pageStr != "" {
				if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
					page = p
				}
			}
			lo := (page - 1) * perPage
			hi := lo + perPage
			if lo > len(items) {
				lo = len(items)
			}
			if hi > len(items) {
				hi = len(items)
			}
			pageItems = items[lo:hi]

			w.Header().Set("Per-Page", strconv.Itoa(perPage))
			w.Header().Set("Total", strconv.Itoa(len(items)))
		}

		body := "{" + strconv.Quote(key) + ":["
		for i, item := range pageItems {
			if i > 0 {
				body += ","
			}
			body += item
		}
		body += "]}"
		fmt.Fprint(w, body)
	})
}

// Requests returns the total number of requests served.
func (m *MockAPI) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathRequests returns the number of requests to a path.
func (m *MockAPI) PathRequests(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// PageRequests returns the number of requests to a path with a given
// 1-based page parameter.
func (m *MockAPI) PageRequests(path string, page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageCounts[path][page]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// HistoryFixture describes one attempt's record for fixture building.
type HistoryFixture struct {
	AttemptNumber int    `json:"attempt_number"`
	RealtimeMS    *int64 `json:"realtime_duration_ms"`
	GametimeMS    *int64 `json:"gametime_duration_ms"`
}

// SegmentFixture builds a historic segment JSON object with a fresh
// UUID, positioned at number within its run.
func SegmentFixture(name string, number int, histories []HistoryFixture) string {
	seg := map[string]any{
		"id":             uuid.NewString(),
		"name":           name,
		"display_name":   name,
		"segment_number": number,
		"histories":      histories,
	}
	data, err := json.Marshal(seg)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// RunFixture builds a historic run JSON object from segments (already
// marshaled via SegmentFixture) and run-level histories.
func RunFixture(id string, segments []string, histories []HistoryFixture) string {
	hist, err := json.Marshal(histories)
	if err != nil {
		panic(err)
	}
	segs := "["
	for i, s := range segments {
		if i > 0 {
			segs += ","
		}
		segs += s
	}
	segs += "]"
	return fmt.Sprintf(`{"id":%q,"realtime_duration_ms":0,"gametime_duration_ms":0,"default_timing":"real","program":"livesplit","segments":%s,"histories":%s}`,
		id, segs, string(hist))
}
