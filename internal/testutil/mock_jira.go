// Package testutil provides testing utilities for the Jira scraper.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/jira"
)

// MockResponse defines the behavior for a mock Jira endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockJira is a configurable mock Jira server for testing.
type MockJira struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	SearchCount  int
}

// NewMockJira creates a new mock Jira server.
func NewMockJira() *MockJira {
	mock := &MockJira{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		if r.URL.Path == "/rest/api/2/search" {
			mock.SearchCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockJira) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockJira) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockJira) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.SearchCount = 0
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockJira) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetSearchCount returns the number of search requests made to the server.
func (m *MockJira) GetSearchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.SearchCount
}

// SetHandler sets a custom handler for a specific path.
func (m *MockJira) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple canned response for a path.
func (m *MockJira) SetResponse(path string, resp MockResponse) {
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

// ServeProject registers project metadata for the given key.
func (m *MockJira) ServeProject(key, name string) {
	body, _ := json.Marshal(jira.Project{ID: "10000", Key: key, Name: name})
	m.SetResponse("/rest/api/2/project/"+key, MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

// ServeSearch registers a search handler that paginates the given issues
// honoring startAt and maxResults, the way a real Jira instance would.
func (m *MockJira) ServeSearch(issues []jira.Issue) {
	m.SetHandler("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
		if maxResults <= 0 {
			maxResults = 50
		}

		page := []jira.Issue{}
		if startAt < len(issues) {
			end := startAt + maxResults
			if end > len(issues) {
				end = len(issues)
			}
			page = issues[startAt:end]
		}

		result := jira.SearchResult{
			StartAt:    startAt,
			MaxResults: maxResults,
			Total:      len(issues),
			Issues:     page,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	})
}

// MakeIssue builds a minimal issue for tests.
func MakeIssue(projectKey string, num int) jira.Issue {
	key := fmt.Sprintf("%s-%d", projectKey, num)
	return jira.Issue{
		ID:  strconv.Itoa(10000 + num),
		Key: key,
		Fields: jira.IssueFields{
			Summary:     fmt.Sprintf("Issue %s", key),
			Description: json.RawMessage(fmt.Sprintf("%q", "Description of "+key)),
			Created:     "2024-01-01T00:00:00.000+0000",
			Updated:     "2024-01-02T00:00:00.000+0000",
			Project:     jira.NamedRef{Key: projectKey},
			Status:      jira.NamedRef{Name: "Open"},
			IssueType:   jira.NamedRef{Name: "Bug"},
			Priority:    jira.NamedRef{Name: "Major"},
			Reporter:    &jira.User{Name: "alice", DisplayName: "Alice"},
			Comment: jira.CommentPage{
				Comments: []jira.Comment{
					{
						ID:      key + "-c1",
						Author:  jira.User{Name: "bob", DisplayName: "Bob"},
						Body:    json.RawMessage(fmt.Sprintf("%q", "Comment on "+key)),
						Created: "2024-01-03T00:00:00.000+0000",
					},
				},
				Total: 1,
			},
		},
	}
}

// MakeIssues builds n sequential issues for a project.
func MakeIssues(projectKey string, n int) []jira.Issue {
	issues := make([]jira.Issue, 0, n)
	for i := 1; i <= n; i++ {
		issues = append(issues, MakeIssue(projectKey, i))
	}
	return issues
}

// NewRateLimitResponse creates a 429 response with a Retry-After header.
func NewRateLimitResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"errorMessages":["Rate limit exceeded"]}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfterSeconds),
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 503 Service Unavailable response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"errorMessages":["Service unavailable"]}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewBadRequestResponse creates a 400 Bad Request response.
func NewBadRequestResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"errorMessages":["Invalid JQL"]}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
