package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Requester is the single-request client the API issues calls through.
// A (nil, nil) return means the resource does not exist.
type Requester interface {
	Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
}

// API binds the REST endpoints used by the scraper to typed results.
type API struct {
	requester Requester
}

// NewAPI creates an API over the given requester.
func NewAPI(requester Requester) *API {
	return &API{requester: requester}
}

// GetProject fetches project metadata by key.
// Returns (nil, nil) when the project does not exist.
func (a *API) GetProject(ctx context.Context, key string) (*Project, error) {
	body, err := a.requester.Get(ctx, "/rest/api/2/project/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", key, err)
	}
	if body == nil {
		return nil, nil
	}

	var project Project
	if err := json.Unmarshal(body, &project); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", key, err)
	}
	return &project, nil
}

// Search runs a JQL query against the search endpoint, returning one page
// of results starting at the given offset.
func (a *API) Search(ctx context.Context, jql string, startAt, maxResults int) (*SearchResult, error) {
	query := url.Values{
		"jql":        []string{jql},
		"startAt":    []string{strconv.Itoa(startAt)},
		"maxResults": []string{strconv.Itoa(maxResults)},
		"fields":     []string{"*all"},
	}

	body, err := a.requester.Get(ctx, "/rest/api/2/search", query)
	if err != nil {
		return nil, fmt.Errorf("search at offset %d: %w", startAt, err)
	}
	if body == nil {
		return nil, fmt.Errorf("search endpoint not available")
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}
	return &result, nil
}
