package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key uniquely identifies a cached API response.
type Key struct {
	// Endpoint is the REST endpoint path (e.g., "/rest/api/2/search").
	Endpoint string

	// Query are the request's query parameters.
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: jira:endpoint:param1=val1:param2=val2
//
// Example:
//
//	jira:rest/api/2/search:jql=project = HADOOP:startAt=0
func (k Key) String() string {
	parts := []string{"jira"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Query.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}
