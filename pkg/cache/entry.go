// Package cache provides an optional Redis-backed response cache for the
// Jira client. Search pages and project metadata are cached for a
// configurable TTL so that resumed scrapes and repeated metadata lookups
// do not spend request budget re-fetching identical data.
package cache

import "time"

// Entry represents one cached API response body.
type Entry struct {
	// Data is the response body.
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the cached response.
	StatusCode int `json:"status_code"`

	// CachedAt is when the response was stored.
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`
}

// NewEntry creates an entry expiring ttl from now.
func NewEntry(data []byte, statusCode int, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Data:       data,
		StatusCode: statusCode,
		CachedAt:   now,
		Expires:    now.Add(ttl),
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
