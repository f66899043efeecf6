// Package pagination drives offset-based pagination over the Jira search
// endpoint, one page per request. The fetcher is stateless: the caller owns
// the offset and decides when to stop.
package pagination

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/jira"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/logging"
)

var pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "jira_scraper_pages_fetched_total",
	Help: "Total number of search pages fetched",
})

// DefaultPageSize is the page size used when the caller passes none.
const DefaultPageSize = 50

// Searcher is the typed search API the fetcher issues one call per page to.
type Searcher interface {
	Search(ctx context.Context, jql string, startAt, maxResults int) (*jira.SearchResult, error)
}

// Page is one batch of issues returned by a single paginated fetch.
type Page struct {
	Issues []jira.Issue
	Total  int
}

// Fetcher fetches pages of issues for a JQL query.
type Fetcher struct {
	searcher Searcher
	logger   zerolog.Logger
}

// NewFetcher creates a fetcher over the given search API.
func NewFetcher(searcher Searcher) *Fetcher {
	return &Fetcher{
		searcher: searcher,
		logger:   logging.NewLogger("fetcher"),
	}
}

// FetchPage fetches one page at the given offset. Returns (nil, nil) when
// the server reports zero items, signaling end-of-stream.
//
// A short page (fewer items than pageSize) usually means the last page, but
// the caller must treat offset >= Total as the authoritative stop signal:
// Total is re-reported on every page and can shift while a long scrape runs.
func (f *Fetcher) FetchPage(ctx context.Context, jql string, offset, pageSize int) (*Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	result, err := f.searcher.Search(ctx, jql, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
	}

	if len(result.Issues) == 0 {
		f.logger.Debug().
			Str("jql", jql).
			Int("offset", offset).
			Msg("Empty page, end of stream")
		return nil, nil
	}

	pagesFetchedTotal.Inc()
	f.logger.Debug().
		Str("jql", jql).
		Int("offset", offset).
		Int("items", len(result.Issues)).
		Int("total", result.Total).
		Msg("Fetched page")

	return &Page{
		Issues: result.Issues,
		Total:  result.Total,
	}, nil
}
