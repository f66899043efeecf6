// Package metrics provides the centralized Prometheus metrics reference for
// the scraper. All metrics are defined in their respective packages (client,
// cache, ratelimit, pagination, scraper, export) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the scraper.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - jira_scraper_ratelimit_submits_total (Counter): Tasks submitted to the rate limiter
//   - jira_scraper_ratelimit_wait_seconds (Histogram): Time tasks waited for admission
//
// Cache Metrics (pkg/cache):
//   - jira_scraper_cache_hits_total{layer="redis"} (Counter): Response cache hits by layer
//   - jira_scraper_cache_misses_total (Counter): Response cache misses
//   - jira_scraper_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - jira_scraper_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - jira_scraper_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - jira_scraper_errors_total{class} (Counter): Errors by class (rate_limited, transient, not_found, permanent)
//
// Retry Metrics (pkg/client):
//   - jira_scraper_retries_total{error_class} (Counter): Retry attempts by error class
//   - jira_scraper_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - jira_scraper_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pagination Metrics (pkg/pagination):
//   - jira_scraper_pages_fetched_total (Counter): Search pages fetched
//
// Ingest Metrics (pkg/scraper):
//   - jira_scraper_issues_ingested_total{project} (Counter): Issues persisted by project
//   - jira_scraper_issue_persist_failures_total{project} (Counter): Per-issue persistence failures
//   - jira_scraper_projects_total{status} (Counter): Project scrapes by final status
//
// Export Metrics (pkg/export):
//   - jira_scraper_corpus_records_total (Counter): Corpus records written
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(jira_scraper_cache_hits_total[5m])) /
//   (sum(rate(jira_scraper_cache_hits_total[5m])) + sum(rate(jira_scraper_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(jira_scraper_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(jira_scraper_request_duration_seconds_bucket[5m]))
//
//   # Ingest Throughput per Project
//   rate(jira_scraper_issues_ingested_total[5m])
//
//   # Share of Requests Spent Rate Limited
//   rate(jira_scraper_retries_total{error_class="rate_limited"}[5m]) /
//   rate(jira_scraper_requests_total[5m])
