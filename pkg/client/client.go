// Package client provides the core Jira HTTP client with rate limiting,
// classified retries, and optional response caching.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/cache"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/logging"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/ratelimit"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_scraper_requests_total",
		Help: "Total Jira requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jira_scraper_request_duration_seconds",
		Help:    "Jira request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_scraper_errors_total",
		Help: "Total Jira errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the Jira instance (e.g., "https://issues.apache.org/jira").
	BaseURL string

	// User-Agent header sent with every request.
	UserAgent string

	// Rate limiting: RateLimit request starts per RateWindow.
	RateLimit  int
	RateWindow time.Duration

	// Retry behavior.
	Retry RetryConfig

	// HTTPTimeout bounds a single request attempt.
	HTTPTimeout time.Duration

	// Redis enables the response cache when set; nil disables caching.
	Redis *redis.Client

	// CacheTTL bounds how long responses are cached.
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration for the given instance.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		UserAgent:   "jira-corpus-scraper/0.1.0",
		RateLimit:   ratelimit.DefaultMaxStarts,
		RateWindow:  ratelimit.DefaultWindow,
		Retry:       DefaultRetryConfig(),
		HTTPTimeout: 30 * time.Second,
		CacheTTL:    5 * time.Minute,
	}
}

// Stats is an immutable snapshot of the client's request counters.
type Stats struct {
	Requests int64
	Errors   int64
	Retries  int64
}

// Client is the rate-limited, retrying Jira API client.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a new Jira client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.BaseDelay == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	logger := logging.NewLogger("jira-client")

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		limiter: ratelimit.NewLimiter(cfg.RateLimit, cfg.RateWindow, logger),
		cache:   cacheManager,
		config:  cfg,
		logger:  logger,
	}, nil
}

// outcome carries one attempt's result and its classification decision.
type outcome struct {
	body       []byte
	status     int
	class      ErrorClass
	retryAfter time.Duration
	err        error
}

// Get performs a GET request against endpoint with the given query,
// applying rate limiting, classified retries, and the response cache.
//
// A 404 yields (nil, nil): an absent value, never retried. Rate-limited
// and transient failures are retried up to the configured budget; any
// other client fault aborts immediately.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	cacheKey := cache.Key{Endpoint: endpoint, Query: query}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err == nil {
			c.logger.Debug().Str("endpoint", endpoint).Msg("Response cache hit")
			return entry.Data, nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	requestURL := c.config.BaseURL + endpoint
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		var out outcome
		if err := c.limiter.Submit(ctx, func() error {
			out = c.attempt(ctx, endpoint, requestURL)
			return nil
		}); err != nil {
			// Context expired while queued at the rate limiter.
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}

		c.countAttempt(out)

		switch out.class {
		case "":
			if c.cache != nil {
				entry := cache.NewEntry(out.body, out.status, c.config.CacheTTL)
				if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
					c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache response")
				}
			}
			if attempt > 0 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return out.body, nil

		case ErrorClassNotFound:
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("error_class", string(ErrorClassNotFound)).
				Msg("Resource not found, treating as absent")
			return nil, nil

		case ErrorClassPermanent:
			c.logger.Error().
				Str("endpoint", endpoint).
				Int("status_code", out.status).
				Str("error_class", string(ErrorClassPermanent)).
				Msg("Permanent request failure, not retrying")
			return nil, out.err
		}

		lastErr = out.err

		if attempt >= c.config.Retry.MaxRetries {
			break
		}

		var wait time.Duration
		if out.class == ErrorClassRateLimited {
			wait = out.retryAfter
		} else {
			wait = withJitter(backoffDelay(c.config.Retry, attempt))
		}

		retriesTotal.WithLabelValues(string(out.class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(out.class)).Observe(wait.Seconds())

		c.mu.Lock()
		c.stats.Retries++
		c.mu.Unlock()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("error_class", string(out.class)).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Msg("Context cancelled during retry backoff")
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(wait):
		}
	}

	retryExhaustedTotal.WithLabelValues(string(ErrorClassTransient)).Inc()
	c.logger.Error().
		Str("endpoint", endpoint).
		Int("max_retries", c.config.Retry.MaxRetries).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w after %d attempts: %v",
		ErrRetryExhausted, c.config.Retry.MaxRetries+1, lastErr)
}

// attempt executes a single HTTP request and classifies the result.
func (c *Client) attempt(ctx context.Context, endpoint, requestURL string) outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return outcome{
			class: ErrorClassPermanent,
			err:   fmt.Errorf("create request: %w", err),
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout or connection-level fault.
		c.logger.Debug().Str("class", string(ErrorClassTransient)).Msg("Error classified")
		errorsTotal.WithLabelValues(string(ErrorClassTransient)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return outcome{
			class: ErrorClassTransient,
			err:   fmt.Errorf("http request: %w", err),
		}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	class := classifyStatus(resp.StatusCode)
	if class == "" {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassTransient)).Inc()
			return outcome{
				class: ErrorClassTransient,
				err:   fmt.Errorf("read response body: %w", err),
			}
		}
		return outcome{body: body, status: resp.StatusCode}
	}

	c.logger.Debug().Str("class", string(class)).Msg("Error classified")
	errorsTotal.WithLabelValues(string(class)).Inc()

	out := outcome{
		status: resp.StatusCode,
		class:  class,
		err: &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		},
	}
	if class == ErrorClassRateLimited {
		out.retryAfter = parseRetryAfter(resp.Header, c.config.Retry.RateLimitWait)
		out.err.(*APIError).RetryAfter = out.retryAfter
	}
	return out
}

// countAttempt updates the instance-scoped counters.
func (c *Client) countAttempt(out outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Requests++
	if out.class != "" && out.class != ErrorClassNotFound {
		c.stats.Errors++
	}
}

// Stats returns an immutable snapshot of the request counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}
