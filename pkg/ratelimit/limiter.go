// Package ratelimit implements client-side request pacing for the Jira API.
// A Limiter admits at most N task starts per rolling window and runs exactly
// one task at a time, so a scrape can never exceed the server's quota no
// matter how many call sites share the client.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limiting.
var (
	submitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jira_scraper_ratelimit_submits_total",
		Help: "Total number of tasks submitted to the rate limiter",
	})

	admissionWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jira_scraper_ratelimit_wait_seconds",
		Help:    "Time tasks waited for rate limit admission",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Default pacing: 10 request starts per second.
const (
	DefaultMaxStarts = 10
	DefaultWindow    = time.Second
)

// Limiter serializes task execution and bounds the start rate.
//
// Tasks run under a single mutex, so at most one is in flight at any time
// and waiters are released in roughly submission order. No submission is
// ever dropped: every task eventually runs (or its context expires while
// queued) and its own error is returned to the submitter unchanged.
type Limiter struct {
	mu        sync.Mutex
	maxStarts int
	window    time.Duration
	starts    []time.Time
	logger    zerolog.Logger
}

// NewLimiter creates a limiter admitting maxStarts task starts per window.
// Non-positive arguments fall back to the defaults.
func NewLimiter(maxStarts int, window time.Duration, logger zerolog.Logger) *Limiter {
	if maxStarts <= 0 {
		maxStarts = DefaultMaxStarts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		maxStarts: maxStarts,
		window:    window,
		logger:    logger,
	}
}

// Submit runs task once admission is granted and returns the task's error.
// It returns the context error if ctx expires while waiting in the queue.
func (l *Limiter) Submit(ctx context.Context, task func() error) error {
	queuedAt := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := time.Now()
		l.prune(now)
		if len(l.starts) < l.maxStarts {
			break
		}

		wait := l.starts[0].Add(l.window).Sub(now)
		l.logger.Debug().
			Dur("wait", wait).
			Int("window_starts", len(l.starts)).
			Msg("Rate limit reached, delaying task start")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter wait: %w", ctx.Err())
		case <-timer.C:
		}
	}

	submitsTotal.Inc()
	admissionWaitSeconds.Observe(time.Since(queuedAt).Seconds())

	l.starts = append(l.starts, time.Now())
	return task()
}

// prune drops start timestamps that have left the rolling window.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.starts) && !l.starts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.starts = append(l.starts[:0], l.starts[i:]...)
	}
}
