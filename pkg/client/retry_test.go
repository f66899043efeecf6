package client

import (
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.BaseDelay != 1*time.Second {
		t.Errorf("BaseDelay = %v, want 1s", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.RateLimitWait != 60*time.Second {
		t.Errorf("RateLimitWait = %v, want 60s", cfg.RateLimitWait)
	}
}

func TestBackoffDelay_Doubling(t *testing.T) {
	cfg := RetryConfig{
		BaseDelay: 1 * time.Second,
		MaxDelay:  30 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // capped
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := backoffDelay(cfg, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffDelay_CapBelowBase(t *testing.T) {
	cfg := RetryConfig{
		BaseDelay: 10 * time.Second,
		MaxDelay:  3 * time.Second,
	}

	if got := backoffDelay(cfg, 0); got != 3*time.Second {
		t.Errorf("backoffDelay = %v, want cap of 3s", got)
	}
}

func TestWithJitter_Range(t *testing.T) {
	base := 1 * time.Second
	for i := 0; i < 50; i++ {
		d := withJitter(base)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("withJitter(%v) = %v, outside [800ms, 1200ms]", base, d)
		}
	}
}
