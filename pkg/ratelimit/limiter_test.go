package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSubmit_RunsTask(t *testing.T) {
	l := NewLimiter(10, time.Second, zerolog.Nop())

	called := false
	err := l.Submit(context.Background(), func() error {
		called = true
		return nil
	})

	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !called {
		t.Error("task was not executed")
	}
}

func TestSubmit_PropagatesTaskError(t *testing.T) {
	l := NewLimiter(10, time.Second, zerolog.Nop())

	taskErr := errors.New("boom")
	err := l.Submit(context.Background(), func() error { return taskErr })

	if !errors.Is(err, taskErr) {
		t.Errorf("Submit error = %v, want %v", err, taskErr)
	}
}

func TestSubmit_EnforcesRate(t *testing.T) {
	// 2 starts per 100ms: the third of three tasks must wait for the window.
	l := NewLimiter(2, 100*time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Submit(ctx, func() error { return nil }); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 90*time.Millisecond {
		t.Errorf("3 tasks at 2/100ms finished in %v, expected >= ~100ms", elapsed)
	}
}

func TestSubmit_SingleInFlight(t *testing.T) {
	l := NewLimiter(100, time.Second, zerolog.Nop())
	ctx := context.Background()

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Submit(ctx, func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxInFlight); got != 1 {
		t.Errorf("max in-flight tasks = %d, want 1", got)
	}
}

func TestSubmit_ContextCancelledWhileWaiting(t *testing.T) {
	// Fill the window so the next submit has to wait, then cancel.
	l := NewLimiter(1, time.Minute, zerolog.Nop())
	if err := l.Submit(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := l.Submit(ctx, func() error {
		called = true
		return nil
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit error = %v, want context.DeadlineExceeded", err)
	}
	if called {
		t.Error("task must not run after context expiry")
	}
}

func TestPrune(t *testing.T) {
	l := NewLimiter(5, 100*time.Millisecond, zerolog.Nop())
	now := time.Now()

	l.starts = []time.Time{
		now.Add(-300 * time.Millisecond),
		now.Add(-150 * time.Millisecond),
		now.Add(-50 * time.Millisecond),
		now.Add(-10 * time.Millisecond),
	}

	l.prune(now)

	if len(l.starts) != 2 {
		t.Errorf("after prune, %d starts remain, want 2", len(l.starts))
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0, zerolog.Nop())

	if l.maxStarts != DefaultMaxStarts {
		t.Errorf("maxStarts = %d, want %d", l.maxStarts, DefaultMaxStarts)
	}
	if l.window != DefaultWindow {
		t.Errorf("window = %v, want %v", l.window, DefaultWindow)
	}
}
