package cache

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client, skipping if unavailable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestManager_SetGet(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{
		Endpoint: "/rest/api/2/search",
		Query:    url.Values{"startAt": []string{"0"}},
	}
	entry := NewEntry([]byte(`{"total":1}`), 200, time.Minute)

	if err := m.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := m.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Data) != `{"total":1}` {
		t.Errorf("Data = %q", got.Data)
	}
	if got.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", got.StatusCode)
	}
}

func TestManager_Get_Miss(t *testing.T) {
	m := NewManager(setupTestRedis(t))

	_, err := m.Get(context.Background(), Key{Endpoint: "/rest/api/2/project/NOPE"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get on absent key = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Set_ExpiredEntryNotStored(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{Endpoint: "/rest/api/2/search"}
	entry := &Entry{
		Data:    []byte("stale"),
		Expires: time.Now().Add(-time.Minute),
	}

	if err := m.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := m.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired entry should not be stored, Get = %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{Endpoint: "/rest/api/2/project/HADOOP"}
	if err := m.Set(ctx, key, NewEntry([]byte("x"), 200, time.Minute)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after delete = %v, want ErrCacheMiss", err)
	}
}
