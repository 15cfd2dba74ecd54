package cache_test

import (
	"context"
	"testing"
	"time"

	"judgegate/internal/common/cache"
)

func TestMemoryCacheSetNX(t *testing.T) {
	t.Parallel()
	c := cache.NewMemoryCache()
	ctx := context.Background()

	acquired, err := c.SetNX(ctx, "k", "v1", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("first SetNX: acquired=%v err=%v", acquired, err)
	}
	acquired, err = c.SetNX(ctx, "k", "v2", time.Minute)
	if err != nil || acquired {
		t.Fatalf("second SetNX must not acquire: acquired=%v err=%v", acquired, err)
	}

	value, err := c.Get(ctx, "k")
	if err != nil || value != "v1" {
		t.Fatalf("expected original value, got %q err=%v", value, err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	t.Parallel()
	c := cache.NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 20*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	value, err := c.Get(ctx, "k")
	if err != nil || value != "" {
		t.Fatalf("expected expired entry to read empty, got %q err=%v", value, err)
	}
	acquired, err := c.SetNX(ctx, "k", "v2", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("SetNX after expiry: acquired=%v err=%v", acquired, err)
	}
}

func TestMemoryCacheGetMissIsEmpty(t *testing.T) {
	t.Parallel()
	c := cache.NewMemoryCache()

	value, err := c.Get(context.Background(), "absent")
	if err != nil || value != "" {
		t.Fatalf("expected miss to read empty, got %q err=%v", value, err)
	}
}

func TestMemoryCacheDelAndExists(t *testing.T) {
	t.Parallel()
	c := cache.NewMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, "a", "1", 0)
	_ = c.Set(ctx, "b", "2", 0)

	count, err := c.Exists(ctx, "a", "b", "c")
	if err != nil || count != 2 {
		t.Fatalf("expected 2 existing keys, got %d err=%v", count, err)
	}
	if err := c.Del(ctx, "a"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	count, err = c.Exists(ctx, "a", "b")
	if err != nil || count != 1 {
		t.Fatalf("expected 1 existing key after del, got %d err=%v", count, err)
	}
}
