package guard_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"judgegate/internal/common/cache"
	"judgegate/internal/judge/guard"
	appErr "judgegate/pkg/errors"
)

func newRedisGuard(t *testing.T, ttl time.Duration) (*guard.Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redisCache, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new redis cache failed: %v", err)
	}
	return guard.New(redisCache, ttl), mr
}

func TestAcquireRejectsDuplicate(t *testing.T) {
	t.Parallel()
	g, _ := newRedisGuard(t, time.Minute)
	ctx := context.Background()

	if err := g.Acquire(ctx, "s-1"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	err := g.Acquire(ctx, "s-1")
	if !appErr.Is(err, appErr.SubmissionInFlight) {
		t.Fatalf("expected SubmissionInFlight, got %v", err)
	}
	// A different submission is unaffected.
	if err := g.Acquire(ctx, "s-2"); err != nil {
		t.Fatalf("unrelated acquire failed: %v", err)
	}
}

func TestReleaseFreesTheSlot(t *testing.T) {
	t.Parallel()
	g, _ := newRedisGuard(t, time.Minute)
	ctx := context.Background()

	if err := g.Acquire(ctx, "s-1"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	g.Release(ctx, "s-1")
	if err := g.Acquire(ctx, "s-1"); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestSlotExpiresAfterTTL(t *testing.T) {
	t.Parallel()
	g, mr := newRedisGuard(t, time.Minute)
	ctx := context.Background()

	if err := g.Acquire(ctx, "s-1"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if err := g.Acquire(ctx, "s-1"); err != nil {
		t.Fatalf("acquire after ttl expiry failed: %v", err)
	}
}

func TestAcquireRequiresSubmissionID(t *testing.T) {
	t.Parallel()
	g, _ := newRedisGuard(t, time.Minute)

	err := g.Acquire(context.Background(), "")
	if !appErr.Is(err, appErr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
}

func TestGuardOnMemoryCache(t *testing.T) {
	t.Parallel()
	g := guard.New(cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	if err := g.Acquire(ctx, "s-1"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := g.Acquire(ctx, "s-1"); !appErr.Is(err, appErr.SubmissionInFlight) {
		t.Fatalf("expected SubmissionInFlight, got %v", err)
	}
	g.Release(ctx, "s-1")
	if err := g.Acquire(ctx, "s-1"); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}
