package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestGuard(t *testing.T) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGuard(client), mr
}

func TestTryAcquireFirstDeliveryWins(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	acquired, err := guard.TryAcquire(ctx, "call_ended:abc", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("first delivery should acquire the lock")
	}

	acquired, err = guard.TryAcquire(ctx, "call_ended:abc", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Fatal("second delivery within TTL should be rejected")
	}
}

func TestTryAcquireIsScopedByKey(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	if ok, _ := guard.TryAcquire(ctx, "call_ended:abc", time.Minute); !ok {
		t.Fatal("expected acquire for call_ended:abc")
	}
	if ok, _ := guard.TryAcquire(ctx, "call_analyzed:abc", time.Minute); !ok {
		t.Fatal("a different event type for the same call is not a duplicate")
	}
	if ok, _ := guard.TryAcquire(ctx, "call_ended:def", time.Minute); !ok {
		t.Fatal("the same event type for a different call is not a duplicate")
	}
}

func TestReleaseAllowsReprocessing(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	if ok, _ := guard.TryAcquire(ctx, "call_ended:abc", time.Minute); !ok {
		t.Fatal("expected first acquire to succeed")
	}
	if err := guard.Release(ctx, "call_ended:abc"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if ok, _ := guard.TryAcquire(ctx, "call_ended:abc", time.Minute); !ok {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestLockExpiresAfterTTL(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	if ok, _ := guard.TryAcquire(ctx, "call_ended:abc", time.Minute); !ok {
		t.Fatal("expected first acquire to succeed")
	}

	mr.FastForward(2 * time.Minute)

	if ok, _ := guard.TryAcquire(ctx, "call_ended:abc", time.Minute); !ok {
		t.Fatal("expected acquire to succeed after TTL expiry")
	}
}
