package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	scope := map[string]string{"topic": "hello"}

	_, ok := c.Get(ctx, "echo", "speak", scope)
	if ok {
		t.Fatal("expected cache miss")
	}

	c.Set(ctx, "echo", "speak", scope, true)
	got, ok := c.Get(ctx, "echo", "speak", scope)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got {
		t.Fatal("expected allowed")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	scope := map[string]string{"topic": "hello"}
	c.Set(ctx, "echo", "speak", scope, true)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "echo", "speak", scope)
	if ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidateHandler(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "echo", "speak", map[string]string{"topic": "a"}, true)
	c.Set(ctx, "echo", "shout", map[string]string{"topic": "b"}, false)
	c.Set(ctx, "other", "speak", map[string]string{"topic": "a"}, true)

	c.InvalidateHandler(ctx, "echo")

	if _, ok := c.Get(ctx, "echo", "speak", map[string]string{"topic": "a"}); ok {
		t.Fatal("expected echo:speak to be invalidated")
	}
	if _, ok := c.Get(ctx, "echo", "shout", map[string]string{"topic": "b"}); ok {
		t.Fatal("expected echo:shout to be invalidated")
	}
	if _, ok := c.Get(ctx, "other", "speak", map[string]string{"topic": "a"}); !ok {
		t.Fatal("expected other handler's entry to survive invalidation")
	}
}

func TestMemoryCacheScopeOrderIndependence(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "echo", "speak", map[string]string{"a": "1", "b": "2"}, true)
	got, ok := c.Get(ctx, "echo", "speak", map[string]string{"b": "2", "a": "1"})
	if !ok || !got {
		t.Fatal("expected cache key to be independent of map iteration order")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	c.Set(ctx, "a", "p", nil, true)
	c.Set(ctx, "b", "p", nil, true)
	c.Set(ctx, "c", "p", nil, true)

	if len(c.entries) > 2 {
		t.Fatalf("expected eviction to cap size at 2, got %d", len(c.entries))
	}
}
