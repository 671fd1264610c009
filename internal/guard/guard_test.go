package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := rl.Check(ctx, "test-key")
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	rl.Check(ctx, "test-key")
	rl.Check(ctx, "test-key")
	result := rl.Check(ctx, "test-key")

	assert.False(t, result.Allowed)
	assert.Equal(t, "rate_limiter", result.Guard)
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	r1 := rl.Check(ctx, "key-a")
	r2 := rl.Check(ctx, "key-b")

	assert.True(t, r1.Allowed)
	assert.True(t, r2.Allowed)
}

func TestTTLStore_PutGet(t *testing.T) {
	store := NewTTLStore[string](time.Minute)

	store.Put("k", "v")
	v, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestTTLStore_ExpiredEntryReadsAsAbsent(t *testing.T) {
	store := NewTTLStore[string](10 * time.Millisecond)

	store.Put("k", "v")
	time.Sleep(20 * time.Millisecond)

	_, ok := store.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "expired read should also evict")
}

func TestTTLStore_PutResetsExpiry(t *testing.T) {
	store := NewTTLStore[int](50 * time.Millisecond)

	store.Put("k", 1)
	time.Sleep(30 * time.Millisecond)
	store.Put("k", 2)
	time.Sleep(30 * time.Millisecond)

	v, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTLStore_Delete(t *testing.T) {
	store := NewTTLStore[string](time.Minute)

	store.Put("k", "v")
	store.Delete("k")

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestTTLStore_JanitorSweeps(t *testing.T) {
	store := NewTTLStore[string](10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store.Put("a", "1")
	store.Put("b", "2")
	store.StartJanitor(ctx, 15*time.Millisecond)

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}
