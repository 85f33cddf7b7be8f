package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryLimiter(perMinute int, now *time.Time) *MemoryLimiter {
	m := NewMemoryLimiter(perMinute)
	m.now = func() time.Time { return *now }
	return m
}

func TestMemoryLimiter_BurstThenReject(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestMemoryLimiter(3, &now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := m.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := m.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.True(t, d.ResetAt.After(now))
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestMemoryLimiter(1, &now)
	ctx := context.Background()

	d, _ := m.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	d, _ = m.Allow(ctx, "a")
	assert.False(t, d.Allowed)
	d, _ = m.Allow(ctx, "b")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_Refills(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestMemoryLimiter(2, &now)
	ctx := context.Background()

	_, _ = m.Allow(ctx, "a")
	_, _ = m.Allow(ctx, "a")
	d, _ := m.Allow(ctx, "a")
	require.False(t, d.Allowed)

	now = now.Add(30 * time.Second)
	d, _ = m.Allow(ctx, "a")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestMemoryLimiter(5, &now)
	ctx := context.Background()

	_, _ = m.Allow(ctx, "stale")
	now = now.Add(10 * time.Minute)
	_, _ = m.Allow(ctx, "fresh")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, m.Cleanup())
	assert.Len(t, m.limiters, 1)
	assert.Contains(t, m.limiters, "fresh")
}
