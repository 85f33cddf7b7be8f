package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. It is
// the fallback when no Redis is configured and only holds for a single
// instance.
type MemoryLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*memoryEntry
	limit    int
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryLimiter allows perMinute requests per key, refilled evenly, with
// bursts up to perMinute.
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &MemoryLimiter{
		limiters: make(map[string]*memoryEntry),
		limit:    perMinute,
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		ttl:      15 * time.Minute,
		now:      time.Now,
	}
}

func (m *MemoryLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	m.mu.RLock()
	entry, ok := m.limiters[key]
	m.mu.RUnlock()
	if ok {
		m.mu.Lock()
		entry.lastSeen = now
		m.mu.Unlock()
		return entry.limiter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	entry = &memoryEntry{limiter: rate.NewLimiter(m.rate, m.burst), lastSeen: now}
	m.limiters[key] = entry
	return entry.limiter
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()
	l := m.getLimiter(key, now)

	allowed := l.AllowN(now, 1)
	tokens := l.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	reset := now
	if tokens < 1 {
		reset = now.Add(time.Duration((1 - tokens) / float64(m.rate) * float64(time.Second)))
	}

	return Decision{
		Allowed:   allowed,
		Limit:     m.limit,
		Remaining: remaining,
		ResetAt:   reset,
	}, nil
}

// Cleanup drops buckets not used within the idle TTL and returns how many
// were removed.
func (m *MemoryLimiter) Cleanup() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, entry := range m.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(m.limiters, key)
			removed++
		}
	}
	return removed
}
