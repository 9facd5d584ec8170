package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

const sweepEvery = 1024

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucket 單機版，每個 key 一個桶，取用時才補 token
type TokenBucket struct {
	LimiterConfig
	mu      sync.Mutex
	buckets map[string]*bucket
	calls   int
	now     func() time.Time
}

func NewTokenBucket(config *LimiterConfig) *TokenBucket {
	t := &TokenBucket{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	if config != nil {
		t.LimiterConfig = config.normalize()
	} else {
		t.LimiterConfig = GetDefaultLimiterConfig()
	}
	return t
}

func (t *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(t.Capacity), lastRefill: now}
		t.buckets[key] = b
	}
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(t.Capacity), b.tokens+elapsed*t.RatePS)
		b.lastRefill = now
	}

	t.calls++
	if t.calls%sweepEvery == 0 {
		t.sweep(now)
	}

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// sweep 移除已經補滿的桶，效果等同新建
func (t *TokenBucket) sweep(now time.Time) {
	full := t.fullRefill()
	for k, b := range t.buckets {
		if now.Sub(b.lastRefill) >= full {
			delete(t.buckets, k)
		}
	}
}
