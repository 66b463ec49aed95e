package ratelimit

import (
	"sync"
	"time"
)

// Policy describes a token bucket: it holds at most Capacity tokens and gains
// RefillAmount tokens for every full RefillWindow that elapses.
type Policy struct {
	Capacity     int64
	RefillAmount int64
	RefillWindow time.Duration
}

// Bucket is a single token bucket. Refill and consume happen under one lock,
// so concurrent callers never double-spend.
type Bucket struct {
	mu         sync.Mutex
	policy     Policy
	tokens     int64
	lastRefill time.Time
	now        func() time.Time
}

func newBucket(p Policy, now func() time.Time) *Bucket {
	return &Bucket{
		policy:     p,
		tokens:     p.Capacity,
		lastRefill: now(),
		now:        now,
	}
}

// TryConsume refills the bucket for every full window since the last refill,
// then takes n tokens if that many are available. On rejection the bucket is
// left as it was after the refill.
func (b *Bucket) TryConsume(n int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// Available returns the current token count after applying any pending refill.
func (b *Bucket) Available() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// Policy returns the bucket's configuration.
func (b *Bucket) Policy() Policy {
	return b.policy
}

// refill must be called with b.mu held. lastRefill only advances by whole
// windows so partial progress toward the next window is kept.
func (b *Bucket) refill() {
	if b.policy.RefillWindow <= 0 || b.policy.RefillAmount <= 0 {
		return
	}
	elapsed := b.now().Sub(b.lastRefill)
	if elapsed < b.policy.RefillWindow {
		return
	}
	windows := int64(elapsed / b.policy.RefillWindow)
	b.lastRefill = b.lastRefill.Add(time.Duration(windows) * b.policy.RefillWindow)

	if b.tokens >= b.policy.Capacity {
		return
	}
	// Bound the multiplication so a very long idle period cannot overflow.
	missing := b.policy.Capacity - b.tokens
	if windows >= (missing+b.policy.RefillAmount-1)/b.policy.RefillAmount {
		b.tokens = b.policy.Capacity
		return
	}
	b.tokens += windows * b.policy.RefillAmount
}
