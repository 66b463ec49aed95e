// Package ratelimit implements per-process token-bucket admission control.
//
// Buckets are created lazily on the first request for a key and live for the
// lifetime of the process. There is no eviction: a flood of distinct client
// addresses grows the table without bound. Len exposes the table size so the
// growth can be monitored.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter holds one bucket per key.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
	now     func() time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source used by every bucket.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter returns an empty Limiter.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*Bucket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ResolveBucket returns the bucket for key, creating a full one from p if the
// key has not been seen. Concurrent callers with the same key always receive
// the same bucket. The policy of an existing bucket is never changed.
func (l *Limiter) ResolveBucket(key string, p Policy) *Bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	b = newBucket(p, l.now)
	l.buckets[key] = b
	return b
}

// Allow resolves the bucket for key and tries to take a single token from it.
func (l *Limiter) Allow(key string, p Policy) bool {
	return l.ResolveBucket(key, p).TryConsume(1)
}

// Len returns the number of buckets currently held.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}
