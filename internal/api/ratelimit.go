package api

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter decides whether a request identified by key may proceed.
// Injected into the router so tests can swap in a deterministic limiter.
type RateLimiter interface {
	Allow(key string) bool
}

// TokenBucket is a single refilling bucket.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   int
	tokens     int
	refillRate int // tokens per second
	lastRefill time.Time
}

// NewTokenBucket builds a full bucket.
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow takes one token when available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()

	refill := int(now.Sub(tb.lastRefill).Seconds()) * tb.refillRate
	if refill > 0 {
		tb.tokens += refill
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}

		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--

		return true
	}

	return false
}

// BucketLimiter keeps one token bucket per key, evicting idle buckets so the
// map cannot grow without bound.
type BucketLimiter struct {
	mu         sync.RWMutex
	buckets    map[string]*TokenBucket
	capacity   int
	refillRate int
}

// NewBucketLimiter builds a limiter and starts its idle-bucket sweeper.
func NewBucketLimiter(capacity, refillRate int) *BucketLimiter {
	rl := &BucketLimiter{
		buckets:    make(map[string]*TokenBucket),
		capacity:   capacity,
		refillRate: refillRate,
	}

	go rl.sweep()

	return rl
}

// Allow implements RateLimiter
func (rl *BucketLimiter) Allow(key string) bool {
	return rl.bucket(key).Allow()
}

func (rl *BucketLimiter) bucket(key string) *TokenBucket {
	rl.mu.RLock()
	bucket, ok := rl.buckets[key]
	rl.mu.RUnlock()

	if ok {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, ok := rl.buckets[key]; ok {
		return bucket
	}

	bucket = NewTokenBucket(rl.capacity, rl.refillRate)
	rl.buckets[key] = bucket

	return bucket
}

func (rl *BucketLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()

		now := time.Now()
		for key, bucket := range rl.buckets {
			bucket.mu.Lock()
			if now.Sub(bucket.lastRefill) > 10*time.Minute {
				delete(rl.buckets, key)
			}
			bucket.mu.Unlock()
		}

		rl.mu.Unlock()
	}
}

// rateLimit gates requests by client IP and path. Relies on middleware.RealIP
// running earlier in the chain.
func rateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.RemoteAddr + r.URL.Path) {
				writeError(w, http.StatusTooManyRequests, errCodeRateLimited, "too many requests")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
