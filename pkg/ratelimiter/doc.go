// Package ratelimiter implements token bucket rate limiting over a pluggable
// Store. A bucket holds up to Capacity tokens and gains RefillRate tokens
// every RefillInterval; each request consumes tokens and is denied once the
// bucket runs dry. Bursts up to the capacity pass while the average rate
// stays bounded.
//
//	store := ratelimiter.NewMemoryStore()
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       100,
//		RefillRate:     100,
//		RefillInterval: time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//
//	result, err := limiter.Allow(ctx, clientIP)
//	if err != nil {
//		// Storage failure. The caller decides whether to fail open.
//	}
//	if !result.Allowed() {
//		retryIn := result.RetryAfter()
//		// Deny with a Retry-After hint.
//	}
//
// A denied request still records its deficit, so Result reports how far over
// the limit the key is and when the next refill lands.
//
// MemoryStore is the only shipped backend: per-process buckets with periodic
// reclamation of idle keys (start it with Run under an errgroup). The Store
// interface is the seam for a shared backend if limits ever need to span
// processes.
package ratelimiter
