package ratelimiter

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// staleAfter is how long an untouched bucket survives before cleanup
// reclaims it.
const staleAfter = time.Hour

// bucketState is the stored side of one token bucket.
type bucketState struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
}

// MemoryStore keeps buckets in process memory. Suitable for a single
// instance; buckets are lost on restart and not shared across processes.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState

	cleanupInterval time.Duration
	logger          *slog.Logger
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often stale buckets are reclaimed.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if interval > 0 {
			ms.cleanupInterval = interval
		}
	}
}

// WithMemoryStoreLogger sets the logger for cleanup activity.
func WithMemoryStoreLogger(log *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if log != nil {
			ms.logger = log
		}
	}
}

// NewMemoryStore creates an in-memory store. The store works without its
// cleanup loop; it just never forgets idle keys. Start cleanup with Run.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:         make(map[string]*bucketState),
		cleanupInterval: 5 * time.Minute,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

// ConsumeTokens refills the bucket for key according to config, then consumes
// the requested tokens. Remaining goes negative when the request exceeded
// what was available; the caller decides what a deficit means.
func (ms *MemoryStore) ConsumeTokens(_ context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	b, ok := ms.buckets[key]
	if !ok {
		b = &bucketState{tokens: config.Capacity, lastRefill: now}
		ms.buckets[key] = b
	}

	// Whole refill intervals since the last refill, capped so a bucket
	// idle for weeks cannot overflow the token arithmetic.
	intervals := int64(now.Sub(b.lastRefill) / config.RefillInterval)
	if maxIntervals := int64(config.Capacity/config.RefillRate) + 1; intervals > maxIntervals {
		intervals = maxIntervals
	}
	if intervals > 0 {
		b.tokens = min(b.tokens+int(intervals)*config.RefillRate, config.Capacity)
		b.lastRefill = now
	}

	b.tokens -= tokens
	b.lastSeen = now

	return b.tokens, b.lastRefill.Add(config.RefillInterval), nil
}

// Reset drops the bucket for key; the next request starts from a full bucket.
func (ms *MemoryStore) Reset(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, key)
	return nil
}

// Run returns a closure suitable for errgroup.Go that reclaims stale buckets
// on the cleanup interval until the context ends.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		ticker := time.NewTicker(ms.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if removed := ms.removeStale(time.Now()); removed > 0 {
					ms.logger.Debug("stale rate limit buckets removed",
						slog.Int("count", removed))
				}
			}
		}
	}
}

func (ms *MemoryStore) removeStale(now time.Time) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	removed := 0
	for key, b := range ms.buckets {
		if now.Sub(b.lastSeen) > staleAfter {
			delete(ms.buckets, key)
			removed++
		}
	}
	return removed
}
