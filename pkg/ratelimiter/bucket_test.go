package ratelimiter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/pkg/ratelimiter"
)

func testConfig() ratelimiter.Config {
	return ratelimiter.Config{
		Capacity:       3,
		RefillRate:     3,
		RefillInterval: time.Hour,
	}
}

type failingStore struct{}

func (failingStore) ConsumeTokens(context.Context, string, int, ratelimiter.Config) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("backend down")
}

func (failingStore) Reset(context.Context, string) error {
	return errors.New("backend down")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, testConfig().Validate())

	for _, cfg := range []ratelimiter.Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1, RefillInterval: 0},
	} {
		require.ErrorIs(t, cfg.Validate(), ratelimiter.ErrInvalidConfig)
	}
}

func TestNewBucket(t *testing.T) {
	t.Parallel()

	_, err := ratelimiter.NewBucket(nil, testConfig())
	require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)

	_, err = ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{})
	require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
}

func TestBucket_Allow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), testConfig())
	require.NoError(t, err)

	for i := range 3 {
		result, err := bucket.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, result.Allowed(), "request %d should be allowed", i)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := bucket.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, result.Allowed())
	assert.Positive(t, result.RetryAfter())

	// Other keys keep their own bucket.
	other, err := bucket.Allow(ctx, "other-client")
	require.NoError(t, err)
	assert.True(t, other.Allowed())
}

func TestBucket_AllowN(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), testConfig())
	require.NoError(t, err)

	result, err := bucket.AllowN(ctx, "client", 3)
	require.NoError(t, err)
	assert.True(t, result.Allowed())
	assert.Equal(t, 0, result.Remaining)

	_, err = bucket.AllowN(ctx, "client", 0)
	require.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = bucket.AllowN(cancelled, "client", 1)
	require.ErrorIs(t, err, ratelimiter.ErrContextCancelled)
}

func TestBucket_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), testConfig())
	require.NoError(t, err)

	_, err = bucket.Allow(ctx, "client")
	require.NoError(t, err)

	status, err := bucket.Status(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Remaining)

	// Status does not consume.
	status, err = bucket.Status(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Remaining)
}

func TestBucket_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), testConfig())
	require.NoError(t, err)

	for range 3 {
		_, err := bucket.Allow(ctx, "client")
		require.NoError(t, err)
	}

	require.NoError(t, bucket.Reset(ctx, "client"))

	result, err := bucket.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, result.Allowed())
	assert.Equal(t, 2, result.Remaining)
}

func TestBucket_StoreFailure(t *testing.T) {
	t.Parallel()

	bucket, err := ratelimiter.NewBucket(failingStore{}, testConfig())
	require.NoError(t, err)

	_, err = bucket.Allow(context.Background(), "client")
	require.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}
