package registry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	redisStatusKey = "edgecert:server-status"

	fieldMainServer          = "mainServer"
	fieldSecondServer        = "secondServer"
	fieldMaintenanceComplete = "maintenanceComplete"
)

// RedisRegistry stores the status record in a Redis hash. Field updates are
// atomic on the server side, which removes the file backend's lost-update
// window when sibling processes write concurrently.
type RedisRegistry struct {
	client *redis.Client
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry creates a Redis-backed registry and verifies connectivity.
func NewRedisRegistry(ctx context.Context, connectionURL string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis URL: %w", ErrRegistry, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping failed: %w", ErrRegistry, err)
	}

	return &RedisRegistry{client: client}, nil
}

// Close releases the underlying Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// Read returns the current status; missing fields read as false.
func (r *RedisRegistry) Read(ctx context.Context) (Status, error) {
	var status Status

	fields, err := r.client.HGetAll(ctx, redisStatusKey).Result()
	if err != nil {
		return status, fmt.Errorf("%w: read status hash: %w", ErrRegistry, err)
	}

	status.MainServer = parseBoolField(fields[fieldMainServer])
	status.SecondServer = parseBoolField(fields[fieldSecondServer])
	status.MaintenanceComplete = parseBoolField(fields[fieldMaintenanceComplete])
	return status, nil
}

func parseBoolField(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (r *RedisRegistry) setField(ctx context.Context, field string, value bool) error {
	if err := r.client.HSet(ctx, redisStatusKey, field, strconv.FormatBool(value)).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrRegistry, field, err)
	}
	return nil
}

// SetMainServer records whether the main server is up.
func (r *RedisRegistry) SetMainServer(ctx context.Context, up bool) error {
	return r.setField(ctx, fieldMainServer, up)
}

// SetSecondServer records whether the second server is up.
func (r *RedisRegistry) SetSecondServer(ctx context.Context, up bool) error {
	return r.setField(ctx, fieldSecondServer, up)
}

// SetMaintenanceComplete records whether maintenance has finished.
func (r *RedisRegistry) SetMaintenanceComplete(ctx context.Context, done bool) error {
	return r.setField(ctx, fieldMaintenanceComplete, done)
}
