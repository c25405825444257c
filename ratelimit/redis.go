package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow is the authoritative fixed-window limiter backed by Redis, for
// deployments where enforcement must be shared across processes. The
// check-and-increment is atomic through INCR; denied requests do increment
// the counter, but the window never moves because the expiry is set only
// when the key is created, so the reset time callers are told stays honest.
//
// Any Redis failure is surfaced as an error. The authoritative layer never
// fails open.
type RedisWindow struct {
	client *redis.Client
	window time.Duration
	prefix string
}

// NewRedisWindow creates a Redis-backed limiter. keyPrefix is prepended to
// all keys and typically ends with a colon.
func NewRedisWindow(client *redis.Client, window time.Duration, keyPrefix string) *RedisWindow {
	if keyPrefix == "" {
		keyPrefix = "argus:ratelimit:"
	}
	return &RedisWindow{
		client: client,
		window: window,
		prefix: keyPrefix,
	}
}

// NewRedisWindowFromAddr connects to Redis and returns a limiter.
func NewRedisWindowFromAddr(addr, password string, db int, window time.Duration) (*RedisWindow, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ratelimit: failed to connect to redis: %w", err)
	}

	return NewRedisWindow(client, window, ""), nil
}

// Check implements Checker.
func (w *RedisWindow) Check(ctx context.Context, scope Scope, id string, max int) (Result, error) {
	k := w.prefix + key(scope, id)

	count, err := w.client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: redis incr failed: %w", err)
	}

	if count == 1 {
		if err := w.client.PExpire(ctx, k, w.window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: redis expire failed: %w", err)
		}
	}

	ttl, err := w.client.PTTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: redis ttl failed: %w", err)
	}
	if ttl < 0 {
		// Key lost its expiry (e.g. a crash between INCR and PEXPIRE).
		// Re-arm it so the key cannot live forever.
		ttl = w.window
		if err := w.client.PExpire(ctx, k, w.window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: redis expire failed: %w", err)
		}
	}
	resetAt := time.Now().Add(ttl)

	if count > int64(max) {
		return Result{Allowed: false, Limit: max, Remaining: 0, ResetAt: resetAt}, nil
	}

	return Result{
		Allowed:   true,
		Limit:     max,
		Remaining: max - int(count),
		ResetAt:   resetAt,
	}, nil
}

// Close closes the Redis connection.
func (w *RedisWindow) Close() error {
	return w.client.Close()
}
